package config

import (
	"log"

	"github.com/spf13/viper"
)

const devSessionSecret = "iedc-dev-session-secret"

type Config struct {
	Port                          string `mapstructure:"PORT"`
	StoreDriver                   string `mapstructure:"STORE_DRIVER"`
	DataDir                       string `mapstructure:"DATA_DIR"`
	DatabasePath                  string `mapstructure:"DATABASE_PATH"`
	DatabaseURL                   string `mapstructure:"DATABASE_URL"`
	SessionSecret                 string `mapstructure:"SESSION_SECRET"`
	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	ExportPrefix                  string `mapstructure:"EXPORT_PREFIX"`
	EventsSeedFile                string `mapstructure:"EVENTS_SEED_FILE"`
	UpcomingLimit                 int    `mapstructure:"UPCOMING_LIMIT"`
	EnableMetrics                 bool   `mapstructure:"ENABLE_METRICS"`
}

func LoadConfig() *Config {
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("STORE_DRIVER", "json")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("DATABASE_PATH", "iedc.db")
	viper.SetDefault("SESSION_SECRET", devSessionSecret)
	viper.SetDefault("EXPORT_PREFIX", "IEDC")
	viper.SetDefault("UPCOMING_LIMIT", 3)
	viper.SetDefault("ENABLE_METRICS", true)

	viper.BindEnv("DATABASE_URL")
	viper.BindEnv("DISCORD_BOT_TOKEN")
	viper.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	viper.BindEnv("EVENTS_SEED_FILE")

	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	if config.SessionSecret == devSessionSecret {
		log.Printf("WARNING: SESSION_SECRET is not set, using the development secret")
	}

	return &config
}
