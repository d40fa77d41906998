package notifier

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
	"github.com/iedc-snmimt/iedc-site/internal/models"
)

type Notifier interface {
	NotifyRegistration(event models.Event, registration models.Registration) error
	NotifyContactMessage(message models.ContactMessage) error
}

// messageSender is the part of *discordgo.Session the notifier needs.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	session   messageSender
	channelID string
}

// NewDiscordNotifier opens a bot session. Both token and channel are required.
func NewDiscordNotifier(botToken, channelID string) (*DiscordNotifier, error) {
	if botToken == "" {
		return nil, fmt.Errorf("discord bot token is empty")
	}
	if channelID == "" {
		return nil, fmt.Errorf("discord channel ID is empty")
	}
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return &DiscordNotifier{session: session, channelID: channelID}, nil
}

func (n *DiscordNotifier) NotifyRegistration(event models.Event, registration models.Registration) error {
	messageStr := ""
	if registration.Message != "" {
		messageStr = fmt.Sprintf("\n**Message:** %s", registration.Message)
	}

	message := fmt.Sprintf("🎉 **New Registration**\n**Event:** %s (%s %s)\n**Name:** %s\n**Department:** %s, year %s\n**Seats:** %d/%d taken%s",
		event.Title,
		event.Date,
		event.Time,
		registration.Name,
		registration.Department,
		registration.Year,
		event.Registered,
		event.Seats,
		messageStr,
	)
	return n.send(message)
}

func (n *DiscordNotifier) NotifyContactMessage(msg models.ContactMessage) error {
	message := fmt.Sprintf("📬 **New Contact Message**\n**From:** %s <%s>\n**Subject:** %s\n%s",
		msg.Name,
		msg.Email,
		msg.Subject,
		msg.Message,
	)
	return n.send(message)
}

func (n *DiscordNotifier) send(message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	_, err := n.session.ChannelMessageSend(n.channelID, message)
	if err != nil {
		log.Printf("Failed to send discord message: %v", err)
		return err
	}
	return nil
}
