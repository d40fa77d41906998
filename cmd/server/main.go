package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/iedc-snmimt/iedc-site/internal/config"
	"github.com/iedc-snmimt/iedc-site/internal/handlers"
)

var rootCmd = &cobra.Command{
	Use:   "iedc-server",
	Short: "IEDC site: events, registrations and contact inbox",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the registrations spreadsheet to a file",
	RunE:  runExport,
}

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Recompute event registration counters from the registrations",
	RunE:  runReconcile,
}

func init() {
	rootCmd.PersistentFlags().String("store", "", "store driver: json, memory, sqlite or postgres")
	rootCmd.PersistentFlags().String("data-dir", "", "directory of the JSON collections")
	rootCmd.PersistentFlags().String("seed", "", "YAML file with the event catalog seed")
	rootCmd.PersistentFlags().String("port", "", "HTTP port")

	// Bind flags to viper
	_ = viper.BindPFlag("STORE_DRIVER", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("DATA_DIR", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("EVENTS_SEED_FILE", rootCmd.PersistentFlags().Lookup("seed"))
	_ = viper.BindPFlag("PORT", rootCmd.PersistentFlags().Lookup("port"))

	exportCmd.Flags().Int("event", 0, "export only this event id")
	exportCmd.Flags().StringP("output", "o", "", "output file (default: the download filename)")

	rootCmd.AddCommand(serveCmd, exportCmd, reconcileCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.LoadConfig()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if fixed, err := a.engine.Reconcile(ctx); err != nil {
		log.Printf("Startup reconcile failed: %v", err)
	} else if fixed > 0 {
		log.Printf("Startup reconcile corrected %d event(s)", fixed)
	}

	r := chi.NewRouter()
	handlers.RegisterRoutes(r,
		handlers.NewEventHandler(a.catalog, a.inbox, a.flash, cfg.UpcomingLimit),
		handlers.NewRegistrationHandler(a.engine, a.catalog, a.flash, a.notifier, a.metrics),
		handlers.NewAdminHandler(a.engine, a.catalog, a.exporter, a.inbox, a.flash, a.metrics),
		handlers.NewContactHandler(a.inbox, a.flash, a.notifier, a.metrics),
		a.metricsHandler,
	)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.LoadConfig()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	var eventID *int
	filename := a.exporter.AllFilename(time.Now())
	if id, _ := cmd.Flags().GetInt("event"); id != 0 {
		event, err := a.catalog.GetEvent(ctx, id)
		if err != nil {
			return err
		}
		eventID = &id
		filename = a.exporter.EventFilename(event.Title, time.Now())
	}
	if out, _ := cmd.Flags().GetString("output"); out != "" {
		filename = out
	}

	buf, err := a.exporter.Export(ctx, eventID)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filename, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported registrations to %s\n", filename)
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.LoadConfig()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	fixed, err := a.engine.Reconcile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Corrected %d event(s)\n", fixed)
	return nil
}
