package cli

import (
	"log/slog"
	"os"
	"time"

	"github.com/eczanelab/pharmapos/internal/config"
	"github.com/eczanelab/pharmapos/pkg/alerts"
	"github.com/eczanelab/pharmapos/pkg/storage"
	"github.com/eczanelab/pharmapos/pkg/watcher"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pharmapos",
	Short: "PharmaPOS - Pharmacy point-of-sale backend with stock alerting",
	Long: `PharmaPOS runs the pharmacy automation backend: drug catalog, sales,
customers and reporting over a REST API, with a background stock watcher
that classifies low and critical stock, dispatches email/SMS alerts and
places automatic replenishment orders.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.pharmapos/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initNotifiers creates alert notifiers from config. Disabled channels
// produce no notifier; demo mode suppresses dispatch in the watcher
// regardless.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Email.Enabled && cfg.Email.SMTPHost != "" {
		notifiers = append(notifiers, alerts.NewEmailNotifier(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.Address,
			cfg.Email.Password,
			cfg.Email.AdminEmails,
			cfg.Alerts.LowStockThreshold,
		))
	}

	if cfg.SMS.Enabled && cfg.SMS.APIURL != "" {
		notifiers = append(notifiers, alerts.NewSMSNotifier(
			cfg.SMS.APIURL,
			cfg.SMS.APIKey,
			cfg.SMS.UserCode,
			cfg.SMS.Header,
			cfg.SMS.AdminPhones,
		))
	}

	return notifiers
}

// watcherSettings maps config to the watcher's runtime settings.
func watcherSettings(cfg *config.Config) watcher.Settings {
	return watcher.Settings{
		Demo:              cfg.Demo,
		LowStockThreshold: cfg.Alerts.LowStockThreshold,
		CriticalThreshold: cfg.Alerts.CriticalStockThreshold,
		AutoOrderEnabled:  cfg.Alerts.AutoOrderEnabled,
		AutoOrderQuantity: cfg.Alerts.AutoOrderQuantity,
		CheckInterval:     time.Duration(cfg.Alerts.CheckIntervalMinutes) * time.Minute,
	}
}

// parseDurationOr parses a duration string, falling back on empty or
// malformed input.
func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
