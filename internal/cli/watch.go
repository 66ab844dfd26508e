package cli

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eczanelab/pharmapos/internal/inventory"
	"github.com/eczanelab/pharmapos/pkg/watcher"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the stock watcher standalone against a remote backend API",
	Long: `Watch polls a running backend over HTTP on the configured interval,
classifies the catalog by stock level and dispatches alerts. Use it to run
the alerting pipeline on a separate host from the backend.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().String("api", "", "Backend API base URL (default from config)")
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if api, _ := cmd.Flags().GetString("api"); api != "" {
		cfg.Inventory.APIURL = api
	}

	logger := newLogger(cfg)
	if cfg.Demo {
		logger.Warn("no configuration found, running in demo mode")
	}

	client := inventory.NewClient(
		cfg.Inventory.APIURL,
		parseDurationOr(cfg.Inventory.RequestTimeout, 10*time.Second),
	)

	// No durable sink in standalone mode; the backend keeps its own.
	w := watcher.New(client, initNotifiers(cfg), nil, watcherSettings(cfg), logger)
	w.Start()
	defer w.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", "signal", sig.String())
	return nil
}
