package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eczanelab/pharmapos/internal/inventory"
	"github.com/eczanelab/pharmapos/internal/server"
	"github.com/eczanelab/pharmapos/pkg/storage"
	"github.com/eczanelab/pharmapos/pkg/watcher"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pharmacy backend API with the background stock watcher",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Server.Listen = listen
	}

	logger := newLogger(cfg)
	if cfg.Demo {
		logger.Warn("no configuration found, running in demo mode")
	}

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	if err := storage.EnsureSeedData(cmd.Context(), store); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	inv := inventory.NewStoreInventory(store)
	w := watcher.New(inv, initNotifiers(cfg), store, watcherSettings(cfg), logger)
	w.Start()
	defer w.Stop()

	apiServer := server.NewServer(store, w, inv, logger)

	srv := &http.Server{
		Addr:         cfg.Server.Listen,
		Handler:      apiServer.Handler(),
		ReadTimeout:  parseDurationOr(cfg.Server.ReadTimeout, 30*time.Second),
		WriteTimeout: parseDurationOr(cfg.Server.WriteTimeout, 60*time.Second),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("backend started", "listen", cfg.Server.Listen)
		fmt.Fprintf(os.Stderr, "PharmaPOS backend listening on %s\n", cfg.Server.Listen)
		errCh <- srv.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("backend stopped")
	return nil
}
