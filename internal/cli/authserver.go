package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eczanelab/pharmapos/internal/auth"
	"github.com/eczanelab/pharmapos/pkg/storage"
	"github.com/spf13/cobra"
)

var authServerCmd = &cobra.Command{
	Use:   "auth-server",
	Short: "Run the standalone JWT authentication server",
	RunE:  runAuthServer,
}

func init() {
	rootCmd.AddCommand(authServerCmd)

	authServerCmd.Flags().StringP("listen", "l", "", "Listen address (default from config)")
}

func runAuthServer(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.Auth.Listen = listen
	}

	logger := newLogger(cfg)
	if cfg.Auth.SecretKey == "" {
		logger.Warn("no auth secret configured, tokens will not survive a restart")
	}

	authServer := auth.NewServer(auth.Config{
		Secret: cfg.Auth.SecretKey,
		Expire: time.Duration(cfg.Auth.ExpireMinutes) * time.Minute,
		Issuer: cfg.Auth.Issuer,
		Accounts: []auth.Account{
			{
				Username:     cfg.Auth.AdminUsername,
				PasswordHash: storage.HashPassword(cfg.Auth.AdminPassword),
				Role:         auth.RoleAdmin,
				FullName:     "Eczane Yöneticisi",
			},
			{
				Username:     cfg.Auth.StaffUsername,
				PasswordHash: storage.HashPassword(cfg.Auth.StaffPassword),
				Role:         "Personel",
				FullName:     "Eczane Personeli",
			},
		},
	}, logger)

	srv := &http.Server{
		Addr:         cfg.Auth.Listen,
		Handler:      authServer.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("auth server started", "listen", cfg.Auth.Listen)
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

	logger.Info("auth server stopped")
	return nil
}
