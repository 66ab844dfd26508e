package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/eczanelab/pharmapos/internal/inventory"
	"github.com/eczanelab/pharmapos/pkg/storage"
	"github.com/eczanelab/pharmapos/pkg/watcher"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run one stock check cycle and print the result",
	RunE:  runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().Bool("dispatch", false, "Dispatch alerts instead of only printing")
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	if err := storage.EnsureSeedData(cmd.Context(), store); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}

	settings := watcherSettings(cfg)
	if dispatch, _ := cmd.Flags().GetBool("dispatch"); !dispatch {
		settings.Demo = true
	}

	inv := inventory.NewStoreInventory(store)
	w := watcher.New(inv, initNotifiers(cfg), store, settings, logger)

	result, err := w.CheckStockLevels(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
