package cli

import (
	"fmt"

	"github.com/eczanelab/pharmapos/pkg/storage"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Initialize the database with demo accounts and the demo catalog",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("catalog", "", "YAML drug catalog to import after seeding")
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	defer store.Close()

	if err := storage.EnsureSeedData(cmd.Context(), store); err != nil {
		return fmt.Errorf("seed data: %w", err)
	}
	fmt.Printf("Database ready at %s\n", cfg.Storage.Path)

	if catalog, _ := cmd.Flags().GetString("catalog"); catalog != "" {
		added, err := storage.ImportCatalog(cmd.Context(), store, catalog)
		if err != nil {
			return fmt.Errorf("import catalog: %w", err)
		}
		fmt.Printf("Imported %d drugs from %s\n", added, catalog)
	}

	return nil
}
