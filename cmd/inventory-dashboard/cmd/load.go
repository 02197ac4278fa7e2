package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/pos-inventory-dashboard/internal/config"
	"github.com/donaldgifford/pos-inventory-dashboard/pkg/inventory"
	"github.com/donaldgifford/pos-inventory-dashboard/pkg/logger"
)

func loadCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load the inventory once and print statistics",
		Long: "Load the full catalog with the configured (or stored) credentials,\n" +
			"print the inventory statistics, and exit. Useful for checking\n" +
			"credentials and normalization without starting the server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			log := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

			a, err := newApp(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			snap, err := a.engine.Reload(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading inventory: %w", err)
			}

			stats := inventory.ComputeStatistics(snap.Items)

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]any{
					"generation": snap.Generation,
					"loaded_at":  snap.LoadedAt,
					"skipped":    snap.Skipped,
					"truncated":  snap.Truncated,
					"statistics": stats,
				})
			}

			fmt.Printf("Generation:    %s\n", snap.Generation)
			fmt.Printf("Items:         %d\n", stats.TotalItems)
			fmt.Printf("Total value:   %s\n", stats.TotalValue.StringFixed(2))
			fmt.Printf("Low stock:     %d\n", stats.LowStockItems)
			fmt.Printf("Out of stock:  %d\n", stats.OutOfStockItems)
			fmt.Printf("Categories:    %d\n", stats.CategoriesCount)
			if snap.Skipped > 0 {
				fmt.Printf("Skipped:       %d malformed records\n", snap.Skipped)
			}
			if snap.Truncated {
				fmt.Println("Warning: page limit reached, inventory is incomplete.")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print statistics as JSON")

	return cmd
}
