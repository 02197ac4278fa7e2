package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	domain "github.com/donaldgifford/pos-inventory-dashboard/pkg/types"
)

func inventoryCmd() *cobra.Command {
	inventoryRoot := &cobra.Command{
		Use:     "inventory",
		Aliases: []string{"inv"},
		Short:   "Browse the loaded inventory",
		Long: "Browse, filter, and summarize the inventory snapshot loaded\n" +
			"from the Lightspeed POS by the dashboard server.",
	}

	inventoryRoot.AddCommand(
		inventoryListCmd(),
		inventoryStatsCmd(),
		inventoryFacetsCmd(),
		inventorySizeCmd(),
		inventoryReloadCmd(),
	)

	return inventoryRoot
}

func inventoryListCmd() *cobra.Command {
	var q domain.FilterQuery

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List inventory items with optional filters",
		Long: "List items of the loaded snapshot. Repeated --size, --category and\n" +
			"--brand values match any of them; different flags must all match.",
		Example: `  # List everything
  invctl inventory list

  # Large and extra large tops that are low on stock
  invctl inventory list --size L --size XL --category tops --low-stock

  # Search by name, SKU or EAN
  invctl inventory list --q "trail tee"`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.ListInventory(context.Background(), q)
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Items) == 0 {
				fmt.Println("No items found.")
				return nil
			}

			fmt.Printf("Showing %d items (value %s)\n\n",
				resp.Statistics.TotalItems, resp.Statistics.TotalValue.StringFixed(2))
			return printItemsTable(os.Stdout, resp.Items)
		},
	}
	cmd.Flags().StringArrayVar(&q.Sizes, "size", nil, "size filter (repeatable)")
	cmd.Flags().StringArrayVar(&q.Categories, "category", nil, "category filter (repeatable)")
	cmd.Flags().StringArrayVar(&q.Brands, "brand", nil, "brand filter (repeatable)")
	cmd.Flags().BoolVar(&q.InStockOnly, "in-stock", false, "only items with stock on hand")
	cmd.Flags().BoolVar(&q.LowStockOnly, "low-stock", false, "only items at or below their alert threshold")
	cmd.Flags().StringVar(&q.SearchTerm, "q", "", "search term")

	return cmd
}

func inventoryStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "stats",
		Short:   "Show inventory statistics",
		Example: `  invctl inventory stats`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.Stats(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			return printStats(os.Stdout, resp.Statistics, &resp.Snapshot)
		},
	}
}

func inventoryFacetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "facets",
		Short:   "Show available sizes, categories and brands",
		Example: `  invctl inventory facets`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			facets, err := c.Facets(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(facets)
			}

			return printFacets(os.Stdout, facets)
		},
	}
}

func inventorySizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size <size>",
		Short: "Fetch one size directly from the POS",
		Long: "Fetch the items of a single size from Lightspeed using the stored\n" +
			"credentials. The loaded snapshot is not changed.",
		Example: `  invctl inventory size XL`,
		Args:    cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			c := newClient()
			resp, err := c.InventoryBySize(context.Background(), args[0])
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			if len(resp.Items) == 0 {
				fmt.Printf("No items in size %s.\n", resp.Size)
				return nil
			}

			return printItemsTable(os.Stdout, resp.Items)
		},
	}
}

func inventoryReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "reload",
		Short:   "Reload the inventory from the POS",
		Example: `  invctl inventory reload`,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			resp, err := c.Reload(context.Background())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(resp)
			}

			fmt.Printf("Loaded %d items from %s", resp.TotalItems, resp.Snapshot.Generation)
			if resp.Snapshot.Skipped > 0 {
				fmt.Printf(" (%d malformed records skipped)", resp.Snapshot.Skipped)
			}
			fmt.Println()
			if resp.Snapshot.Truncated {
				fmt.Println("Warning: page limit reached, inventory is incomplete.")
			}
			return nil
		},
	}
}
