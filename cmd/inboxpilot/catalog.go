package main

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tidewater/inboxpilot/internal/model"
)

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the product catalog",
	}

	cmd.AddCommand(catalogListCmd())
	cmd.AddCommand(catalogAddCmd())
	cmd.AddCommand(catalogSetStockCmd())

	return cmd
}

func catalogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List products and stock levels",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, store, err := buildEngine(ctx, slog.Default(), false)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			products := eng.Catalog()
			if len(products) == 0 {
				fmt.Println("Catalog is empty.")
				return nil
			}
			for _, p := range products {
				fmt.Printf("%-12s %-24s $%-8.2f stock: %d\n", p.ID, p.Name, p.Price, p.Quantity)
			}
			return nil
		},
	}
}

func catalogAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add or replace a product",
		RunE:  runCatalogAdd,
	}

	cmd.Flags().String("id", "", "product id (required)")
	cmd.Flags().String("name", "", "product name (required)")
	cmd.Flags().Float64("price", 0, "unit price (required)")
	cmd.Flags().Int("stock", 0, "initial stock count")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")

	return cmd
}

func runCatalogAdd(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	id, _ := cmd.Flags().GetString("id")
	name, _ := cmd.Flags().GetString("name")
	price, _ := cmd.Flags().GetFloat64("price")
	stock, _ := cmd.Flags().GetInt("stock")

	eng, store, err := buildEngine(ctx, slog.Default(), false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if err := eng.AddProduct(ctx, model.Product{
		ID:       id,
		Name:     name,
		Price:    price,
		Quantity: stock,
	}); err != nil {
		return err
	}

	fmt.Printf("Saved product %s (%s)\n", id, name)
	return nil
}

func catalogSetStockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-stock [product-id] [quantity]",
		Short: "Overwrite a product's stock count",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q: %w", args[1], err)
			}

			eng, store, err := buildEngine(ctx, slog.Default(), false)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := eng.SetStock(ctx, args[0], qty); err != nil {
				return err
			}

			fmt.Printf("Stock for %s set to %d\n", args[0], qty)
			return nil
		},
	}
	return cmd
}
