package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tidewater/inboxpilot/internal/model"
)

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate [message]",
		Short: "Classify a message without touching the inbox",
		Long: `Run one message through the classifier against the current settings.
Nothing is committed: stock, guidelines, and the inbox stay untouched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runSimulate,
	}

	cmd.Flags().String("channel", "dm", "message channel (dm, comment, review)")

	return cmd
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	channelFlag, _ := cmd.Flags().GetString("channel")
	content := strings.Join(args, " ")

	eng, store, err := buildEngine(ctx, logger, true)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	decision, err := eng.Simulate(ctx, content, model.ParseChannel(channelFlag))
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	fmt.Printf("Category: %s\n", decision.Category)
	fmt.Printf("Action:   %s\n", decision.Action)
	if decision.HasReply() {
		fmt.Printf("Reply:    %s\n", *decision.ReplyText)
	} else {
		fmt.Println("Reply:    (none)")
	}
	if decision.InternalNote != "" {
		fmt.Printf("Note:     %s\n", decision.InternalNote)
	}
	if decision.OrderCode != "" {
		fmt.Printf("Order:    %s\n", decision.OrderCode)
		for _, s := range decision.SoldItems {
			fmt.Printf("  %s x%d\n", s.ProductID, s.Quantity)
		}
	}

	return nil
}
