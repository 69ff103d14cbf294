package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func inboxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Show the archived inbox",
		Long:  `List stored inbox items with their lifecycle state and archived replies.`,
		RunE:  runInbox,
	}

	cmd.Flags().Int("limit", 50, "maximum number of items to show (0 for all)")
	cmd.Flags().Bool("pending", false, "show only items that are not finalized")

	return cmd
}

func runInbox(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	limit, _ := cmd.Flags().GetInt("limit")
	pendingOnly, _ := cmd.Flags().GetBool("pending")

	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	items, err := store.ListItems(ctx, limit)
	if err != nil {
		return err
	}

	shown := 0
	for _, item := range items {
		if pendingOnly && item.Finalized {
			continue
		}
		shown++

		fmt.Printf("[%s] %s  %s  %s\n",
			item.State(), formatTimestamp(item.ReceivedAt), item.Channel, item.Sender)
		fmt.Printf("  %s\n", item.Content)
		if item.Decision != nil {
			fmt.Printf("  category: %s  action: %s\n", item.Decision.Category, item.Decision.Action)
		}
		if item.ArchivedReply != nil {
			fmt.Printf("  sent: %s\n", *item.ArchivedReply)
		}
	}

	if shown == 0 {
		fmt.Println("Inbox is empty.")
	} else {
		slog.Debug("inbox listed", "items", shown)
	}
	return nil
}
