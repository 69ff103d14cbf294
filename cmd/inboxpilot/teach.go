package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func teachCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "teach",
		Short: "Teach the classifier a trigger/reply guideline",
		Long: `Append a guideline to the store. Guidelines are handed to the
classifier as priority context for future messages; they are never
deleted or reordered.`,
		RunE: runTeach,
	}

	cmd.Flags().String("trigger", "", "what the customer says (required)")
	cmd.Flags().String("reply", "", "how to respond (required)")
	_ = cmd.MarkFlagRequired("trigger")
	_ = cmd.MarkFlagRequired("reply")

	return cmd
}

func runTeach(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	logger := slog.Default()

	trigger, _ := cmd.Flags().GetString("trigger")
	reply, _ := cmd.Flags().GetString("reply")

	eng, store, err := buildEngine(ctx, logger, false)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	g, err := eng.Teach(ctx, trigger, reply)
	if err != nil {
		return err
	}

	fmt.Printf("Saved guideline: %s\n", g)
	return nil
}
