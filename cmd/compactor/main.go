// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command compactor folds old conversation memories into one summary per
// project. It runs standalone, typically from cron.
//
// Usage:
//
//	compactor run --days 30 --min-group 5
//	compactor run --dry-run --verbose
//	compactor stats
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/codescout/services/code_scout/memory"
	"github.com/AleutianAI/codescout/services/code_scout/store"
	"github.com/AleutianAI/codescout/services/llm"
)

var (
	flagDays     int
	flagMinGroup int
	flagDryRun   bool
	flagVerbose  bool
)

func main() {
	root := &cobra.Command{
		Use:           "compactor",
		Short:         "Compact old conversation memories",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run one compaction sweep",
		RunE:  runCompaction,
	}
	runCmd.Flags().IntVar(&flagDays, "days", memory.DefaultOlderThanDays, "Compact memories older than this many days")
	runCmd.Flags().IntVar(&flagMinGroup, "min-group", memory.DefaultMinGroupSize, "Smallest project group worth compacting")
	runCmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Report without inserting or deleting")

	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show memory counts per project",
		RunE:  runStats,
	}

	root.AddCommand(runCmd, statsCmd)
	root.RunE = runCompaction
	root.Flags().AddFlagSet(runCmd.Flags())

	if err := root.Execute(); err != nil {
		slog.Error("Compactor failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	if flagVerbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func runCompaction(_ *cobra.Command, _ []string) error {
	setupLogging()

	adapter, err := store.Shared()
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}

	summariser, err := llm.FromEnv("LLM_MODEL_SUMMARISE", "gpt-4o-mini")
	if err != nil {
		return fmt.Errorf("building summariser: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	compactor := memory.NewCompactor(memory.NewStore(adapter), summariser)
	report, err := compactor.Run(ctx, memory.CompactOptions{
		OlderThanDays: flagDays,
		MinGroupSize:  flagMinGroup,
		DryRun:        flagDryRun,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Fetched:   %d\n", report.MemoriesFetched)
	fmt.Printf("Projects:  %d\n", report.ProjectsProcessed)
	fmt.Printf("Compacted: %d\n", report.GroupsCompacted)
	fmt.Printf("Created:   %d\n", report.MemoriesCreated)
	fmt.Printf("Deleted:   %d\n", report.MemoriesDeleted)
	for project, detail := range report.ProjectDetails {
		line := fmt.Sprintf("  %s: %d memories", project, detail.MemoriesFound)
		if detail.Compacted {
			line += " (compacted)"
		} else if detail.Reason != "" {
			line += " (" + detail.Reason + ")"
		}
		fmt.Println(line)
	}

	if len(report.Errors) > 0 {
		for _, e := range report.Errors {
			fmt.Fprintf(os.Stderr, "error: %s\n", e)
		}
		return fmt.Errorf("%d errors during compaction", len(report.Errors))
	}
	return nil
}

func runStats(_ *cobra.Command, _ []string) error {
	setupLogging()

	adapter, err := store.Shared()
	if err != nil {
		return fmt.Errorf("connecting to store: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	total, err := adapter.AggregateCount(ctx, store.ClassConversationMemory, nil)
	if err != nil {
		return fmt.Errorf("counting memories: %w", err)
	}
	groups, err := adapter.AggregateGroupBy(ctx, store.ClassConversationMemory, "project")
	if err != nil {
		return fmt.Errorf("grouping memories: %w", err)
	}

	fmt.Printf("Total memories: %d\n", total)
	for _, g := range groups {
		fmt.Printf("  %s: %d\n", g.Value, g.Count)
	}
	return nil
}
