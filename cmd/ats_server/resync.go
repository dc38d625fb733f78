package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/agency-ats/internal/config"
	"github.com/jonathan/agency-ats/internal/db"
	"github.com/jonathan/agency-ats/internal/feedbacksync"
	"github.com/jonathan/agency-ats/internal/logging"
	"github.com/jonathan/agency-ats/internal/observability"
	"github.com/jonathan/agency-ats/internal/shortlist"
)

var (
	resyncShortlistID string
	resyncConcurrency int
)

var resyncCmd = &cobra.Command{
	Use:   "resync",
	Short: "Re-run feedback sync for every decision on a shortlist",
	Long: `Re-applies each recorded client decision on a shortlist to the application pipeline.

Use it after enabling FEEDBACK_SYNC_ENABLED to catch up on feedback received while the
sync was off. Applications that already moved are left alone.`,
	RunE: runResync,
}

func init() {
	resyncCmd.Flags().StringVar(&resyncShortlistID, "shortlist", "", "Shortlist ID (required)")
	resyncCmd.Flags().IntVar(&resyncConcurrency, "concurrency", 0, "Parallel syncs (overrides RESYNC_CONCURRENCY)")

	if err := resyncCmd.MarkFlagRequired("shortlist"); err != nil {
		panic(fmt.Sprintf("failed to mark shortlist flag as required: %v", err))
	}

	rootCmd.AddCommand(resyncCmd)
}

// resyncStore is the storage the resync command reads and updates.
type resyncStore interface {
	shortlist.Repository
	feedbacksync.Store
}

func runResync(cmd *cobra.Command, _ []string) error {
	shortlistID, err := uuid.Parse(resyncShortlistID)
	if err != nil {
		return fmt.Errorf("invalid shortlist ID: %w", err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if resyncConcurrency > 0 {
		cfg.ResyncConcurrency = resyncConcurrency
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	return resyncShortlist(ctx, database, cfg, shortlistID, cmd.OutOrStdout(), logging.NewLogger(cfg.LogLevel))
}

func resyncShortlist(ctx context.Context, store resyncStore, cfg *config.Config, shortlistID uuid.UUID, out io.Writer, logger *slog.Logger) error {
	sl, err := store.GetShortlist(ctx, shortlistID)
	if err != nil {
		return fmt.Errorf("failed to load shortlist: %w", err)
	}
	if sl == nil {
		return fmt.Errorf("shortlist %s not found", shortlistID)
	}

	service := shortlist.NewService(store)
	feedback, err := service.ListFeedback(ctx, sl)
	if err != nil {
		return err
	}

	engine := feedbacksync.NewEngine(store, feedbacksync.Config{Enabled: cfg.FeedbackSyncEnabled}, logger)
	outcomes, err := engine.ResyncShortlist(ctx, sl, feedback, cfg.IsDemoAgency(sl.AgencyID), cfg.ResyncConcurrency)

	printer := observability.NewPrinter(out)
	printer.PrintResyncOutcomes(outcomes, engine.Enabled())
	if err != nil {
		return fmt.Errorf("resync stopped early: %w", err)
	}

	stats, err := service.GetAggregateStats(ctx, sl)
	if err != nil {
		return err
	}
	printer.PrintShortlist(sl, stats)
	return nil
}
