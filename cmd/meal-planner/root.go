package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"family-meal-planner/internal/app"
	"family-meal-planner/internal/config"
	"family-meal-planner/internal/metrics"
	"family-meal-planner/internal/planner"
	"family-meal-planner/internal/shopping"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "meal-planner",
	Short: "Family meal planner and shared shopping list",
	Long: `meal-planner keeps a household's planned meals, recipes and shopping list.

Examples:
  # Run the HTTP API and live sync
  meal-planner serve

  # Print what is left to buy for next week's meals
  meal-planner list --from 2026-10-19 --to 2026-10-25

  # Put something on the list
  meal-planner add "Oat milk"`,
	SilenceUsage: true,
}

var (
	fromDate   string
	toDate     string
	reportDays int
	keepDays   int
)

func init() {
	listCmd.Flags().StringVar(&fromDate, "from", "", "First date (YYYY-MM-DD) of planned meals to include")
	listCmd.Flags().StringVar(&toDate, "to", "", "Last date (YYYY-MM-DD) of planned meals to include")

	markShoppedCmd.Flags().StringVar(&fromDate, "from", "", "First date (YYYY-MM-DD), defaults to this Monday")
	markShoppedCmd.Flags().StringVar(&toDate, "to", "", "Last date (YYYY-MM-DD), defaults to this Sunday")

	metricsCmd.Flags().IntVar(&reportDays, "days", 7, "Number of days to report")
	metricsCleanupCmd.Flags().IntVar(&keepDays, "days", 30, "Keep records for the last N days")

	rootCmd.AddCommand(serveCmd, listCmd, addCmd, markShoppedCmd, importCmd, metricsCmd, metricsCleanupCmd)
}

// withApp loads configuration, opens the application and runs fn.
func withApp(fn func(ctx context.Context, a *app.App, cfg *config.Config) error) error {
	cfg, err := config.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx := context.Background()
	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Printf("Warning: failed to close app: %v", err)
		}
	}()

	return fn(ctx, a, cfg)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the shopping list",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, _ *config.Config) error {
			items, err := a.ShoppingList(ctx, fromDate, toDate)
			if err != nil {
				return err
			}
			out := shopping.Format(items)
			if out == "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing left to buy.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		})
	},
}

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add an item to the shopping list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, _ *config.Config) error {
			item, err := a.Shopping.AddManualItem(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s)\n", item.Name, item.ID)
			return nil
		})
	},
}

var markShoppedCmd = &cobra.Command{
	Use:   "mark-shopped",
	Short: "Mark planned meals in a date range as shopped",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, _ *config.Config) error {
			from, to, err := shoppedRange(fromDate, toDate, time.Now())
			if err != nil {
				return err
			}
			n, err := a.Planner.MarkShopped(ctx, from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %d meals between %s and %s as shopped.\n", n, from, to)
			return nil
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import <url|text>...",
	Short: "Import recipes from links or pasted text",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, _ *config.Config) error {
			n, err := a.ImportRecipes(ctx, args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d recipes.\n", n, len(args))
			return nil
		})
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show AI usage and system health",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, _ *config.Config) error {
			usage, err := a.Metrics.GetDailyUsage(ctx, reportDays)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), metrics.Report(metrics.GetSysHealth(a.DataDir()), usage))
			return nil
		})
	},
}

var metricsCleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Remove old metric records",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context, a *app.App, _ *config.Config) error {
			affected, err := a.Metrics.Cleanup(ctx, keepDays)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Successfully removed %d old metric records.\n", affected)
			return nil
		})
	},
}

// shoppedRange defaults to the week containing now when neither date is given.
func shoppedRange(from, to string, now time.Time) (string, string, error) {
	switch {
	case from == "" && to == "":
		f, t := planner.WeekBounds(now)
		return f, t, nil
	case from == "" || to == "":
		return "", "", fmt.Errorf("both --from and --to are required for a range")
	}
	return from, to, nil
}
