package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"meal-recommender/internal/app"
	"meal-recommender/internal/config"
	"meal-recommender/internal/database"
	"meal-recommender/internal/eval"
	"meal-recommender/internal/logging"
	"meal-recommender/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfg      *config.Config
	logger   zerolog.Logger
	jsonOut  bool
	logLevel string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "meal-recommender",
	Short:         "Compose meal plans and rank food items",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		c, err := config.Load()
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Log.Level = logLevel
		}
		cfg = c
		logger = logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	planCmd.Flags().StringSlice("tags", nil, "preference tags, e.g. vegan,healthy")
	planCmd.Flags().Int("calories", 2000, "daily calorie budget")

	rankCmd.Flags().String("user", "", "user id to rank for")
	rankCmd.Flags().String("query", "", "free-text request")
	rankCmd.Flags().Int("top", 0, "number of results (default from config)")
	_ = rankCmd.MarkFlagRequired("user")

	evaluateCmd.Flags().Int("k", eval.DefaultK, "precision cut-off")

	importCmd.Flags().String("items", "", "meals CSV (default: catalog.path)")
	importCmd.Flags().String("predictions", "", "predictions CSV (default: predictor.path when it exists)")

	cleanupCmd.Flags().Int("days", 30, "keep records for the last N days")

	rootCmd.AddCommand(planCmd, rankCmd, evaluateCmd, importCmd, cleanupCmd)
}

// withApp opens the database and builds the App for the duration of fn.
func withApp(ctx context.Context, fn func(a *app.App) error) error {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := app.New(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(a)
}

func printResult(text string, v any) error {
	if !jsonOut {
		fmt.Print(text)
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compose a breakfast, lunch and dinner plan",
	Example: `  meal-recommender plan --tags vegan,healthy --calories 1800
  meal-recommender plan --json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		tags, _ := cmd.Flags().GetStringSlice("tags")
		calories, _ := cmd.Flags().GetInt("calories")

		return withApp(cmd.Context(), func(a *app.App) error {
			plan, err := a.ComposePlan(cmd.Context(), tags, calories)
			if err != nil {
				return err
			}
			return printResult(app.FormatPlan(plan), plan)
		})
	},
}

var rankCmd = &cobra.Command{
	Use:     "rank",
	Short:   "Rank catalog items for a user and a free-text request",
	Example: `  meal-recommender rank --user 42 --query "healthy lunch under 600 calories with chicken"`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		user, _ := cmd.Flags().GetString("user")
		query, _ := cmd.Flags().GetString("query")
		top, _ := cmd.Flags().GetInt("top")

		return withApp(cmd.Context(), func(a *app.App) error {
			items, err := a.RankCandidates(cmd.Context(), user, query, top)
			if err != nil {
				return err
			}
			return printResult(app.FormatRanking(items), items)
		})
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Report precision@k on the labelled reference cases",
	RunE: func(cmd *cobra.Command, _ []string) error {
		k, _ := cmd.Flags().GetInt("k")

		return withApp(cmd.Context(), func(a *app.App) error {
			report, err := a.Evaluate(cmd.Context(), k)
			if err != nil {
				return err
			}
			return printResult(app.FormatReport(report), report)
		})
	},
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Copy the meals and predictions CSVs into the database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		items, _ := cmd.Flags().GetString("items")
		preds, _ := cmd.Flags().GetString("predictions")
		if items == "" {
			items = cfg.Catalog.Path
		}
		if preds == "" && !cmd.Flags().Changed("predictions") {
			if _, err := os.Stat(cfg.Predictor.Path); err == nil {
				preds = cfg.Predictor.Path
			}
		}

		db, err := database.NewDB(cfg.Database.Path, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		stats, err := app.ImportData(cmd.Context(), db, items, preds, logger)
		if err != nil {
			return err
		}
		text := fmt.Sprintf("Imported %d items (%d skipped, %d with unknown calories) and %d predictions.\n",
			stats.Catalog.Loaded, stats.Catalog.Skipped, stats.Catalog.UnknownCalories, stats.Predictions)
		return printResult(text, stats)
	},
}

var cleanupCmd = &cobra.Command{
	Use:   "metrics-cleanup",
	Short: "Remove old LLM usage records",
	RunE: func(cmd *cobra.Command, _ []string) error {
		days, _ := cmd.Flags().GetInt("days")

		db, err := database.NewDB(cfg.Database.Path, logger)
		if err != nil {
			return err
		}
		defer db.Close()

		affected, err := metrics.NewStore(db.SQL).Cleanup(cmd.Context(), days)
		if err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		return printResult(fmt.Sprintf("Successfully removed %d old metric records.\n", affected), map[string]int64{"removed": affected})
	},
}
