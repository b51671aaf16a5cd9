package app

import (
	"context"
	"fmt"
	"os"

	"meal-recommender/internal/catalog"
	"meal-recommender/internal/database"
	"meal-recommender/internal/predictor"

	"github.com/rs/zerolog"
)

// ImportStats reports what an import stored.
type ImportStats struct {
	Catalog     catalog.LoadStats
	Predictions int
}

// ImportData copies the meals CSV and, when predictionsPath is set, the
// predictions CSV into the database. Each table is replaced as a whole.
func ImportData(ctx context.Context, db *database.DB, itemsPath, predictionsPath string, logger zerolog.Logger) (ImportStats, error) {
	logger = logger.With().Str("component", "import").Logger()
	var stats ImportStats

	f, err := os.Open(itemsPath)
	if err != nil {
		return stats, fmt.Errorf("failed to open catalog %s: %w", itemsPath, err)
	}
	defer f.Close()

	items, loadStats, err := catalog.LoadCSV(f, logger)
	if err != nil {
		return stats, fmt.Errorf("failed to read catalog %s: %w", itemsPath, err)
	}
	if len(items) == 0 {
		return stats, catalog.ErrEmptyCatalog
	}
	if err := catalog.NewRepository(db.SQL).SaveAll(ctx, items); err != nil {
		return stats, err
	}
	stats.Catalog = loadStats
	logger.Info().Int("items", len(items)).Int("skipped", loadStats.Skipped).Msg("catalog imported")

	if predictionsPath == "" {
		return stats, nil
	}

	pf, err := os.Open(predictionsPath)
	if err != nil {
		return stats, fmt.Errorf("failed to open predictions %s: %w", predictionsPath, err)
	}
	defer pf.Close()

	scores, err := predictor.LoadCSV(pf)
	if err != nil {
		return stats, err
	}
	if err := predictor.NewRepository(db.SQL).SaveAll(ctx, scores); err != nil {
		return stats, err
	}
	stats.Predictions = len(scores)
	logger.Info().Int("predictions", len(scores)).Msg("predictions imported")

	return stats, nil
}
