package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Candidate header names for each item field, checked in order.
var (
	idColumns       = []string{"food_id", "fdc_id", "ndb_number", "id"}
	nameColumns     = []string{"food_name", "description", "food_description", "name"}
	caloriesColumns = []string{"energy (kcal)", "calories", "energy_kcal"}
	mealTypeColumns = []string{"meal_type"}
	tagsColumns     = []string{"tags"}
)

// LoadStats summarises a catalog load.
type LoadStats struct {
	Rows            int
	Loaded          int
	UnknownCalories int
	Skipped         int
}

// LoadFile opens path and builds a catalog from its CSV rows.
func LoadFile(path string, logger zerolog.Logger) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", path, err)
	}
	defer f.Close()

	items, stats, err := LoadCSV(f, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	logger.Info().
		Str("path", path).
		Int("rows", stats.Rows).
		Int("loaded", stats.Loaded).
		Int("unknown_calories", stats.UnknownCalories).
		Int("skipped", stats.Skipped).
		Msg("catalog loaded")

	return New(items)
}

// LoadCSV parses a meals table. Rows with an unrecognised meal type, a negative
// calorie value or a duplicate id are skipped and counted.
func LoadCSV(r io.Reader, logger zerolog.Logger) ([]Item, LoadStats, error) {
	var stats LoadStats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, stats, ErrEmptyCatalog
		}
		return nil, stats, fmt.Errorf("failed to read header: %w", err)
	}

	cols := indexHeader(header)
	idCol := findColumn(cols, idColumns)
	nameCol := findColumn(cols, nameColumns)
	calCol := findColumn(cols, caloriesColumns)
	typeCol := findColumn(cols, mealTypeColumns)
	tagsCol := findColumn(cols, tagsColumns)

	if idCol < 0 {
		return nil, stats, fmt.Errorf("no item id column found in %v", header)
	}
	if typeCol < 0 {
		return nil, stats, fmt.Errorf("no meal_type column found in %v", header)
	}

	var items []Item
	seen := make(map[string]struct{})
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("failed to read row %d: %w", stats.Rows+1, err)
		}
		stats.Rows++

		id := field(record, idCol)
		if id == "" {
			stats.Skipped++
			continue
		}
		if _, dup := seen[id]; dup {
			logger.Warn().Str("item_id", id).Msg("skipping duplicate catalog row")
			stats.Skipped++
			continue
		}

		mealType, ok := ParseMealType(field(record, typeCol))
		if !ok {
			logger.Debug().Str("item_id", id).Str("meal_type", field(record, typeCol)).Msg("skipping row with unknown meal type")
			stats.Skipped++
			continue
		}

		calories, known, err := parseCalories(field(record, calCol))
		if err != nil {
			logger.Warn().Str("item_id", id).Err(err).Msg("skipping row with invalid calories")
			stats.Skipped++
			continue
		}

		name := field(record, nameCol)
		if name == "" {
			name = id
		}

		seen[id] = struct{}{}
		items = append(items, Item{
			ID:              id,
			Name:            name,
			Calories:        calories,
			CaloriesUnknown: !known,
			MealType:        mealType,
			Tags:            ParseTags(field(record, tagsCol)),
		})
		if !known {
			stats.UnknownCalories++
		}
		stats.Loaded++
	}

	if len(items) == 0 {
		return nil, stats, ErrEmptyCatalog
	}
	return items, stats, nil
}

// parseCalories returns the truncated calorie value and whether it is known.
func parseCalories(raw string) (int, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return 0, false, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false, fmt.Errorf("calories %q is not a number: %w", raw, err)
	}
	if math.IsNaN(v) {
		return 0, false, nil
	}
	if v < 0 {
		return 0, false, fmt.Errorf("calories %q is negative", raw)
	}
	if math.IsInf(v, 0) || v > math.MaxInt32 {
		return 0, false, fmt.Errorf("calories %q is out of range", raw)
	}
	return int(v), true, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, exists := cols[h]; !exists {
			cols[h] = i
		}
	}
	return cols
}

func findColumn(cols map[string]int, candidates []string) int {
	for _, c := range candidates {
		if idx, ok := cols[c]; ok {
			return idx
		}
	}
	return -1
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
