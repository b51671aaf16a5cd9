package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mealsCSV = `food_id,food_name,Energy (KCAL),meal_type,tags
223344,Greek Yogurt Bowl,450,Breakfast,healthy
556677,Turkey Sandwich,600.0,Lunch,"healthy, High_Protein"
889900,Veggie Stir Fry,,Dinner,
777,Mystery Snack,200,Snack,healthy
223344,Greek Yogurt Bowl Again,450,Breakfast,healthy
888,Broken Calories,-10,Dinner,
`

func TestLoadCSV(t *testing.T) {
	items, stats, err := LoadCSV(strings.NewReader(mealsCSV), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, LoadStats{Rows: 6, Loaded: 3, UnknownCalories: 1, Skipped: 3}, stats)
	require.Len(t, items, 3)

	assert.Equal(t, Item{ID: "223344", Name: "Greek Yogurt Bowl", Calories: 450, MealType: Breakfast, Tags: []string{"healthy"}}, items[0])
	assert.Equal(t, 600, items[1].Calories)
	assert.Equal(t, []string{"healthy", "high_protein"}, items[1].Tags)

	assert.True(t, items[2].CaloriesUnknown)
	assert.Equal(t, []string{}, items[2].Tags)
	_, known := items[2].KnownCalories()
	assert.False(t, known)
}

func TestLoadCSVAlternateHeaders(t *testing.T) {
	data := "fdc_id,description,calories,meal_type\n1,Oat Porridge,310,breakfast\n"
	items, _, err := LoadCSV(strings.NewReader(data), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Oat Porridge", items[0].Name)
	assert.Equal(t, Breakfast, items[0].MealType)
}

func TestLoadCSVErrors(t *testing.T) {
	t.Run("EmptyInput", func(t *testing.T) {
		_, _, err := LoadCSV(strings.NewReader(""), zerolog.Nop())
		assert.ErrorIs(t, err, ErrEmptyCatalog)
	})

	t.Run("NoUsableRows", func(t *testing.T) {
		_, _, err := LoadCSV(strings.NewReader("food_id,meal_type\n1,Snack\n"), zerolog.Nop())
		assert.ErrorIs(t, err, ErrEmptyCatalog)
	})

	t.Run("MissingMealTypeColumn", func(t *testing.T) {
		_, _, err := LoadCSV(strings.NewReader("food_id,food_name\n1,x\n"), zerolog.Nop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "meal_type")
	})
}

func TestParseCalories(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		known   bool
		wantErr bool
	}{
		{"450", 450, true, false},
		{"599.9", 599, true, false},
		{"", 0, false, false},
		{"NaN", 0, false, false},
		{"-10", 0, false, true},
		{"inf", 0, false, true},
		{"-Inf", 0, false, true},
		{"1e12", 0, false, true},
		{"1e400", 0, false, true},
		{"lots", 0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, known, err := parseCalories(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.known, known)
		})
	}
}

func TestLoadCSVSkipsInfiniteCalories(t *testing.T) {
	data := "food_id,food_name,calories,meal_type\n1,Oat Porridge,310,breakfast\n2,Endless Pasta,inf,dinner\n"
	items, stats, err := LoadCSV(strings.NewReader(data), zerolog.Nop())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, 1, stats.Skipped)

	_, err = New(items)
	assert.NoError(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meals.csv")
	require.NoError(t, os.WriteFile(path, []byte(mealsCSV), 0644))

	c, err := LoadFile(path, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"), zerolog.Nop())
	assert.Error(t, err)
}
