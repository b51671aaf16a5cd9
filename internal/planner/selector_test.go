package planner

import (
	"testing"

	"meal-recommender/internal/catalog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelector(t *testing.T) {
	pool := []catalog.Item{
		item("a", "Low", 449, catalog.Lunch),
		item("b", "Edge Low", 450, catalog.Lunch),
		item("c", "Edge High", 550, catalog.Lunch),
		item("d", "Wide", 650, catalog.Lunch),
		item("e", "Too Big", 651, catalog.Lunch),
		item("f", "Wrong Type", 500, catalog.Dinner),
		{ID: "g", Name: "Unknown", MealType: catalog.Lunch, CaloriesUnknown: true},
	}
	onlyWide := []catalog.Item{pool[3], pool[4]}

	ids := func(items []catalog.Item) []string {
		out := []string{}
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}

	tests := []struct {
		name   string
		policy BandPolicy
		pool   []catalog.Item
		target int
		want   []string
	}{
		{"StrictNarrow", BandStrict, pool, 500, []string{"b", "c"}},
		{"StrictWide", BandStrict, onlyWide, 500, []string{"d"}},
		{"StrictNothing", BandStrict, []catalog.Item{pool[4]}, 500, []string{}},
		{"LooseNarrow", BandLoose, pool, 500, []string{"a", "b", "c", "d"}},
		{"LooseWide", BandLoose, []catalog.Item{pool[4]}, 500, []string{"e"}},
		{"UnknownCaloriesNeverQualify", BandLoose, []catalog.Item{pool[6]}, 500, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewSelector(tt.policy).Select(tt.pool, catalog.Lunch, tt.target)
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestParseBandPolicy(t *testing.T) {
	p, err := ParseBandPolicy("")
	require.NoError(t, err)
	assert.Equal(t, BandStrict, p)

	p, err = ParseBandPolicy(" LOOSE ")
	require.NoError(t, err)
	assert.Equal(t, BandLoose, p)

	_, err = ParseBandPolicy("greedy")
	assert.Error(t, err)
}

func TestExtractIngredients(t *testing.T) {
	assert.Equal(t, []string{"chicken", "rice"}, ExtractIngredients("Grilled Chicken & Rice Bowl"))
	assert.Equal(t, []string{"yogurt"}, ExtractIngredients("Greek Yogurt Bowl"))
	assert.Empty(t, ExtractIngredients("Sparkling Water"))
}

func TestDiversityScore(t *testing.T) {
	it := item("1", "Salmon Rice Bowl", 600, catalog.Lunch, "healthy", "high_protein")

	assert.Equal(t, 20, DiversityScore(it, []string{"healthy", "protein"}, nil))
	assert.Equal(t, 0, DiversityScore(it, nil, nil))

	seen := map[string]struct{}{"salmon": {}, "rice": {}, "tofu": {}}
	assert.Equal(t, 0, DiversityScore(it, []string{"healthy"}, seen))
}

func TestRandPicker(t *testing.T) {
	a, b := NewRandPicker(42), NewRandPicker(42)
	for i := 0; i < 10; i++ {
		n := a.Intn(5)
		assert.Equal(t, n, b.Intn(5))
		assert.GreaterOrEqual(t, n, 0)
		assert.Less(t, n, 5)
	}
}
