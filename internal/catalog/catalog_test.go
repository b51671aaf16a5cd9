package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleItems() []Item {
	return []Item{
		{ID: "319874", Name: "Hummus, Sabra Classic", Calories: 720, MealType: Lunch, Tags: []string{"vegan", "healthy", "lunch"}},
		{ID: "987654", Name: "Tofu Quinoa Salad", Calories: 540, MealType: Breakfast, Tags: []string{"vegan", "high_protein"}},
		{ID: "112233", Name: "Grilled Chicken Breast", Calories: 880, MealType: Dinner, Tags: []string{"low_carb", "high_protein"}},
		{ID: "42", Name: "Cheese Brunch Plate", Calories: 500, MealType: Breakfast, Tags: []string{"brunch"}},
	}
}

func TestNew(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		_, err := New(nil)
		assert.ErrorIs(t, err, ErrEmptyCatalog)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		items := sampleItems()
		items = append(items, Item{ID: "42", Name: "Other", MealType: Lunch})
		_, err := New(items)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `duplicate item id "42"`)
	})

	t.Run("NegativeCalories", func(t *testing.T) {
		_, err := New([]Item{{ID: "1", Calories: -5, MealType: Lunch}})
		require.Error(t, err)
	})

	t.Run("IsolatedFromCallerSlices", func(t *testing.T) {
		items := sampleItems()
		c, err := New(items)
		require.NoError(t, err)

		items[0].Tags[0] = "mutated"
		got, ok := c.Get("319874")
		require.True(t, ok)
		assert.Equal(t, "vegan", got.Tags[0])
	})
}

func TestLookupByMealType(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)

	breakfast := c.LookupByMealType(Breakfast)
	require.Len(t, breakfast, 2)
	assert.Equal(t, "987654", breakfast[0].ID)
	assert.Equal(t, "42", breakfast[1].ID)

	assert.Empty(t, c.LookupByMealType(MealType("Snack")))
}

func TestFilterByTags(t *testing.T) {
	c, err := New(sampleItems())
	require.NoError(t, err)

	ids := func(items []Item) []string {
		out := make([]string, 0, len(items))
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}

	tests := []struct {
		name string
		tags []string
		mode MatchMode
		want []string
	}{
		{"EmptyTagsPassEverything", nil, MatchExact, []string{"319874", "987654", "112233", "42"}},
		{"ExactRequiresAll", []string{"vegan", "healthy"}, MatchExact, []string{"319874"}},
		{"ExactIsCaseInsensitive", []string{" High_Protein "}, MatchExact, []string{"987654", "112233"}},
		{"PartialMatchesAny", []string{"low_carb", "healthy"}, MatchPartial, []string{"319874", "112233"}},
		{"PartialOverMatchesSubstrings", []string{"lunch"}, MatchPartial, []string{"319874", "42"}},
		{"ExactDoesNotOverMatch", []string{"lunch"}, MatchExact, []string{"319874"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(c.FilterByTags(tt.tags, tt.mode)))
		})
	}
}

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{}, ParseTags(""))
	assert.Equal(t, []string{}, ParseTags("NaN"))
	assert.Equal(t, []string{"vegan", "healthy"}, ParseTags(" Vegan, healthy ,,vegan"))
}

func TestParseMealType(t *testing.T) {
	mt, ok := ParseMealType(" dinner ")
	assert.True(t, ok)
	assert.Equal(t, Dinner, mt)

	_, ok = ParseMealType("snack")
	assert.False(t, ok)
}
