package planner

import (
	"strings"

	"meal-recommender/internal/catalog"
)

// ingredientVocabulary is the fixed set of ingredient tokens recognised in item names.
var ingredientVocabulary = []string{
	"chicken", "turkey", "beef", "pork", "salmon", "tuna", "shrimp", "egg",
	"tofu", "hummus", "chickpea", "lentil", "bean", "quinoa", "rice", "pasta",
	"noodle", "oat", "bread", "potato", "yogurt", "cheese", "avocado",
	"spinach", "broccoli", "mushroom",
}

// ExtractIngredients returns the vocabulary tokens found in name, in vocabulary order.
func ExtractIngredients(name string) []string {
	name = strings.ToLower(name)
	var out []string
	for _, ing := range ingredientVocabulary {
		if strings.Contains(name, ing) {
			out = append(out, ing)
		}
	}
	return out
}

// seenIngredients accumulates the ingredients chosen so far within one plan.
type seenIngredients map[string]struct{}

func (s seenIngredients) add(ingredients []string) {
	for _, ing := range ingredients {
		s[ing] = struct{}{}
	}
}

func (s seenIngredients) count(ingredients []string) int {
	n := 0
	for _, ing := range ingredients {
		if _, ok := s[ing]; ok {
			n++
		}
	}
	return n
}

// DiversityScore scores it for a plan: 10 per requested tag found in its tag
// string, minus 5 per ingredient already used earlier in the plan.
func DiversityScore(it catalog.Item, tags []string, seen map[string]struct{}) int {
	tagString := strings.ToLower(it.TagString())
	hits := 0
	for _, t := range tags {
		if t != "" && strings.Contains(tagString, t) {
			hits++
		}
	}
	return 10*hits - 5*seenIngredients(seen).count(ExtractIngredients(it.Name))
}
