package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"meal-recommender/internal/planner"
)

var (
	ceilingPattern  = regexp.MustCompile(`(?:under|below|less than|at most|max(?:imum)?|up to|<=?)\s*(\d+(?:\.\d+)?)\s*(?:k?cals?|calories)?`)
	trailingPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:k?cals?|calories)\s*(?:or less|max(?:imum)?|or under)`)
	mealTypeWords   = []string{"breakfast", "lunch", "dinner", "snack"}

	dietWords = []struct{ phrase, diet string }{
		{"vegan", "vegan"},
		{"vegetarian", "vegetarian"},
		{"keto", "keto"},
		{"low carb", "low_carb"},
		{"low-carb", "low_carb"},
		{"high protein", "high_protein"},
		{"high-protein", "high_protein"},
		{"healthy", "healthy"},
	}
)

// RuleExtractor extracts filters with fixed phrase rules. It needs no network
// and is used when no LLM provider is configured.
type RuleExtractor struct{}

// NewRuleExtractor creates a RuleExtractor.
func NewRuleExtractor() *RuleExtractor {
	return &RuleExtractor{}
}

// Extract implements Extractor. It never fails.
func (RuleExtractor) Extract(_ context.Context, query string) (RawFilter, error) {
	q := strings.ToLower(query)
	raw := RawFilter{}

	if m := ceilingPattern.FindStringSubmatch(q); m != nil {
		raw["max_calories"], _ = strconv.ParseFloat(m[1], 64)
	} else if m := trailingPattern.FindStringSubmatch(q); m != nil {
		raw["max_calories"], _ = strconv.ParseFloat(m[1], 64)
	}

	for _, w := range mealTypeWords {
		if strings.Contains(q, w) {
			raw["meal_type"] = w
			break
		}
	}
	for _, d := range dietWords {
		if strings.Contains(q, d.phrase) {
			raw["diet"] = d.diet
			break
		}
	}
	if kw := planner.ExtractIngredients(q); len(kw) > 0 {
		raw["keywords"] = kw
	}
	return raw, nil
}
