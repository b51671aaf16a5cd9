// Package extractor turns free-text food queries into structured filters.
//
// Extractors are best-effort and may fail or return partial, oddly typed
// output. The Adapter is the only entry point the rank pipeline uses: it
// normalizes whatever an Extractor returns and never reports an error.
package extractor

import (
	"context"
	"math"
	"strconv"
	"strings"

	"meal-recommender/internal/catalog"
)

// RawFilter is the unvalidated object an Extractor produces.
// Expected keys are max_calories, meal_type, diet and keywords.
type RawFilter map[string]any

// Extractor parses a query into a RawFilter.
type Extractor interface {
	Extract(ctx context.Context, query string) (RawFilter, error)
}

// StructuredFilter holds the constraints extracted from a query. Every field is optional;
// the zero value imposes no constraint.
type StructuredFilter struct {
	MaxCalories *float64          `json:"max_calories,omitempty"`
	Keywords    []string          `json:"keywords,omitempty"`
	MealType    *catalog.MealType `json:"meal_type,omitempty"`
	Diet        string            `json:"diet,omitempty"`
}

// IsEmpty reports whether f imposes no constraint.
func (f StructuredFilter) IsEmpty() bool {
	return f.MaxCalories == nil && len(f.Keywords) == 0 && f.MealType == nil && f.Diet == ""
}

func (f StructuredFilter) clone() StructuredFilter {
	out := f
	if f.Keywords != nil {
		out.Keywords = append([]string{}, f.Keywords...)
	}
	if f.MaxCalories != nil {
		v := *f.MaxCalories
		out.MaxCalories = &v
	}
	if f.MealType != nil {
		v := *f.MealType
		out.MealType = &v
	}
	return out
}

// Normalize converts raw extractor output into a StructuredFilter, dropping
// anything it cannot interpret.
func Normalize(raw RawFilter) StructuredFilter {
	var f StructuredFilter

	if v, ok := toFloat(get(raw, "max_calories")); ok && v > 0 {
		f.MaxCalories = &v
	}
	if s, ok := get(raw, "meal_type").(string); ok {
		if mt, ok := catalog.ParseMealType(s); ok {
			f.MealType = &mt
		}
	}
	if s, ok := get(raw, "diet").(string); ok {
		f.Diet = normalizeDiet(s)
	}
	f.Keywords = toKeywords(get(raw, "keywords"))
	return f
}

// get looks a key up case-insensitively.
func get(raw RawFilter, key string) any {
	if v, ok := raw[key]; ok {
		return v
	}
	for k, v := range raw {
		if strings.EqualFold(strings.TrimSpace(k), key) {
			return v
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case string:
		s := strings.TrimSpace(strings.ToLower(n))
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "calories"), "kcal"))
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func toKeywords(v any) []string {
	var parts []string
	switch k := v.(type) {
	case string:
		parts = strings.Split(k, ",")
	case []string:
		parts = k
	case []any:
		for _, e := range k {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			}
		}
	}

	out := catalog.NormalizeTags(parts)
	if len(out) == 0 {
		return nil
	}
	return out
}

func normalizeDiet(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", "null", "none", "any":
		return ""
	}
	return strings.NewReplacer(" ", "_", "-", "_").Replace(s)
}
