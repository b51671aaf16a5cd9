package catalog

import (
	"strings"
)

// MealType is the meal slot an item is meant for.
type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
)

// MealTypes lists the meal types in plan order.
var MealTypes = []MealType{Breakfast, Lunch, Dinner}

// ParseMealType parses a meal-type label case-insensitively.
func ParseMealType(s string) (MealType, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breakfast":
		return Breakfast, true
	case "lunch":
		return Lunch, true
	case "dinner":
		return Dinner, true
	}
	return "", false
}

// Item is a single food item of the catalog.
type Item struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Calories int      `json:"calories"`
	MealType MealType `json:"meal_type"`
	Tags     []string `json:"tags"`

	// CaloriesUnknown marks items whose source row had no calorie value.
	CaloriesUnknown bool `json:"calories_unknown,omitempty"`
}

// HasTag reports whether the item carries the tag verbatim.
func (i Item) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TagString returns the comma-joined tag field as it appears in the source table.
func (i Item) TagString() string {
	return strings.Join(i.Tags, ",")
}

// KnownCalories returns the calorie value and whether it is known.
func (i Item) KnownCalories() (int, bool) {
	if i.CaloriesUnknown {
		return 0, false
	}
	return i.Calories, true
}

// ParseTags splits a comma-delimited tag field into a lowercase, de-duplicated tag set.
// Blank and "nan" fields yield an empty set.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.EqualFold(raw, "nan") {
		return []string{}
	}

	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		t := strings.ToLower(strings.TrimSpace(p))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		tags = append(tags, t)
	}
	return tags
}

// NormalizeTags lowercases and trims requested tags, dropping blanks and duplicates.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
