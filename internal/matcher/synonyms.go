package matcher

import "strings"

// SynonymTable maps a tag or keyword to alternate substrings that also count as a hit.
type SynonymTable map[string][]string

// DefaultSynonyms returns the built-in synonym table.
func DefaultSynonyms() SynonymTable {
	return SynonymTable{
		"healthy":      {"low cal", "light", "lean", "organic", "natural", "fresh", "whole", "choice"},
		"lunch":        {"bowl", "salad", "wrap", "sandwich", "meal", "hummus"},
		"breakfast":    {"oat", "egg", "omelette", "yogurt", "cereal", "toast", "pancake", "granola"},
		"dinner":       {"stir fry", "grilled", "roast", "pasta", "curry", "steak", "casserole"},
		"vegan":        {"tofu", "plant", "veggie", "vegetable", "lentil", "bean", "hummus"},
		"vegetarian":   {"veggie", "vegetable", "cheese", "egg", "tofu", "bean"},
		"high_protein": {"chicken", "turkey", "salmon", "tuna", "egg", "tofu", "protein", "beef"},
		"low_carb":     {"grilled", "omelette", "salad", "keto", "steak", "salmon"},
		"keto":         {"low carb", "avocado", "bacon", "egg", "cheese"},
	}
}

// Alternates returns the alternates for a term.
func (s SynonymTable) Alternates(term string) []string {
	return s[strings.ToLower(strings.TrimSpace(term))]
}

// Merge returns a copy of s with extra entries appended; keys are lowercased.
func (s SynonymTable) Merge(extra map[string][]string) SynonymTable {
	out := make(SynonymTable, len(s)+len(extra))
	for k, v := range s {
		out[k] = append([]string{}, v...)
	}
	for k, v := range extra {
		k = strings.ToLower(strings.TrimSpace(k))
		for _, alt := range v {
			alt = strings.ToLower(strings.TrimSpace(alt))
			if alt != "" {
				out[k] = append(out[k], alt)
			}
		}
	}
	return out
}
