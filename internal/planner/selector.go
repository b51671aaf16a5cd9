package planner

import (
	"fmt"
	"strings"

	"meal-recommender/internal/catalog"
)

// BandPolicy selects the calorie bands the Selector applies around a slot target.
type BandPolicy string

const (
	// BandStrict keeps calories within ±10% of the target, widening to 130% of it.
	BandStrict BandPolicy = "strict"
	// BandLoose allows up to target+150, widening to target+300.
	BandLoose BandPolicy = "loose"
)

// ParseBandPolicy parses a policy name. Blank means BandStrict.
func ParseBandPolicy(s string) (BandPolicy, error) {
	switch BandPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", BandStrict:
		return BandStrict, nil
	case BandLoose:
		return BandLoose, nil
	}
	return "", fmt.Errorf("unknown band policy %q", s)
}

// narrow reports whether cal is in the first band for target.
func (p BandPolicy) narrow(cal, target int) bool {
	if p == BandLoose {
		return cal <= target+150
	}
	return cal*10 >= target*9 && cal*10 <= target*11
}

// wide reports whether cal is in the fallback band for target.
func (p BandPolicy) wide(cal, target int) bool {
	if p == BandLoose {
		return cal <= target+300
	}
	return withinCeiling(cal, target)
}

// withinCeiling is the 130% ceiling shared by the strict wide band and the composer's random fallback.
func withinCeiling(cal, target int) bool {
	return cal*10 <= target*13
}

// Selector narrows a preference-filtered pool to the candidates for one slot.
type Selector struct {
	policy BandPolicy
}

// NewSelector creates a Selector for the given band policy.
func NewSelector(policy BandPolicy) *Selector {
	if policy == "" {
		policy = BandStrict
	}
	return &Selector{policy: policy}
}

// Policy returns the band policy in use.
func (s *Selector) Policy() BandPolicy {
	return s.policy
}

// Select returns the pool items of meal type mt in the narrow band around target,
// or in the wide band when the narrow one is empty. An empty result means no
// eligible candidates. Items with unknown calories never qualify.
func (s *Selector) Select(pool []catalog.Item, mt catalog.MealType, target int) []catalog.Item {
	if c := filterBand(pool, mt, target, s.policy.narrow); len(c) > 0 {
		return c
	}
	return filterBand(pool, mt, target, s.policy.wide)
}

func filterBand(pool []catalog.Item, mt catalog.MealType, target int, in func(cal, target int) bool) []catalog.Item {
	var out []catalog.Item
	for _, it := range pool {
		if it.MealType != mt {
			continue
		}
		cal, ok := it.KnownCalories()
		if !ok || !in(cal, target) {
			continue
		}
		out = append(out, it)
	}
	return out
}
