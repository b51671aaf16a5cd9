// Package planner composes three-slot daily meal plans from the catalog.
//
// Each slot is filled greedily in Breakfast, Lunch, Dinner order: candidates in
// the slot's calorie band are scored for tag alignment and ingredient reuse, and
// the best candidate that introduces no repeated ingredient wins.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"meal-recommender/internal/catalog"
	"meal-recommender/internal/matcher"
	"meal-recommender/internal/metrics"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrInvalidRequest is returned for requests that violate the composer contract.
var ErrInvalidRequest = errors.New("invalid plan request")

const (
	// NoItemID marks a slot for which no eligible item exists.
	NoItemID = "N/A"
	// NoItemName is the display name of an unfilled slot.
	NoItemName = "No option found"
)

// slotShares are the percentage shares of the daily total per meal type, in plan order.
var slotShares = [...]struct {
	mealType catalog.MealType
	percent  int
}{
	{catalog.Breakfast, 30},
	{catalog.Lunch, 40},
	{catalog.Dinner, 30},
}

var validate = validator.New()

// PreferenceRequest is a single plan composition request.
type PreferenceRequest struct {
	Tags          []string `json:"tags"`
	TotalCalories int      `json:"total_calories" validate:"gt=0"`
}

// Slot is one meal of a plan.
type Slot struct {
	MealType catalog.MealType `json:"meal_type"`
	Target   int              `json:"target_calories"`
	ItemID   string           `json:"item_id"`
	Name     string           `json:"name"`
	Calories int              `json:"calories"`
	Tags     []string         `json:"tags"`
	Outcome  string           `json:"outcome"`
}

// Found reports whether the slot holds a catalog item.
func (s Slot) Found() bool {
	return s.ItemID != NoItemID
}

// MealPlan is a composed plan. Slots are always Breakfast, Lunch, Dinner.
type MealPlan struct {
	RequestID     string   `json:"request_id"`
	Tags          []string `json:"tags"`
	TotalCalories int      `json:"total_calories"`
	Slots         []Slot   `json:"slots"`
	SelectedIDs   []string `json:"selected_ids"`
}

// PlannedCalories sums the calories of the filled slots.
func (p *MealPlan) PlannedCalories() int {
	total := 0
	for _, s := range p.Slots {
		total += s.Calories
	}
	return total
}

// SlotTarget is the calorie target of one meal type.
type SlotTarget struct {
	MealType catalog.MealType
	Calories int
}

// Targets splits total into per-slot targets (30/40/30, truncated).
func Targets(total int) []SlotTarget {
	out := make([]SlotTarget, 0, len(slotShares))
	for _, s := range slotShares {
		out = append(out, SlotTarget{MealType: s.mealType, Calories: total * s.percent / 100})
	}
	return out
}

// Composer builds meal plans over an immutable catalog. It is safe for concurrent use;
// all per-plan state lives in the Compose call.
type Composer struct {
	catalog  *catalog.Catalog
	matcher  *matcher.Matcher
	selector *Selector
	picker   Picker
	logger   zerolog.Logger
}

// NewComposer creates a Composer.
func NewComposer(c *catalog.Catalog, m *matcher.Matcher, s *Selector, p Picker, logger zerolog.Logger) *Composer {
	return &Composer{
		catalog:  c,
		matcher:  m,
		selector: s,
		picker:   p,
		logger:   logger.With().Str("component", "planner").Logger(),
	}
}

// Compose builds a plan for req. A slot without any eligible item is returned as
// the "N/A" sentinel rather than an error.
func (c *Composer) Compose(ctx context.Context, req PreferenceRequest) (*MealPlan, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	start := time.Now()
	tags := catalog.NormalizeTags(req.Tags)
	plan := &MealPlan{
		RequestID:     uuid.NewString(),
		Tags:          tags,
		TotalCalories: req.TotalCalories,
		Slots:         make([]Slot, 0, len(slotShares)),
		SelectedIDs:   []string{},
	}
	log := c.logger.With().Str("request_id", plan.RequestID).Logger()

	pool := c.matcher.MatchTags(c.catalog, tags)
	seen := make(seenIngredients)

	for _, target := range Targets(req.TotalCalories) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("failed to compose plan: %w", err)
		}

		slot := c.fillSlot(pool, target, tags, seen)
		metrics.PlanSlotOutcomes.WithLabelValues(string(target.MealType), slot.Outcome).Inc()
		log.Debug().
			Str("meal_type", string(target.MealType)).
			Int("target", target.Calories).
			Str("item_id", slot.ItemID).
			Str("outcome", slot.Outcome).
			Msg("slot filled")

		plan.Slots = append(plan.Slots, slot)
		if slot.Found() {
			plan.SelectedIDs = append(plan.SelectedIDs, slot.ItemID)
		}
	}

	metrics.PlansComposed.Inc()
	log.Info().
		Strs("tags", tags).
		Int("total_calories", req.TotalCalories).
		Int("pool", len(pool)).
		Int("selected", len(plan.SelectedIDs)).
		Dur("duration", time.Since(start)).
		Msg("plan composed")

	return plan, nil
}

func (c *Composer) fillSlot(pool []catalog.Item, target SlotTarget, tags []string, seen seenIngredients) Slot {
	if candidates := c.selector.Select(pool, target.MealType, target.Calories); len(candidates) > 0 {
		chosen := chooseDiverse(candidates, tags, seen)
		seen.add(ExtractIngredients(chosen.Name))
		return newSlot(target, chosen, metrics.OutcomeSelected)
	}

	if fallback := filterBand(pool, target.MealType, target.Calories, withinCeiling); len(fallback) > 0 {
		chosen := fallback[c.picker.Intn(len(fallback))]
		seen.add(ExtractIngredients(chosen.Name))
		return newSlot(target, chosen, metrics.OutcomeRandomFallback)
	}

	return Slot{
		MealType: target.MealType,
		Target:   target.Calories,
		ItemID:   NoItemID,
		Name:     NoItemName,
		Tags:     []string{},
		Outcome:  metrics.OutcomeNone,
	}
}

// chooseDiverse ranks candidates by DiversityScore (stable, so ties keep catalog
// order) and returns the first one reusing no seen ingredient, or the top one.
func chooseDiverse(candidates []catalog.Item, tags []string, seen seenIngredients) catalog.Item {
	type scored struct {
		item        catalog.Item
		score       int
		ingredients []string
	}

	ranked := make([]scored, len(candidates))
	for i, it := range candidates {
		ranked[i] = scored{item: it, score: DiversityScore(it, tags, seen), ingredients: ExtractIngredients(it.Name)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	for _, r := range ranked {
		if seen.count(r.ingredients) == 0 {
			return r.item
		}
	}
	return ranked[0].item
}

func newSlot(target SlotTarget, it catalog.Item, outcome string) Slot {
	return Slot{
		MealType: target.MealType,
		Target:   target.Calories,
		ItemID:   it.ID,
		Name:     it.Name,
		Calories: it.Calories,
		Tags:     append([]string{}, it.Tags...),
		Outcome:  outcome,
	}
}
