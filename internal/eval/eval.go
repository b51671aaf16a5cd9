// Package eval measures plan quality against hand-labelled relevant items.
package eval

import (
	"context"
	"fmt"

	"meal-recommender/internal/catalog"
	"meal-recommender/internal/planner"
)

// DefaultK is the cut-off used by the reference evaluation.
const DefaultK = 5

// PrecisionAtK returns the share of the first k recommended ids that are relevant.
// Fewer than k recommendations shrink the denominator; an empty cut scores 0.
func PrecisionAtK(recommended, relevant []string, k int) float64 {
	if k > len(recommended) {
		k = len(recommended)
	}
	if k <= 0 {
		return 0
	}

	rel := make(map[string]struct{}, len(relevant))
	for _, id := range relevant {
		rel[id] = struct{}{}
	}
	hits := make(map[string]struct{}, k)
	for _, id := range recommended[:k] {
		if _, ok := rel[id]; ok {
			hits[id] = struct{}{}
		}
	}
	return float64(len(hits)) / float64(k)
}

// Case is one labelled plan request.
type Case struct {
	Name     string
	Tags     []string
	Calories int
	Relevant []string
}

// DefaultCases are the reference evaluation cases.
func DefaultCases() []Case {
	return []Case{
		{Name: "vegan_1800", Tags: []string{"vegan"}, Calories: 1800, Relevant: []string{"319874", "1234567", "987654"}},
		{Name: "lowcarb_highprotein_2200", Tags: []string{"low_carb", "high_protein"}, Calories: 2200, Relevant: []string{"112233", "445566", "778899"}},
		{Name: "default_1500", Calories: 1500, Relevant: []string{"223344", "556677", "889900"}},
	}
}

// GroundTruthItems are the catalog rows the default cases were labelled against.
func GroundTruthItems() []catalog.Item {
	row := func(id, name string, cal int, mt catalog.MealType, tags string) catalog.Item {
		return catalog.Item{ID: id, Name: name, Calories: cal, MealType: mt, Tags: catalog.ParseTags(tags)}
	}
	return []catalog.Item{
		row("319874", "Hummus, Sabra Classic", 720, catalog.Lunch, "vegan,healthy,lunch"),
		row("1234567", "Healthy Choice Vegan Bowl", 540, catalog.Dinner, "vegan,healthy"),
		row("987654", "Tofu Quinoa Salad", 540, catalog.Breakfast, "vegan,high_protein"),
		row("112233", "Grilled Chicken Breast", 880, catalog.Dinner, "low_carb,high_protein"),
		row("445566", "Salmon Avocado Bowl", 880, catalog.Lunch, "low_carb,high_protein"),
		row("778899", "Egg White Omelette", 660, catalog.Breakfast, "low_carb,high_protein"),
		row("223344", "Greek Yogurt Bowl", 450, catalog.Breakfast, "healthy"),
		row("556677", "Turkey Sandwich", 600, catalog.Lunch, "healthy"),
		row("889900", "Veggie Stir Fry", 450, catalog.Dinner, "healthy"),
	}
}

// Composer is the part of planner.Composer the harness needs.
type Composer interface {
	Compose(ctx context.Context, req planner.PreferenceRequest) (*planner.MealPlan, error)
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Case        Case
	Recommended []string
	Precision   float64
}

// Report summarises an evaluation run.
type Report struct {
	K       int
	Results []CaseResult
	Average float64
}

// Run composes a plan per case and scores its selected ids at k.
func Run(ctx context.Context, c Composer, cases []Case, k int) (*Report, error) {
	report := &Report{K: k, Results: make([]CaseResult, 0, len(cases))}
	if len(cases) == 0 {
		return report, nil
	}

	sum := 0.0
	for _, tc := range cases {
		plan, err := c.Compose(ctx, planner.PreferenceRequest{Tags: tc.Tags, TotalCalories: tc.Calories})
		if err != nil {
			return nil, fmt.Errorf("failed to compose plan for case %s: %w", tc.Name, err)
		}

		p := PrecisionAtK(plan.SelectedIDs, tc.Relevant, k)
		report.Results = append(report.Results, CaseResult{Case: tc, Recommended: plan.SelectedIDs, Precision: p})
		sum += p
	}
	report.Average = sum / float64(len(cases))
	return report, nil
}
