package app

import (
	"fmt"
	"strings"

	"meal-recommender/internal/eval"
	"meal-recommender/internal/metrics"
	"meal-recommender/internal/planner"
	"meal-recommender/internal/ranker"
)

// FormatPlan renders a plan for a terminal.
func FormatPlan(plan *planner.MealPlan) string {
	var sb strings.Builder
	tags := "none"
	if len(plan.Tags) > 0 {
		tags = strings.Join(plan.Tags, ", ")
	}
	fmt.Fprintf(&sb, "=== MEAL PLAN (%d kcal, tags: %s) ===\n", plan.TotalCalories, tags)

	for _, s := range plan.Slots {
		if !s.Found() {
			fmt.Fprintf(&sb, "%-10s %s (target %d kcal)\n", title(string(s.MealType))+":", s.Name, s.Target)
			continue
		}
		fmt.Fprintf(&sb, "%-10s %s [%s] %d kcal (target %d)", title(string(s.MealType))+":", s.Name, s.ItemID, s.Calories, s.Target)
		if s.Outcome == metrics.OutcomeRandomFallback {
			sb.WriteString(" *random pick*")
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "Total: %d kcal\n", plan.PlannedCalories())
	return sb.String()
}

// FormatRanking renders ranked items as a numbered list.
func FormatRanking(items []ranker.RankedItem) string {
	if len(items) == 0 {
		return "No matching items.\n"
	}
	var sb strings.Builder
	for i, it := range items {
		cal := "? kcal"
		if it.CaloriesKnown {
			cal = fmt.Sprintf("%d kcal", it.Calories)
		}
		fmt.Fprintf(&sb, "%2d. %s [%s] %s score %.2f", i+1, it.Name, it.ItemID, cal, it.Score)
		if it.Score != it.BaseScore {
			fmt.Fprintf(&sb, " (boosted from %.2f)", it.BaseScore)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatReport renders an evaluation report.
func FormatReport(r *eval.Report) string {
	var sb strings.Builder
	for _, res := range r.Results {
		fmt.Fprintf(&sb, "%-28s precision@%d = %.2f  %v\n", res.Case.Name, r.K, res.Precision, res.Recommended)
	}
	fmt.Fprintf(&sb, "Average precision@%d: %.2f\n", r.K, r.Average)
	return sb.String()
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
