package services

import "sort"

// GradedItem is one graded submission as an (earned, possible) pair.
type GradedItem struct {
	Earned   float64
	Possible float64
}

// GroupInput carries everything the weighted aggregation needs from one
// assignment group: its weight, its drop-lowest count, and the student's
// graded items inside it.
type GroupInput struct {
	Weight     float64
	DropLowest int
	Items      []GradedItem
}

// ratio is the drop-lowest sort key. A zero-point item scores as zero.
func ratio(item GradedItem) float64 {
	if item.Possible <= 0 {
		return 0
	}
	return item.Earned / item.Possible
}

// dropLowest removes the n lowest-scoring items, never more than exist.
// The sort is stable so ties resolve by original item order and the
// computation stays deterministic across invocations.
func dropLowest(items []GradedItem, n int) []GradedItem {
	if n <= 0 || len(items) == 0 {
		return items
	}
	if n >= len(items) {
		return nil
	}

	sorted := make([]GradedItem, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ratio(sorted[i]) < ratio(sorted[j])
	})

	return sorted[n:]
}

// FlatPercentage computes the ungrouped final percentage:
// 100 * sum(earned) / sum(possible), 0 when there is nothing to grade.
func FlatPercentage(items []GradedItem) float64 {
	var earned, possible float64
	for _, item := range items {
		earned += item.Earned
		possible += item.Possible
	}
	if possible <= 0 {
		return 0
	}
	return earned / possible * 100
}

// GroupPercentage computes one group's score as a fraction in [0, 1] after
// applying drop-lowest. The second return is false when the group holds no
// graded items and must be skipped entirely.
func GroupPercentage(group GroupInput) (float64, bool) {
	if len(group.Items) == 0 {
		return 0, false
	}

	kept := dropLowest(group.Items, group.DropLowest)

	var earned, possible float64
	for _, item := range kept {
		earned += item.Earned
		possible += item.Possible
	}
	if possible <= 0 {
		return 0, true
	}
	return earned / possible, true
}

// WeightedPercentage aggregates group scores into the final percentage.
// Group weights need not sum to 100; the result is normalized by the total
// weight of the groups that contributed. No contributing groups yields 0.
func WeightedPercentage(groups []GroupInput) float64 {
	var weightedSum, totalWeight float64
	for _, group := range groups {
		pct, ok := GroupPercentage(group)
		if !ok {
			continue
		}
		weightedSum += pct * group.Weight
		totalWeight += group.Weight
	}
	if totalWeight <= 0 {
		return 0
	}
	return weightedSum / totalWeight * 100
}

// LetterFor maps a percentage to a letter grade with inclusive lower bounds.
func LetterFor(percentage float64) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}
