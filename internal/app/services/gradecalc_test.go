package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWeightedPercentageWorkedExample(t *testing.T) {
	// Quizzes 40% with the lowest of three dropped, exams 60%.
	groups := []GroupInput{
		{
			Weight:     40,
			DropLowest: 1,
			Items: []GradedItem{
				{Earned: 8, Possible: 10},
				{Earned: 9, Possible: 10},
				{Earned: 3, Possible: 10},
			},
		},
		{
			Weight: 60,
			Items: []GradedItem{
				{Earned: 45, Possible: 50},
				{Earned: 40, Possible: 50},
			},
		},
	}

	// Quizzes keep 8/10 and 9/10 -> 0.85; exams -> 85/100 = 0.85.
	// 0.85*40 + 0.85*60 = 85.
	got := WeightedPercentage(groups)
	assert.InDelta(t, 85.0, got, 1e-9)
	assert.Equal(t, "B", LetterFor(got))
}

func TestWeightedPercentageSkipsEmptyGroups(t *testing.T) {
	groups := []GroupInput{
		{Weight: 50, Items: []GradedItem{{Earned: 90, Possible: 100}}},
		{Weight: 50}, // nothing graded yet, weight renormalizes
	}

	assert.InDelta(t, 90.0, WeightedPercentage(groups), 1e-9)
}

func TestWeightedPercentageNoGradedWork(t *testing.T) {
	assert.Zero(t, WeightedPercentage(nil))
	assert.Zero(t, WeightedPercentage([]GroupInput{{Weight: 100}}))
}

func TestFlatPercentage(t *testing.T) {
	items := []GradedItem{
		{Earned: 9, Possible: 10},
		{Earned: 27, Possible: 30},
	}
	assert.InDelta(t, 90.0, FlatPercentage(items), 1e-9)

	assert.Zero(t, FlatPercentage(nil))
	assert.Zero(t, FlatPercentage([]GradedItem{{Earned: 5, Possible: 0}}))
}

func TestDropLowestDropsWorstRatios(t *testing.T) {
	items := []GradedItem{
		{Earned: 50, Possible: 100}, // 0.5
		{Earned: 9, Possible: 10},   // 0.9
		{Earned: 3, Possible: 10},   // 0.3
	}

	kept := dropLowest(items, 1)
	assert.Len(t, kept, 2)
	for _, item := range kept {
		assert.NotEqual(t, GradedItem{Earned: 3, Possible: 10}, item)
	}

	// Dropping everything leaves nothing rather than panicking.
	assert.Nil(t, dropLowest(items, 3))
	assert.Nil(t, dropLowest(items, 5))

	// Ratio, not absolute points, decides what is lowest: 5/10 beats
	// 40/100 even though it earned fewer points.
	byRatio := []GradedItem{
		{Earned: 40, Possible: 100}, // 0.4
		{Earned: 5, Possible: 10},   // 0.5
	}
	kept = dropLowest(byRatio, 1)
	assert.Equal(t, []GradedItem{{Earned: 5, Possible: 10}}, kept)
}

func TestDropLowestNeverLowersScore(t *testing.T) {
	items := []GradedItem{
		{Earned: 6, Possible: 10},
		{Earned: 7, Possible: 10},
		{Earned: 10, Possible: 10},
	}

	without, _ := GroupPercentage(GroupInput{Weight: 1, Items: items})
	with, _ := GroupPercentage(GroupInput{Weight: 1, DropLowest: 1, Items: items})
	assert.GreaterOrEqual(t, with, without)
}

func TestLetterForBoundaries(t *testing.T) {
	tests := []struct {
		percentage float64
		want       string
	}{
		{100, "A"},
		{90, "A"},
		{89.999, "B"},
		{80, "B"},
		{79.999, "C"},
		{70, "C"},
		{69.999, "D"},
		{60, "D"},
		{59.999, "F"},
		{0, "F"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, LetterFor(tt.percentage), "percentage %v", tt.percentage)
	}
}

func TestZeroPointItemScoresAsZero(t *testing.T) {
	items := []GradedItem{
		{Earned: 5, Possible: 0}, // treated as worst
		{Earned: 8, Possible: 10},
	}
	kept := dropLowest(items, 1)
	assert.Equal(t, []GradedItem{{Earned: 8, Possible: 10}}, kept)
}
