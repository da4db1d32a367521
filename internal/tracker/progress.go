package tracker

import (
	"math"

	"github.com/astrathh/taskify-habitory/internal/db"
)

// HabitRatio returns min(current/target, 1), or 0 when target <= 0.
func HabitRatio(h db.Habit) float64 {
	if h.Target <= 0 {
		return 0
	}
	ratio := float64(h.Current) / float64(h.Target)
	if ratio < 0 {
		return 0
	}
	return math.Min(ratio, 1)
}

// HabitPercent is HabitRatio scaled to a rounded 0..100 percentage.
func HabitPercent(h db.Habit) int {
	return int(math.Round(HabitRatio(h) * 100))
}

// RecomputeOverall averages the clamped per-habit percentages. Each ratio is
// capped at 100% before averaging, so one over-achieved habit does not offset
// another. An empty list yields 0.
func RecomputeOverall(habits []db.Habit) int {
	if len(habits) == 0 {
		return 0
	}
	var sum float64
	for _, h := range habits {
		sum += HabitRatio(h) * 100
	}
	return int(math.Round(sum / float64(len(habits))))
}
