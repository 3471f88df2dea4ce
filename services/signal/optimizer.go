// Package signal computes green-light timings from traffic counts and keeps a
// log of the timings that were applied.
package signal

import (
	"math"

	"travis/models"
)

const (
	// BaseGreenSeconds is the unoptimized green time for every direction.
	BaseGreenSeconds = 20.0
	MinGreenSeconds  = 10.0
	MaxGreenSeconds  = 60.0
)

// Optimize shares extra green time between directions in proportion to their
// vehicle counts. Heavier overall congestion hands out more extra time.
func Optimize(counts map[string]int, congestion float64) models.SignalPlan {
	total := 1e-6
	for _, n := range counts {
		total += float64(n)
	}

	var extra float64
	switch {
	case congestion > 60:
		extra = 40
	case congestion > 30:
		extra = 25
	default:
		extra = 10
	}

	plan := models.SignalPlan{
		OriginalTimings:   make(map[string]float64, len(counts)),
		OptimizedTimings:  make(map[string]float64, len(counts)),
		OverallCongestion: congestion,
	}
	for direction, n := range counts {
		green := BaseGreenSeconds + float64(n)/total*extra
		green = math.Max(MinGreenSeconds, math.Min(green, MaxGreenSeconds))
		plan.OriginalTimings[direction] = BaseGreenSeconds
		plan.OptimizedTimings[direction] = math.Round(green*10) / 10
	}
	return plan
}
