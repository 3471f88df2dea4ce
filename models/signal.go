package models

import "time"

// SignalPlan is the optimizer output for one intersection snapshot.
type SignalPlan struct {
	OriginalTimings   map[string]float64 `json:"original_timings"`
	OptimizedTimings  map[string]float64 `json:"optimized_timings"`
	OverallCongestion float64            `json:"overall_congestion"`
}

// SignalUpdate is an optimizer action applied to the signals, kept for audit.
type SignalUpdate struct {
	ID                string             `json:"id" bson:"id"`
	Intersection      string             `json:"intersection,omitempty" bson:"intersection,omitempty"`
	Timings           map[string]float64 `json:"timings" bson:"timings" binding:"required"`
	OverallCongestion float64            `json:"overall_congestion" bson:"overallCongestion"`
	Source            string             `json:"source,omitempty" bson:"source,omitempty"`
	CreatedAt         time.Time          `json:"created_at" bson:"createdAt"`
}
