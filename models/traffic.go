package models

// TrafficSample is one congestion reading pushed by the vision model.
// Timestamps are unix seconds as floats, matching what the model emits.
type TrafficSample struct {
	Timestamp         float64        `json:"timestamp,omitempty"`
	Counts            map[string]int `json:"counts" binding:"required"`
	OverallCongestion float64        `json:"overall_congestion"`
	ReceivedAt        float64        `json:"received_at"`
}
