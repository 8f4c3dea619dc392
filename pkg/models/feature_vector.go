package models

import "time"

// FeatureNames is the fixed feature declaration order shared by the
// aggregator, the trained models and the explainer. The order is part of
// the model contract: snapshots are fitted against it and become invalid
// if it changes.
var FeatureNames = []string{
	"login_failure_count",
	"login_success_count",
	"unique_ips",
	"request_rate",
	"avg_response_time",
	"error_rate",
	"bytes_sent",
	"hour_of_day",
	"is_business_hours",
	"day_of_week",
	"is_weekend",
	"geo_countries_accessed",
	"geo_velocity",
	"ip_reputation_score",
}

// FeatureIndex returns the declaration index of a feature name, or -1.
func FeatureIndex(name string) int {
	for i, n := range FeatureNames {
		if n == name {
			return i
		}
	}
	return -1
}

// FeatureVector is the fixed-width numeric vector for one (actor, window)
// pair. Values holds one entry per FeatureNames slot; vectors are never
// partial.
type FeatureVector struct {
	Actor       string    `json:"actor"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Values      []float64 `json:"values"`
}

// Get returns the value of a named feature, 0 for unknown names.
func (v *FeatureVector) Get(name string) float64 {
	idx := FeatureIndex(name)
	if v == nil || idx < 0 || idx >= len(v.Values) {
		return 0
	}
	return v.Values[idx]
}
