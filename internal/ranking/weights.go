package ranking

// EngagementWeights defines the per-counter weights for the university feed
// engagement score.
type EngagementWeights struct {
	Reaction    float64 `json:"reaction"`     // Weight per reaction (default: 1.0)
	Comment     float64 `json:"comment"`      // Weight per comment (default: 2.0)
	ViewDivisor float64 `json:"view_divisor"` // Views per engagement point (default: 10)
}

// TrendingWeights defines the weights and boosts for the global feed
// trending score.
type TrendingWeights struct {
	Reaction         float64 `json:"reaction"`          // Weight per reaction (default: 2.0)
	Comment          float64 `json:"comment"`           // Weight per comment (default: 3.0)
	ViewDivisor      float64 `json:"view_divisor"`      // Views per trending point (default: 100)
	DayBoost         float64 `json:"day_boost"`         // Boost for posts under 1 day old (default: 3.0)
	ThreeDayBoost    float64 `json:"three_day_boost"`   // Boost for posts under 3 days old (default: 2.0)
	EventBoost       float64 `json:"event_boost"`       // Boost for event posts (default: 2.0)
	AchievementBoost float64 `json:"achievement_boost"` // Boost for achievement posts (default: 1.5)
}

// Weights holds all ranking weight configurations.
type Weights struct {
	Engagement EngagementWeights `json:"engagement"` // University feed engagement score
	Trending   TrendingWeights   `json:"trending"`   // Global feed trending score
	// RecentWindowDays bounds the "recent" priority tier in the
	// university feed (default: 7).
	RecentWindowDays int `json:"recent_window_days"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version string  `json:"version"` // Config version for future compatibility
	Weights Weights `json:"weights"` // Weight configurations
}

// DefaultWeights returns the default ranking weight configuration.
//
// Engagement formula: reactions + comments*2 + floor(views/10)
// Trending formula: (reactions*2 + comments*3 + views/100) * recency_boost * type_boost
//   - recency_boost: 3.0 under 1 day, 2.0 under 3 days, else 1.0
//   - type_boost: 2.0 for events, 1.5 for achievements, else 1.0
func DefaultWeights() *Weights {
	return &Weights{
		Engagement: EngagementWeights{
			Reaction:    1.0,
			Comment:     2.0,
			ViewDivisor: 10,
		},
		Trending: TrendingWeights{
			Reaction:         2.0,
			Comment:          3.0,
			ViewDivisor:      100,
			DayBoost:         3.0,
			ThreeDayBoost:    2.0,
			EventBoost:       2.0,
			AchievementBoost: 1.5,
		},
		RecentWindowDays: 7,
	}
}
