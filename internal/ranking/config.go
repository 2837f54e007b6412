package ranking

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// LoadCalibration loads ranking weights from a JSON calibration file.
// If the file doesn't exist or can't be parsed, returns default weights with
// an error so callers can degrade gracefully. Partial configurations are
// merged with defaults.
func LoadCalibration(filePath string) (*Weights, error) {
	// Return defaults if no file path provided
	if filePath == "" {
		return DefaultWeights(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultWeights(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultWeights()
	merged := MergeCalibration(defaults, &config.Weights)
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration merges override weights with base weights. Only non-zero
// values from the override are applied, which allows partial overrides in
// the calibration file.
func MergeCalibration(base *Weights, override *Weights) *Weights {
	// Guard against nil base to avoid panics; fall back to defaults.
	if base == nil {
		return DefaultWeights()
	}

	if override == nil {
		result := *base
		return &result
	}

	result := *base // Copy base

	if override.Engagement.Reaction != 0 {
		result.Engagement.Reaction = override.Engagement.Reaction
	}
	if override.Engagement.Comment != 0 {
		result.Engagement.Comment = override.Engagement.Comment
	}
	if override.Engagement.ViewDivisor != 0 {
		result.Engagement.ViewDivisor = override.Engagement.ViewDivisor
	}

	if override.Trending.Reaction != 0 {
		result.Trending.Reaction = override.Trending.Reaction
	}
	if override.Trending.Comment != 0 {
		result.Trending.Comment = override.Trending.Comment
	}
	if override.Trending.ViewDivisor != 0 {
		result.Trending.ViewDivisor = override.Trending.ViewDivisor
	}
	if override.Trending.DayBoost != 0 {
		result.Trending.DayBoost = override.Trending.DayBoost
	}
	if override.Trending.ThreeDayBoost != 0 {
		result.Trending.ThreeDayBoost = override.Trending.ThreeDayBoost
	}
	if override.Trending.EventBoost != 0 {
		result.Trending.EventBoost = override.Trending.EventBoost
	}
	if override.Trending.AchievementBoost != 0 {
		result.Trending.AchievementBoost = override.Trending.AchievementBoost
	}

	if override.RecentWindowDays != 0 {
		result.RecentWindowDays = override.RecentWindowDays
	}

	return &result
}

// logCalibrationOverrides logs which weights were overridden from defaults.
func logCalibrationOverrides(defaults *Weights, loaded *Weights) {
	var overrides []string

	add := func(name string, def, got float64) {
		if got != def {
			overrides = append(overrides, fmt.Sprintf("%s: %.2f -> %.2f", name, def, got))
		}
	}

	add("engagement.reaction", defaults.Engagement.Reaction, loaded.Engagement.Reaction)
	add("engagement.comment", defaults.Engagement.Comment, loaded.Engagement.Comment)
	add("engagement.view_divisor", defaults.Engagement.ViewDivisor, loaded.Engagement.ViewDivisor)
	add("trending.reaction", defaults.Trending.Reaction, loaded.Trending.Reaction)
	add("trending.comment", defaults.Trending.Comment, loaded.Trending.Comment)
	add("trending.view_divisor", defaults.Trending.ViewDivisor, loaded.Trending.ViewDivisor)
	add("trending.day_boost", defaults.Trending.DayBoost, loaded.Trending.DayBoost)
	add("trending.three_day_boost", defaults.Trending.ThreeDayBoost, loaded.Trending.ThreeDayBoost)
	add("trending.event_boost", defaults.Trending.EventBoost, loaded.Trending.EventBoost)
	add("trending.achievement_boost", defaults.Trending.AchievementBoost, loaded.Trending.AchievementBoost)

	if loaded.RecentWindowDays != defaults.RecentWindowDays {
		overrides = append(overrides, fmt.Sprintf("recent_window_days: %d -> %d",
			defaults.RecentWindowDays, loaded.RecentWindowDays))
	}

	if len(overrides) > 0 {
		slog.Info("loaded ranking calibration with overrides",
			"overrides", overrides)
	} else {
		slog.Info("loaded ranking calibration (using all defaults)")
	}
}
