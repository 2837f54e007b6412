// Package ranking orders feed candidates per feed type with calibration
// support for the scoring weights.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	weights, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		log.Warn("using default weights", "error", err)
//	}
//
//	// Order candidates for the home (university) feed
//	ranking.SortUniversity(posts, time.Now(), weights)
//
//	// Order candidates for the global feed
//	ranking.SortGlobal(posts, time.Now(), weights)
//
// Ordering:
//
// Every sort is deterministic. All feed types share a final tie-break of
// (created_at DESC, id ASC) so that paginating a ranked sequence never
// duplicates or skips rows when scores tie.
//
// Calibration:
//
// The scoring weights (engagement and trending formulas, recency and type
// boosts, the recent-post window) are product-tuning constants, not
// algorithmic requirements. They are loaded at startup from a JSON
// calibration file and merged over defaults, which enables A/B testing and
// tuning without code changes (a restart picks up new configuration). See
// configs/ranking.calibration.json for the defaults.
package ranking
