package ranking

import (
	"math"
	"sort"
	"time"

	"github.com/campushive/campushive/internal/post"
)

// Priority tiers for the university feed. Lower is higher priority.
const (
	TierPinned   = 1
	TierFeatured = 2
	TierRecent   = 3
	TierDefault  = 4
)

// EngagementScore computes the engagement score used within university feed
// tiers: reactions + comments*2 + floor(views/10) under default weights.
func EngagementScore(p *post.Post, w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	score := float64(p.ReactionCount)*w.Engagement.Reaction +
		float64(p.CommentCount)*w.Engagement.Comment
	if w.Engagement.ViewDivisor > 0 {
		score += math.Floor(float64(p.ViewCount) / w.Engagement.ViewDivisor)
	}
	return score
}

// RecencyBoost returns the trending multiplier for a post's age:
// DayBoost under one day, ThreeDayBoost under three days, else 1.0.
func RecencyBoost(createdAt, now time.Time, w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	age := now.Sub(createdAt)
	switch {
	case age < 24*time.Hour:
		return w.Trending.DayBoost
	case age < 72*time.Hour:
		return w.Trending.ThreeDayBoost
	default:
		return 1.0
	}
}

// TypeBoost returns the trending multiplier for a post type: EventBoost for
// events, AchievementBoost for achievements, else 1.0.
func TypeBoost(t post.Type, w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	switch t {
	case post.TypeEvent:
		return w.Trending.EventBoost
	case post.TypeAchievement:
		return w.Trending.AchievementBoost
	default:
		return 1.0
	}
}

// TrendingScore computes the global feed trending score:
// (reactions*2 + comments*3 + views/100) * recency_boost * type_boost
// under default weights.
func TrendingScore(p *post.Post, now time.Time, w *Weights) float64 {
	if w == nil {
		w = DefaultWeights()
	}
	base := float64(p.ReactionCount)*w.Trending.Reaction +
		float64(p.CommentCount)*w.Trending.Comment
	if w.Trending.ViewDivisor > 0 {
		base += float64(p.ViewCount) / w.Trending.ViewDivisor
	}
	return base * RecencyBoost(p.CreatedAt, now, w) * TypeBoost(p.Type, w)
}

// UniversityTier assigns the priority tier for the university feed:
// active pin > featured > recent > everything else. An expired pin does not
// count as pinned.
func UniversityTier(p *post.Post, now time.Time, w *Weights) int {
	if w == nil {
		w = DefaultWeights()
	}
	switch {
	case p.PinActive(now):
		return TierPinned
	case p.IsFeatured:
		return TierFeatured
	case now.Sub(p.CreatedAt) < time.Duration(w.RecentWindowDays)*24*time.Hour:
		return TierRecent
	default:
		return TierDefault
	}
}

// SortUniversity orders posts for the university feed in place:
// tier ASC, then pinned_at DESC, engagement DESC, created_at DESC, id ASC.
// The pinned_at key only applies to active pins; an expired pin sorts as if
// it was never pinned.
func SortUniversity(posts []*post.Post, now time.Time, w *Weights) {
	if w == nil {
		w = DefaultWeights()
	}

	tiers := make(map[string]int, len(posts))
	scores := make(map[string]float64, len(posts))
	pins := make(map[string]time.Time, len(posts))
	for _, p := range posts {
		tiers[p.ID] = UniversityTier(p, now, w)
		scores[p.ID] = EngagementScore(p, w)
		if p.PinActive(now) {
			pins[p.ID] = p.PinnedAt
		}
	}

	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if tiers[a.ID] != tiers[b.ID] {
			return tiers[a.ID] < tiers[b.ID]
		}
		pinA, pinB := pins[a.ID], pins[b.ID]
		if !pinA.Equal(pinB) {
			return pinA.After(pinB)
		}
		if scores[a.ID] != scores[b.ID] {
			return scores[a.ID] > scores[b.ID]
		}
		return newerFirst(a, b)
	})
}

// SortGlobal orders posts for the global feed in place:
// featured first, then trending score DESC, created_at DESC, id ASC.
func SortGlobal(posts []*post.Post, now time.Time, w *Weights) {
	if w == nil {
		w = DefaultWeights()
	}

	scores := make(map[string]float64, len(posts))
	for _, p := range posts {
		scores[p.ID] = TrendingScore(p, now, w)
	}

	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if a.IsFeatured != b.IsFeatured {
			return a.IsFeatured
		}
		if scores[a.ID] != scores[b.ID] {
			return scores[a.ID] > scores[b.ID]
		}
		return newerFirst(a, b)
	})
}

// SortFollowing orders posts for the following feed in place. Recency is the
// only signal for a subscription feed: created_at DESC, id ASC.
func SortFollowing(posts []*post.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return newerFirst(posts[i], posts[j])
	})
}

// SortCompetitions orders posts for the competitions feed in place. When the
// viewer has a primary university, posts from that university are boosted to
// the front; recency orders the rest.
func SortCompetitions(posts []*post.Post, viewerUniversityID *string) {
	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		if viewerUniversityID != nil {
			matchA := a.UniversityID != nil && *a.UniversityID == *viewerUniversityID
			matchB := b.UniversityID != nil && *b.UniversityID == *viewerUniversityID
			if matchA != matchB {
				return matchA
			}
		}
		return newerFirst(a, b)
	})
}

// SortAchievements orders posts for the achievements feed in place:
// created_at DESC, id ASC.
func SortAchievements(posts []*post.Post) {
	sort.Slice(posts, func(i, j int) bool {
		return newerFirst(posts[i], posts[j])
	})
}

// newerFirst is the shared tie-break for every feed type:
// created_at DESC, then id ASC. It keeps pagination deterministic when
// scores tie.
func newerFirst(a, b *post.Post) bool {
	if a.CreatedAt.After(b.CreatedAt) {
		return true
	}
	if a.CreatedAt.Before(b.CreatedAt) {
		return false
	}
	return a.ID < b.ID
}
