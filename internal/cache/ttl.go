package cache

import "time"

// Class is a TTL class for cache entries. The class bounds how stale an
// entry can get when invalidation never reaches it.
type Class string

// Known TTL classes.
const (
	ClassFeed        Class = "feed"
	ClassPost        Class = "post"
	ClassLeaderboard Class = "leaderboard"
	ClassUserStats   Class = "user_stats"
	ClassUniversity  Class = "university"
)

// TTL returns the expiry duration for the class. Unknown classes get the
// shortest TTL so a misclassified entry can never outlive a feed page.
func (c Class) TTL() time.Duration {
	switch c {
	case ClassFeed:
		return 60 * time.Second
	case ClassPost:
		return 300 * time.Second
	case ClassLeaderboard:
		return 3600 * time.Second
	case ClassUserStats:
		return 600 * time.Second
	case ClassUniversity:
		return 3600 * time.Second
	default:
		return 60 * time.Second
	}
}
