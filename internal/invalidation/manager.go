package invalidation

import (
	"context"
	"log/slog"
	"time"

	"github.com/campushive/campushive/internal/cache"
)

// DefaultEvictTimeout bounds the store calls for a single event.
const DefaultEvictTimeout = 2 * time.Second

// Manager translates mutation events into cache evictions with a narrow
// blast radius. Over-invalidating unrelated keys costs only performance;
// missing an affected key is a correctness bug, so radii err on the wide
// side within their namespace.
type Manager struct {
	store   cache.Store
	fp      *cache.Fingerprinter
	metrics *Metrics
	timeout time.Duration
}

// NewManager creates an invalidation manager. A nil metrics disables
// counters; a non-positive timeout falls back to DefaultEvictTimeout.
func NewManager(store cache.Store, fp *cache.Fingerprinter, metrics *Metrics, timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = DefaultEvictTimeout
	}
	return &Manager{
		store:   store,
		fp:      fp,
		metrics: metrics,
		timeout: timeout,
	}
}

// HandlePostMutated evicts the single-post entry, every feed page scoped to
// the post's university, and every global feed page. A single post's
// counters can shift global trending order, so the global namespace goes
// unconditionally.
func (m *Manager) HandlePostMutated(ev PostMutated) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.countEvent("post_mutated")
	m.evictPostEntry(ctx, ev.PostID)

	if ev.UniversityID != nil {
		m.evictPattern(ctx, cache.UniversityFeedPattern(*ev.UniversityID))
	}
	m.evictPattern(ctx, cache.GlobalFeedPattern())
}

// HandleCommentMutated evicts the single-post entry only. Comments do not
// affect feed-level ordering caches, just the post detail view.
func (m *Manager) HandleCommentMutated(ev CommentMutated) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.countEvent("comment_mutated")
	m.evictPostEntry(ctx, ev.PostID)
}

// HandleReactionMutated evicts the single-post entry only, same blast
// radius as comments.
func (m *Manager) HandleReactionMutated(ev ReactionMutated) {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	m.countEvent("reaction_mutated")
	m.evictPostEntry(ctx, ev.PostID)
}

func (m *Manager) evictPostEntry(ctx context.Context, postID string) {
	key, err := m.fp.PostKey(postID)
	if err != nil {
		m.countFailure()
		slog.Error("failed to derive post cache key", "post_id", postID, "error", err)
		return
	}

	if err := m.store.Delete(ctx, key); err != nil {
		m.countFailure()
		slog.Warn("failed to evict post cache entry, relying on TTL",
			"post_id", postID,
			"error", err)
		return
	}
	m.countDeleted(1)
}

func (m *Manager) evictPattern(ctx context.Context, pattern string) {
	if !m.store.SupportsPatternDelete() {
		m.countUnsupported()
		slog.Warn("cache store cannot delete by pattern, relying on TTL",
			"pattern", pattern)
		return
	}

	deleted, err := m.store.DeleteMatching(ctx, pattern)
	if err != nil {
		m.countFailure()
		slog.Warn("failed to evict feed cache entries, relying on TTL",
			"pattern", pattern,
			"deleted", deleted,
			"error", err)
		return
	}
	m.countDeleted(deleted)
}

func (m *Manager) countEvent(kind string) {
	if m.metrics != nil {
		m.metrics.IncEvent(kind)
	}
}

func (m *Manager) countDeleted(n int) {
	if m.metrics != nil && n > 0 {
		m.metrics.AddDeletedKeys(n)
	}
}

func (m *Manager) countFailure() {
	if m.metrics != nil {
		m.metrics.IncFailure()
	}
}

func (m *Manager) countUnsupported() {
	if m.metrics != nil {
		m.metrics.IncPatternUnsupported()
	}
}
