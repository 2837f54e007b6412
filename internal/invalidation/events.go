// Package invalidation evicts cache entries affected by content mutations.
//
// Delivery is at-least-once with no ordering guarantee, so every handler is
// idempotent: deleting an already-deleted key is a no-op. Invalidation runs
// after the write that triggered it has committed and is strictly
// best-effort; a failed eviction is logged and the cache self-heals within
// one TTL window.
package invalidation

// PostMutated signals that a post was created, updated, or deleted, or that
// its counters shifted enough to change feed ordering.
type PostMutated struct {
	PostID       string  `json:"post_id"`
	UniversityID *string `json:"university_id,omitempty"`
}

// CommentMutated signals that a comment on the post changed.
type CommentMutated struct {
	PostID string `json:"post_id"`
}

// ReactionMutated signals that a reaction on the post changed.
type ReactionMutated struct {
	PostID string `json:"post_id"`
}

// Handler consumes mutation events. Implementations must be idempotent
// under repeated and reordered delivery and must never propagate failures
// back to the write path.
type Handler interface {
	HandlePostMutated(ev PostMutated)
	HandleCommentMutated(ev CommentMutated)
	HandleReactionMutated(ev ReactionMutated)
}
