// Package feed provides the feed orchestrator: request validation, cache
// read-through, ranking dispatch, and pagination.
package feed

import (
	"errors"
	"time"

	"github.com/campushive/campushive/internal/post"
)

// Feed request errors surfaced to callers.
var (
	ErrInvalidFeedType   = errors.New("invalid feed type")
	ErrInvalidPagination = errors.New("invalid pagination")

	// ErrUpstreamUnavailable wraps query-layer failures. Unlike cache
	// failures, these are real and propagate to the caller as retryable.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// Type identifies a feed variant. It determines candidate selection and
// the ranking formula.
type Type string

// Known feed types.
const (
	TypeUniversity   Type = "university"
	TypeGlobal       Type = "global"
	TypeFollowing    Type = "following"
	TypeCompetitions Type = "competitions"
	TypeAchievements Type = "achievements"
)

// Valid reports whether the feed type is one of the known variants.
func (t Type) Valid() bool {
	switch t {
	case TypeUniversity, TypeGlobal, TypeFollowing, TypeCompetitions, TypeAchievements:
		return true
	default:
		return false
	}
}

// Pagination bounds.
const (
	MinPageSize     = 1
	MaxPageSize     = 50
	DefaultPageSize = 20
)

// Request is a validated feed page request.
type Request struct {
	FeedType Type       `json:"feed_type"`
	PostType *post.Type `json:"post_type,omitempty"`
	Tags     []string   `json:"tags,omitempty"`
	Since    *time.Time `json:"since,omitempty"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}

// Validate checks the request. Unknown feed types fail loudly rather than
// silently defaulting to some feed.
func (r *Request) Validate() error {
	if !r.FeedType.Valid() {
		return ErrInvalidFeedType
	}
	if r.Page < 1 {
		return ErrInvalidPagination
	}
	if r.PageSize < MinPageSize || r.PageSize > MaxPageSize {
		return ErrInvalidPagination
	}
	return nil
}

// ViewerContext carries the already-resolved identity of the requesting
// viewer. This core never resolves identity itself.
type ViewerContext struct {
	UserID                string   `json:"user_id"`
	PrimaryUniversityID   *string  `json:"primary_university_id,omitempty"`
	FollowedUserIDs       []string `json:"followed_user_ids,omitempty"`
	FollowedUniversityIDs []string `json:"followed_university_ids,omitempty"`
	FollowedTags          []string `json:"followed_tags,omitempty"`
}

// PostSummary is the per-item payload of a feed page.
type PostSummary struct {
	ID            string          `json:"id"`
	AuthorID      string          `json:"author_id"`
	UniversityID  *string         `json:"university_id,omitempty"`
	Type          post.Type       `json:"type"`
	Visibility    post.Visibility `json:"visibility"`
	Tags          []string        `json:"tags,omitempty"`
	ReactionCount int             `json:"reaction_count"`
	CommentCount  int             `json:"comment_count"`
	ViewCount     int             `json:"view_count"`
	IsPinned      bool            `json:"is_pinned"`
	IsFeatured    bool            `json:"is_featured"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Page is an ordered feed page with pagination metadata.
type Page struct {
	Items      []PostSummary `json:"items"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int           `json:"total_count"`
	HasMore    bool          `json:"has_more"`

	// FromCache marks pages served from the cache. Monitoring only;
	// business logic must never branch on it, and it is not part of the
	// cached payload.
	FromCache bool `json:"-"`
}

// summarize converts a ranked post into its page item form.
func summarize(p *post.Post) PostSummary {
	return PostSummary{
		ID:            p.ID,
		AuthorID:      p.AuthorID,
		UniversityID:  p.UniversityID,
		Type:          p.Type,
		Visibility:    p.Visibility,
		Tags:          p.Tags,
		ReactionCount: p.ReactionCount,
		CommentCount:  p.CommentCount,
		ViewCount:     p.ViewCount,
		IsPinned:      p.IsPinned,
		IsFeatured:    p.IsFeatured,
		CreatedAt:     p.CreatedAt,
	}
}
