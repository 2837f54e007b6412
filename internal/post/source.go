package post

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CandidateSource is the query-layer contract consumed by the feed core.
// Implementations are not required to return candidates in any particular
// order; the ranking pass always re-sorts.
type CandidateSource interface {
	// FetchCandidates returns all posts selected by the filter spec.
	FetchCandidates(ctx context.Context, spec FilterSpec) ([]*Post, error)

	// GetByID retrieves a single post. Returns ErrPostNotFound if absent.
	GetByID(ctx context.Context, id string) (*Post, error)
}

// InMemorySource is an in-memory implementation of CandidateSource.
// Thread-safe via RWMutex. Used in tests and local development; production
// deployments plug in a store-backed implementation.
type InMemorySource struct {
	mu    sync.RWMutex
	posts map[string]*Post
}

// NewInMemorySource creates a new in-memory candidate source.
func NewInMemorySource() *InMemorySource {
	return &InMemorySource{
		posts: make(map[string]*Post),
	}
}

// Create inserts a new post, generating a UUID if none is set.
func (s *InMemorySource) Create(p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}

	s.posts[p.ID] = p.clone()
	return nil
}

// Update replaces an existing post.
func (s *InMemorySource) Update(p *Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.posts[p.ID]; !ok {
		return ErrPostNotFound
	}

	s.posts[p.ID] = p.clone()
	return nil
}

// AddReaction increments the reaction counter on a post.
func (s *InMemorySource) AddReaction(id string) error {
	return s.bump(id, func(p *Post) { p.ReactionCount++ })
}

// AddComment increments the comment counter on a post.
func (s *InMemorySource) AddComment(id string) error {
	return s.bump(id, func(p *Post) { p.CommentCount++ })
}

// AddView increments the view counter on a post.
func (s *InMemorySource) AddView(id string) error {
	return s.bump(id, func(p *Post) { p.ViewCount++ })
}

func (s *InMemorySource) bump(id string, apply func(*Post)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok {
		return ErrPostNotFound
	}
	apply(p)
	return nil
}

// FetchCandidates returns all posts selected by the filter spec.
// Returns deep copies to prevent external mutation.
func (s *InMemorySource) FetchCandidates(ctx context.Context, spec FilterSpec) ([]*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Post
	for _, p := range s.posts {
		if spec.Matches(p) {
			results = append(results, p.clone())
		}
	}
	return results, nil
}

// GetByID retrieves a post by its UUID.
func (s *InMemorySource) GetByID(ctx context.Context, id string) (*Post, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}

	return p.clone(), nil
}
