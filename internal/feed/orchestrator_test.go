package feed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/campushive/campushive/internal/cache"
	"github.com/campushive/campushive/internal/invalidation"
	"github.com/campushive/campushive/internal/post"
)

var orchNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func newTestFingerprinter(t *testing.T) *cache.Fingerprinter {
	t.Helper()
	fp, err := cache.NewFingerprinter()
	if err != nil {
		t.Fatalf("NewFingerprinter failed: %v", err)
	}
	return fp
}

// seedUniversityPosts loads n plain university posts with distinct ages.
func seedUniversityPosts(t *testing.T, source *post.InMemorySource, universityID string, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		uni := universityID
		p := &post.Post{
			ID:           fmt.Sprintf("post-%03d", i),
			AuthorID:     "author-1",
			UniversityID: &uni,
			Type:         post.TypeText,
			Visibility:   post.VisibilityUniversity,
			CreatedAt:    orchNow.Add(-time.Duration(i) * time.Minute),
		}
		if err := source.Create(p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
}

// countingStore wraps a MemoryStore and counts write-throughs.
type countingStore struct {
	*cache.MemoryStore
	sets int
}

func (s *countingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.sets++
	return s.MemoryStore.Set(ctx, key, value, ttl)
}

// erroringStore fails every operation, modeling a cache outage.
type erroringStore struct{}

func (s *erroringStore) Get(ctx context.Context, key string) ([]byte, error) {
	return nil, errors.New("cache down")
}
func (s *erroringStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return errors.New("cache down")
}
func (s *erroringStore) Delete(ctx context.Context, key string) error {
	return errors.New("cache down")
}
func (s *erroringStore) DeleteMatching(ctx context.Context, pattern string) (int, error) {
	return 0, errors.New("cache down")
}
func (s *erroringStore) SupportsPatternDelete() bool { return false }

// erroringSource fails every fetch, modeling the query layer being down.
type erroringSource struct{}

func (s *erroringSource) FetchCandidates(ctx context.Context, spec post.FilterSpec) ([]*post.Post, error) {
	return nil, errors.New("query layer down")
}
func (s *erroringSource) GetByID(ctx context.Context, id string) (*post.Post, error) {
	return nil, errors.New("query layer down")
}

// cancelingSource cancels the request context while fetching, modeling a
// caller that disconnects mid-computation.
type cancelingSource struct {
	inner  post.CandidateSource
	cancel context.CancelFunc
}

func (s *cancelingSource) FetchCandidates(ctx context.Context, spec post.FilterSpec) ([]*post.Post, error) {
	posts, err := s.inner.FetchCandidates(ctx, spec)
	s.cancel()
	return posts, err
}
func (s *cancelingSource) GetByID(ctx context.Context, id string) (*post.Post, error) {
	return s.inner.GetByID(ctx, id)
}

func universityViewer() ViewerContext {
	return ViewerContext{UserID: "viewer-1", PrimaryUniversityID: strPtr("uni-a")}
}

// TestGetFeed_Validation tests that invalid requests surface the sentinel
// errors before any work happens.
func TestGetFeed_Validation(t *testing.T) {
	orch := NewOrchestrator(post.NewInMemorySource(), nil, newTestFingerprinter(t), nil, nil)
	ctx := context.Background()

	_, err := orch.GetFeed(ctx, Request{FeedType: Type("bogus"), Page: 1, PageSize: 20}, universityViewer())
	if !errors.Is(err, ErrInvalidFeedType) {
		t.Errorf("expected ErrInvalidFeedType, got %v", err)
	}

	_, err = orch.GetFeed(ctx, Request{FeedType: TypeGlobal, Page: 0, PageSize: 20}, universityViewer())
	if !errors.Is(err, ErrInvalidPagination) {
		t.Errorf("expected ErrInvalidPagination, got %v", err)
	}

	_, err = orch.GetFeed(ctx, Request{FeedType: TypeGlobal, Page: 1, PageSize: 500}, universityViewer())
	if !errors.Is(err, ErrInvalidPagination) {
		t.Errorf("expected ErrInvalidPagination for oversized page, got %v", err)
	}
}

// TestGetFeed_Pagination tests page boundaries over 45 candidates with page
// size 20: full, full, partial.
func TestGetFeed_Pagination(t *testing.T) {
	source := post.NewInMemorySource()
	seedUniversityPosts(t, source, "uni-a", 45)
	orch := NewOrchestrator(source, nil, newTestFingerprinter(t), nil, nil)
	ctx := context.Background()

	seen := make(map[string]int)
	wantSizes := []int{20, 20, 5}
	wantMore := []bool{true, true, false}

	for page := 1; page <= 3; page++ {
		got, err := orch.GetFeed(ctx, Request{FeedType: TypeUniversity, Page: page, PageSize: 20}, universityViewer())
		if err != nil {
			t.Fatalf("page %d: GetFeed failed: %v", page, err)
		}
		if len(got.Items) != wantSizes[page-1] {
			t.Errorf("page %d: expected %d items, got %d", page, wantSizes[page-1], len(got.Items))
		}
		if got.HasMore != wantMore[page-1] {
			t.Errorf("page %d: expected HasMore=%v, got %v", page, wantMore[page-1], got.HasMore)
		}
		if got.TotalCount != 45 {
			t.Errorf("page %d: expected TotalCount=45, got %d", page, got.TotalCount)
		}
		for _, item := range got.Items {
			seen[item.ID]++
		}
	}

	if len(seen) != 45 {
		t.Errorf("expected 45 distinct posts across pages, got %d", len(seen))
	}
	for id, count := range seen {
		if count != 1 {
			t.Errorf("post %s appeared %d times across pages", id, count)
		}
	}

	// A page past the end is empty, not an error.
	past, err := orch.GetFeed(ctx, Request{FeedType: TypeUniversity, Page: 9, PageSize: 20}, universityViewer())
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(past.Items) != 0 || past.HasMore {
		t.Errorf("expected empty page past the end, got %d items HasMore=%v", len(past.Items), past.HasMore)
	}
}

// TestGetFeed_Idempotent tests that repeating a request yields the same
// ordering, uncached.
func TestGetFeed_Idempotent(t *testing.T) {
	source := post.NewInMemorySource()
	seedUniversityPosts(t, source, "uni-a", 30)
	orch := NewOrchestrator(source, nil, newTestFingerprinter(t), nil, nil)
	ctx := context.Background()
	req := Request{FeedType: TypeUniversity, Page: 1, PageSize: 20}

	first, err := orch.GetFeed(ctx, req, universityViewer())
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	second, err := orch.GetFeed(ctx, req, universityViewer())
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}

	if len(first.Items) != len(second.Items) {
		t.Fatalf("expected identical pages, got %d vs %d items", len(first.Items), len(second.Items))
	}
	for i := range first.Items {
		if first.Items[i].ID != second.Items[i].ID {
			t.Fatalf("position %d: expected %s, got %s", i, first.Items[i].ID, second.Items[i].ID)
		}
	}
}

// TestGetFeed_CacheHit tests the write-through and subsequent hit with the
// FromCache marker.
func TestGetFeed_CacheHit(t *testing.T) {
	source := post.NewInMemorySource()
	seedUniversityPosts(t, source, "uni-a", 10)
	store := &countingStore{MemoryStore: cache.NewMemoryStore()}
	orch := NewOrchestrator(source, store, newTestFingerprinter(t), nil, cache.NewMetrics())
	ctx := context.Background()
	req := Request{FeedType: TypeUniversity, Page: 1, PageSize: 20}

	first, err := orch.GetFeed(ctx, req, universityViewer())
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if first.FromCache {
		t.Error("expected first request to miss the cache")
	}
	if store.sets != 1 {
		t.Errorf("expected one write-through, got %d", store.sets)
	}

	second, err := orch.GetFeed(ctx, req, universityViewer())
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if !second.FromCache {
		t.Error("expected second request to hit the cache")
	}
	if store.sets != 1 {
		t.Errorf("expected no extra write-through on a hit, got %d", store.sets)
	}
	if len(second.Items) != len(first.Items) {
		t.Errorf("expected identical item count, got %d vs %d", len(second.Items), len(first.Items))
	}
	for i := range first.Items {
		if second.Items[i].ID != first.Items[i].ID {
			t.Errorf("position %d: cached page diverged: %s vs %s", i, second.Items[i].ID, first.Items[i].ID)
		}
	}
}

// TestGetFeed_DistinctRequestsDistinctEntries tests that page and scope
// changes never collide on a cache entry.
func TestGetFeed_DistinctRequestsDistinctEntries(t *testing.T) {
	source := post.NewInMemorySource()
	seedUniversityPosts(t, source, "uni-a", 45)
	store := &countingStore{MemoryStore: cache.NewMemoryStore()}
	orch := NewOrchestrator(source, store, newTestFingerprinter(t), nil, nil)
	ctx := context.Background()

	page1, err := orch.GetFeed(ctx, Request{FeedType: TypeUniversity, Page: 1, PageSize: 20}, universityViewer())
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	page2, err := orch.GetFeed(ctx, Request{FeedType: TypeUniversity, Page: 2, PageSize: 20}, universityViewer())
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}

	if page2.FromCache {
		t.Error("expected page 2 to be computed, not served from page 1's entry")
	}
	if page1.Items[0].ID == page2.Items[0].ID {
		t.Error("expected different leading items on different pages")
	}
	if store.sets != 2 {
		t.Errorf("expected two distinct cache entries, got %d write-throughs", store.sets)
	}
}

// TestGetFeed_FollowingNeverCached tests the deliberate caching exclusion
// for the following feed.
func TestGetFeed_FollowingNeverCached(t *testing.T) {
	source := post.NewInMemorySource()
	if err := source.Create(&post.Post{ID: "p1", AuthorID: "author-1", CreatedAt: orchNow}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store := &countingStore{MemoryStore: cache.NewMemoryStore()}
	orch := NewOrchestrator(source, store, newTestFingerprinter(t), nil, nil)
	ctx := context.Background()

	viewer := ViewerContext{UserID: "viewer-1", FollowedUserIDs: []string{"author-1"}}
	req := Request{FeedType: TypeFollowing, Page: 1, PageSize: 20}

	for i := 0; i < 2; i++ {
		got, err := orch.GetFeed(ctx, req, viewer)
		if err != nil {
			t.Fatalf("GetFeed failed: %v", err)
		}
		if got.FromCache {
			t.Error("following feed must never be served from cache")
		}
		if len(got.Items) != 1 {
			t.Errorf("expected one followed post, got %d", len(got.Items))
		}
	}
	if store.sets != 0 {
		t.Errorf("expected zero write-throughs for following feed, got %d", store.sets)
	}
}

// TestGetFeed_FollowingEmptyFollowSets tests the provably-empty candidate
// short circuit.
func TestGetFeed_FollowingEmptyFollowSets(t *testing.T) {
	source := post.NewInMemorySource()
	seedUniversityPosts(t, source, "uni-a", 5)
	orch := NewOrchestrator(source, nil, newTestFingerprinter(t), nil, nil)

	got, err := orch.GetFeed(context.Background(),
		Request{FeedType: TypeFollowing, Page: 1, PageSize: 20},
		ViewerContext{UserID: "viewer-1"})
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(got.Items) != 0 || got.TotalCount != 0 || got.HasMore {
		t.Errorf("expected empty page for viewer with no follows, got %d items", len(got.Items))
	}
}

// TestGetFeed_FailOpenOnCacheOutage tests that a dead store degrades to
// direct computation instead of erroring.
func TestGetFeed_FailOpenOnCacheOutage(t *testing.T) {
	source := post.NewInMemorySource()
	seedUniversityPosts(t, source, "uni-a", 10)
	orch := NewOrchestrator(source, &erroringStore{}, newTestFingerprinter(t), nil, cache.NewMetrics())

	got, err := orch.GetFeed(context.Background(),
		Request{FeedType: TypeUniversity, Page: 1, PageSize: 20}, universityViewer())
	if err != nil {
		t.Fatalf("expected fail-open, got %v", err)
	}
	if len(got.Items) != 10 {
		t.Errorf("expected 10 items despite cache outage, got %d", len(got.Items))
	}
	if got.FromCache {
		t.Error("expected computed page during cache outage")
	}
}

// TestGetFeed_UpstreamUnavailable tests that query-layer failures surface
// as the retryable sentinel, unlike cache failures.
func TestGetFeed_UpstreamUnavailable(t *testing.T) {
	orch := NewOrchestrator(&erroringSource{}, nil, newTestFingerprinter(t), nil, nil)

	_, err := orch.GetFeed(context.Background(),
		Request{FeedType: TypeGlobal, Page: 1, PageSize: 20}, ViewerContext{})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

// TestGetFeed_CanceledContextSkipsWriteThrough tests that a disconnected
// caller's page is never written to the cache.
func TestGetFeed_CanceledContextSkipsWriteThrough(t *testing.T) {
	inner := post.NewInMemorySource()
	seedUniversityPosts(t, inner, "uni-a", 5)

	ctx, cancel := context.WithCancel(context.Background())
	source := &cancelingSource{inner: inner, cancel: cancel}
	store := &countingStore{MemoryStore: cache.NewMemoryStore()}
	orch := NewOrchestrator(source, store, newTestFingerprinter(t), nil, nil)

	got, err := orch.GetFeed(ctx, Request{FeedType: TypeUniversity, Page: 1, PageSize: 20}, universityViewer())
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(got.Items) != 5 {
		t.Errorf("expected computed page despite cancellation, got %d items", len(got.Items))
	}
	if store.sets != 0 {
		t.Errorf("expected write-through to be abandoned, got %d sets", store.sets)
	}
}

// TestGetFeed_UniversityFallbackToGlobal tests that a viewer without a
// primary university gets the global algorithm, not an error.
func TestGetFeed_UniversityFallbackToGlobal(t *testing.T) {
	source := post.NewInMemorySource()
	if err := source.Create(&post.Post{
		ID: "global-1", Visibility: post.VisibilityGlobal, Type: post.TypeText, CreatedAt: orchNow,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	uniA := "uni-a"
	if err := source.Create(&post.Post{
		ID: "uni-1", UniversityID: &uniA, Visibility: post.VisibilityUniversity, Type: post.TypeText, CreatedAt: orchNow,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	orch := NewOrchestrator(source, nil, newTestFingerprinter(t), nil, nil)
	got, err := orch.GetFeed(context.Background(),
		Request{FeedType: TypeUniversity, Page: 1, PageSize: 20},
		ViewerContext{UserID: "viewer-1"})
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if len(got.Items) != 1 || got.Items[0].ID != "global-1" {
		t.Errorf("expected only the global post, got %d items", len(got.Items))
	}
}

// TestGetFeed_FallbackPageEvictedWithGlobalFeeds tests that a no-university
// viewer's university-feed page is keyed as a global page, so the global
// blast radius of a post mutation flushes it too.
func TestGetFeed_FallbackPageEvictedWithGlobalFeeds(t *testing.T) {
	source := post.NewInMemorySource()
	if err := source.Create(&post.Post{
		ID: "global-1", Visibility: post.VisibilityGlobal, Type: post.TypeText, CreatedAt: orchNow,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store := cache.NewMemoryStore()
	fp := newTestFingerprinter(t)
	orch := NewOrchestrator(source, store, fp, nil, nil)
	ctx := context.Background()
	req := Request{FeedType: TypeUniversity, Page: 1, PageSize: 20}
	viewer := ViewerContext{UserID: "viewer-1"}

	if _, err := orch.GetFeed(ctx, req, viewer); err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	cached, err := orch.GetFeed(ctx, req, viewer)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if !cached.FromCache {
		t.Fatal("expected the fallback page to be cached")
	}

	mgr := invalidation.NewManager(store, fp, nil, 0)
	mgr.HandlePostMutated(invalidation.PostMutated{PostID: "global-1"})

	after, err := orch.GetFeed(ctx, req, viewer)
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	if after.FromCache {
		t.Error("expected the fallback page to be evicted with the global feeds")
	}
}

// TestGetFeed_RankedOrder tests that the university tiers survive the full
// orchestration path.
func TestGetFeed_RankedOrder(t *testing.T) {
	source := post.NewInMemorySource()
	uniA := "uni-a"
	posts := []*post.Post{
		{ID: "plain", UniversityID: &uniA, Visibility: post.VisibilityUniversity, CreatedAt: orchNow.Add(-time.Hour)},
		{ID: "pinned", UniversityID: &uniA, Visibility: post.VisibilityUniversity, IsPinned: true, PinnedAt: orchNow.Add(-time.Hour), CreatedAt: orchNow.Add(-30 * 24 * time.Hour)},
		{ID: "featured", UniversityID: &uniA, Visibility: post.VisibilityUniversity, IsFeatured: true, CreatedAt: orchNow.Add(-20 * 24 * time.Hour)},
	}
	for _, p := range posts {
		if err := source.Create(p); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	orch := NewOrchestrator(source, nil, newTestFingerprinter(t), nil, nil)
	orch.now = func() time.Time { return orchNow }

	got, err := orch.GetFeed(context.Background(),
		Request{FeedType: TypeUniversity, Page: 1, PageSize: 20}, universityViewer())
	if err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}

	expected := []string{"pinned", "featured", "plain"}
	if len(got.Items) != len(expected) {
		t.Fatalf("expected %d items, got %d", len(expected), len(got.Items))
	}
	for i, id := range expected {
		if got.Items[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got.Items[i].ID)
		}
	}
}

// TestGetPost_ReadThrough tests miss, write-through, and subsequent hit.
func TestGetPost_ReadThrough(t *testing.T) {
	source := post.NewInMemorySource()
	p := &post.Post{ID: "p1", AuthorID: "author-1", Type: post.TypeText, CreatedAt: orchNow}
	if err := source.Create(p); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	store := &countingStore{MemoryStore: cache.NewMemoryStore()}
	orch := NewOrchestrator(source, store, newTestFingerprinter(t), nil, nil)
	ctx := context.Background()

	first, fromCache, err := orch.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if fromCache {
		t.Error("expected first read to miss")
	}
	if first.AuthorID != "author-1" {
		t.Errorf("unexpected post payload: %+v", first)
	}
	if store.sets != 1 {
		t.Errorf("expected one write-through, got %d", store.sets)
	}

	second, fromCache, err := orch.GetPost(ctx, "p1")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if !fromCache {
		t.Error("expected second read to hit")
	}
	if second.ID != "p1" {
		t.Errorf("unexpected cached payload: %+v", second)
	}
}

// TestGetPost_NotFound tests that the not-found sentinel passes through
// untouched.
func TestGetPost_NotFound(t *testing.T) {
	orch := NewOrchestrator(post.NewInMemorySource(), cache.NewMemoryStore(), newTestFingerprinter(t), nil, nil)

	_, _, err := orch.GetPost(context.Background(), "missing")
	if !errors.Is(err, post.ErrPostNotFound) {
		t.Errorf("expected ErrPostNotFound, got %v", err)
	}
}

// TestGetPost_UpstreamUnavailable tests query-layer failure mapping.
func TestGetPost_UpstreamUnavailable(t *testing.T) {
	orch := NewOrchestrator(&erroringSource{}, nil, newTestFingerprinter(t), nil, nil)

	_, _, err := orch.GetPost(context.Background(), "p1")
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Errorf("expected ErrUpstreamUnavailable, got %v", err)
	}
}

// TestGetPost_FailOpenOnCacheOutage tests direct reads during a cache outage.
func TestGetPost_FailOpenOnCacheOutage(t *testing.T) {
	source := post.NewInMemorySource()
	if err := source.Create(&post.Post{ID: "p1", AuthorID: "author-1"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	orch := NewOrchestrator(source, &erroringStore{}, newTestFingerprinter(t), nil, cache.NewMetrics())

	got, fromCache, err := orch.GetPost(context.Background(), "p1")
	if err != nil {
		t.Fatalf("expected fail-open, got %v", err)
	}
	if fromCache {
		t.Error("expected direct read during outage")
	}
	if got.ID != "p1" {
		t.Errorf("unexpected post: %+v", got)
	}
}

// TestGetFeed_CorruptCacheEntry tests that an undecodable entry degrades to
// recomputation instead of erroring.
func TestGetFeed_CorruptCacheEntry(t *testing.T) {
	source := post.NewInMemorySource()
	seedUniversityPosts(t, source, "uni-a", 3)
	store := cache.NewMemoryStore()
	fp := newTestFingerprinter(t)
	orch := NewOrchestrator(source, store, fp, nil, nil)
	ctx := context.Background()
	req := Request{FeedType: TypeUniversity, Page: 1, PageSize: 20}

	// Prime the cache, then corrupt the entry in place.
	if _, err := orch.GetFeed(ctx, req, universityViewer()); err != nil {
		t.Fatalf("GetFeed failed: %v", err)
	}
	key, err := orch.feedKey(req, universityViewer())
	if err != nil {
		t.Fatalf("feedKey failed: %v", err)
	}
	if err := store.Set(ctx, key, []byte("{corrupt"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, err := orch.GetFeed(ctx, req, universityViewer())
	if err != nil {
		t.Fatalf("expected recomputation, got %v", err)
	}
	if got.FromCache {
		t.Error("expected corrupt entry to be treated as a miss")
	}
	if len(got.Items) != 3 {
		t.Errorf("expected 3 items, got %d", len(got.Items))
	}
}
