package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/campushive/campushive/internal/cache"
	"github.com/campushive/campushive/internal/post"
	"github.com/campushive/campushive/internal/ranking"
	"github.com/campushive/campushive/internal/tracing"
)

// Orchestrator is the feed entry point: it fingerprints the request, serves
// cache hits, and on a miss fetches candidates, ranks, paginates, and
// writes the page through to the cache.
//
// The cache is strictly an optimization here. Store failures degrade to
// direct computation and only the query layer being down surfaces as an
// error to the caller.
type Orchestrator struct {
	source  post.CandidateSource
	store   cache.Store
	fp      *cache.Fingerprinter
	weights *ranking.Weights
	metrics *cache.Metrics

	// now is overridable for ranking tests.
	now func() time.Time
}

// NewOrchestrator creates a feed orchestrator. A nil store disables caching
// entirely; a nil metrics disables counters; nil weights use defaults.
func NewOrchestrator(source post.CandidateSource, store cache.Store, fp *cache.Fingerprinter, weights *ranking.Weights, metrics *cache.Metrics) *Orchestrator {
	if weights == nil {
		weights = ranking.DefaultWeights()
	}
	return &Orchestrator{
		source:  source,
		store:   store,
		fp:      fp,
		weights: weights,
		metrics: metrics,
		now:     time.Now,
	}
}

// GetFeed returns the requested feed page.
//
// Following feeds are never cached: their candidate set depends on the
// viewer's follow sets, so page-level entries would need per-user keys and
// the hit rate would not pay for the storage. This is a deliberate scope
// decision; the following feed is always recomputed.
func (o *Orchestrator) GetFeed(ctx context.Context, req Request, viewer ViewerContext) (*Page, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cacheable := o.store != nil && req.FeedType != TypeFollowing

	var key string
	if cacheable {
		var err error
		key, err = o.feedKey(req, viewer)
		if err != nil {
			// A key derivation failure only disables caching for
			// this request.
			slog.Error("failed to derive feed cache key", "feed_type", req.FeedType, "error", err)
			cacheable = false
		}
	}

	if cacheable {
		if page, ok := o.cachedPage(ctx, key); ok {
			return page, nil
		}
	}

	page, err := o.computePage(ctx, req, viewer)
	if err != nil {
		return nil, err
	}

	if cacheable {
		// A canceled caller means nobody is waiting on this page;
		// writing it would only pollute the cache.
		if ctx.Err() != nil {
			return page, nil
		}
		o.writeThrough(ctx, key, page)
	}

	return page, nil
}

// GetPost returns a single post with read-through caching under the post
// TTL class. The bool reports cache origin for monitoring.
func (o *Orchestrator) GetPost(ctx context.Context, postID string) (*post.Post, bool, error) {
	var key string
	usable := o.store != nil
	if usable {
		var err error
		key, err = o.fp.PostKey(postID)
		if err != nil {
			slog.Error("failed to derive post cache key", "post_id", postID, "error", err)
			usable = false
		}
	}

	if usable {
		data, err := o.store.Get(ctx, key)
		switch {
		case err == nil:
			var p post.Post
			if err := json.Unmarshal(data, &p); err == nil {
				o.countHit(cache.NamespacePost)
				return &p, true, nil
			}
			// Undecodable entry: treat as a miss and overwrite below.
			slog.Warn("dropping undecodable post cache entry", "key", key, "error", err)
			o.countError(cache.NamespacePost)
		case errors.Is(err, cache.ErrCacheMiss):
			o.countMiss(cache.NamespacePost)
		default:
			o.countError(cache.NamespacePost)
			slog.Warn("post cache read failed, computing directly", "key", key, "error", err)
		}
	}

	p, err := o.source.GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, post.ErrPostNotFound) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if usable && ctx.Err() == nil {
		if data, err := json.Marshal(p); err == nil {
			if err := o.store.Set(ctx, key, data, cache.ClassPost.TTL()); err != nil {
				o.countError(cache.NamespacePost)
				slog.Warn("post cache write failed", "key", key, "error", err)
			} else {
				o.countSet(cache.NamespacePost)
			}
		}
	}

	return p, false, nil
}

// feedKey fingerprints the request's semantic parameters. The viewer's
// follow sets are intentionally excluded: only the primary university
// scopes a cached page (see GetFeed on the following feed).
//
// The key uses the effective feed type, not the requested one: a
// no-university viewer's university feed is computed with the global
// algorithm, and keying it as a global page keeps it inside the global
// eviction pattern.
func (o *Orchestrator) feedKey(req Request, viewer ViewerContext) (string, error) {
	scope := ""
	if viewer.PrimaryUniversityID != nil {
		scope = *viewer.PrimaryUniversityID
	}

	kwargs := map[string]any{
		"page":      req.Page,
		"page_size": req.PageSize,
	}
	if req.PostType != nil {
		kwargs["post_type"] = string(*req.PostType)
	}
	if len(req.Tags) > 0 {
		// Tag filters are a set: order must not change the key.
		tags := make([]string, len(req.Tags))
		copy(tags, req.Tags)
		sort.Strings(tags)
		kwargs["tags"] = tags
	}
	if req.Since != nil {
		kwargs["since"] = req.Since.UTC().Unix()
	}

	feedType := effectiveFeedType(req.FeedType, viewer)
	return o.fp.Fingerprint(cache.NamespaceFeed, cache.FeedOp(string(feedType), scope), nil, kwargs)
}

// cachedPage attempts to serve the page from the cache. All store errors
// degrade to a miss.
func (o *Orchestrator) cachedPage(ctx context.Context, key string) (*Page, bool) {
	data, err := o.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			o.countMiss(cache.NamespaceFeed)
		} else {
			o.countError(cache.NamespaceFeed)
			slog.Warn("feed cache read failed, computing directly", "key", key, "error", err)
		}
		return nil, false
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		o.countError(cache.NamespaceFeed)
		slog.Warn("dropping undecodable feed cache entry", "key", key, "error", err)
		return nil, false
	}

	o.countHit(cache.NamespaceFeed)
	page.FromCache = true
	return &page, true
}

// computePage fetches candidates, ranks them for the feed type, and cuts
// the requested page.
func (o *Orchestrator) computePage(ctx context.Context, req Request, viewer ViewerContext) (page *Page, err error) {
	ctx, endSpan := tracing.StartSpan(ctx, "compute_feed_page")
	defer func() { endSpan(err) }()

	spec, nonEmpty := buildFilter(req, viewer)

	var candidates []*post.Post
	if nonEmpty {
		var err error
		candidates, err = o.source.FetchCandidates(ctx, spec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
	}

	o.rank(req.FeedType, candidates, viewer)

	total := len(candidates)
	offset := (req.Page - 1) * req.PageSize
	if offset > total {
		offset = total
	}
	end := offset + req.PageSize
	if end > total {
		end = total
	}

	items := make([]PostSummary, 0, end-offset)
	for _, p := range candidates[offset:end] {
		items = append(items, summarize(p))
	}

	return &Page{
		Items:      items,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalCount: total,
		HasMore:    end < total,
	}, nil
}

// rank orders candidates in place for the feed type.
func (o *Orchestrator) rank(feedType Type, posts []*post.Post, viewer ViewerContext) {
	now := o.now()
	switch effectiveFeedType(feedType, viewer) {
	case TypeUniversity:
		ranking.SortUniversity(posts, now, o.weights)
	case TypeGlobal:
		ranking.SortGlobal(posts, now, o.weights)
	case TypeFollowing:
		ranking.SortFollowing(posts)
	case TypeCompetitions:
		ranking.SortCompetitions(posts, viewer.PrimaryUniversityID)
	case TypeAchievements:
		ranking.SortAchievements(posts)
	}
}

// writeThrough stores the freshly computed page under the feed TTL class.
// Failures are logged only; the page is already on its way to the caller.
func (o *Orchestrator) writeThrough(ctx context.Context, key string, page *Page) {
	data, err := json.Marshal(page)
	if err != nil {
		slog.Error("failed to encode feed page for cache", "key", key, "error", err)
		return
	}

	if err := o.store.Set(ctx, key, data, cache.ClassFeed.TTL()); err != nil {
		o.countError(cache.NamespaceFeed)
		slog.Warn("feed cache write failed", "key", key, "error", err)
		return
	}
	o.countSet(cache.NamespaceFeed)
}

func (o *Orchestrator) countHit(namespace string) {
	if o.metrics != nil {
		o.metrics.IncHit(namespace)
	}
}

func (o *Orchestrator) countMiss(namespace string) {
	if o.metrics != nil {
		o.metrics.IncMiss(namespace)
	}
}

func (o *Orchestrator) countError(namespace string) {
	if o.metrics != nil {
		o.metrics.IncError(namespace)
	}
}

func (o *Orchestrator) countSet(namespace string) {
	if o.metrics != nil {
		o.metrics.IncSet(namespace)
	}
}
