package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/campushive/campushive/internal/feed"
	"github.com/campushive/campushive/internal/post"
)

// Viewer context headers. The gateway resolves identity and follow sets
// before a request reaches this service; this core never resolves
// identity itself.
const (
	HeaderUserID               = "X-User-ID"
	HeaderUniversityID         = "X-University-ID"
	HeaderFollowedUsers        = "X-Followed-Users"
	HeaderFollowedUniversities = "X-Followed-Universities"
	HeaderFollowedTags         = "X-Followed-Tags"
)

// CacheStatusHeader reports cache origin to monitoring. Callers must not
// branch on it.
const CacheStatusHeader = "X-Cache"

// FeedHandlers provides the feed page and single-post endpoints.
type FeedHandlers struct {
	orchestrator *feed.Orchestrator
}

// NewFeedHandlers creates feed handlers backed by the given orchestrator.
func NewFeedHandlers(orchestrator *feed.Orchestrator) *FeedHandlers {
	return &FeedHandlers{orchestrator: orchestrator}
}

// GetFeed handles GET /v1/feed.
//
// Query parameters: type (required), post_type, tags (comma separated),
// since (RFC 3339), page (default 1), page_size (default 20).
func (h *FeedHandlers) GetFeed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req, err := parseFeedRequest(r)
	if err != nil {
		code := ErrCodeValidation
		switch {
		case errors.Is(err, feed.ErrInvalidFeedType):
			code = ErrCodeInvalidFeedType
		case errors.Is(err, feed.ErrInvalidPagination):
			code = ErrCodeInvalidPagination
		}
		WriteError(w, ctx, StatusCodeMapping(code), code, err.Error())
		return
	}

	viewer := parseViewerContext(r)

	page, err := h.orchestrator.GetFeed(ctx, req, viewer)
	if err != nil {
		var code, msg string
		switch {
		case errors.Is(err, feed.ErrInvalidFeedType):
			code, msg = ErrCodeInvalidFeedType, "Unknown feed type"
		case errors.Is(err, feed.ErrInvalidPagination):
			code, msg = ErrCodeInvalidPagination, "Page must be >= 1 and page_size within [1,50]"
		case errors.Is(err, feed.ErrUpstreamUnavailable):
			code, msg = ErrCodeUpstreamUnavailable, "Feed temporarily unavailable, retry"
		default:
			slog.ErrorContext(ctx, "feed request failed", "feed_type", req.FeedType, "error", err)
			code, msg = ErrCodeInternal, "Internal server error"
		}
		WriteError(w, ctx, StatusCodeMapping(code), code, msg)
		return
	}

	if page.FromCache {
		w.Header().Set(CacheStatusHeader, "HIT")
	} else {
		w.Header().Set(CacheStatusHeader, "MISS")
	}
	writeJSON(w, ctx, http.StatusOK, page)
}

// GetPost handles GET /v1/posts/{id}.
func (h *FeedHandlers) GetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	postID := r.PathValue("id")
	if postID == "" {
		WriteError(w, ctx, StatusCodeMapping(ErrCodeBadRequest), ErrCodeBadRequest, "Post ID is required")
		return
	}

	p, fromCache, err := h.orchestrator.GetPost(ctx, postID)
	if err != nil {
		var code, msg string
		switch {
		case errors.Is(err, post.ErrPostNotFound):
			code, msg = ErrCodeNotFound, "Post not found"
		case errors.Is(err, feed.ErrUpstreamUnavailable):
			code, msg = ErrCodeUpstreamUnavailable, "Post temporarily unavailable, retry"
		default:
			slog.ErrorContext(ctx, "post request failed", "post_id", postID, "error", err)
			code, msg = ErrCodeInternal, "Internal server error"
		}
		WriteError(w, ctx, StatusCodeMapping(code), code, msg)
		return
	}

	if fromCache {
		w.Header().Set(CacheStatusHeader, "HIT")
	} else {
		w.Header().Set(CacheStatusHeader, "MISS")
	}
	writeJSON(w, ctx, http.StatusOK, p)
}

// parseFeedRequest builds a feed.Request from query parameters. Missing
// pagination parameters get defaults; present-but-invalid values are
// errors, not silent defaults.
func parseFeedRequest(r *http.Request) (feed.Request, error) {
	q := r.URL.Query()

	req := feed.Request{
		FeedType: feed.Type(q.Get("type")),
		Page:     1,
		PageSize: feed.DefaultPageSize,
	}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return feed.Request{}, feed.ErrInvalidPagination
		}
		req.Page = page
	}
	if raw := q.Get("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return feed.Request{}, feed.ErrInvalidPagination
		}
		req.PageSize = size
	}
	if raw := q.Get("post_type"); raw != "" {
		pt := post.Type(raw)
		req.PostType = &pt
	}
	if raw := q.Get("tags"); raw != "" {
		req.Tags = splitList(raw)
	}
	if raw := q.Get("since"); raw != "" {
		since, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return feed.Request{}, errors.New("since must be an RFC 3339 timestamp")
		}
		req.Since = &since
	}

	if err := req.Validate(); err != nil {
		return feed.Request{}, err
	}
	return req, nil
}

// parseViewerContext reads the gateway-resolved viewer identity headers.
func parseViewerContext(r *http.Request) feed.ViewerContext {
	viewer := feed.ViewerContext{
		UserID:                r.Header.Get(HeaderUserID),
		FollowedUserIDs:       splitList(r.Header.Get(HeaderFollowedUsers)),
		FollowedUniversityIDs: splitList(r.Header.Get(HeaderFollowedUniversities)),
		FollowedTags:          splitList(r.Header.Get(HeaderFollowedTags)),
	}
	if uni := r.Header.Get(HeaderUniversityID); uni != "" {
		viewer.PrimaryUniversityID = &uni
	}
	return viewer
}

// splitList parses a comma-separated list, dropping empty elements.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// writeJSON writes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, ctx context.Context, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.ErrorContext(ctx, "failed to encode response", "error", err)
	}
}
