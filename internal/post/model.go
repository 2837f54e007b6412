// Package post provides the post model and the candidate source contract
// consumed by the feed ranking core.
package post

import (
	"errors"
	"time"
)

// Common errors for post operations.
var (
	ErrPostNotFound = errors.New("post not found")
)

// Type classifies the content of a post.
type Type string

// Known post types.
const (
	TypeText         Type = "text"
	TypeMedia        Type = "media"
	TypeEvent        Type = "event"
	TypeAchievement  Type = "achievement"
	TypePoll         Type = "poll"
	TypeAnnouncement Type = "announcement"
)

// Visibility controls who can see a post.
type Visibility string

// Known visibility levels.
const (
	VisibilityUniversity Visibility = "university"
	VisibilityGlobal     Visibility = "global"
	VisibilityPrivate    Visibility = "private"
)

// Post represents a content post. The ranking core reads posts but never
// writes them; engagement counters and moderation flags are mutated by
// collaborators outside this core.
type Post struct {
	ID           string     `json:"id"`
	AuthorID     string     `json:"author_id"`
	UniversityID *string    `json:"university_id,omitempty"`
	Type         Type       `json:"type"`
	Visibility   Visibility `json:"visibility"`
	Tags         []string   `json:"tags,omitempty"`

	// Engagement counters, maintained by the write path.
	ReactionCount int `json:"reaction_count"`
	CommentCount  int `json:"comment_count"`
	ViewCount     int `json:"view_count"`

	// Moderation flags.
	IsPinned     bool       `json:"is_pinned"`
	PinnedAt     time.Time  `json:"pinned_at,omitzero"`
	PinExpiresAt *time.Time `json:"pin_expires_at,omitempty"`
	IsFeatured   bool       `json:"is_featured"`

	// IsCompetition marks event posts that carry competition details.
	IsCompetition bool `json:"is_competition,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// clone returns a copy sharing no mutable state with the original: the tag
// slice and the pointer fields are duplicated, not aliased.
func (p *Post) clone() *Post {
	c := *p
	if p.UniversityID != nil {
		id := *p.UniversityID
		c.UniversityID = &id
	}
	if p.Tags != nil {
		c.Tags = append([]string(nil), p.Tags...)
	}
	if p.PinExpiresAt != nil {
		t := *p.PinExpiresAt
		c.PinExpiresAt = &t
	}
	return &c
}

// PinActive reports whether the post's pin is in effect at the given time.
// An expired pin is treated as unpinned even if a background job has not
// yet cleared the flag.
func (p *Post) PinActive(now time.Time) bool {
	if !p.IsPinned {
		return false
	}
	if p.PinExpiresAt != nil && !p.PinExpiresAt.After(now) {
		return false
	}
	return true
}

// HasTag reports whether the post carries the given tag.
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// HasAnyTag reports whether the post carries at least one of the given tags.
func (p *Post) HasAnyTag(tags []string) bool {
	for _, t := range tags {
		if p.HasTag(t) {
			return true
		}
	}
	return false
}
