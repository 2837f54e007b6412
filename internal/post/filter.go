package post

import (
	"time"
)

// Clause is a single conjunctive selection predicate. All set fields must
// match for a post to satisfy the clause; zero-valued fields are ignored.
type Clause struct {
	// UniversityID matches posts belonging to exactly this university.
	UniversityID *string

	// Visibility matches posts with exactly this visibility.
	Visibility *Visibility

	// FeaturedOnly restricts the clause to featured posts.
	FeaturedOnly bool

	// CompetitionOnly restricts the clause to posts flagged as competitions.
	CompetitionOnly bool

	// Types matches posts whose type is any of the listed types.
	Types []Type

	// AuthorsAny matches posts authored by any of the listed users.
	AuthorsAny []string

	// UniversitiesAny matches posts belonging to any of the listed universities.
	UniversitiesAny []string

	// TagsAny matches posts carrying at least one of the listed tags.
	TagsAny []string
}

// FilterSpec describes a candidate fetch for the query layer. A post is a
// candidate if it matches at least one clause; the refinement fields then
// narrow the result conjunctively. Refinements are applied before ranking,
// never after, so page boundaries stay consistent.
type FilterSpec struct {
	Clauses []Clause

	// Types keeps only posts whose type is listed (empty keeps all).
	Types []Type

	// TagsAny keeps only posts carrying at least one listed tag (empty keeps all).
	TagsAny []string

	// Since keeps only posts created at or after the given time.
	Since *time.Time
}

// Matches reports whether the post satisfies the clause.
func (c *Clause) Matches(p *Post) bool {
	if c.UniversityID != nil {
		if p.UniversityID == nil || *p.UniversityID != *c.UniversityID {
			return false
		}
	}
	if c.Visibility != nil && p.Visibility != *c.Visibility {
		return false
	}
	if c.FeaturedOnly && !p.IsFeatured {
		return false
	}
	if c.CompetitionOnly && !p.IsCompetition {
		return false
	}
	if len(c.Types) > 0 && !typeListed(p.Type, c.Types) {
		return false
	}
	if len(c.AuthorsAny) > 0 && !stringListed(p.AuthorID, c.AuthorsAny) {
		return false
	}
	if len(c.UniversitiesAny) > 0 {
		if p.UniversityID == nil || !stringListed(*p.UniversityID, c.UniversitiesAny) {
			return false
		}
	}
	if len(c.TagsAny) > 0 && !p.HasAnyTag(c.TagsAny) {
		return false
	}
	return true
}

// Matches reports whether the post is selected by the filter: at least one
// clause matches and every refinement holds.
func (s *FilterSpec) Matches(p *Post) bool {
	matched := len(s.Clauses) == 0
	for i := range s.Clauses {
		if s.Clauses[i].Matches(p) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	if len(s.Types) > 0 && !typeListed(p.Type, s.Types) {
		return false
	}
	if len(s.TagsAny) > 0 && !p.HasAnyTag(s.TagsAny) {
		return false
	}
	if s.Since != nil && p.CreatedAt.Before(*s.Since) {
		return false
	}
	return true
}

func typeListed(t Type, list []Type) bool {
	for _, candidate := range list {
		if candidate == t {
			return true
		}
	}
	return false
}

func stringListed(s string, list []string) bool {
	for _, candidate := range list {
		if candidate == s {
			return true
		}
	}
	return false
}
