package feed

import (
	"github.com/campushive/campushive/internal/post"
)

// buildFilter translates a feed request and viewer into the query-layer
// filter spec. The bool result is false when the candidate set is provably
// empty (a following feed with nothing followed), letting the orchestrator
// skip the fetch entirely.
//
// Refinements (post-type filter, tag filter, since) go into the filter so
// they apply before ranking; filtering after ranking would make page
// boundaries inconsistent.
func buildFilter(req Request, viewer ViewerContext) (post.FilterSpec, bool) {
	spec := post.FilterSpec{
		TagsAny: req.Tags,
		Since:   req.Since,
	}
	if req.PostType != nil {
		spec.Types = []post.Type{*req.PostType}
	}

	switch effectiveFeedType(req.FeedType, viewer) {
	case TypeUniversity:
		global := post.VisibilityGlobal
		spec.Clauses = []post.Clause{
			{UniversityID: viewer.PrimaryUniversityID},
			{Visibility: &global, FeaturedOnly: true},
		}
	case TypeGlobal:
		global := post.VisibilityGlobal
		spec.Clauses = []post.Clause{
			{Visibility: &global},
			{FeaturedOnly: true},
		}
	case TypeFollowing:
		if len(viewer.FollowedUserIDs) > 0 {
			spec.Clauses = append(spec.Clauses, post.Clause{AuthorsAny: viewer.FollowedUserIDs})
		}
		if len(viewer.FollowedUniversityIDs) > 0 {
			spec.Clauses = append(spec.Clauses, post.Clause{UniversitiesAny: viewer.FollowedUniversityIDs})
		}
		if len(viewer.FollowedTags) > 0 {
			spec.Clauses = append(spec.Clauses, post.Clause{TagsAny: viewer.FollowedTags})
		}
		if len(spec.Clauses) == 0 {
			return post.FilterSpec{}, false
		}
	case TypeCompetitions:
		spec.Clauses = []post.Clause{
			{Types: []post.Type{post.TypeEvent}},
			{CompetitionOnly: true},
		}
	case TypeAchievements:
		spec.Clauses = []post.Clause{
			{Types: []post.Type{post.TypeAchievement}},
		}
	}

	return spec, true
}

// effectiveFeedType resolves the algorithm actually used: a viewer with no
// primary university gets the global algorithm for the university feed.
// This is a fallback, not an error.
func effectiveFeedType(t Type, viewer ViewerContext) Type {
	if t == TypeUniversity && viewer.PrimaryUniversityID == nil {
		return TypeGlobal
	}
	return t
}
