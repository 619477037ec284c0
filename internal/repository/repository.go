// Package repository defines the storage interfaces the rest of the
// application programs against. The sqlite subpackage is the only concrete
// implementation; services receive these interfaces so tests can substitute
// in-memory mocks.
package repository

import (
	"context"

	"github.com/sakif/geostream/internal/model"
)

// UserRepository stores user accounts.
// Create returns apperror.ErrConflict when the username or email is taken.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// DataSetRepository stores datasets and their layers/popups.
// DeleteDataSet exists so a creation whose file write failed can be undone;
// nothing else removes posts.
type DataSetRepository interface {
	CreateDataSet(ctx context.Context, ds *model.DataSet) error
	GetDataSetByID(ctx context.Context, id string) (*model.DataSet, error)
	DeleteDataSet(ctx context.Context, id string) error
	CreateLayer(ctx context.Context, layer *model.Layer) error
	GetLayerByID(ctx context.Context, id string) (*model.Layer, error)
	CreatePopup(ctx context.Context, popup *model.Popup) error
}

// MapRepository stores maps and their source/layer associations.
// AddSource and AddLayer are idempotent — re-adding an existing association
// is not an error (the composite primary key absorbs the duplicate).
type MapRepository interface {
	CreateMap(ctx context.Context, m *model.Map) error
	GetMapByID(ctx context.Context, id string) (*model.Map, error)
	AddSource(ctx context.Context, mapID, datasetID string) error
	AddLayer(ctx context.Context, mapID, layerID string) error
	References(ctx context.Context, datasetID string) ([]model.PostSummary, error)
}

// TagRepository stores tags and their post associations.
type TagRepository interface {
	CreateTag(ctx context.Context, tag *model.Tag) error
	GetTagByID(ctx context.Context, id string) (*model.Tag, error)
	TagPost(ctx context.Context, tagID string, kind model.PostKind, postID string) error
	TaggedPosts(ctx context.Context, tagID string) ([]model.PostSummary, error)
}

// EdgeRepository manages the social edges (follow/like/repost) and answers
// the relation-index queries over them.
//
// Each Toggle flips edge membership inside a single transaction and reports
// the new state: true = edge now present, false = edge now absent. Two
// toggles in sequence always restore the original state. Uniqueness is
// enforced by the storage schema, so concurrent toggles on the same edge
// serialize rather than duplicate.
//
// The query methods cost O(edges touching the subject) — they are indexed
// lookups, never scans over the whole edge set.
type EdgeRepository interface {
	ToggleFollow(ctx context.Context, followerID, followedID string) (bool, error)
	ToggleLike(ctx context.Context, userID string, kind model.PostKind, postID string) (bool, error)
	ToggleRepost(ctx context.Context, userID string, kind model.PostKind, postID string) (bool, error)

	Follows(ctx context.Context, followerID, followedID string) (bool, error)
	Following(ctx context.Context, userID string) ([]model.User, error)
	Followers(ctx context.Context, userID string) ([]model.User, error)
	Likers(ctx context.Context, kind model.PostKind, postID string) ([]model.User, error)
	Reposters(ctx context.Context, kind model.PostKind, postID string) ([]model.User, error)
	Liked(ctx context.Context, userID string) ([]model.Like, error)
	Reposted(ctx context.Context, userID string) ([]model.Repost, error)
}

// FeedRepository computes, per post variant, the deduplicated candidate set
// for a user's feed: posts they authored, posts authored by users they
// follow, posts they reposted, and posts reposted by users they follow.
//
// The two variants live in physically separate tables, so a single ORDER BY
// across both cannot be pushed into one query — each variant resolves
// independently and service.FeedService merges the results.
type FeedRepository interface {
	MapFeedCandidates(ctx context.Context, userID string) ([]model.PostSummary, error)
	DataSetFeedCandidates(ctx context.Context, userID string) ([]model.PostSummary, error)
}
