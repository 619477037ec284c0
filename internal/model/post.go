// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// PostKind is the variant tag of a post. A "post" is anything that can appear
// in a feed or be liked/reposted/tagged. There are exactly two variants, each
// stored in its own table: maps and datasets.
//
// WHY A TAGGED UNION AND NOT TWO FOREIGN KEYS?
// Like/repost/tag edges can point at either variant. Storing (kind, id) on the
// edge makes the referent explicit and lets the schema CHECK the kind, instead
// of two nullable foreign keys resolved by convention.
type PostKind string

const (
	PostKindMap     PostKind = "map"
	PostKindDataSet PostKind = "dataset"
)

// ParsePostKind validates a client-supplied kind string.
// The boolean is false for anything that isn't "map" or "dataset" —
// callers must reject such targets, never silently ignore them.
func ParsePostKind(s string) (PostKind, bool) {
	switch PostKind(s) {
	case PostKindMap:
		return PostKindMap, true
	case PostKindDataSet:
		return PostKindDataSet, true
	}
	return "", false
}

// PostSummary is the feed-facing projection of a post: just enough to render
// a feed entry, identical in shape for both variants. The full entity lives
// behind GetMapByID / GetDataSetByID.
type PostSummary struct {
	ID      string    `json:"id"`
	Kind    PostKind  `json:"kind"`
	Title   string    `json:"title"`
	PubDate time.Time `json:"pubDate"`
	OwnerID string    `json:"ownerId"`
}

// Repost pairs a post with the time it was reposted. The feed positions a
// repost by the post's own PubDate; RepostedAt is only surfaced on a user's
// "reposted" listing.
type Repost struct {
	Post       PostSummary `json:"post"`
	RepostedAt time.Time   `json:"repostedAt"`
}

// Like pairs a post with the time it was liked, for a user's "liked" listing.
type Like struct {
	Post    PostSummary `json:"post"`
	LikedAt time.Time   `json:"likedAt"`
}
