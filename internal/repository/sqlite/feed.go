package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/geostream/internal/model"
	"github.com/sakif/geostream/internal/repository"
)

// compile-time check that *DB implements repository.FeedRepository
var _ repository.FeedRepository = (*DB)(nil)

// The feed candidate query, written once per post variant. The four OR'd
// predicates are the four membership sets of a feed:
//
//  1. posts the user authored
//  2. posts authored by users they follow
//  3. posts they reposted themselves
//  4. posts reposted by users they follow
//
// SELECT DISTINCT performs the within-variant union: a post the user
// authored, follows themselves into, AND reposted still yields one row.
// Reposts contribute the original post at its own pub_date — the repost
// timestamp never affects feed position.
//
// Cross-variant ordering happens in service.FeedService; the two variants
// live in separate tables, so no single ORDER BY can span them.
const (
	mapFeedQuery = `
		SELECT DISTINCT m.id, 'map', m.title, m.pub_date, m.user_id
		FROM maps m
		WHERE m.user_id = ?
		   OR m.user_id IN (SELECT followed_id FROM follows WHERE follower_id = ?)
		   OR m.id IN (SELECT post_id FROM reposts WHERE post_kind = 'map' AND user_id = ?)
		   OR m.id IN (SELECT r.post_id
		               FROM reposts r
		               JOIN follows f ON f.followed_id = r.user_id
		               WHERE r.post_kind = 'map' AND f.follower_id = ?)
		ORDER BY m.pub_date DESC, m.id DESC`

	datasetFeedQuery = `
		SELECT DISTINCT d.id, 'dataset', d.title, d.pub_date, d.user_id
		FROM datasets d
		WHERE d.user_id = ?
		   OR d.user_id IN (SELECT followed_id FROM follows WHERE follower_id = ?)
		   OR d.id IN (SELECT post_id FROM reposts WHERE post_kind = 'dataset' AND user_id = ?)
		   OR d.id IN (SELECT r.post_id
		               FROM reposts r
		               JOIN follows f ON f.followed_id = r.user_id
		               WHERE r.post_kind = 'dataset' AND f.follower_id = ?)
		ORDER BY d.pub_date DESC, d.id DESC`
)

// MapFeedCandidates returns the deduplicated map-variant feed set for a user,
// newest first.
func (db *DB) MapFeedCandidates(ctx context.Context, userID string) ([]model.PostSummary, error) {
	rows, err := db.conn.QueryContext(ctx, mapFeedQuery, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying map feed candidates for %s: %w", userID, err)
	}
	return scanPostSummaries(rows)
}

// DataSetFeedCandidates returns the deduplicated dataset-variant feed set for
// a user, newest first.
func (db *DB) DataSetFeedCandidates(ctx context.Context, userID string) ([]model.PostSummary, error) {
	rows, err := db.conn.QueryContext(ctx, datasetFeedQuery, userID, userID, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying dataset feed candidates for %s: %w", userID, err)
	}
	return scanPostSummaries(rows)
}

// scanPostSummaries drains a result set whose columns are
// (id, kind, title, pub_date, user_id).
func scanPostSummaries(rows *sql.Rows) ([]model.PostSummary, error) {
	defer rows.Close()

	posts := make([]model.PostSummary, 0, 16)
	for rows.Next() {
		var (
			p    model.PostSummary
			kind string
		)
		if err := rows.Scan(&p.ID, &kind, &p.Title, &p.PubDate, &p.OwnerID); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post summary row: %w", err)
		}
		p.Kind = model.PostKind(kind)
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating post summaries: %w", err)
	}
	return posts, nil
}
