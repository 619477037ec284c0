package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/geostream/internal/model"
	"github.com/sakif/geostream/internal/repository"
)

// compile-time check that *DB implements repository.EdgeRepository
var _ repository.EdgeRepository = (*DB)(nil)

// toggleEdge flips membership of one edge inside a single transaction:
// try to DELETE the edge; if nothing was deleted, INSERT it. The returned
// bool is the new state (true = present).
//
// The transaction is what makes a double-click follow well-defined: two
// concurrent toggles on the same edge serialize on SQLite's write lock
// (busy_timeout set in New), so each sees the other's committed state and
// the pair nets out. The composite primary key backstops uniqueness even if
// a caller bypasses this helper.
func (db *DB) toggleEdge(ctx context.Context, deleteQ, insertQ string, delArgs, insArgs []any) (bool, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("sqlite: beginning toggle: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, deleteQ, delArgs...)
	if err != nil {
		return false, fmt.Errorf("sqlite: removing edge: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}

	present := false
	if deleted == 0 {
		if _, err := tx.ExecContext(ctx, insertQ, insArgs...); err != nil {
			return false, fmt.Errorf("sqlite: inserting edge: %w", err)
		}
		present = true
	}

	// Durably committed before the call returns — no deferred writes.
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("sqlite: committing toggle: %w", err)
	}
	return present, nil
}

// ToggleFollow flips the directed follower → followed edge.
func (db *DB) ToggleFollow(ctx context.Context, followerID, followedID string) (bool, error) {
	return db.toggleEdge(ctx,
		`DELETE FROM follows WHERE follower_id = ? AND followed_id = ?`,
		`INSERT INTO follows (follower_id, followed_id, created_at) VALUES (?, ?, ?)`,
		[]any{followerID, followedID},
		[]any{followerID, followedID, time.Now().UTC()},
	)
}

// ToggleLike flips the (user, post) like edge.
func (db *DB) ToggleLike(ctx context.Context, userID string, kind model.PostKind, postID string) (bool, error) {
	return db.toggleEdge(ctx,
		`DELETE FROM likes WHERE user_id = ? AND post_kind = ? AND post_id = ?`,
		`INSERT INTO likes (user_id, post_kind, post_id, created_at) VALUES (?, ?, ?, ?)`,
		[]any{userID, string(kind), postID},
		[]any{userID, string(kind), postID, time.Now().UTC()},
	)
}

// ToggleRepost flips the (user, post) repost edge.
func (db *DB) ToggleRepost(ctx context.Context, userID string, kind model.PostKind, postID string) (bool, error) {
	return db.toggleEdge(ctx,
		`DELETE FROM reposts WHERE user_id = ? AND post_kind = ? AND post_id = ?`,
		`INSERT INTO reposts (user_id, post_kind, post_id, created_at) VALUES (?, ?, ?, ?)`,
		[]any{userID, string(kind), postID},
		[]any{userID, string(kind), postID, time.Now().UTC()},
	)
}

// Follows reports whether the directed follower → followed edge exists.
func (db *DB) Follows(ctx context.Context, followerID, followedID string) (bool, error) {
	var exists bool
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND followed_id = ?)`,
		followerID, followedID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking follow edge: %w", err)
	}
	return exists, nil
}

// Following lists the users userID follows. Indexed on the follows primary
// key, so cost is proportional to the user's out-degree.
func (db *DB) Following(ctx context.Context, userID string) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.joined_at
		 FROM users u
		 JOIN follows f ON f.followed_id = u.id
		 WHERE f.follower_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing following for %s: %w", userID, err)
	}
	return scanUsers(rows)
}

// Followers lists the users following userID (in-degree, via
// idx_follows_followed_id).
func (db *DB) Followers(ctx context.Context, userID string) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.joined_at
		 FROM users u
		 JOIN follows f ON f.follower_id = u.id
		 WHERE f.followed_id = ?`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing followers for %s: %w", userID, err)
	}
	return scanUsers(rows)
}

// Likers lists the users who like the given post.
func (db *DB) Likers(ctx context.Context, kind model.PostKind, postID string) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.joined_at
		 FROM users u
		 JOIN likes l ON l.user_id = u.id
		 WHERE l.post_kind = ? AND l.post_id = ?`,
		string(kind), postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing likers of %s %s: %w", kind, postID, err)
	}
	return scanUsers(rows)
}

// Reposters lists the users who reposted the given post.
func (db *DB) Reposters(ctx context.Context, kind model.PostKind, postID string) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.username, u.email, u.password_hash, u.joined_at
		 FROM users u
		 JOIN reposts r ON r.user_id = u.id
		 WHERE r.post_kind = ? AND r.post_id = ?`,
		string(kind), postID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reposters of %s %s: %w", kind, postID, err)
	}
	return scanUsers(rows)
}

// Liked lists everything userID has liked, newest like first. Same shape as
// Reposted: both variants in one pass, each like carrying its own timestamp.
func (db *DB) Liked(ctx context.Context, userID string) ([]model.Like, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, 'map', m.title, m.pub_date, m.user_id, l.created_at
		 FROM maps m
		 JOIN likes l ON l.post_kind = 'map' AND l.post_id = m.id
		 WHERE l.user_id = ?
		 UNION ALL
		 SELECT d.id, 'dataset', d.title, d.pub_date, d.user_id, l.created_at
		 FROM datasets d
		 JOIN likes l ON l.post_kind = 'dataset' AND l.post_id = d.id
		 WHERE l.user_id = ?
		 ORDER BY 6 DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing liked for %s: %w", userID, err)
	}
	defer rows.Close()

	likes := make([]model.Like, 0, 8)
	for rows.Next() {
		var (
			lk   model.Like
			kind string
		)
		if err := rows.Scan(&lk.Post.ID, &kind, &lk.Post.Title, &lk.Post.PubDate, &lk.Post.OwnerID, &lk.LikedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		lk.Post.Kind = model.PostKind(kind)
		likes = append(likes, lk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating likes: %w", err)
	}
	return likes, nil
}

// Reposted lists everything userID has reposted, newest repost first.
// Both variants are resolved in one pass; each repost carries its own
// timestamp alongside the original post's summary.
func (db *DB) Reposted(ctx context.Context, userID string) ([]model.Repost, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, 'map', m.title, m.pub_date, m.user_id, r.created_at
		 FROM maps m
		 JOIN reposts r ON r.post_kind = 'map' AND r.post_id = m.id
		 WHERE r.user_id = ?
		 UNION ALL
		 SELECT d.id, 'dataset', d.title, d.pub_date, d.user_id, r.created_at
		 FROM datasets d
		 JOIN reposts r ON r.post_kind = 'dataset' AND r.post_id = d.id
		 WHERE r.user_id = ?
		 ORDER BY 6 DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing reposted for %s: %w", userID, err)
	}
	defer rows.Close()

	reposts := make([]model.Repost, 0, 8)
	for rows.Next() {
		var (
			rp   model.Repost
			kind string
		)
		if err := rows.Scan(&rp.Post.ID, &kind, &rp.Post.Title, &rp.Post.PubDate, &rp.Post.OwnerID, &rp.RepostedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning repost row: %w", err)
		}
		rp.Post.Kind = model.PostKind(kind)
		reposts = append(reposts, rp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating reposts: %w", err)
	}
	return reposts, nil
}
