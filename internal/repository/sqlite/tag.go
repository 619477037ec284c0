package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/geostream/internal/apperror"
	"github.com/sakif/geostream/internal/model"
	"github.com/sakif/geostream/internal/repository"
)

// compile-time check that *DB implements repository.TagRepository
var _ repository.TagRepository = (*DB)(nil)

// CreateTag inserts a new tag. Names are unique platform-wide.
func (db *DB) CreateTag(ctx context.Context, tag *model.Tag) error {
	tag.ID = xid.New().String()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO tags (id, name) VALUES (?, ?)`,
		tag.ID, tag.Name,
	)
	if err != nil {
		if isUniqueViolation(err, "tags.name") {
			return apperror.Conflict("tag", "name")
		}
		return fmt.Errorf("sqlite: creating tag: %w", err)
	}

	return nil
}

// GetTagByID retrieves a tag.
func (db *DB) GetTagByID(ctx context.Context, id string) (*model.Tag, error) {
	var t model.Tag

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name FROM tags WHERE id = ?`, id,
	).Scan(&t.ID, &t.Name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("tag", id)
		}
		return nil, fmt.Errorf("sqlite: getting tag %s: %w", id, err)
	}

	return &t, nil
}

// TagPost attaches a tag to a post of either variant. Re-tagging is a no-op.
func (db *DB) TagPost(ctx context.Context, tagID string, kind model.PostKind, postID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO post_tags (tag_id, post_kind, post_id) VALUES (?, ?, ?)`,
		tagID, string(kind), postID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: tagging %s %s with tag %s: %w", kind, postID, tagID, err)
	}
	return nil
}

// TaggedPosts lists summaries of every post carrying the tag, both variants,
// newest first.
func (db *DB) TaggedPosts(ctx context.Context, tagID string) ([]model.PostSummary, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT m.id, 'map', m.title, m.pub_date, m.user_id
		 FROM maps m
		 JOIN post_tags pt ON pt.post_kind = 'map' AND pt.post_id = m.id
		 WHERE pt.tag_id = ?
		 UNION ALL
		 SELECT d.id, 'dataset', d.title, d.pub_date, d.user_id
		 FROM datasets d
		 JOIN post_tags pt ON pt.post_kind = 'dataset' AND pt.post_id = d.id
		 WHERE pt.tag_id = ?
		 ORDER BY 4 DESC`,
		tagID, tagID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts for tag %s: %w", tagID, err)
	}

	return scanPostSummaries(rows)
}
