// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo (calls C code from Go), which means you need a C compiler
// installed and cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere Go works.
//
// SCHEMA SHAPE:
// Posts come in two variants (maps, datasets) stored in separate tables.
// Social edges (follows, likes, reposts) and tag/source/layer associations are
// explicit relation tables with composite primary keys. The primary keys are
// what make edge uniqueness a storage-layer guarantee rather than caller
// discipline — a double-submitted follow cannot produce two rows.
package sqlite

import (
	"database/sql"
	"fmt"

	// Blank import registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

// DB wraps a sql.DB connection pool and implements the repository interfaces.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
// Use ":memory:" for tests.
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// sql.Open doesn't actually connect; Ping surfaces bad paths or
	// permissions immediately instead of on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a writer holds the database — feed
	// queries never block toggle commits.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. Every edge references real
	// rows, so turn enforcement on.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	// Concurrent toggles on the same edge serialize on the write lock; wait
	// up to 3s before reporting "database is locked".
	if _, err := conn.Exec("PRAGMA busy_timeout=3000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it safe to run
// on every startup.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			joined_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// The two post variants. They deliberately share the id/title/pub_date/
	// user_id column shape so feed queries can project both into the same
	// summary rows.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS datasets (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			format      TEXT NOT NULL,
			file        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			pub_date    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			user_id     TEXT NOT NULL REFERENCES users(id)
		);
		CREATE INDEX IF NOT EXISTS idx_datasets_user_id ON datasets(user_id);
		CREATE INDEX IF NOT EXISTS idx_datasets_pub_date ON datasets(pub_date);

		CREATE TABLE IF NOT EXISTS maps (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			lat         REAL NOT NULL DEFAULT 0,
			lng         REAL NOT NULL DEFAULT 0,
			zoom        REAL NOT NULL DEFAULT 0,
			style       TEXT NOT NULL DEFAULT 'basic',
			pub_date    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			user_id     TEXT NOT NULL REFERENCES users(id)
		);
		CREATE INDEX IF NOT EXISTS idx_maps_user_id ON maps(user_id);
		CREATE INDEX IF NOT EXISTS idx_maps_pub_date ON maps(pub_date);
	`)
	if err != nil {
		return fmt.Errorf("creating post tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS layers (
			id           TEXT PRIMARY KEY,
			dataset_id   TEXT NOT NULL REFERENCES datasets(id),
			type         TEXT NOT NULL,
			source_layer TEXT NOT NULL DEFAULT '',
			layout       TEXT NOT NULL DEFAULT '{}',
			paint        TEXT NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_layers_dataset_id ON layers(dataset_id);

		CREATE TABLE IF NOT EXISTS popups (
			id         TEXT PRIMARY KEY,
			layer_id   TEXT NOT NULL REFERENCES layers(id),
			title      TEXT NOT NULL,
			subtitle   TEXT NOT NULL DEFAULT '',
			properties TEXT NOT NULL DEFAULT '{}'
		);
		CREATE INDEX IF NOT EXISTS idx_popups_layer_id ON popups(layer_id);

		CREATE TABLE IF NOT EXISTS tags (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);
	`)
	if err != nil {
		return fmt.Errorf("creating layer/popup/tag tables: %w", err)
	}

	// Social edges.
	//
	// follows: directed follower → followed. The CHECK makes the relation
	// irreflexive at the storage layer, on top of the service-level guard.
	//
	// likes/reposts: the target is a tagged union (post_kind, post_id) since
	// the referent may live in either post table. SQLite cannot express a
	// foreign key that switches tables on post_kind, so target existence is
	// checked by the service before toggling; posts are never deleted, so
	// the check cannot go stale.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS follows (
			follower_id TEXT NOT NULL REFERENCES users(id),
			followed_id TEXT NOT NULL REFERENCES users(id),
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (follower_id, followed_id),
			CHECK (follower_id <> followed_id)
		);
		CREATE INDEX IF NOT EXISTS idx_follows_followed_id ON follows(followed_id);

		CREATE TABLE IF NOT EXISTS likes (
			user_id    TEXT NOT NULL REFERENCES users(id),
			post_kind  TEXT NOT NULL CHECK (post_kind IN ('map', 'dataset')),
			post_id    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, post_kind, post_id)
		);
		CREATE INDEX IF NOT EXISTS idx_likes_post ON likes(post_kind, post_id);

		CREATE TABLE IF NOT EXISTS reposts (
			user_id    TEXT NOT NULL REFERENCES users(id),
			post_kind  TEXT NOT NULL CHECK (post_kind IN ('map', 'dataset')),
			post_id    TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, post_kind, post_id)
		);
		CREATE INDEX IF NOT EXISTS idx_reposts_post ON reposts(post_kind, post_id);
	`)
	if err != nil {
		return fmt.Errorf("creating edge tables: %w", err)
	}

	// Content associations.
	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS post_tags (
			tag_id    TEXT NOT NULL REFERENCES tags(id),
			post_kind TEXT NOT NULL CHECK (post_kind IN ('map', 'dataset')),
			post_id   TEXT NOT NULL,
			PRIMARY KEY (tag_id, post_kind, post_id)
		);
		CREATE INDEX IF NOT EXISTS idx_post_tags_post ON post_tags(post_kind, post_id);

		CREATE TABLE IF NOT EXISTS map_sources (
			map_id     TEXT NOT NULL REFERENCES maps(id),
			dataset_id TEXT NOT NULL REFERENCES datasets(id),
			PRIMARY KEY (map_id, dataset_id)
		);

		CREATE TABLE IF NOT EXISTS map_layers (
			map_id   TEXT NOT NULL REFERENCES maps(id),
			layer_id TEXT NOT NULL REFERENCES layers(id),
			PRIMARY KEY (map_id, layer_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating association tables: %w", err)
	}

	return nil
}
