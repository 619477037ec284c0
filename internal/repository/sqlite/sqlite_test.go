package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/geostream/internal/model"
)

// newTestDB returns a fresh in-memory database with the full schema applied.
// Each test gets its own database, so tests can run in parallel and never
// see each other's rows.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, username string) *model.User {
	t.Helper()
	user := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "$2a$04$notarealhashbutlookslikeone",
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user %q: %v", username, err)
	}
	return user
}

// createTestDataSet creates a dataset owned by ownerID.
func createTestDataSet(t *testing.T, db *DB, ownerID, title string) *model.DataSet {
	t.Helper()
	ds := &model.DataSet{
		Title:   title,
		Format:  model.FormatGeoJSON,
		File:    title + ".geojson",
		OwnerID: ownerID,
	}
	if err := db.CreateDataSet(context.Background(), ds); err != nil {
		t.Fatalf("failed to create test dataset %q: %v", title, err)
	}
	return ds
}

// createTestMap creates a map owned by ownerID.
func createTestMap(t *testing.T, db *DB, ownerID, title string) *model.Map {
	t.Helper()
	m := &model.Map{
		Title:   title,
		Lat:     52.52,
		Lng:     13.405,
		Zoom:    10,
		OwnerID: ownerID,
	}
	if err := db.CreateMap(context.Background(), m); err != nil {
		t.Fatalf("failed to create test map %q: %v", title, err)
	}
	return m
}

// setPubDate overwrites a post's pub_date so ordering tests can use known
// timestamps. table must be "maps" or "datasets".
func setPubDate(t *testing.T, db *DB, table, id string, at time.Time) {
	t.Helper()
	_, err := db.conn.Exec(`UPDATE `+table+` SET pub_date = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		t.Fatalf("failed to set pub_date on %s/%s: %v", table, id, err)
	}
}
