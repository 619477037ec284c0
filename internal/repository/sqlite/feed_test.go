package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/sakif/geostream/internal/model"
)

// feedIDs flattens a candidate list to IDs for easy comparison.
func feedIDs(posts []model.PostSummary) []string {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	return ids
}

func containsID(posts []model.PostSummary, id string) bool {
	for _, p := range posts {
		if p.ID == id {
			return true
		}
	}
	return false
}

func TestMapFeedCandidates_OwnPosts(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	m := createTestMap(t, db, alice.ID, "My Map")

	posts, err := db.MapFeedCandidates(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("MapFeedCandidates() error = %v", err)
	}
	if len(posts) != 1 || posts[0].ID != m.ID {
		t.Errorf("MapFeedCandidates() = %v, want exactly [%s]", feedIDs(posts), m.ID)
	}
	if posts[0].Kind != model.PostKindMap {
		t.Errorf("Kind = %q, want %q", posts[0].Kind, model.PostKindMap)
	}
}

func TestFeedCandidates_EmptyForFreshUser(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	createTestMap(t, db, bob.ID, "Not For Alice")
	createTestDataSet(t, db, bob.ID, "Also Not For Alice")

	// alice follows nobody and has no posts or reposts
	maps, err := db.MapFeedCandidates(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("MapFeedCandidates() error = %v", err)
	}
	datasets, err := db.DataSetFeedCandidates(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("DataSetFeedCandidates() error = %v", err)
	}
	if len(maps) != 0 || len(datasets) != 0 {
		t.Errorf("fresh user feed = %d maps, %d datasets, want 0, 0", len(maps), len(datasets))
	}
}

func TestFeedCandidates_FollowedAuthors(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	bobMap := createTestMap(t, db, bob.ID, "Bob's Map")
	carolMap := createTestMap(t, db, carol.ID, "Carol's Map")

	ctx := context.Background()
	if _, err := db.ToggleFollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("ToggleFollow: %v", err)
	}

	posts, err := db.MapFeedCandidates(ctx, alice.ID)
	if err != nil {
		t.Fatalf("MapFeedCandidates() error = %v", err)
	}

	if !containsID(posts, bobMap.ID) {
		t.Errorf("feed missing followed author's map %s", bobMap.ID)
	}
	if containsID(posts, carolMap.ID) {
		t.Errorf("feed contains unfollowed author's map %s", carolMap.ID)
	}
}

func TestFeedCandidates_RepostsByFollowed(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	// carol is NOT followed by alice, but bob is — and bob reposts carol's
	// dataset, which should pull it into alice's feed.
	carolDS := createTestDataSet(t, db, carol.ID, "Carol's Data")

	ctx := context.Background()
	if _, err := db.ToggleFollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("ToggleFollow: %v", err)
	}
	if _, err := db.ToggleRepost(ctx, bob.ID, model.PostKindDataSet, carolDS.ID); err != nil {
		t.Fatalf("ToggleRepost: %v", err)
	}

	posts, err := db.DataSetFeedCandidates(ctx, alice.ID)
	if err != nil {
		t.Fatalf("DataSetFeedCandidates() error = %v", err)
	}
	if !containsID(posts, carolDS.ID) {
		t.Errorf("feed missing dataset %s reposted by followed user", carolDS.ID)
	}
}

func TestFeedCandidates_OwnReposts(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	carol := createTestUser(t, db, "carol")
	carolMap := createTestMap(t, db, carol.ID, "Carol's Map")

	ctx := context.Background()
	if _, err := db.ToggleRepost(ctx, alice.ID, model.PostKindMap, carolMap.ID); err != nil {
		t.Fatalf("ToggleRepost: %v", err)
	}

	posts, err := db.MapFeedCandidates(ctx, alice.ID)
	if err != nil {
		t.Fatalf("MapFeedCandidates() error = %v", err)
	}
	if !containsID(posts, carolMap.ID) {
		t.Errorf("feed missing alice's own repost of %s", carolMap.ID)
	}
}

// A post that qualifies through several predicates at once (followed author
// AND reposted by alice AND reposted by a followed user) must appear exactly
// once.
func TestFeedCandidates_Deduplicated(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	carol := createTestUser(t, db, "carol")

	bobMap := createTestMap(t, db, bob.ID, "Popular Map")

	ctx := context.Background()
	if _, err := db.ToggleFollow(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("ToggleFollow(alice→bob): %v", err)
	}
	if _, err := db.ToggleFollow(ctx, alice.ID, carol.ID); err != nil {
		t.Fatalf("ToggleFollow(alice→carol): %v", err)
	}
	if _, err := db.ToggleRepost(ctx, alice.ID, model.PostKindMap, bobMap.ID); err != nil {
		t.Fatalf("ToggleRepost(alice): %v", err)
	}
	if _, err := db.ToggleRepost(ctx, carol.ID, model.PostKindMap, bobMap.ID); err != nil {
		t.Fatalf("ToggleRepost(carol): %v", err)
	}

	posts, err := db.MapFeedCandidates(ctx, alice.ID)
	if err != nil {
		t.Fatalf("MapFeedCandidates() error = %v", err)
	}

	count := 0
	for _, p := range posts {
		if p.ID == bobMap.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("map %s appears %d times in feed, want exactly 1", bobMap.ID, count)
	}
}

func TestFeedCandidates_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")

	old := createTestMap(t, db, alice.ID, "Old Map")
	mid := createTestMap(t, db, alice.ID, "Middle Map")
	recent := createTestMap(t, db, alice.ID, "Recent Map")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	setPubDate(t, db, "maps", old.ID, base.Add(-48*time.Hour))
	setPubDate(t, db, "maps", mid.ID, base.Add(-24*time.Hour))
	setPubDate(t, db, "maps", recent.ID, base)

	posts, err := db.MapFeedCandidates(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("MapFeedCandidates() error = %v", err)
	}
	want := []string{recent.ID, mid.ID, old.ID}
	got := feedIDs(posts)
	if len(got) != len(want) {
		t.Fatalf("feed = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("feed[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

// Reposts surface the original post at its own pub_date — reposting an old
// post does not bump it to the top of the feed.
func TestFeedCandidates_RepostKeepsOriginalPubDate(t *testing.T) {
	db := newTestDB(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	oldMap := createTestMap(t, db, bob.ID, "Old But Gold")
	aliceMap := createTestMap(t, db, alice.ID, "Alice's New Map")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	setPubDate(t, db, "maps", oldMap.ID, base.Add(-30*24*time.Hour))
	setPubDate(t, db, "maps", aliceMap.ID, base)

	ctx := context.Background()
	if _, err := db.ToggleRepost(ctx, alice.ID, model.PostKindMap, oldMap.ID); err != nil {
		t.Fatalf("ToggleRepost: %v", err)
	}

	posts, err := db.MapFeedCandidates(ctx, alice.ID)
	if err != nil {
		t.Fatalf("MapFeedCandidates() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("feed = %v, want 2 entries", feedIDs(posts))
	}
	if posts[0].ID != aliceMap.ID || posts[1].ID != oldMap.ID {
		t.Errorf("feed order = %v, want [%s %s] (repost stays at original date)",
			feedIDs(posts), aliceMap.ID, oldMap.ID)
	}
}
