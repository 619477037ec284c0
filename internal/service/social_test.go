package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/geostream/internal/apperror"
	"github.com/sakif/geostream/internal/model"
)

func newTestSocialService() (*SocialService, *mockUserRepo, *mockMapRepo, *mockDataSetRepo) {
	users := newMockUserRepo()
	maps := newMockMapRepo()
	datasets := newMockDataSetRepo()
	svc := NewSocialService(newMockEdgeRepo(), users, maps, datasets, testLogger())
	return svc, users, maps, datasets
}

func TestToggleFollow_PairRestoresState(t *testing.T) {
	svc, users, _, _ := newTestSocialService()
	alice := users.addUser("alice")
	bob := users.addUser("bob")

	ctx := context.Background()

	following, err := svc.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, following, "first toggle should create the edge")

	following, err = svc.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, following, "second toggle should remove the edge")
}

func TestToggleFollow_SelfFollowRejected(t *testing.T) {
	svc, users, _, _ := newTestSocialService()
	alice := users.addUser("alice")

	_, err := svc.ToggleFollow(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestToggleFollow_UnknownTarget(t *testing.T) {
	svc, users, _, _ := newTestSocialService()
	alice := users.addUser("alice")

	_, err := svc.ToggleFollow(context.Background(), alice.ID, "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFollows_TracksToggle(t *testing.T) {
	svc, users, _, _ := newTestSocialService()
	alice := users.addUser("alice")
	bob := users.addUser("bob")

	ctx := context.Background()

	follows, err := svc.Follows(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, follows, "no edge before the toggle")

	_, err = svc.ToggleFollow(ctx, alice.ID, bob.ID)
	require.NoError(t, err)

	follows, err = svc.Follows(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, follows)

	// The relation is directed
	follows, err = svc.Follows(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, follows)
}

func TestToggleLike_MapTarget(t *testing.T) {
	svc, users, maps, _ := newTestSocialService()
	alice := users.addUser("alice")

	m := &model.Map{Title: "A Map", OwnerID: "user-bob"}
	require.NoError(t, maps.CreateMap(context.Background(), m))

	liked, err := svc.ToggleLike(context.Background(), alice.ID, "map", m.ID)
	require.NoError(t, err)
	assert.True(t, liked)
}

func TestToggleLike_InvalidKind(t *testing.T) {
	svc, users, _, _ := newTestSocialService()
	alice := users.addUser("alice")

	// Anything that isn't "map" or "dataset" is rejected outright — never
	// silently ignored or defaulted.
	for _, kind := range []string{"video", "", "Map", "MAPS"} {
		_, err := svc.ToggleLike(context.Background(), alice.ID, kind, "some-id")
		assert.ErrorIs(t, err, apperror.ErrInvalidTarget, "kind %q", kind)
	}
}

func TestToggleLike_MissingTarget(t *testing.T) {
	svc, users, _, _ := newTestSocialService()
	alice := users.addUser("alice")

	_, err := svc.ToggleLike(context.Background(), alice.ID, "dataset", "missing-ds")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestToggleRepost_DataSetTarget(t *testing.T) {
	svc, users, _, datasets := newTestSocialService()
	alice := users.addUser("alice")

	ds := &model.DataSet{Title: "Data", OwnerID: "user-bob"}
	require.NoError(t, datasets.CreateDataSet(context.Background(), ds))

	ctx := context.Background()

	reposted, err := svc.ToggleRepost(ctx, alice.ID, "dataset", ds.ID)
	require.NoError(t, err)
	assert.True(t, reposted)

	reposted, err = svc.ToggleRepost(ctx, alice.ID, "dataset", ds.ID)
	require.NoError(t, err)
	assert.False(t, reposted)
}

func TestToggleRepost_InvalidKind(t *testing.T) {
	svc, users, _, _ := newTestSocialService()
	alice := users.addUser("alice")

	_, err := svc.ToggleRepost(context.Background(), alice.ID, "article", "x")
	assert.ErrorIs(t, err, apperror.ErrInvalidTarget)
}

func TestListings_UnknownUser(t *testing.T) {
	svc, _, _, _ := newTestSocialService()

	_, err := svc.Following(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Followers(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Liked(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Reposted(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestLiked(t *testing.T) {
	users := newMockUserRepo()
	alice := users.addUser("alice")

	edges := newMockEdgeRepo()
	edges.liked = []model.Like{
		{Post: model.PostSummary{ID: "map-1", Kind: model.PostKindMap, Title: "A Map"}},
	}
	svc := NewSocialService(edges, users, newMockMapRepo(), newMockDataSetRepo(), testLogger())

	likes, err := svc.Liked(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, likes, 1)
	assert.Equal(t, "map-1", likes[0].Post.ID)
}

func TestLikers_InvalidKind(t *testing.T) {
	svc, _, _, _ := newTestSocialService()

	_, err := svc.Likers(context.Background(), "poem", "x")
	assert.ErrorIs(t, err, apperror.ErrInvalidTarget)
}
