package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/geostream/internal/apperror"
	"github.com/sakif/geostream/internal/model"
)

// testLogger discards output — service logging is not under test.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func summary(id string, kind model.PostKind, at time.Time) model.PostSummary {
	return model.PostSummary{
		ID:      id,
		Kind:    kind,
		Title:   "post " + id,
		PubDate: at,
		OwnerID: "user-someone",
	}
}

func TestFeed_MergesVariantsNewestFirst(t *testing.T) {
	users := newMockUserRepo()
	alice := users.addUser("alice")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	feedRepo := &mockFeedRepo{
		maps: []model.PostSummary{
			summary("m2", model.PostKindMap, base.Add(-2*time.Hour)),
			summary("m1", model.PostKindMap, base.Add(-10*time.Hour)),
		},
		datasets: []model.PostSummary{
			summary("d1", model.PostKindDataSet, base.Add(-1*time.Hour)),
			summary("d2", model.PostKindDataSet, base.Add(-5*time.Hour)),
		},
	}

	svc := NewFeedService(feedRepo, users, testLogger())
	feed, err := svc.Feed(context.Background(), alice.ID)
	require.NoError(t, err)

	// The two variants interleave purely by pub_date
	want := []string{"d1", "m2", "d2", "m1"}
	require.Len(t, feed, len(want))
	for i, id := range want {
		assert.Equal(t, id, feed[i].ID, "feed[%d]", i)
	}
}

func TestFeed_TieBreaksOnIDDescending(t *testing.T) {
	users := newMockUserRepo()
	alice := users.addUser("alice")

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	feedRepo := &mockFeedRepo{
		maps:     []model.PostSummary{summary("aaa", model.PostKindMap, at)},
		datasets: []model.PostSummary{summary("zzz", model.PostKindDataSet, at)},
	}

	svc := NewFeedService(feedRepo, users, testLogger())
	feed, err := svc.Feed(context.Background(), alice.ID)
	require.NoError(t, err)
	require.Len(t, feed, 2)

	// Identical pub_date: higher ID wins (IDs are time-sortable, so this
	// tracks insertion order)
	assert.Equal(t, "zzz", feed[0].ID)
	assert.Equal(t, "aaa", feed[1].ID)
}

func TestFeed_EmptyIsNotNil(t *testing.T) {
	users := newMockUserRepo()
	alice := users.addUser("alice")

	svc := NewFeedService(&mockFeedRepo{}, users, testLogger())
	feed, err := svc.Feed(context.Background(), alice.ID)
	require.NoError(t, err)

	// A fresh user gets an empty feed, not an error and not nil — the JSON
	// response must be [] rather than null.
	assert.NotNil(t, feed)
	assert.Empty(t, feed)
}

func TestFeed_UnknownUser(t *testing.T) {
	svc := NewFeedService(&mockFeedRepo{}, newMockUserRepo(), testLogger())

	_, err := svc.Feed(context.Background(), "ghost")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestFeed_EmptyUserID(t *testing.T) {
	svc := NewFeedService(&mockFeedRepo{}, newMockUserRepo(), testLogger())

	_, err := svc.Feed(context.Background(), "  ")
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestFeed_RepositoryErrorPropagates(t *testing.T) {
	users := newMockUserRepo()
	alice := users.addUser("alice")

	boom := errors.New("disk on fire")
	svc := NewFeedService(&mockFeedRepo{err: boom}, users, testLogger())

	_, err := svc.Feed(context.Background(), alice.ID)
	assert.ErrorIs(t, err, boom)
}
