// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services take repository interfaces, not concrete sqlite types, so tests
// can inject in-memory mocks and the storage backend stays swappable.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/sakif/geostream/internal/apperror"
	"github.com/sakif/geostream/internal/model"
	"github.com/sakif/geostream/internal/repository"
)

// FeedService computes per-user feeds: the time-descending union of the
// user's own posts, followed users' posts, the user's reposts, and reposts by
// followed users — across both post variants.
type FeedService struct {
	feed   repository.FeedRepository
	users  repository.UserRepository
	logger *slog.Logger
}

// NewFeedService creates a FeedService.
func NewFeedService(feed repository.FeedRepository, users repository.UserRepository, logger *slog.Logger) *FeedService {
	return &FeedService{
		feed:   feed,
		users:  users,
		logger: logger,
	}
}

// Feed materializes the full feed for userID.
//
// HOW THE MERGE WORKS:
// Maps and datasets live in physically separate tables, so "ORDER BY
// pub_date" cannot be pushed into one query spanning both. Instead:
//
//  1. Each variant resolves its own deduplicated candidate set in SQL
//     (one SELECT DISTINCT OR-ing the four membership predicates).
//  2. The two result sets are concatenated into one pool here.
//  3. The pool is sorted descending by pub_date. Ties break on post ID
//     descending — xid IDs sort by creation time, so the tie-break is
//     deterministic and tracks insertion order.
//
// The result is eagerly materialized per request; an unknown user is a
// NotFound error, while a known user with nothing to show gets an empty
// (non-nil) slice.
func (s *FeedService) Feed(ctx context.Context, userID string) ([]model.PostSummary, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}

	// Never silently default a bad ID to an empty feed.
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	maps, err := s.feed.MapFeedCandidates(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load map feed candidates",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading map feed candidates: %w", err)
	}

	datasets, err := s.feed.DataSetFeedCandidates(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load dataset feed candidates",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("loading dataset feed candidates: %w", err)
	}

	feed := make([]model.PostSummary, 0, len(maps)+len(datasets))
	feed = append(feed, maps...)
	feed = append(feed, datasets...)

	sort.Slice(feed, func(i, j int) bool {
		if !feed[i].PubDate.Equal(feed[j].PubDate) {
			return feed[i].PubDate.After(feed[j].PubDate)
		}
		return feed[i].ID > feed[j].ID
	})

	s.logger.Debug("feed computed",
		slog.String("userID", userID),
		slog.Int("maps", len(maps)),
		slog.Int("datasets", len(datasets)),
	)

	return feed, nil
}
