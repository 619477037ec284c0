package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/geostream/internal/apperror"
	"github.com/sakif/geostream/internal/model"
	"github.com/sakif/geostream/internal/repository"
)

// SocialService owns the social graph: the follow/like/repost toggles and
// the relation listings (followers, following, likers, reposters, reposted).
//
// TOGGLE CONTRACT:
// Each toggle flips edge membership and returns the new state (true =
// present). Two toggles in sequence restore the original state. The target
// must exist — a missing user/post is NotFound, and a like/repost target
// kind outside {map, dataset} is rejected with ErrInvalidTarget rather than
// silently ignored. Each toggle is one committed transaction; there is no
// deferred or batched write.
type SocialService struct {
	edges    repository.EdgeRepository
	users    repository.UserRepository
	maps     repository.MapRepository
	datasets repository.DataSetRepository
	logger   *slog.Logger
}

// NewSocialService creates a SocialService.
func NewSocialService(
	edges repository.EdgeRepository,
	users repository.UserRepository,
	maps repository.MapRepository,
	datasets repository.DataSetRepository,
	logger *slog.Logger,
) *SocialService {
	return &SocialService{
		edges:    edges,
		users:    users,
		maps:     maps,
		datasets: datasets,
		logger:   logger,
	}
}

// ToggleFollow flips whether actorID follows targetID.
//
// Self-follows are rejected here (and again by a schema CHECK) — the follow
// graph is irreflexive.
func (s *SocialService) ToggleFollow(ctx context.Context, actorID, targetID string) (bool, error) {
	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return false, apperror.ValidationFailed("userId", "target user ID is required")
	}
	if actorID == targetID {
		return false, apperror.ValidationFailed("userId", "you cannot follow yourself")
	}

	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		return false, err
	}

	present, err := s.edges.ToggleFollow(ctx, actorID, targetID)
	if err != nil {
		s.logger.Error("failed to toggle follow",
			slog.String("actorID", actorID),
			slog.String("targetID", targetID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("toggling follow: %w", err)
	}

	s.logger.Info("follow toggled",
		slog.String("actorID", actorID),
		slog.String("targetID", targetID),
		slog.Bool("present", present),
	)
	return present, nil
}

// ToggleLike flips whether actorID likes the post (kindStr, targetID).
func (s *SocialService) ToggleLike(ctx context.Context, actorID, kindStr, targetID string) (bool, error) {
	kind, err := s.resolveTarget(ctx, kindStr, targetID)
	if err != nil {
		return false, err
	}

	present, err := s.edges.ToggleLike(ctx, actorID, kind, targetID)
	if err != nil {
		s.logger.Error("failed to toggle like",
			slog.String("actorID", actorID),
			slog.String("kind", string(kind)),
			slog.String("targetID", targetID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("toggling like: %w", err)
	}

	s.logger.Info("like toggled",
		slog.String("actorID", actorID),
		slog.String("kind", string(kind)),
		slog.String("targetID", targetID),
		slog.Bool("present", present),
	)
	return present, nil
}

// ToggleRepost flips whether actorID reposts the post (kindStr, targetID).
// Reposting a post someone else already reposted targets the ORIGINAL post —
// there is no repost-of-a-repost; the chain collapses to one level.
func (s *SocialService) ToggleRepost(ctx context.Context, actorID, kindStr, targetID string) (bool, error) {
	kind, err := s.resolveTarget(ctx, kindStr, targetID)
	if err != nil {
		return false, err
	}

	present, err := s.edges.ToggleRepost(ctx, actorID, kind, targetID)
	if err != nil {
		s.logger.Error("failed to toggle repost",
			slog.String("actorID", actorID),
			slog.String("kind", string(kind)),
			slog.String("targetID", targetID),
			slog.String("error", err.Error()),
		)
		return false, fmt.Errorf("toggling repost: %w", err)
	}

	s.logger.Info("repost toggled",
		slog.String("actorID", actorID),
		slog.String("kind", string(kind)),
		slog.String("targetID", targetID),
		slog.Bool("present", present),
	)
	return present, nil
}

// resolveTarget validates a (kind, id) post reference: the kind must parse
// and the referent must exist in the matching table.
func (s *SocialService) resolveTarget(ctx context.Context, kindStr, targetID string) (model.PostKind, error) {
	kind, ok := model.ParsePostKind(kindStr)
	if !ok {
		return "", apperror.InvalidTarget(kindStr)
	}

	targetID = strings.TrimSpace(targetID)
	if targetID == "" {
		return "", apperror.ValidationFailed("id", "target post ID is required")
	}

	switch kind {
	case model.PostKindMap:
		if _, err := s.maps.GetMapByID(ctx, targetID); err != nil {
			return "", err
		}
	case model.PostKindDataSet:
		if _, err := s.datasets.GetDataSetByID(ctx, targetID); err != nil {
			return "", err
		}
	}

	return kind, nil
}

// Follows reports whether followerID currently follows followedID. Unlike
// the listings, this is a point lookup used to decorate profile reads.
func (s *SocialService) Follows(ctx context.Context, followerID, followedID string) (bool, error) {
	return s.edges.Follows(ctx, followerID, followedID)
}

// Following lists the users userID follows.
func (s *SocialService) Following(ctx context.Context, userID string) ([]model.User, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.edges.Following(ctx, userID)
}

// Followers lists the users following userID.
func (s *SocialService) Followers(ctx context.Context, userID string) ([]model.User, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.edges.Followers(ctx, userID)
}

// Likers lists the users who like a post.
func (s *SocialService) Likers(ctx context.Context, kindStr, postID string) ([]model.User, error) {
	kind, err := s.resolveTarget(ctx, kindStr, postID)
	if err != nil {
		return nil, err
	}
	return s.edges.Likers(ctx, kind, postID)
}

// Reposters lists the users who reposted a post.
func (s *SocialService) Reposters(ctx context.Context, kindStr, postID string) ([]model.User, error) {
	kind, err := s.resolveTarget(ctx, kindStr, postID)
	if err != nil {
		return nil, err
	}
	return s.edges.Reposters(ctx, kind, postID)
}

// Liked lists everything userID has liked with like timestamps.
func (s *SocialService) Liked(ctx context.Context, userID string) ([]model.Like, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.edges.Liked(ctx, userID)
}

// Reposted lists everything userID has reposted with repost timestamps.
func (s *SocialService) Reposted(ctx context.Context, userID string) ([]model.Repost, error) {
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.edges.Reposted(ctx, userID)
}
