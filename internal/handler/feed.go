package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/geostream/internal/auth"
	"github.com/sakif/geostream/internal/service"
)

// FeedHandler serves the personalized home feed.
type FeedHandler struct {
	feed   *service.FeedService
	logger *slog.Logger
}

// NewFeedHandler creates a FeedHandler.
func NewFeedHandler(feed *service.FeedService, logger *slog.Logger) *FeedHandler {
	return &FeedHandler{feed: feed, logger: logger}
}

// HandleFeed returns the authenticated user's feed: own posts, posts by
// followed users, and reposts by either, newest first across both kinds.
//
// HTTP: GET /api/feed
// Auth: required
func (h *FeedHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	posts, err := h.feed.Feed(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, posts)
}
