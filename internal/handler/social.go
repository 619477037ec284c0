package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/geostream/internal/auth"
	"github.com/sakif/geostream/internal/model"
	"github.com/sakif/geostream/internal/service"
)

// SocialHandler exposes the follow/like/repost toggles and the listing
// endpoints around them.
//
// The toggle endpoints are deliberately not paired create/delete routes: a
// single POST flips the edge and the response reports the resulting state,
// so a double-submitted request is harmless.
type SocialHandler struct {
	social *service.SocialService
	users  *service.UserService
	logger *slog.Logger
}

// NewSocialHandler creates a SocialHandler.
func NewSocialHandler(social *service.SocialService, users *service.UserService, logger *slog.Logger) *SocialHandler {
	return &SocialHandler{
		social: social,
		users:  users,
		logger: logger,
	}
}

// toggleResponse reports the state of an edge after a toggle.
type toggleResponse struct {
	Active bool `json:"active"` // true = the edge now exists
}

// HandleToggleFollow flips the follow edge from the caller to {id}.
//
// HTTP: POST /api/users/{id}/follow
// Auth: required
func (h *SocialHandler) HandleToggleFollow(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	following, err := h.social.ToggleFollow(r.Context(), actorID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toggleResponse{Active: following})
}

// HandleToggleLike flips the caller's like on post {kind}/{id}.
//
// HTTP: POST /api/{kind}/{id}/like
// Auth: required
func (h *SocialHandler) HandleToggleLike(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	liked, err := h.social.ToggleLike(r.Context(), actorID, chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toggleResponse{Active: liked})
}

// HandleToggleRepost flips the caller's repost of post {kind}/{id}.
//
// HTTP: POST /api/{kind}/{id}/repost
// Auth: required
func (h *SocialHandler) HandleToggleRepost(w http.ResponseWriter, r *http.Request) {
	actorID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	reposted, err := h.social.ToggleRepost(r.Context(), actorID, chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toggleResponse{Active: reposted})
}

// profileResponse is a public profile, optionally decorated for the viewer.
// FollowedByViewer is present only when an authenticated user looks at
// someone else's profile.
type profileResponse struct {
	*model.User
	FollowedByViewer *bool `json:"followedByViewer,omitempty"`
}

// HandleProfile returns a user's public profile. A logged-in viewer also
// learns whether they follow the profiled user.
//
// HTTP: GET /api/users/{id}
// Auth: optional
func (h *SocialHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Profile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := profileResponse{User: user}
	if viewerID, ok := auth.UserIDFromContext(r.Context()); ok && viewerID != user.ID {
		follows, err := h.social.Follows(r.Context(), viewerID, user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.FollowedByViewer = &follows
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleFollowing lists the users that {id} follows.
//
// HTTP: GET /api/users/{id}/following
func (h *SocialHandler) HandleFollowing(w http.ResponseWriter, r *http.Request) {
	users, err := h.social.Following(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleFollowers lists the users that follow {id}.
//
// HTTP: GET /api/users/{id}/followers
func (h *SocialHandler) HandleFollowers(w http.ResponseWriter, r *http.Request) {
	users, err := h.social.Followers(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleLiked lists the posts {id} has liked, newest like first.
//
// HTTP: GET /api/users/{id}/liked
func (h *SocialHandler) HandleLiked(w http.ResponseWriter, r *http.Request) {
	likes, err := h.social.Liked(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

// HandleReposted lists the posts {id} has reposted, newest repost first.
//
// HTTP: GET /api/users/{id}/reposted
func (h *SocialHandler) HandleReposted(w http.ResponseWriter, r *http.Request) {
	reposts, err := h.social.Reposted(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reposts)
}

// HandleLikers lists the users who like post {kind}/{id}.
//
// HTTP: GET /api/{kind}/{id}/likes
func (h *SocialHandler) HandleLikers(w http.ResponseWriter, r *http.Request) {
	users, err := h.social.Likers(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// HandleReposters lists the users who reposted post {kind}/{id}.
//
// HTTP: GET /api/{kind}/{id}/reposts
func (h *SocialHandler) HandleReposters(w http.ResponseWriter, r *http.Request) {
	users, err := h.social.Reposters(r.Context(), chi.URLParam(r, "kind"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
