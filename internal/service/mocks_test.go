package service

// In-memory mock repositories. Each mock implements just enough behavior for
// the service under test: IDs are deterministic, edges live in plain maps,
// and error cases are injected through the err fields.

import (
	"context"
	"fmt"

	"github.com/sakif/geostream/internal/apperror"
	"github.com/sakif/geostream/internal/model"
)

// --- users ---

type mockUserRepo struct {
	users map[string]*model.User // by ID
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) addUser(username string) *model.User {
	u := &model.User{
		ID:       "user-" + username,
		Username: username,
		Email:    username + "@example.com",
	}
	m.users[u.ID] = u
	return u
}

func (m *mockUserRepo) CreateUser(ctx context.Context, user *model.User) error {
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return apperror.Conflict("user", "username")
		}
		if existing.Email == user.Email {
			return apperror.Conflict("user", "email")
		}
	}
	user.ID = fmt.Sprintf("user-%d", len(m.users)+1)
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NotFound("user", id)
}

func (m *mockUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, apperror.NotFound("user", username)
}

// --- feed ---

type mockFeedRepo struct {
	maps     []model.PostSummary
	datasets []model.PostSummary
	err      error
}

func (m *mockFeedRepo) MapFeedCandidates(ctx context.Context, userID string) ([]model.PostSummary, error) {
	return m.maps, m.err
}

func (m *mockFeedRepo) DataSetFeedCandidates(ctx context.Context, userID string) ([]model.PostSummary, error) {
	return m.datasets, m.err
}

// --- edges ---

type mockEdgeRepo struct {
	follows map[string]bool
	likes   map[string]bool
	reposts map[string]bool
	liked   []model.Like // canned Liked() result
}

func newMockEdgeRepo() *mockEdgeRepo {
	return &mockEdgeRepo{
		follows: make(map[string]bool),
		likes:   make(map[string]bool),
		reposts: make(map[string]bool),
	}
}

func toggleKey(set map[string]bool, key string) bool {
	if set[key] {
		delete(set, key)
		return false
	}
	set[key] = true
	return true
}

func (m *mockEdgeRepo) ToggleFollow(ctx context.Context, followerID, followedID string) (bool, error) {
	return toggleKey(m.follows, followerID+"|"+followedID), nil
}

func (m *mockEdgeRepo) ToggleLike(ctx context.Context, userID string, kind model.PostKind, postID string) (bool, error) {
	return toggleKey(m.likes, fmt.Sprintf("%s|%s|%s", userID, kind, postID)), nil
}

func (m *mockEdgeRepo) ToggleRepost(ctx context.Context, userID string, kind model.PostKind, postID string) (bool, error) {
	return toggleKey(m.reposts, fmt.Sprintf("%s|%s|%s", userID, kind, postID)), nil
}

func (m *mockEdgeRepo) Follows(ctx context.Context, followerID, followedID string) (bool, error) {
	return m.follows[followerID+"|"+followedID], nil
}

func (m *mockEdgeRepo) Following(ctx context.Context, userID string) ([]model.User, error) {
	return []model.User{}, nil
}

func (m *mockEdgeRepo) Followers(ctx context.Context, userID string) ([]model.User, error) {
	return []model.User{}, nil
}

func (m *mockEdgeRepo) Likers(ctx context.Context, kind model.PostKind, postID string) ([]model.User, error) {
	return []model.User{}, nil
}

func (m *mockEdgeRepo) Reposters(ctx context.Context, kind model.PostKind, postID string) ([]model.User, error) {
	return []model.User{}, nil
}

func (m *mockEdgeRepo) Liked(ctx context.Context, userID string) ([]model.Like, error) {
	return m.liked, nil
}

func (m *mockEdgeRepo) Reposted(ctx context.Context, userID string) ([]model.Repost, error) {
	return []model.Repost{}, nil
}

// --- datasets ---

type mockDataSetRepo struct {
	datasets map[string]*model.DataSet
	layers   map[string]*model.Layer
	popups   []model.Popup
}

func newMockDataSetRepo() *mockDataSetRepo {
	return &mockDataSetRepo{
		datasets: make(map[string]*model.DataSet),
		layers:   make(map[string]*model.Layer),
	}
}

func (m *mockDataSetRepo) CreateDataSet(ctx context.Context, ds *model.DataSet) error {
	ds.ID = fmt.Sprintf("ds-%d", len(m.datasets)+1)
	m.datasets[ds.ID] = ds
	return nil
}

func (m *mockDataSetRepo) GetDataSetByID(ctx context.Context, id string) (*model.DataSet, error) {
	if ds, ok := m.datasets[id]; ok {
		return ds, nil
	}
	return nil, apperror.NotFound("dataset", id)
}

func (m *mockDataSetRepo) DeleteDataSet(ctx context.Context, id string) error {
	if _, ok := m.datasets[id]; !ok {
		return apperror.NotFound("dataset", id)
	}
	delete(m.datasets, id)
	return nil
}

func (m *mockDataSetRepo) CreateLayer(ctx context.Context, layer *model.Layer) error {
	layer.ID = fmt.Sprintf("layer-%d", len(m.layers)+1)
	m.layers[layer.ID] = layer
	return nil
}

func (m *mockDataSetRepo) GetLayerByID(ctx context.Context, id string) (*model.Layer, error) {
	if l, ok := m.layers[id]; ok {
		return l, nil
	}
	return nil, apperror.NotFound("layer", id)
}

func (m *mockDataSetRepo) CreatePopup(ctx context.Context, popup *model.Popup) error {
	if popup.ID == "" {
		popup.ID = fmt.Sprintf("popup-%d", len(m.popups)+1)
	}
	m.popups = append(m.popups, *popup)
	return nil
}

// --- maps ---

type mockMapRepo struct {
	maps map[string]*model.Map
}

func newMockMapRepo() *mockMapRepo {
	return &mockMapRepo{maps: make(map[string]*model.Map)}
}

func (m *mockMapRepo) CreateMap(ctx context.Context, mp *model.Map) error {
	mp.ID = fmt.Sprintf("map-%d", len(m.maps)+1)
	if mp.Style == "" {
		mp.Style = model.DefaultMapStyle
	}
	m.maps[mp.ID] = mp
	return nil
}

func (m *mockMapRepo) GetMapByID(ctx context.Context, id string) (*model.Map, error) {
	if mp, ok := m.maps[id]; ok {
		return mp, nil
	}
	return nil, apperror.NotFound("map", id)
}

func (m *mockMapRepo) AddSource(ctx context.Context, mapID, datasetID string) error {
	mp := m.maps[mapID]
	for _, id := range mp.SourceIDs {
		if id == datasetID {
			return nil
		}
	}
	mp.SourceIDs = append(mp.SourceIDs, datasetID)
	return nil
}

func (m *mockMapRepo) AddLayer(ctx context.Context, mapID, layerID string) error {
	mp := m.maps[mapID]
	for _, l := range mp.Layers {
		if l.ID == layerID {
			return nil
		}
	}
	mp.Layers = append(mp.Layers, model.Layer{ID: layerID})
	return nil
}

func (m *mockMapRepo) References(ctx context.Context, datasetID string) ([]model.PostSummary, error) {
	refs := make([]model.PostSummary, 0, 2)
	for _, mp := range m.maps {
		for _, id := range mp.SourceIDs {
			if id == datasetID {
				refs = append(refs, mp.Summary())
				break
			}
		}
	}
	return refs, nil
}

// --- tags ---

type mockTagRepo struct {
	tags   map[string]*model.Tag
	tagged map[string][]model.PostSummary // tagID → posts
}

func newMockTagRepo() *mockTagRepo {
	return &mockTagRepo{
		tags:   make(map[string]*model.Tag),
		tagged: make(map[string][]model.PostSummary),
	}
}

func (m *mockTagRepo) CreateTag(ctx context.Context, tag *model.Tag) error {
	for _, existing := range m.tags {
		if existing.Name == tag.Name {
			return apperror.Conflict("tag", "name")
		}
	}
	tag.ID = fmt.Sprintf("tag-%d", len(m.tags)+1)
	m.tags[tag.ID] = tag
	return nil
}

func (m *mockTagRepo) GetTagByID(ctx context.Context, id string) (*model.Tag, error) {
	if t, ok := m.tags[id]; ok {
		return t, nil
	}
	return nil, apperror.NotFound("tag", id)
}

func (m *mockTagRepo) TagPost(ctx context.Context, tagID string, kind model.PostKind, postID string) error {
	for _, p := range m.tagged[tagID] {
		if p.ID == postID && p.Kind == kind {
			return nil
		}
	}
	m.tagged[tagID] = append(m.tagged[tagID], model.PostSummary{ID: postID, Kind: kind})
	return nil
}

func (m *mockTagRepo) TaggedPosts(ctx context.Context, tagID string) ([]model.PostSummary, error) {
	return m.tagged[tagID], nil
}
