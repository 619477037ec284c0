package service

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/sakif/geostream/internal/apperror"
	"github.com/sakif/geostream/internal/model"
	"github.com/sakif/geostream/internal/repository"
	"github.com/sakif/geostream/internal/storage"
)

// Validation constants for content fields.
const (
	MaxTitleLength       = 80
	MaxFormatLength      = 40
	MaxStyleLength       = 25
	MaxTagNameLength     = 80
	MaxDataSetBytes      = 10 << 20 // 10MB per uploaded dataset
	MaxStyleBlobBytes    = 64 << 10 // layout/paint blobs
	MaxPopupTitleLength  = 120
	MaxPopupSubtitleLen  = 240
)

// ContentService handles creation of datasets, maps, layers, popups, and
// tags, and the associations between them.
type ContentService struct {
	datasets repository.DataSetRepository
	maps     repository.MapRepository
	tags     repository.TagRepository
	files    *storage.FileStore
	logger   *slog.Logger
}

// NewContentService creates a ContentService.
func NewContentService(
	datasets repository.DataSetRepository,
	maps repository.MapRepository,
	tags repository.TagRepository,
	files *storage.FileStore,
	logger *slog.Logger,
) *ContentService {
	return &ContentService{
		datasets: datasets,
		maps:     maps,
		tags:     tags,
		files:    files,
		logger:   logger,
	}
}

// CreateDataSet validates and publishes a dataset, persisting its raw bytes
// in the file store. json/geojson content must parse; other formats are
// stored as-is but can't be served back parsed (see RawData).
func (s *ContentService) CreateDataSet(ctx context.Context, ownerID, title, format, filename, description string, data []byte) (*model.DataSet, error) {
	title = strings.TrimSpace(title)
	format = strings.ToLower(strings.TrimSpace(format))

	if title == "" {
		return nil, apperror.ValidationFailed("title", "dataset title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if format == "" || len(format) > MaxFormatLength {
		return nil, apperror.ValidationFailed("format", "a dataset format tag is required")
	}
	if strings.TrimSpace(filename) == "" {
		return nil, apperror.ValidationFailed("file", "a file name is required")
	}
	if len(data) == 0 {
		return nil, apperror.ValidationFailed("data", "dataset content is required")
	}
	if len(data) > MaxDataSetBytes {
		return nil, apperror.ValidationFailed("data",
			fmt.Sprintf("dataset content must be %d bytes or less", MaxDataSetBytes))
	}
	if (format == model.FormatJSON || format == model.FormatGeoJSON) && !json.Valid(data) {
		return nil, apperror.ValidationFailed("data", "dataset content is not valid JSON")
	}

	ds := &model.DataSet{
		Title:       title,
		Format:      format,
		File:        filename,
		Description: strings.TrimSpace(description),
		OwnerID:     ownerID,
	}

	if err := s.datasets.CreateDataSet(ctx, ds); err != nil {
		s.logger.Error("failed to create dataset",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating dataset: %w", err)
	}

	if err := s.files.Save(ds.ID, ds.File, data); err != nil {
		s.logger.Error("failed to store dataset file",
			slog.String("id", ds.ID),
			slog.String("error", err.Error()),
		)
		// Undo the metadata row — a dataset whose bytes never landed must not
		// surface in feeds.
		if delErr := s.datasets.DeleteDataSet(ctx, ds.ID); delErr != nil {
			s.logger.Error("failed to remove dataset after file store failure",
				slog.String("id", ds.ID),
				slog.String("error", delErr.Error()),
			)
		}
		return nil, fmt.Errorf("storing dataset file: %w", err)
	}

	s.logger.Info("dataset published",
		slog.String("id", ds.ID),
		slog.String("title", ds.Title),
		slog.String("format", ds.Format),
	)

	return ds, nil
}

// GetDataSet returns a dataset by ID.
func (s *ContentService) GetDataSet(ctx context.Context, id string) (*model.DataSet, error) {
	return s.datasets.GetDataSetByID(ctx, id)
}

// RawData loads a dataset's stored bytes. Only json/geojson datasets can be
// served parsed; other formats are rejected rather than returned untyped.
func (s *ContentService) RawData(ctx context.Context, id string) ([]byte, error) {
	ds, err := s.datasets.GetDataSetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ds.Format != model.FormatJSON && ds.Format != model.FormatGeoJSON {
		return nil, apperror.ValidationFailed("format",
			fmt.Sprintf("dataset format %q cannot be served as JSON", ds.Format))
	}

	data, err := s.files.Load(ds.ID, ds.File)
	if err != nil {
		return nil, fmt.Errorf("loading dataset file: %w", err)
	}
	return data, nil
}

// DataSetReferences lists the maps that use a dataset as a source.
func (s *ContentService) DataSetReferences(ctx context.Context, datasetID string) ([]model.PostSummary, error) {
	if _, err := s.datasets.GetDataSetByID(ctx, datasetID); err != nil {
		return nil, err
	}
	refs, err := s.maps.References(ctx, datasetID)
	if err != nil {
		return nil, fmt.Errorf("listing dataset references: %w", err)
	}
	return refs, nil
}

// CreateMap validates and publishes a map composition.
func (s *ContentService) CreateMap(ctx context.Context, ownerID, title, description, style string, lat, lng, zoom float64) (*model.Map, error) {
	title = strings.TrimSpace(title)
	style = strings.TrimSpace(style)

	if title == "" {
		return nil, apperror.ValidationFailed("title", "map title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("title must be %d characters or less", MaxTitleLength))
	}
	if len(style) > MaxStyleLength {
		return nil, apperror.ValidationFailed("style",
			fmt.Sprintf("style must be %d characters or less", MaxStyleLength))
	}
	if lat < -90 || lat > 90 {
		return nil, apperror.ValidationFailed("lat", "latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return nil, apperror.ValidationFailed("lng", "longitude must be between -180 and 180")
	}
	if zoom < 0 || zoom > 24 {
		return nil, apperror.ValidationFailed("zoom", "zoom must be between 0 and 24")
	}

	m := &model.Map{
		Title:       title,
		Description: strings.TrimSpace(description),
		Lat:         lat,
		Lng:         lng,
		Zoom:        zoom,
		Style:       style,
		OwnerID:     ownerID,
	}

	if err := s.maps.CreateMap(ctx, m); err != nil {
		s.logger.Error("failed to create map",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating map: %w", err)
	}

	s.logger.Info("map published",
		slog.String("id", m.ID),
		slog.String("title", m.Title),
	)

	return m, nil
}

// GetMap returns a map by ID, hydrated with sources and layers.
func (s *ContentService) GetMap(ctx context.Context, id string) (*model.Map, error) {
	return s.maps.GetMapByID(ctx, id)
}

// AddMapSource attaches a dataset as a source of a map. Only the map's owner
// may modify its composition.
func (s *ContentService) AddMapSource(ctx context.Context, actorID, mapID, datasetID string) (*model.Map, error) {
	m, err := s.maps.GetMapByID(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != actorID {
		return nil, apperror.Forbidden("only the map owner can modify its sources")
	}
	if _, err := s.datasets.GetDataSetByID(ctx, datasetID); err != nil {
		return nil, err
	}

	if err := s.maps.AddSource(ctx, mapID, datasetID); err != nil {
		return nil, fmt.Errorf("adding map source: %w", err)
	}

	return s.maps.GetMapByID(ctx, mapID)
}

// AddMapLayer attaches an existing layer to a map. The layer's owning
// dataset must already be one of the map's sources — a layer without its
// data would render nothing.
func (s *ContentService) AddMapLayer(ctx context.Context, actorID, mapID, layerID string) (*model.Map, error) {
	m, err := s.maps.GetMapByID(ctx, mapID)
	if err != nil {
		return nil, err
	}
	if m.OwnerID != actorID {
		return nil, apperror.Forbidden("only the map owner can modify its layers")
	}

	layer, err := s.datasets.GetLayerByID(ctx, layerID)
	if err != nil {
		return nil, err
	}

	if !slices.Contains(m.SourceIDs, layer.DataSetID) {
		return nil, apperror.ValidationFailed("layerId",
			"the layer's dataset is not among the map's sources")
	}

	if err := s.maps.AddLayer(ctx, mapID, layerID); err != nil {
		return nil, fmt.Errorf("adding map layer: %w", err)
	}

	return s.maps.GetMapByID(ctx, mapID)
}

// CreateLayer validates and creates a rendering layer on a dataset,
// including any popups supplied with it. Layout and paint blobs are opaque
// but must be well-formed JSON objects.
func (s *ContentService) CreateLayer(ctx context.Context, actorID, datasetID, layerType, sourceLayer string, layout, paint json.RawMessage, popups []model.Popup) (*model.Layer, error) {
	layerType = strings.TrimSpace(layerType)
	if layerType == "" {
		return nil, apperror.ValidationFailed("type", "layer type is required")
	}

	ds, err := s.datasets.GetDataSetByID(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if ds.OwnerID != actorID {
		return nil, apperror.Forbidden("only the dataset owner can add layers")
	}

	if err := validateStyleBlob("layout", layout); err != nil {
		return nil, err
	}
	if err := validateStyleBlob("paint", paint); err != nil {
		return nil, err
	}

	// Every popup is checked before the first insert — a bad one at position
	// N must not leave the layer and N-1 popups durably behind.
	for i := range popups {
		popups[i].Title = strings.TrimSpace(popups[i].Title)
		if popups[i].Title == "" {
			return nil, apperror.ValidationFailed("popups", "popup title is required")
		}
		if len(popups[i].Title) > MaxPopupTitleLength || len(popups[i].Subtitle) > MaxPopupSubtitleLen {
			return nil, apperror.ValidationFailed("popups", "popup title or subtitle too long")
		}
		if len(popups[i].Properties) > 0 && !json.Valid(popups[i].Properties) {
			return nil, apperror.ValidationFailed("popups", "popup properties are not valid JSON")
		}
	}

	layer := &model.Layer{
		DataSetID:   datasetID,
		Type:        layerType,
		SourceLayer: strings.TrimSpace(sourceLayer),
		Layout:      layout,
		Paint:       paint,
	}

	if err := s.datasets.CreateLayer(ctx, layer); err != nil {
		return nil, fmt.Errorf("creating layer: %w", err)
	}

	for i := range popups {
		p := popups[i]
		p.LayerID = layer.ID
		if err := s.datasets.CreatePopup(ctx, &p); err != nil {
			return nil, fmt.Errorf("creating popup: %w", err)
		}
		layer.Popups = append(layer.Popups, p)
	}

	s.logger.Info("layer created",
		slog.String("id", layer.ID),
		slog.String("datasetID", datasetID),
		slog.Int("popups", len(layer.Popups)),
	)

	return layer, nil
}

// CreateTag creates a tag with a unique name.
func (s *ContentService) CreateTag(ctx context.Context, name string) (*model.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "tag name is required")
	}
	if len(name) > MaxTagNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("tag name must be %d characters or less", MaxTagNameLength))
	}

	tag := &model.Tag{Name: name}
	if err := s.tags.CreateTag(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// GetTag returns a tag together with the posts carrying it.
func (s *ContentService) GetTag(ctx context.Context, id string) (*model.Tag, []model.PostSummary, error) {
	tag, err := s.tags.GetTagByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	posts, err := s.tags.TaggedPosts(ctx, id)
	if err != nil {
		return nil, nil, fmt.Errorf("listing tagged posts: %w", err)
	}
	return tag, posts, nil
}

// TagPost attaches an existing tag to a post of either variant and returns
// the tagged post's summary. The kind is validated the same way like/repost
// targets are.
func (s *ContentService) TagPost(ctx context.Context, tagID, kindStr, postID string) (*model.PostSummary, error) {
	if _, err := s.tags.GetTagByID(ctx, tagID); err != nil {
		return nil, err
	}

	kind, ok := model.ParsePostKind(kindStr)
	if !ok {
		return nil, apperror.InvalidTarget(kindStr)
	}

	var summary model.PostSummary
	switch kind {
	case model.PostKindMap:
		m, err := s.maps.GetMapByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		summary = m.Summary()
	case model.PostKindDataSet:
		ds, err := s.datasets.GetDataSetByID(ctx, postID)
		if err != nil {
			return nil, err
		}
		summary = ds.Summary()
	}

	if err := s.tags.TagPost(ctx, tagID, kind, postID); err != nil {
		return nil, fmt.Errorf("tagging post: %w", err)
	}
	return &summary, nil
}

func validateStyleBlob(field string, blob json.RawMessage) error {
	if len(blob) == 0 {
		return nil // repository defaults it to {}
	}
	if len(blob) > MaxStyleBlobBytes {
		return apperror.ValidationFailed(field,
			fmt.Sprintf("%s blob must be %d bytes or less", field, MaxStyleBlobBytes))
	}
	if !json.Valid(blob) {
		return apperror.ValidationFailed(field, field+" blob is not valid JSON")
	}
	return nil
}
