package model

import (
	"time"

	json "github.com/goccy/go-json"
)

// DefaultMapStyle is the basemap style applied when a map is created
// without an explicit style.
const DefaultMapStyle = "basic"

// Map is a published map composition: a basemap style, a viewport, and the
// datasets and layers rendered on top of it. It is the other post variant.
//
// SourceIDs and Layers are populated on reads (GetMapByID); on writes the
// associations are managed through AddSource / AddLayer so the many-to-many
// rows stay the single source of truth.
type Map struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	Zoom        float64   `json:"zoom"`
	Style       string    `json:"style"`
	PubDate     time.Time `json:"pubDate"`
	OwnerID     string    `json:"ownerId"`

	SourceIDs []string `json:"sourceIds,omitempty"`
	Layers    []Layer  `json:"layers,omitempty"`
}

// Summary returns the feed projection of the map.
func (m *Map) Summary() PostSummary {
	return PostSummary{
		ID:      m.ID,
		Kind:    PostKindMap,
		Title:   m.Title,
		PubDate: m.PubDate,
		OwnerID: m.OwnerID,
	}
}

// Layer describes how one dataset is rendered on a map. It belongs to exactly
// one dataset; a map may only attach layers whose dataset is among the map's
// sources.
//
// Layout and Paint are opaque style blobs passed through to the renderer.
// json.RawMessage keeps them as-is — we validate they are well-formed JSON
// on creation but never interpret them.
type Layer struct {
	ID          string          `json:"id"`
	DataSetID   string          `json:"datasetId"`
	Type        string          `json:"type"`
	SourceLayer string          `json:"sourceLayer"`
	Layout      json.RawMessage `json:"layout"`
	Paint       json.RawMessage `json:"paint"`
	Popups      []Popup         `json:"popups,omitempty"`
}

// Popup is a clickable annotation attached to a layer. The ID may be supplied
// by the client (it often mirrors a feature ID in the source data); when
// absent one is generated.
type Popup struct {
	ID         string          `json:"id"`
	LayerID    string          `json:"layerId"`
	Title      string          `json:"title"`
	Subtitle   string          `json:"subtitle"`
	Properties json.RawMessage `json:"properties"`
}
