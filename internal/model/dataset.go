package model

import "time"

// Supported dataset formats. Other formats can be stored but their raw
// content cannot be served back parsed (see service.ContentService).
const (
	FormatJSON    = "json"
	FormatGeoJSON = "geojson"
)

// DataSet is a published geographic dataset: a file (typically GeoJSON)
// plus descriptive metadata. It is one of the two post variants.
//
// File is the original filename; the bytes themselves live in the file store
// under the dataset's ID, not in the database.
type DataSet struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Format      string    `json:"format"` // e.g. "geojson", "json"
	File        string    `json:"file"`
	Description string    `json:"description"`
	PubDate     time.Time `json:"pubDate"`
	OwnerID     string    `json:"ownerId"`
}

// Summary returns the feed projection of the dataset.
func (d *DataSet) Summary() PostSummary {
	return PostSummary{
		ID:      d.ID,
		Kind:    PostKindDataSet,
		Title:   d.Title,
		PubDate: d.PubDate,
		OwnerID: d.OwnerID,
	}
}
