package model

// Tag is a label that can be attached to posts of either variant.
// Names are unique across the platform.
type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
