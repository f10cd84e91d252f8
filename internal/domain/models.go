package domain

import "time"

// Image is the harvester's flattened view of an Imgur image, as published downstream.
type Image struct {
	ID          string    `json:"id"`
	AlbumID     string    `json:"album_id,omitempty"`
	Title       string    `json:"title,omitempty"`
	Description string    `json:"description,omitempty"`
	Link        string    `json:"link"`
	MediaType   string    `json:"media_type,omitempty"`
	Width       uint64    `json:"width"`
	Height      uint64    `json:"height"`
	SizeBytes   uint64    `json:"size_bytes"`
	Animated    bool      `json:"animated"`
	NSFW        bool      `json:"nsfw"`
	Tags        []string  `json:"tags,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
}
