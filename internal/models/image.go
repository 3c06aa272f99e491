package models

import "time"

// ModerationStatus gates public visibility of an entity. Rejection is not a
// stored state: a rejected entity is deleted outright.
type ModerationStatus string

const (
	StatusPending  ModerationStatus = "pending"
	StatusAccepted ModerationStatus = "accepted"
)

type Image struct {
	ID            string
	PHash         int64 // bit pattern of the 64-bit perceptual hash, stored signed
	Extension     string
	DominantColor string
	SourceURL     *string
	UploaderID    string
	NSFW          bool
	Animated      bool
	Width         int
	Height        int
	SizeBytes     int64
	Status        ModerationStatus
	FavoriteCount int
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Tags    []Tag
	Artists []Artist
}

// ObjectKey is the object-storage key backing this image.
func (i Image) ObjectKey() string {
	return i.ID + i.Extension
}
