package models

import "time"

type Tag struct {
	ID          int64
	Name        string
	Slug        string
	Description string
	Status      ModerationStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
