package service

import (
	"context"
	"io"

	"artboard/internal/media/metadata"
	"artboard/internal/models"
	"artboard/internal/repository"
)

// Extractor produces upload metadata from a binary and its filename.
type Extractor interface {
	Extract(data []byte, filename string) (metadata.Metadata, error)
}

// Store interfaces consumed by the services. The pgx repositories satisfy
// them; tests substitute in-memory fakes.

type UnitOfWork interface {
	InTx(ctx context.Context, fn func(tx repository.Tx) error) error
}

type ImageStore interface {
	FindNearDuplicate(ctx context.Context, phash int64, maxDistance int) (repository.DuplicateHit, bool, error)
	GetByID(ctx context.Context, id string) (models.Image, error)
	List(ctx context.Context, f repository.ImageFilter) ([]models.Image, error)
	TagsFor(ctx context.Context, imageIDs []string, onlyAccepted bool) (map[string][]models.Tag, error)
	ArtistsFor(ctx context.Context, imageIDs []string, onlyAccepted bool) (map[string][]models.Artist, error)
	Accept(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type TagStore interface {
	GetByID(ctx context.Context, id int64) (models.Tag, error)
	FindConflict(ctx context.Context, name, slug string) (models.Tag, string, error)
	Create(ctx context.Context, tag models.Tag) (models.Tag, error)
	List(ctx context.Context, status *models.ModerationStatus, limit, offset int) ([]models.Tag, error)
	Accept(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	DeleteByIDs(ctx context.Context, ids []int64) error
}

type ArtistStore interface {
	GetByID(ctx context.Context, id int64) (models.Artist, error)
	FindConflict(ctx context.Context, candidate models.Artist) (models.Artist, string, error)
	Create(ctx context.Context, artist models.Artist) (models.Artist, error)
	List(ctx context.Context, status *models.ModerationStatus, limit, offset int) ([]models.Artist, error)
	Accept(ctx context.Context, id int64) error
	Delete(ctx context.Context, id int64) error
	DeleteByIDs(ctx context.Context, ids []int64) error
}

type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Locker is the best-effort advisory lock over duplicate-check hash buckets.
type Locker interface {
	Acquire(ctx context.Context, bucket uint8) (release func(), ok bool)
}

// ImageView is an image materialized for callers: associations resolved and
// the public URL computed.
type ImageView struct {
	models.Image
	URL string
}
