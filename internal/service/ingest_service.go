package service

import (
	"bytes"
	"context"

	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"

	"artboard/internal/apperr"
	"artboard/internal/config"
	"artboard/internal/media/phash"
	"artboard/internal/models"
	"artboard/internal/repository"
)

type IngestInput struct {
	UploaderID  string
	Data        []byte
	Filename    string
	ContentType string
	SourceURL   *string
	NSFW        bool
	TagNames    []string
	ArtistIDs   []int64
	ArtistNames []string
}

// IngestService runs the upload pipeline: extract metadata, reject
// near-duplicates, resolve tag/artist references, persist the image row and
// its associations in one transaction, then commit the binary to object
// storage. The storage write is the only step outside the transaction; if
// it fails, the relational writes of this request are compensated away so
// callers never observe partial state.
type IngestService struct {
	extractor Extractor
	resolver  *EntityResolver
	uow       UnitOfWork
	images    ImageStore
	tags      TagStore
	artists   ArtistStore
	blobs     BlobStore
	locks     Locker
	upload    config.UploadConfig
	moderated bool
	log       zerolog.Logger
}

func NewIngestService(
	extractor Extractor,
	resolver *EntityResolver,
	uow UnitOfWork,
	images ImageStore,
	tags TagStore,
	artists ArtistStore,
	blobs BlobStore,
	locks Locker,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *IngestService {
	return &IngestService{
		extractor: extractor,
		resolver:  resolver,
		uow:       uow,
		images:    images,
		tags:      tags,
		artists:   artists,
		blobs:     blobs,
		locks:     locks,
		upload:    cfg.Upload,
		moderated: cfg.Moderation.Images,
		log:       log,
	}
}

func (s *IngestService) Ingest(ctx context.Context, input IngestInput) (ImageView, error) {
	if s.upload.MaxSizeBytes > 0 && int64(len(input.Data)) > s.upload.MaxSizeBytes {
		return ImageView{}, apperr.Validation("file", apperr.ReasonTooLarge)
	}

	meta, err := s.extractor.Extract(input.Data, input.Filename)
	if err != nil {
		return ImageView{}, err
	}

	// Serialize the check-then-insert against concurrent uploads hashing
	// into the same bucket. Best effort: an unacquired lock only widens the
	// duplicate race window, it does not block ingestion.
	release, locked := s.locks.Acquire(ctx, uint8(meta.PHash>>56))
	defer release()
	if !locked {
		s.log.Debug().Str("phash", phash.Format(meta.PHash)).Msg("dedup lock not acquired, proceeding unlocked")
	}

	hit, found, err := s.images.FindNearDuplicate(ctx, phash.ToSigned(meta.PHash), s.upload.DedupDistance)
	if err != nil {
		return ImageView{}, err
	}
	if found {
		return ImageView{}, apperr.Conflict("phash", hit.ID)
	}

	image := models.Image{
		ID:            ksuid.New().String(),
		PHash:         phash.ToSigned(meta.PHash),
		Extension:     meta.Extension,
		DominantColor: meta.DominantColor,
		SourceURL:     input.SourceURL,
		UploaderID:    input.UploaderID,
		NSFW:          input.NSFW,
		Animated:      meta.Animated,
		Width:         meta.Width,
		Height:        meta.Height,
		SizeBytes:     meta.SizeBytes,
		Status:        gatedStatus(s.moderated),
	}

	var resolved Resolved
	err = s.uow.InTx(ctx, func(tx repository.Tx) error {
		resolved, err = s.resolver.Resolve(ctx, tx, input.TagNames, input.ArtistIDs, input.ArtistNames)
		if err != nil {
			return err
		}
		return tx.CreateImage(ctx, image, tagIDs(resolved.Tags), artistIDs(resolved.Artists))
	})
	if err != nil {
		return ImageView{}, err
	}

	key := image.ObjectKey()
	if err := s.blobs.Upload(ctx, key, input.ContentType, bytes.NewReader(input.Data), int64(len(input.Data))); err != nil {
		s.compensate(ctx, image.ID, resolved)
		return ImageView{}, apperr.Storage("upload", key, err)
	}

	image.Tags = resolved.Tags
	image.Artists = resolved.Artists
	return ImageView{Image: image, URL: s.blobs.PublicURL(key)}, nil
}

// compensate undoes the relational writes of a request whose blob upload
// failed: the image row (joins cascade) and any tag/artist rows the request
// auto-created. Compensation failures are logged, not returned; the storage
// error is what the caller needs to see.
func (s *IngestService) compensate(ctx context.Context, imageID string, resolved Resolved) {
	if err := s.images.Delete(ctx, imageID); err != nil {
		s.log.Error().Err(err).Str("image_id", imageID).Msg("compensating image delete failed")
	}
	if err := s.tags.DeleteByIDs(ctx, resolved.CreatedTagIDs); err != nil {
		s.log.Error().Err(err).Str("image_id", imageID).Msg("compensating tag delete failed")
	}
	if err := s.artists.DeleteByIDs(ctx, resolved.CreatedArtistIDs); err != nil {
		s.log.Error().Err(err).Str("image_id", imageID).Msg("compensating artist delete failed")
	}
}

func tagIDs(tags []models.Tag) []int64 {
	ids := make([]int64, 0, len(tags))
	for _, t := range tags {
		ids = append(ids, t.ID)
	}
	return ids
}

func artistIDs(artists []models.Artist) []int64 {
	ids := make([]int64, 0, len(artists))
	for _, a := range artists {
		ids = append(ids, a.ID)
	}
	return ids
}
