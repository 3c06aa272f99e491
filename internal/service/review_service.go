package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"artboard/internal/apperr"
	"artboard/internal/models"
)

// ReviewService drives the moderation state machine: Pending entities are
// either accepted (terminal) or rejected, and rejection means deletion.
// Accept and reject are both idempotent; acting on an entity that is
// already gone succeeds quietly.
type ReviewService struct {
	images  ImageStore
	tags    TagStore
	artists ArtistStore
	blobs   BlobStore
	log     zerolog.Logger
}

func NewReviewService(images ImageStore, tags TagStore, artists ArtistStore, blobs BlobStore, log zerolog.Logger) *ReviewService {
	return &ReviewService{images: images, tags: tags, artists: artists, blobs: blobs, log: log}
}

func (s *ReviewService) ReviewImage(ctx context.Context, id string, accept bool) error {
	if accept {
		return s.images.Accept(ctx, id)
	}
	return s.deleteImage(ctx, id)
}

// DeleteImage removes an image on behalf of its uploader or a moderator.
func (s *ReviewService) DeleteImage(ctx context.Context, id string, requester models.User) error {
	image, err := s.images.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !requester.Privileged() && image.UploaderID != requester.ID {
		return apperr.Forbidden("not the uploader")
	}
	return s.removeImageAndBlob(ctx, image)
}

func (s *ReviewService) deleteImage(ctx context.Context, id string) error {
	image, err := s.images.GetByID(ctx, id)
	if err != nil {
		var nf *apperr.NotFoundError
		if errors.As(err, &nf) {
			return nil // already gone
		}
		return err
	}
	return s.removeImageAndBlob(ctx, image)
}

// removeImageAndBlob deletes the backing blob before the row. If the blob
// delete fails the row stays, so the storage error is surfaced and no
// orphan blob is left behind a missing row.
func (s *ReviewService) removeImageAndBlob(ctx context.Context, image models.Image) error {
	key := image.ObjectKey()
	if err := s.blobs.Delete(ctx, key); err != nil {
		return apperr.Storage("delete", key, err)
	}
	if err := s.images.Delete(ctx, image.ID); err != nil {
		return err
	}
	s.log.Info().Str("image_id", image.ID).Msg("image removed")
	return nil
}

// Rejecting a tag deletes its row; join rows to images cascade away, so
// images that referenced it simply lose the association.
func (s *ReviewService) ReviewTag(ctx context.Context, id int64, accept bool) error {
	if accept {
		return s.tags.Accept(ctx, id)
	}
	return s.tags.Delete(ctx, id)
}

func (s *ReviewService) ReviewArtist(ctx context.Context, id int64, accept bool) error {
	if accept {
		return s.artists.Accept(ctx, id)
	}
	return s.artists.Delete(ctx, id)
}
