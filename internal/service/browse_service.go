package service

import (
	"context"

	"artboard/internal/apperr"
	"artboard/internal/models"
	"artboard/internal/repository"
)

// ListImagesInput is the read-path query surface. Privileged callers see
// every status; everyone else is pinned to accepted entities, attached
// tags/artists included.
type ListImagesInput struct {
	Privileged  bool
	Status      *models.ModerationStatus // honored only when privileged
	NSFW        *bool
	Animated    *bool
	MinWidth    int
	MinHeight   int
	MaxWidth    int
	MaxHeight   int
	IncludeTags []string
	ExcludeTags []string
	UploaderID  string
	Limit       int
	Offset      int
}

// BrowseService is the visibility filter applied to every read path.
type BrowseService struct {
	images ImageStore
	blobs  BlobStore
}

func NewBrowseService(images ImageStore, blobs BlobStore) *BrowseService {
	return &BrowseService{images: images, blobs: blobs}
}

func (s *BrowseService) ListImages(ctx context.Context, input ListImagesInput) ([]ImageView, error) {
	filter := repository.ImageFilter{
		NSFW:        input.NSFW,
		Animated:    input.Animated,
		MinWidth:    input.MinWidth,
		MinHeight:   input.MinHeight,
		MaxWidth:    input.MaxWidth,
		MaxHeight:   input.MaxHeight,
		IncludeTags: input.IncludeTags,
		ExcludeTags: input.ExcludeTags,
		UploaderID:  input.UploaderID,
		Limit:       input.Limit,
		Offset:      input.Offset,
	}

	if input.Privileged {
		filter.Status = input.Status
	} else {
		accepted := models.StatusAccepted
		filter.Status = &accepted
	}

	images, err := s.images.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return s.materialize(ctx, images, input.Privileged)
}

func (s *BrowseService) GetImage(ctx context.Context, id string, privileged bool) (ImageView, error) {
	image, err := s.images.GetByID(ctx, id)
	if err != nil {
		return ImageView{}, err
	}
	if !privileged && image.Status != models.StatusAccepted {
		// A pending image does not exist as far as the public is concerned.
		return ImageView{}, apperr.NotFound("image", id)
	}

	views, err := s.materialize(ctx, []models.Image{image}, privileged)
	if err != nil {
		return ImageView{}, err
	}
	return views[0], nil
}

// materialize attaches visible tags/artists and computes public URLs.
func (s *BrowseService) materialize(ctx context.Context, images []models.Image, privileged bool) ([]ImageView, error) {
	ids := make([]string, 0, len(images))
	for _, img := range images {
		ids = append(ids, img.ID)
	}

	tagsByImage, err := s.images.TagsFor(ctx, ids, !privileged)
	if err != nil {
		return nil, err
	}
	artistsByImage, err := s.images.ArtistsFor(ctx, ids, !privileged)
	if err != nil {
		return nil, err
	}

	views := make([]ImageView, 0, len(images))
	for _, img := range images {
		img.Tags = tagsByImage[img.ID]
		img.Artists = artistsByImage[img.ID]
		views = append(views, ImageView{
			Image: img,
			URL:   s.blobs.PublicURL(img.ObjectKey()),
		})
	}
	return views, nil
}
