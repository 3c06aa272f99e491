package service

import (
	"context"
	"strconv"
	"strings"

	"artboard/internal/apperr"
	"artboard/internal/config"
	"artboard/internal/models"
	"artboard/internal/slug"
)

// TagService handles direct (non-ingestion) tag management.
type TagService struct {
	tags      TagStore
	moderated bool
}

func NewTagService(tags TagStore, moderation config.ModerationConfig) *TagService {
	return &TagService{tags: tags, moderated: moderation.Tags}
}

// Create checks the unique fields in one query and reports a field-specific
// conflict before inserting.
func (s *TagService) Create(ctx context.Context, name, description string) (models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Tag{}, apperr.Validation("name", apperr.ReasonMalformed)
	}
	slugged := slug.Make(name)
	if slugged == "" {
		return models.Tag{}, apperr.Validation("name", apperr.ReasonMalformed)
	}

	existing, field, err := s.tags.FindConflict(ctx, name, slugged)
	if err != nil {
		return models.Tag{}, err
	}
	if field != "" {
		return models.Tag{}, apperr.Conflict(field, strconv.FormatInt(existing.ID, 10))
	}

	return s.tags.Create(ctx, models.Tag{
		Name:        name,
		Slug:        slugged,
		Description: strings.TrimSpace(description),
		Status:      gatedStatus(s.moderated),
	})
}

func (s *TagService) Get(ctx context.Context, id int64, privileged bool) (models.Tag, error) {
	tag, err := s.tags.GetByID(ctx, id)
	if err != nil {
		return models.Tag{}, err
	}
	if !privileged && tag.Status != models.StatusAccepted {
		return models.Tag{}, apperr.NotFound("tag", strconv.FormatInt(id, 10))
	}
	return tag, nil
}

func (s *TagService) List(ctx context.Context, privileged bool, status *models.ModerationStatus, limit, offset int) ([]models.Tag, error) {
	if !privileged {
		accepted := models.StatusAccepted
		status = &accepted
	}
	return s.tags.List(ctx, status, limit, offset)
}
