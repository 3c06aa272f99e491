package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"artboard/internal/apperr"
	"artboard/internal/config"
	"artboard/internal/models"
)

// ArtistService handles direct (non-ingestion) artist management.
type ArtistService struct {
	artists   ArtistStore
	moderated bool
}

func NewArtistService(artists ArtistStore, moderation config.ModerationConfig) *ArtistService {
	return &ArtistService{artists: artists, moderated: moderation.Artists}
}

type CreateArtistInput struct {
	Name       string
	TwitterURL *string
	PixivURL   *string
	PatreonURL *string
	WebsiteURL *string
}

// Create validates the profile links, checks the name and every social-link
// field for collisions in a single query, and reports which field clashed.
func (s *ArtistService) Create(ctx context.Context, input CreateArtistInput) (models.Artist, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Artist{}, apperr.Validation("name", apperr.ReasonMalformed)
	}

	candidate := models.Artist{
		Name:       name,
		TwitterURL: normalizeLink(input.TwitterURL),
		PixivURL:   normalizeLink(input.PixivURL),
		PatreonURL: normalizeLink(input.PatreonURL),
		WebsiteURL: normalizeLink(input.WebsiteURL),
		Status:     gatedStatus(s.moderated),
	}

	for field, link := range candidate.SocialLinks() {
		if link == nil {
			continue
		}
		if u, err := url.Parse(*link); err != nil || u.Scheme == "" || u.Host == "" {
			return models.Artist{}, apperr.Validation(field, apperr.ReasonMalformed)
		}
	}

	existing, field, err := s.artists.FindConflict(ctx, candidate)
	if err != nil {
		return models.Artist{}, err
	}
	if field != "" {
		return models.Artist{}, apperr.Conflict(field, strconv.FormatInt(existing.ID, 10))
	}

	return s.artists.Create(ctx, candidate)
}

func (s *ArtistService) Get(ctx context.Context, id int64, privileged bool) (models.Artist, error) {
	artist, err := s.artists.GetByID(ctx, id)
	if err != nil {
		return models.Artist{}, err
	}
	if !privileged && artist.Status != models.StatusAccepted {
		return models.Artist{}, apperr.NotFound("artist", strconv.FormatInt(id, 10))
	}
	return artist, nil
}

func (s *ArtistService) List(ctx context.Context, privileged bool, status *models.ModerationStatus, limit, offset int) ([]models.Artist, error) {
	if !privileged {
		accepted := models.StatusAccepted
		status = &accepted
	}
	return s.artists.List(ctx, status, limit, offset)
}

func normalizeLink(link *string) *string {
	if link == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*link)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
