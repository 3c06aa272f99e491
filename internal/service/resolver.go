package service

import (
	"context"
	"strconv"
	"strings"

	"artboard/internal/apperr"
	"artboard/internal/config"
	"artboard/internal/models"
	"artboard/internal/repository"
	"artboard/internal/slug"
)

// EntityResolver turns requested tag names and artist references into
// persisted entities inside the caller's transaction, creating missing ones
// with a moderation-gated initial status. Because it only ever writes
// through the transaction, a later failure in the same unit of work rolls
// the creations back with everything else.
type EntityResolver struct {
	moderation config.ModerationConfig
}

func NewEntityResolver(moderation config.ModerationConfig) *EntityResolver {
	return &EntityResolver{moderation: moderation}
}

// Resolved carries the resolution result. Created IDs identify entities
// auto-created by this request; the ingestion compensation path uses them
// to undo the creations if the blob upload fails after commit.
type Resolved struct {
	Tags             []models.Tag
	Artists          []models.Artist
	CreatedTagIDs    []int64
	CreatedArtistIDs []int64
}

func (r *EntityResolver) Resolve(ctx context.Context, tx repository.Tx, tagNames []string, artistIDs []int64, artistNames []string) (Resolved, error) {
	var out Resolved

	seenTags := make(map[int64]struct{})
	for _, name := range tagNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		tag, found, err := r.resolveTag(ctx, tx, name)
		if err != nil {
			return Resolved{}, err
		}
		if !found {
			tag, err = tx.CreateTag(ctx, models.Tag{
				Name:   name,
				Slug:   slug.Make(name),
				Status: gatedStatus(r.moderation.Tags),
			})
			if err != nil {
				return Resolved{}, err
			}
			out.CreatedTagIDs = append(out.CreatedTagIDs, tag.ID)
		}
		if _, dup := seenTags[tag.ID]; dup {
			continue
		}
		seenTags[tag.ID] = struct{}{}
		out.Tags = append(out.Tags, tag)
	}

	seenArtists := make(map[int64]struct{})
	for _, id := range artistIDs {
		artist, found, err := tx.FindArtistByID(ctx, id)
		if err != nil {
			return Resolved{}, err
		}
		if !found {
			return Resolved{}, notFoundArtist(id)
		}
		if _, dup := seenArtists[artist.ID]; dup {
			continue
		}
		seenArtists[artist.ID] = struct{}{}
		out.Artists = append(out.Artists, artist)
	}

	for _, name := range artistNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		artist, found, err := tx.FindArtistByName(ctx, name)
		if err != nil {
			return Resolved{}, err
		}
		if !found {
			artist, err = tx.CreateArtist(ctx, models.Artist{
				Name:   name,
				Status: gatedStatus(r.moderation.Artists),
			})
			if err != nil {
				return Resolved{}, err
			}
			out.CreatedArtistIDs = append(out.CreatedArtistIDs, artist.ID)
		}
		if _, dup := seenArtists[artist.ID]; dup {
			continue
		}
		seenArtists[artist.ID] = struct{}{}
		out.Artists = append(out.Artists, artist)
	}

	return out, nil
}

// resolveTag matches by exact name or slug, then by the slugified form of
// the requested name, so "Neon City" finds an existing "neon-city".
func (r *EntityResolver) resolveTag(ctx context.Context, tx repository.Tx, name string) (models.Tag, bool, error) {
	tag, found, err := tx.FindTagByNameOrSlug(ctx, name)
	if err != nil || found {
		return tag, found, err
	}
	if slugged := slug.Make(name); slugged != "" && slugged != name {
		return tx.FindTagByNameOrSlug(ctx, slugged)
	}
	return models.Tag{}, false, nil
}

func gatedStatus(moderated bool) models.ModerationStatus {
	if moderated {
		return models.StatusPending
	}
	return models.StatusAccepted
}

func notFoundArtist(id int64) error {
	return apperr.NotFound("artist", strconv.FormatInt(id, 10))
}
