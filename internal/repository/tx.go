package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"artboard/internal/models"
)

// Tx is the write surface available inside one relational transaction. The
// ingestion pipeline resolves tag/artist references and inserts the image
// row plus its associations through it; any failure rolls the whole unit
// back, so a resolver error can never leave orphan entities.
type Tx interface {
	FindTagByNameOrSlug(ctx context.Context, value string) (models.Tag, bool, error)
	CreateTag(ctx context.Context, tag models.Tag) (models.Tag, error)
	FindArtistByID(ctx context.Context, id int64) (models.Artist, bool, error)
	FindArtistByName(ctx context.Context, name string) (models.Artist, bool, error)
	CreateArtist(ctx context.Context, artist models.Artist) (models.Artist, error)
	CreateImage(ctx context.Context, image models.Image, tagIDs, artistIDs []int64) error
}

type TxRunner struct {
	pool *pgxpool.Pool
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// InTx runs fn inside a single transaction, committing on nil and rolling
// back on error or panic.
func (r *TxRunner) InTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&pgxTx{tx: tx})
	})
}

type pgxTx struct {
	tx pgx.Tx
}

func (t *pgxTx) FindTagByNameOrSlug(ctx context.Context, value string) (models.Tag, bool, error) {
	const query = `
		SELECT id, name, slug, description, status, created_at, updated_at
		FROM tags WHERE name = $1 OR slug = $1
	`

	var tag models.Tag
	err := t.tx.QueryRow(ctx, query, value).Scan(&tag.ID, &tag.Name, &tag.Slug,
		&tag.Description, &tag.Status, &tag.CreatedAt, &tag.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tag{}, false, nil
		}
		return models.Tag{}, false, err
	}
	return tag, true, nil
}

func (t *pgxTx) CreateTag(ctx context.Context, tag models.Tag) (models.Tag, error) {
	const query = `
		INSERT INTO tags (name, slug, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := t.tx.QueryRow(ctx, query, tag.Name, tag.Slug, tag.Description, tag.Status).
		Scan(&tag.ID, &tag.CreatedAt, &tag.UpdatedAt)
	return tag, err
}

func (t *pgxTx) FindArtistByID(ctx context.Context, id int64) (models.Artist, bool, error) {
	return t.findArtist(ctx, `WHERE id = $1`, id)
}

func (t *pgxTx) FindArtistByName(ctx context.Context, name string) (models.Artist, bool, error) {
	return t.findArtist(ctx, `WHERE name = $1`, name)
}

func (t *pgxTx) findArtist(ctx context.Context, where string, arg any) (models.Artist, bool, error) {
	query := `
		SELECT id, name, twitter_url, pixiv_url, patreon_url, website_url, status, created_at, updated_at
		FROM artists ` + where

	var artist models.Artist
	err := t.tx.QueryRow(ctx, query, arg).Scan(&artist.ID, &artist.Name,
		&artist.TwitterURL, &artist.PixivURL, &artist.PatreonURL, &artist.WebsiteURL,
		&artist.Status, &artist.CreatedAt, &artist.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Artist{}, false, nil
		}
		return models.Artist{}, false, err
	}
	return artist, true, nil
}

func (t *pgxTx) CreateArtist(ctx context.Context, artist models.Artist) (models.Artist, error) {
	const query = `
		INSERT INTO artists (name, twitter_url, pixiv_url, patreon_url, website_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := t.tx.QueryRow(ctx, query, artist.Name, artist.TwitterURL, artist.PixivURL,
		artist.PatreonURL, artist.WebsiteURL, artist.Status).
		Scan(&artist.ID, &artist.CreatedAt, &artist.UpdatedAt)
	return artist, err
}

func (t *pgxTx) CreateImage(ctx context.Context, image models.Image, tagIDs, artistIDs []int64) error {
	const query = `
		INSERT INTO images (
			id, phash, extension, dominant_color, source_url, uploader_id,
			nsfw, animated, width, height, size_bytes, status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
	`

	_, err := t.tx.Exec(ctx, query,
		image.ID,
		image.PHash,
		image.Extension,
		image.DominantColor,
		image.SourceURL,
		image.UploaderID,
		image.NSFW,
		image.Animated,
		image.Width,
		image.Height,
		image.SizeBytes,
		image.Status,
	)
	if err != nil {
		return err
	}

	for _, tagID := range tagIDs {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO image_tags (image_id, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			image.ID, tagID); err != nil {
			return err
		}
	}
	for _, artistID := range artistIDs {
		if _, err := t.tx.Exec(ctx,
			`INSERT INTO image_artists (image_id, artist_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			image.ID, artistID); err != nil {
			return err
		}
	}
	return nil
}
