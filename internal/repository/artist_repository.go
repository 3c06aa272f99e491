package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"artboard/internal/apperr"
	"artboard/internal/models"
)

const artistColumns = `id, name, twitter_url, pixiv_url, patreon_url, website_url, status, created_at, updated_at`

type ArtistRepository struct {
	pool *pgxpool.Pool
}

func NewArtistRepository(pool *pgxpool.Pool) *ArtistRepository {
	return &ArtistRepository{pool: pool}
}

func (r *ArtistRepository) GetByID(ctx context.Context, id int64) (models.Artist, error) {
	query := `SELECT ` + artistColumns + ` FROM artists WHERE id = $1`

	artist, err := scanArtist(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Artist{}, apperr.NotFound("artist", formatID(id))
		}
		return models.Artist{}, err
	}
	return artist, nil
}

// FindConflict checks the name and every social link in one query and names
// the colliding field. NULL links never match. An empty field means no
// conflict.
func (r *ArtistRepository) FindConflict(ctx context.Context, candidate models.Artist) (models.Artist, string, error) {
	query := `SELECT ` + artistColumns + ` FROM artists
		WHERE name = $1
		   OR twitter_url = $2
		   OR pixiv_url = $3
		   OR patreon_url = $4
		   OR website_url = $5
		LIMIT 1`

	existing, err := scanArtist(r.pool.QueryRow(ctx, query, candidate.Name,
		candidate.TwitterURL, candidate.PixivURL, candidate.PatreonURL, candidate.WebsiteURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Artist{}, "", nil
		}
		return models.Artist{}, "", err
	}

	if existing.Name == candidate.Name {
		return existing, "name", nil
	}
	theirs := existing.SocialLinks()
	for field, value := range candidate.SocialLinks() {
		if value == nil || theirs[field] == nil {
			continue
		}
		if *value == *theirs[field] {
			return existing, field, nil
		}
	}
	return existing, "name", nil
}

func (r *ArtistRepository) Create(ctx context.Context, artist models.Artist) (models.Artist, error) {
	const query = `
		INSERT INTO artists (name, twitter_url, pixiv_url, patreon_url, website_url, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, artist.Name, artist.TwitterURL, artist.PixivURL,
		artist.PatreonURL, artist.WebsiteURL, artist.Status).
		Scan(&artist.ID, &artist.CreatedAt, &artist.UpdatedAt)
	return artist, err
}

func (r *ArtistRepository) List(ctx context.Context, status *models.ModerationStatus, limit, offset int) ([]models.Artist, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + artistColumns + ` FROM artists`
	args := []any{limit, offset}
	if status != nil {
		query += ` WHERE status = $3`
		args = append(args, *status)
	}
	query += ` ORDER BY name LIMIT $1 OFFSET $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var artists []models.Artist
	for rows.Next() {
		artist, err := scanArtist(rows)
		if err != nil {
			return nil, err
		}
		artists = append(artists, artist)
	}
	return artists, rows.Err()
}

func (r *ArtistRepository) Accept(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE artists SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, models.StatusAccepted)
	return err
}

func (r *ArtistRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM artists WHERE id = $1`, id)
	return err
}

func (r *ArtistRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM artists WHERE id = ANY($1)`, ids)
	return err
}

func scanArtist(row pgx.Row) (models.Artist, error) {
	var artist models.Artist
	err := row.Scan(&artist.ID, &artist.Name, &artist.TwitterURL, &artist.PixivURL,
		&artist.PatreonURL, &artist.WebsiteURL, &artist.Status,
		&artist.CreatedAt, &artist.UpdatedAt)
	return artist, err
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
