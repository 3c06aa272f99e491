package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"artboard/internal/apperr"
	"artboard/internal/models"
)

const imageColumns = `id, phash, extension, dominant_color, source_url, uploader_id,
	nsfw, animated, width, height, size_bytes, status, favorite_count, created_at, updated_at`

// DuplicateHit identifies an existing image within the duplicate threshold.
type DuplicateHit struct {
	ID       string
	Distance int
}

// ImageFilter narrows List results. All set fields AND-compose. A nil Status
// means no status restriction (privileged callers only).
type ImageFilter struct {
	Status      *models.ModerationStatus
	NSFW        *bool
	Animated    *bool
	MinWidth    int
	MinHeight   int
	MaxWidth    int
	MaxHeight   int
	IncludeTags []string // tag names or slugs
	ExcludeTags []string
	UploaderID  string
	Limit       int
	Offset      int
}

type ImageRepository struct {
	pool *pgxpool.Pool
}

func NewImageRepository(pool *pgxpool.Pool) *ImageRepository {
	return &ImageRepository{pool: pool}
}

// bit_count (PostgreSQL 14+) is defined for bit, not bigint, so the XOR
// result must be cast to bit(64) before counting.
const findNearDuplicateQuery = `
	SELECT id, bit_count((phash # $1::bigint)::bit(64))::int AS distance
	FROM images
	WHERE bit_count((phash # $1::bigint)::bit(64)) <= $2
	ORDER BY distance ASC, created_at ASC
	LIMIT 1
`

// FindNearDuplicate returns the closest stored image within maxDistance bits
// of phash, regardless of moderation status. Hamming distance is evaluated
// in SQL over the full 64-bit width (bit_count of the XOR).
func (r *ImageRepository) FindNearDuplicate(ctx context.Context, phash int64, maxDistance int) (DuplicateHit, bool, error) {
	var hit DuplicateHit
	err := r.pool.QueryRow(ctx, findNearDuplicateQuery, phash, maxDistance).Scan(&hit.ID, &hit.Distance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return DuplicateHit{}, false, nil
		}
		return DuplicateHit{}, false, err
	}
	return hit, true, nil
}

func (r *ImageRepository) GetByID(ctx context.Context, id string) (models.Image, error) {
	query := `SELECT ` + imageColumns + ` FROM images WHERE id = $1`

	image, err := scanImage(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Image{}, apperr.NotFound("image", id)
		}
		return models.Image{}, err
	}
	return image, nil
}

func (r *ImageRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM images WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

// Accept marks an image accepted. Zero affected rows (already accepted or
// already gone) is not an error.
func (r *ImageRepository) Accept(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE images SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, models.StatusAccepted)
	return err
}

func (r *ImageRepository) Delete(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, id)
	return err
}

func (r *ImageRepository) List(ctx context.Context, f ImageFilter) ([]models.Image, error) {
	where, args := f.whereClause()

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	limitPos := len(args)
	args = append(args, f.Offset)

	query := fmt.Sprintf(`SELECT %s FROM images %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		imageColumns, where, limitPos, limitPos+1)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.Image
	for rows.Next() {
		image, err := scanImage(rows)
		if err != nil {
			return nil, err
		}
		images = append(images, image)
	}
	return images, rows.Err()
}

// TagsFor loads the tags attached to each of the given images. With
// onlyAccepted set, pending tags are omitted even on accepted images.
func (r *ImageRepository) TagsFor(ctx context.Context, imageIDs []string, onlyAccepted bool) (map[string][]models.Tag, error) {
	if len(imageIDs) == 0 {
		return map[string][]models.Tag{}, nil
	}

	query := `
		SELECT it.image_id, t.id, t.name, t.slug, t.description, t.status, t.created_at, t.updated_at
		FROM image_tags it
		JOIN tags t ON t.id = it.tag_id
		WHERE it.image_id = ANY($1)
	`
	if onlyAccepted {
		query += ` AND t.status = 'accepted'`
	}
	query += ` ORDER BY t.name`

	rows, err := r.pool.Query(ctx, query, imageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]models.Tag)
	for rows.Next() {
		var imageID string
		var tag models.Tag
		if err := rows.Scan(&imageID, &tag.ID, &tag.Name, &tag.Slug, &tag.Description,
			&tag.Status, &tag.CreatedAt, &tag.UpdatedAt); err != nil {
			return nil, err
		}
		result[imageID] = append(result[imageID], tag)
	}
	return result, rows.Err()
}

// ArtistsFor mirrors TagsFor for the image-artist association.
func (r *ImageRepository) ArtistsFor(ctx context.Context, imageIDs []string, onlyAccepted bool) (map[string][]models.Artist, error) {
	if len(imageIDs) == 0 {
		return map[string][]models.Artist{}, nil
	}

	query := `
		SELECT ia.image_id, a.id, a.name, a.twitter_url, a.pixiv_url, a.patreon_url,
		       a.website_url, a.status, a.created_at, a.updated_at
		FROM image_artists ia
		JOIN artists a ON a.id = ia.artist_id
		WHERE ia.image_id = ANY($1)
	`
	if onlyAccepted {
		query += ` AND a.status = 'accepted'`
	}
	query += ` ORDER BY a.name`

	rows, err := r.pool.Query(ctx, query, imageIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]models.Artist)
	for rows.Next() {
		var imageID string
		var artist models.Artist
		if err := rows.Scan(&imageID, &artist.ID, &artist.Name, &artist.TwitterURL,
			&artist.PixivURL, &artist.PatreonURL, &artist.WebsiteURL,
			&artist.Status, &artist.CreatedAt, &artist.UpdatedAt); err != nil {
			return nil, err
		}
		result[imageID] = append(result[imageID], artist)
	}
	return result, rows.Err()
}

func (f ImageFilter) whereClause() (string, []any) {
	var conds []string
	var args []any

	add := func(format string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if f.Status != nil {
		add("status = $%d", *f.Status)
	}
	if f.NSFW != nil {
		add("nsfw = $%d", *f.NSFW)
	}
	if f.Animated != nil {
		add("animated = $%d", *f.Animated)
	}
	if f.MinWidth > 0 {
		add("width >= $%d", f.MinWidth)
	}
	if f.MinHeight > 0 {
		add("height >= $%d", f.MinHeight)
	}
	if f.MaxWidth > 0 {
		add("width <= $%d", f.MaxWidth)
	}
	if f.MaxHeight > 0 {
		add("height <= $%d", f.MaxHeight)
	}
	if f.UploaderID != "" {
		add("uploader_id = $%d", f.UploaderID)
	}
	for _, tag := range f.IncludeTags {
		add(`EXISTS (
			SELECT 1 FROM image_tags it JOIN tags t ON t.id = it.tag_id
			WHERE it.image_id = images.id AND (t.slug = $%[1]d OR t.name = $%[1]d))`, tag)
	}
	for _, tag := range f.ExcludeTags {
		add(`NOT EXISTS (
			SELECT 1 FROM image_tags it JOIN tags t ON t.id = it.tag_id
			WHERE it.image_id = images.id AND (t.slug = $%[1]d OR t.name = $%[1]d))`, tag)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanImage(row pgx.Row) (models.Image, error) {
	var image models.Image
	err := row.Scan(
		&image.ID,
		&image.PHash,
		&image.Extension,
		&image.DominantColor,
		&image.SourceURL,
		&image.UploaderID,
		&image.NSFW,
		&image.Animated,
		&image.Width,
		&image.Height,
		&image.SizeBytes,
		&image.Status,
		&image.FavoriteCount,
		&image.CreatedAt,
		&image.UpdatedAt,
	)
	return image, err
}
