package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"artboard/internal/apperr"
	"artboard/internal/models"
)

const tagColumns = `id, name, slug, description, status, created_at, updated_at`

type TagRepository struct {
	pool *pgxpool.Pool
}

func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{pool: pool}
}

func (r *TagRepository) GetByID(ctx context.Context, id int64) (models.Tag, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE id = $1`

	tag, err := scanTag(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tag{}, apperr.NotFound("tag", formatID(id))
		}
		return models.Tag{}, err
	}
	return tag, nil
}

// FindConflict checks every unique field in one query and reports which one
// collided. An empty field means no conflict.
func (r *TagRepository) FindConflict(ctx context.Context, name, slug string) (models.Tag, string, error) {
	query := `SELECT ` + tagColumns + ` FROM tags WHERE name = $1 OR slug = $2 LIMIT 1`

	tag, err := scanTag(r.pool.QueryRow(ctx, query, name, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tag{}, "", nil
		}
		return models.Tag{}, "", err
	}
	if tag.Name == name {
		return tag, "name", nil
	}
	return tag, "slug", nil
}

func (r *TagRepository) Create(ctx context.Context, tag models.Tag) (models.Tag, error) {
	const query = `
		INSERT INTO tags (name, slug, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query, tag.Name, tag.Slug, tag.Description, tag.Status).
		Scan(&tag.ID, &tag.CreatedAt, &tag.UpdatedAt)
	return tag, err
}

func (r *TagRepository) List(ctx context.Context, status *models.ModerationStatus, limit, offset int) ([]models.Tag, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + tagColumns + ` FROM tags`
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

	var tags []models.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (r *TagRepository) Accept(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tags SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, models.StatusAccepted)
	return err
}

func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = $1`, id)
	return err
}

// DeleteByIDs removes tags in bulk; used by the ingestion compensation path
// to undo entities auto-created by a failed request.
func (r *TagRepository) DeleteByIDs(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM tags WHERE id = ANY($1)`, ids)
	return err
}

func scanTag(row pgx.Row) (models.Tag, error) {
	var tag models.Tag
	err := row.Scan(&tag.ID, &tag.Name, &tag.Slug, &tag.Description,
		&tag.Status, &tag.CreatedAt, &tag.UpdatedAt)
	return tag, err
}
