package repository

import (
	"context"
	"fmt"

	"yamdb/internal/data/entity"
	"yamdb/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type GenreRepository interface {
	Create(ctx context.Context, genre *entity.Genre) error
	FindByID(ctx context.Context, id int64) (*entity.Genre, error)
	FindBySlug(ctx context.Context, slug string) (*entity.Genre, error)
	FindBySlugs(ctx context.Context, slugs []string) ([]*entity.Genre, error)
	FindByTitleIDs(ctx context.Context, titleIDs []int64) (map[int64][]*entity.Genre, error)
	FindAll(ctx context.Context, search string, limit, offset int) ([]*entity.Genre, error)
	CountAll(ctx context.Context, search string) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type genreRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewGenreRepository(db database.PgxIface, log *zap.Logger) GenreRepository {
	return &genreRepository{
		db:  db,
		log: log.With(zap.String("repository", "genre")),
	}
}

func (r *genreRepository) Create(ctx context.Context, genre *entity.Genre) error {
	query := `
		INSERT INTO genres (id, name, slug)
		VALUES (COALESCE(NULLIF($1::bigint, 0), nextval(pg_get_serial_sequence('genres', 'id'))), $2, $3)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, genre.ID, genre.Name, genre.Slug).Scan(&genre.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("create genre %s: %w", genre.Slug, ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create genre", zap.Error(err), zap.String("slug", genre.Slug))
		return fmt.Errorf("create genre %s: %w", genre.Slug, err)
	}

	return nil
}

func (r *genreRepository) FindByID(ctx context.Context, id int64) (*entity.Genre, error) {
	query := `SELECT id, name, slug FROM genres WHERE id = $1`

	var genre entity.Genre
	err := r.db.QueryRow(ctx, query, id).Scan(&genre.ID, &genre.Name, &genre.Slug)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find genre by ID", zap.Error(err), zap.Int64("genre_id", id))
		return nil, fmt.Errorf("find genre by id %d: %w", id, err)
	}

	return &genre, nil
}

func (r *genreRepository) FindBySlug(ctx context.Context, slug string) (*entity.Genre, error) {
	query := `SELECT id, name, slug FROM genres WHERE slug = $1`

	var genre entity.Genre
	err := r.db.QueryRow(ctx, query, slug).Scan(&genre.ID, &genre.Name, &genre.Slug)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find genre by slug", zap.Error(err), zap.String("slug", slug))
		return nil, fmt.Errorf("find genre by slug %s: %w", slug, err)
	}

	return &genre, nil
}

// FindBySlugs returns the genres that exist among slugs, ordered by slug.
func (r *genreRepository) FindBySlugs(ctx context.Context, slugs []string) ([]*entity.Genre, error) {
	if len(slugs) == 0 {
		return nil, nil
	}

	query := `SELECT id, name, slug FROM genres WHERE slug = ANY($1) ORDER BY slug`
	return r.queryGenres(ctx, "find genres by slugs", query, slugs)
}

// FindByTitleIDs groups genres by title for a batch of titles.
func (r *genreRepository) FindByTitleIDs(ctx context.Context, titleIDs []int64) (map[int64][]*entity.Genre, error) {
	result := make(map[int64][]*entity.Genre, len(titleIDs))
	if len(titleIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT gt.title_id, g.id, g.name, g.slug
		FROM genres g
		INNER JOIN genre_titles gt ON g.id = gt.genre_id
		WHERE gt.title_id = ANY($1)
		ORDER BY g.slug
	`

	rows, err := r.db.Query(ctx, query, titleIDs)
	if err != nil {
		r.log.Error("Failed to find genres by title IDs", zap.Error(err), zap.Int("titles", len(titleIDs)))
		return nil, fmt.Errorf("find genres by title ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var titleID int64
		var genre entity.Genre
		if err := rows.Scan(&titleID, &genre.ID, &genre.Name, &genre.Slug); err != nil {
			r.log.Error("Failed to scan genre row", zap.Error(err))
			return nil, fmt.Errorf("scan genre row: %w", err)
		}
		result[titleID] = append(result[titleID], &genre)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate genre rows: %w", err)
	}

	return result, nil
}

func (r *genreRepository) FindAll(ctx context.Context, search string, limit, offset int) ([]*entity.Genre, error) {
	query := `
		SELECT id, name, slug
		FROM genres
		WHERE ($1::text IS NULL OR name ILIKE $1 ESCAPE '\')
		ORDER BY slug
		LIMIT $2 OFFSET $3
	`
	return r.queryGenres(ctx, "find all genres", query, searchArg(search), limit, offset)
}

func (r *genreRepository) CountAll(ctx context.Context, search string) (int64, error) {
	query := `SELECT COUNT(*) FROM genres WHERE ($1::text IS NULL OR name ILIKE $1 ESCAPE '\')`

	var count int64
	if err := r.db.QueryRow(ctx, query, searchArg(search)).Scan(&count); err != nil {
		r.log.Error("Database error counting genres", zap.Error(err))
		return 0, fmt.Errorf("count all genres: %w", err)
	}

	return count, nil
}

func (r *genreRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM genres WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete genre", zap.Error(err), zap.Int64("id", id))
		return fmt.Errorf("delete genre %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("genre %d: %w", id, ErrNotFound)
	}

	r.log.Info("Genre deleted", zap.Int64("id", id))
	return nil
}

func (r *genreRepository) queryGenres(ctx context.Context, op, query string, args ...any) ([]*entity.Genre, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to query genres", zap.String("operation", op), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var genres []*entity.Genre
	for rows.Next() {
		var genre entity.Genre
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.Slug); err != nil {
			r.log.Error("Failed to scan genre row", zap.Error(err))
			return nil, fmt.Errorf("scan genre row: %w", err)
		}
		genres = append(genres, &genre)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return genres, nil
}
