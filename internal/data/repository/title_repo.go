package repository

import (
	"context"
	"fmt"
	"strings"

	"yamdb/internal/data/entity"
	"yamdb/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type TitleRepository interface {
	// Create inserts title and links genreIDs in one transaction.
	Create(ctx context.Context, title *entity.Title, genreIDs []int64) error
	FindByID(ctx context.Context, id int64) (*entity.Title, error)
	FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error)
	CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error)
	// Update saves title. A nil genreIDs keeps the current genre set.
	Update(ctx context.Context, title *entity.Title, genreIDs []int64) error
	Delete(ctx context.Context, id int64) error
}

type titleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewTitleRepository(db database.PgxIface, log *zap.Logger) TitleRepository {
	return &titleRepository{
		db:  db,
		log: log.With(zap.String("repository", "title")),
	}
}

const titleSelect = `
		SELECT t.id, t.name, t.year, t.description, t.category_id, c.id, c.name, c.slug
		FROM titles t
		LEFT JOIN categories c ON c.id = t.category_id
`

func scanTitle(row pgx.Row) (*entity.Title, error) {
	var title entity.Title
	var catID *int64
	var catName, catSlug *string

	if err := row.Scan(
		&title.ID,
		&title.Name,
		&title.Year,
		&title.Description,
		&title.CategoryID,
		&catID,
		&catName,
		&catSlug,
	); err != nil {
		return nil, err
	}

	if catID != nil {
		title.Category = &entity.Category{ID: *catID, Name: *catName, Slug: *catSlug}
	}
	return &title, nil
}

func (r *titleRepository) Create(ctx context.Context, title *entity.Title, genreIDs []int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create title: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO titles (id, name, year, description, category_id)
		VALUES (COALESCE(NULLIF($1::bigint, 0), nextval(pg_get_serial_sequence('titles', 'id'))), $2, $3, $4, $5)
		RETURNING id
	`

	err = tx.QueryRow(ctx, query,
		title.ID,
		title.Name,
		title.Year,
		title.Description,
		title.CategoryID,
	).Scan(&title.ID)

	if isUniqueViolation(err) {
		return fmt.Errorf("create title %d: %w", title.ID, ErrDuplicate)
	}
	if refErr := asReferenceError(err, "category"); refErr != nil {
		return fmt.Errorf("create title %s: %w", title.Name, refErr)
	}
	if err != nil {
		r.log.Error("Failed to create title", zap.Error(err), zap.String("name", title.Name))
		return fmt.Errorf("create title %s: %w", title.Name, err)
	}

	if err := linkGenres(ctx, tx, title.ID, genreIDs); err != nil {
		r.log.Error("Failed to link title genres", zap.Error(err), zap.Int64("title_id", title.ID))
		return err
	}

	return tx.Commit(ctx)
}

func (r *titleRepository) FindByID(ctx context.Context, id int64) (*entity.Title, error) {
	title, err := scanTitle(r.db.QueryRow(ctx, titleSelect+` WHERE t.id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find title by ID", zap.Error(err), zap.Int64("title_id", id))
		return nil, fmt.Errorf("find title by id %d: %w", id, err)
	}

	return title, nil
}

// buildTitleWhere renders filter as a WHERE clause with positional args starting at $1.
func buildTitleWhere(filter entity.TitleFilter) (string, []any) {
	var conds []string
	var args []any

	if filter.CategorySlug != "" {
		args = append(args, filter.CategorySlug)
		conds = append(conds, fmt.Sprintf("c.slug = $%d", len(args)))
	}
	if filter.GenreSlug != "" {
		args = append(args, filter.GenreSlug)
		conds = append(conds, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM genre_titles gt
			INNER JOIN genres g ON g.id = gt.genre_id
			WHERE gt.title_id = t.id AND g.slug = $%d)`, len(args)))
	}
	if filter.Name != "" {
		args = append(args, containsPattern(filter.Name))
		conds = append(conds, fmt.Sprintf(`t.name LIKE $%d ESCAPE '\'`, len(args)))
	}
	if filter.Year != nil {
		args = append(args, *filter.Year)
		conds = append(conds, fmt.Sprintf("t.year = $%d", len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *titleRepository) FindAll(ctx context.Context, filter entity.TitleFilter, limit, offset int) ([]*entity.Title, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(titleSelect)

	where, args := buildTitleWhere(filter)
	queryBuilder.WriteString(where)
	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY t.name, t.id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2))
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		r.log.Error("Failed to find all titles",
			zap.Error(err),
			zap.Int("offset", offset),
			zap.Int("limit", limit),
		)
		return nil, fmt.Errorf("find all titles: %w", err)
	}
	defer rows.Close()

	var titles []*entity.Title
	for rows.Next() {
		title, err := scanTitle(rows)
		if err != nil {
			r.log.Error("Failed to scan title row", zap.Error(err))
			return nil, fmt.Errorf("scan title row: %w", err)
		}
		titles = append(titles, title)
	}

	if err := rows.Err(); err != nil {
		r.log.Error("Rows iteration error", zap.Error(err))
		return nil, fmt.Errorf("iterate titles rows: %w", err)
	}

	r.log.Debug("Titles found", zap.Int("count", len(titles)), zap.Int("offset", offset), zap.Int("limit", limit))
	return titles, nil
}

func (r *titleRepository) CountAll(ctx context.Context, filter entity.TitleFilter) (int64, error) {
	where, args := buildTitleWhere(filter)
	query := `SELECT COUNT(*) FROM titles t LEFT JOIN categories c ON c.id = t.category_id` + where

	var total int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		r.log.Error("Database error counting titles", zap.Error(err))
		return 0, fmt.Errorf("count all titles: %w", err)
	}

	return total, nil
}

func (r *titleRepository) Update(ctx context.Context, title *entity.Title, genreIDs []int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin update title: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE titles
		SET name = $2, year = $3, description = $4, category_id = $5
		WHERE id = $1
	`

	result, err := tx.Exec(ctx, query,
		title.ID,
		title.Name,
		title.Year,
		title.Description,
		title.CategoryID,
	)
	if refErr := asReferenceError(err, "category"); refErr != nil {
		return fmt.Errorf("update title %d: %w", title.ID, refErr)
	}
	if err != nil {
		r.log.Error("Failed to update title", zap.Error(err), zap.Int64("title_id", title.ID))
		return fmt.Errorf("update title %d: %w", title.ID, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("title %d: %w", title.ID, ErrNotFound)
	}

	if genreIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM genre_titles WHERE title_id = $1`, title.ID); err != nil {
			return fmt.Errorf("clear genres of title %d: %w", title.ID, err)
		}
		if err := linkGenres(ctx, tx, title.ID, genreIDs); err != nil {
			r.log.Error("Failed to link title genres", zap.Error(err), zap.Int64("title_id", title.ID))
			return err
		}
	}

	return tx.Commit(ctx)
}

// Delete removes the title together with its reviews and their comments.
func (r *titleRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM titles WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete title", zap.Error(err), zap.Int64("id", id))
		return fmt.Errorf("delete title %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("title %d: %w", id, ErrNotFound)
	}

	r.log.Info("Title deleted", zap.Int64("id", id))
	return nil
}

func linkGenres(ctx context.Context, tx pgx.Tx, titleID int64, genreIDs []int64) error {
	if len(genreIDs) == 0 {
		return nil
	}

	query := `
		INSERT INTO genre_titles (genre_id, title_id)
		SELECT g, $1 FROM unnest($2::bigint[]) AS g
		ON CONFLICT (genre_id, title_id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, query, titleID, genreIDs); err != nil {
		if refErr := asReferenceError(err, "genre"); refErr != nil {
			return fmt.Errorf("link genres to title %d: %w", titleID, refErr)
		}
		return fmt.Errorf("link genres to title %d: %w", titleID, err)
	}
	return nil
}
