package repository

import (
	"context"
	"fmt"

	"yamdb/internal/data/entity"
	"yamdb/pkg/database"

	"go.uber.org/zap"
)

type GenreTitleRepository interface {
	Create(ctx context.Context, link *entity.GenreTitle) error
}

type genreTitleRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewGenreTitleRepository(db database.PgxIface, log *zap.Logger) GenreTitleRepository {
	return &genreTitleRepository{
		db:  db,
		log: log.With(zap.String("repository", "genre_title")),
	}
}

func (r *genreTitleRepository) Create(ctx context.Context, link *entity.GenreTitle) error {
	query := `
		INSERT INTO genre_titles (id, genre_id, title_id)
		VALUES (COALESCE(NULLIF($1::bigint, 0), nextval(pg_get_serial_sequence('genre_titles', 'id'))), $2, $3)
		RETURNING id
	`

	err := r.db.QueryRow(ctx, query, link.ID, link.GenreID, link.TitleID).Scan(&link.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("link genre %d to title %d: %w", link.GenreID, link.TitleID, ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create genre link",
			zap.Error(err),
			zap.Int64("genre_id", link.GenreID),
			zap.Int64("title_id", link.TitleID),
		)
		return fmt.Errorf("link genre %d to title %d: %w", link.GenreID, link.TitleID, err)
	}

	return nil
}
