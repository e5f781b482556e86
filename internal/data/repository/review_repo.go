package repository

import (
	"context"
	"fmt"

	"yamdb/internal/data/entity"
	"yamdb/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *entity.Review) error
	FindByID(ctx context.Context, id int64) (*entity.Review, error)
	FindByTitleID(ctx context.Context, titleID int64, limit, offset int) ([]*entity.Review, error)
	CountByTitleID(ctx context.Context, titleID int64) (int64, error)
	Update(ctx context.Context, review *entity.Review) error
	Delete(ctx context.Context, id int64) error
	StatsByTitleIDs(ctx context.Context, titleIDs []int64) (map[int64]entity.ReviewStats, error)
}

type reviewRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewReviewRepository(db database.PgxIface, log *zap.Logger) ReviewRepository {
	return &reviewRepository{
		db:  db,
		log: log.With(zap.String("repository", "review")),
	}
}

const reviewSelect = `
		SELECT r.id, r.title_id, r.author_id, u.username, r.text, r.score, r.pub_date
		FROM reviews r
		INNER JOIN users u ON u.id = r.author_id
`

func scanReview(row pgx.Row) (*entity.Review, error) {
	var review entity.Review
	err := row.Scan(
		&review.ID,
		&review.TitleID,
		&review.AuthorID,
		&review.AuthorUsername,
		&review.Text,
		&review.Score,
		&review.PubDate,
	)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Create inserts review. A zero PubDate means now. A second review by the same
// author on the same title returns ErrDuplicate.
func (r *reviewRepository) Create(ctx context.Context, review *entity.Review) error {
	query := `
		INSERT INTO reviews (id, title_id, author_id, text, score, pub_date)
		VALUES (COALESCE(NULLIF($1::bigint, 0), nextval(pg_get_serial_sequence('reviews', 'id'))),
		        $2, $3, $4, $5, COALESCE($6::timestamptz, NOW()))
		RETURNING id, pub_date
	`

	var pubDate any
	if !review.PubDate.IsZero() {
		pubDate = review.PubDate
	}

	err := r.db.QueryRow(ctx, query,
		review.ID,
		review.TitleID,
		review.AuthorID,
		review.Text,
		review.Score,
		pubDate,
	).Scan(&review.ID, &review.PubDate)

	if isUniqueViolation(err) {
		return fmt.Errorf("create review for title %d: %w", review.TitleID, ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create review",
			zap.Error(err),
			zap.Int64("title_id", review.TitleID),
			zap.Int64("author_id", review.AuthorID),
		)
		return fmt.Errorf("create review for title %d: %w", review.TitleID, err)
	}

	return nil
}

func (r *reviewRepository) FindByID(ctx context.Context, id int64) (*entity.Review, error) {
	review, err := scanReview(r.db.QueryRow(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find review by ID", zap.Error(err), zap.Int64("review_id", id))
		return nil, fmt.Errorf("find review by id %d: %w", id, err)
	}

	return review, nil
}

func (r *reviewRepository) FindByTitleID(ctx context.Context, titleID int64, limit, offset int) ([]*entity.Review, error) {
	query := reviewSelect + `
		WHERE r.title_id = $1
		ORDER BY r.pub_date DESC, r.id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, titleID, limit, offset)
	if err != nil {
		r.log.Error("Failed to find reviews by title", zap.Error(err), zap.Int64("title_id", titleID))
		return nil, fmt.Errorf("find reviews by title %d: %w", titleID, err)
	}
	defer rows.Close()

	var reviews []*entity.Review
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			r.log.Error("Failed to scan review row", zap.Error(err))
			return nil, fmt.Errorf("scan review row: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reviews rows: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) CountByTitleID(ctx context.Context, titleID int64) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE title_id = $1`, titleID).Scan(&count)
	if err != nil {
		r.log.Error("Failed to count reviews", zap.Error(err), zap.Int64("title_id", titleID))
		return 0, fmt.Errorf("count reviews for title %d: %w", titleID, err)
	}

	return count, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *entity.Review) error {
	query := `UPDATE reviews SET text = $2, score = $3 WHERE id = $1`

	result, err := r.db.Exec(ctx, query, review.ID, review.Text, review.Score)
	if err != nil {
		r.log.Error("Failed to update review", zap.Error(err), zap.Int64("review_id", review.ID))
		return fmt.Errorf("update review %d: %w", review.ID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %d: %w", review.ID, ErrNotFound)
	}

	return nil
}

// Delete removes the review and its comments.
func (r *reviewRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete review", zap.Error(err), zap.Int64("review_id", id))
		return fmt.Errorf("delete review %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("review %d: %w", id, ErrNotFound)
	}

	return nil
}

// StatsByTitleIDs returns score aggregates keyed by title. Titles without reviews are absent.
func (r *reviewRepository) StatsByTitleIDs(ctx context.Context, titleIDs []int64) (map[int64]entity.ReviewStats, error) {
	stats := make(map[int64]entity.ReviewStats, len(titleIDs))
	if len(titleIDs) == 0 {
		return stats, nil
	}

	query := `
		SELECT title_id, AVG(score)::float8, COUNT(*)
		FROM reviews
		WHERE title_id = ANY($1)
		GROUP BY title_id
	`

	rows, err := r.db.Query(ctx, query, titleIDs)
	if err != nil {
		r.log.Error("Failed to get review stats", zap.Error(err), zap.Int("titles", len(titleIDs)))
		return nil, fmt.Errorf("get review stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s entity.ReviewStats
		if err := rows.Scan(&s.TitleID, &s.AverageScore, &s.ReviewCount); err != nil {
			r.log.Error("Failed to scan review stats", zap.Error(err))
			return nil, fmt.Errorf("scan review stats: %w", err)
		}
		stats[s.TitleID] = s
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review stats: %w", err)
	}

	return stats, nil
}
