package repository

import (
	"context"
	"fmt"

	"yamdb/internal/data/entity"
	"yamdb/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ConfirmationCodeRepository interface {
	Create(ctx context.Context, code *entity.ConfirmationCode) error
	FindLatestValid(ctx context.Context, userID int64, email string) (*entity.ConfirmationCode, error)
	InvalidateForUser(ctx context.Context, userID int64) error
	MarkAsUsed(ctx context.Context, id int64) error
}

type confirmationCodeRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewConfirmationCodeRepository(db database.PgxIface, log *zap.Logger) ConfirmationCodeRepository {
	return &confirmationCodeRepository{
		db:  db,
		log: log.With(zap.String("repository", "confirmation_code")),
	}
}

func (r *confirmationCodeRepository) Create(ctx context.Context, code *entity.ConfirmationCode) error {
	query := `
		INSERT INTO confirmation_codes (user_id, email, code_hash, expires_at, is_used)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		code.UserID,
		code.Email,
		code.CodeHash,
		code.ExpiresAt,
		code.IsUsed,
	).Scan(&code.ID, &code.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create confirmation code",
			zap.Error(err),
			zap.Int64("user_id", code.UserID),
			zap.String("email", code.Email),
		)
		return fmt.Errorf("create confirmation code for user %d: %w", code.UserID, err)
	}

	return nil
}

// FindLatestValid returns the newest unused, unexpired code issued to the user at email.
func (r *confirmationCodeRepository) FindLatestValid(ctx context.Context, userID int64, email string) (*entity.ConfirmationCode, error) {
	query := `
		SELECT id, user_id, email, code_hash, expires_at, is_used, created_at
		FROM confirmation_codes
		WHERE user_id = $1
		  AND email = $2
		  AND is_used = false
		  AND expires_at > NOW()
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`

	var code entity.ConfirmationCode
	err := r.db.QueryRow(ctx, query, userID, email).Scan(
		&code.ID,
		&code.UserID,
		&code.Email,
		&code.CodeHash,
		&code.ExpiresAt,
		&code.IsUsed,
		&code.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find valid confirmation code",
			zap.Error(err),
			zap.Int64("user_id", userID),
		)
		return nil, fmt.Errorf("find valid confirmation code for user %d: %w", userID, err)
	}

	return &code, nil
}

func (r *confirmationCodeRepository) InvalidateForUser(ctx context.Context, userID int64) error {
	query := `UPDATE confirmation_codes SET is_used = true WHERE user_id = $1 AND is_used = false`

	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		r.log.Error("Failed to invalidate confirmation codes", zap.Error(err), zap.Int64("user_id", userID))
		return fmt.Errorf("invalidate confirmation codes for user %d: %w", userID, err)
	}

	return nil
}

// MarkAsUsed consumes the code. Only one caller can win: a code that is already
// used or has expired yields ErrNotFound.
func (r *confirmationCodeRepository) MarkAsUsed(ctx context.Context, id int64) error {
	query := `
		UPDATE confirmation_codes
		SET is_used = true
		WHERE id = $1 AND is_used = false AND expires_at > NOW()
	`

	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.log.Error("Failed to mark confirmation code as used", zap.Error(err), zap.Int64("code_id", id))
		return fmt.Errorf("mark confirmation code %d as used: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("confirmation code %d: %w", id, ErrNotFound)
	}

	return nil
}
