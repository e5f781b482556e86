package entity

import "time"

// ConfirmationCode stores the bcrypt hash of a code mailed to Email.
type ConfirmationCode struct {
	BaseSimple
	UserID    int64     `db:"user_id"`
	Email     string    `db:"email"`
	CodeHash  string    `db:"code_hash"`
	ExpiresAt time.Time `db:"expires_at"`
	IsUsed    bool      `db:"is_used"`
}
