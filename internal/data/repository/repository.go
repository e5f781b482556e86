package repository

import (
	"errors"
	"strings"

	"yamdb/pkg/database"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

var (
	// ErrDuplicate is returned when an insert or update violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned when an update, delete or consume matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrMissingReference is returned when a foreign key names a row that does not exist.
	ErrMissingReference = errors.New("referenced record does not exist")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// ReferenceError reports which input field pointed at a missing row.
type ReferenceError struct {
	Field string
	Err   error
}

func (e *ReferenceError) Error() string {
	return e.Field + ": " + ErrMissingReference.Error()
}

func (e *ReferenceError) Unwrap() []error {
	return []error{ErrMissingReference, e.Err}
}

// asReferenceError wraps a foreign key violation as a ReferenceError for field
// and returns nil for any other error.
func asReferenceError(err error, field string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return &ReferenceError{Field: field, Err: err}
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns s into a LIKE pattern matching s literally anywhere
// in the value. Queries must use ESCAPE '\'.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

type Repository struct {
	User             UserRepository
	ConfirmationCode ConfirmationCodeRepository
	Category         CategoryRepository
	Genre            GenreRepository
	Title            TitleRepository
	GenreTitle       GenreTitleRepository
	Review           ReviewRepository
	Comment          CommentRepository
}

func NewRepository(db database.PgxIface, log *zap.Logger) *Repository {
	return &Repository{
		User:             NewUserRepository(db, log),
		ConfirmationCode: NewConfirmationCodeRepository(db, log),
		Category:         NewCategoryRepository(db, log),
		Genre:            NewGenreRepository(db, log),
		Title:            NewTitleRepository(db, log),
		GenreTitle:       NewGenreTitleRepository(db, log),
		Review:           NewReviewRepository(db, log),
		Comment:          NewCommentRepository(db, log),
	}
}

// searchArg returns nil for an empty search so "$n::text IS NULL" skips the filter.
func searchArg(search string) any {
	if search == "" {
		return nil
	}
	return containsPattern(search)
}
