package repository

import (
	"errors"
	"fmt"
	"testing"

	"yamdb/internal/data/entity"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContainsPattern(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Dune", want: "%Dune%"},
		{in: "_", want: `%\_%`},
		{in: "100%", want: `%100\%%`},
		{in: `a\b`, want: `%a\\b%`},
		{in: `\_%`, want: `%\\\_\%%`},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, containsPattern(tt.in))
		})
	}
}

func TestSearchArg(t *testing.T) {
	assert.Nil(t, searchArg(""))
	assert.Equal(t, `%\_%`, searchArg("_"))
}

func TestBuildTitleWhere(t *testing.T) {
	year := 1965

	t.Run("empty filter", func(t *testing.T) {
		where, args := buildTitleWhere(entity.TitleFilter{})
		assert.Empty(t, where)
		assert.Empty(t, args)
	})

	t.Run("name wildcards are literal", func(t *testing.T) {
		where, args := buildTitleWhere(entity.TitleFilter{Name: "_"})
		assert.Equal(t, ` WHERE t.name LIKE $1 ESCAPE '\'`, where)
		assert.Equal(t, []any{`%\_%`}, args)
	})

	t.Run("all filters numbered in order", func(t *testing.T) {
		where, args := buildTitleWhere(entity.TitleFilter{
			CategorySlug: "books",
			GenreSlug:    "sci-fi",
			Name:         "50%",
			Year:         &year,
		})
		assert.Contains(t, where, "c.slug = $1")
		assert.Contains(t, where, "g.slug = $2")
		assert.Contains(t, where, "t.name LIKE $3 ESCAPE")
		assert.Contains(t, where, "t.year = $4")
		assert.Equal(t, []any{"books", "sci-fi", `%50\%%`, 1965}, args)
	})
}

func TestAsReferenceError(t *testing.T) {
	fk := fmt.Errorf("insert: %w", &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "titles_category_id_fkey"})

	err := asReferenceError(fk, "category")
	require.Error(t, err)

	var refErr *ReferenceError
	require.ErrorAs(t, err, &refErr)
	assert.Equal(t, "category", refErr.Field)
	assert.ErrorIs(t, err, ErrMissingReference)

	var pgErr *pgconn.PgError
	assert.ErrorAs(t, err, &pgErr)

	assert.NoError(t, asReferenceError(&pgconn.PgError{Code: uniqueViolation}, "category"))
	assert.NoError(t, asReferenceError(errors.New("boom"), "category"))
	assert.NoError(t, asReferenceError(nil, "category"))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("wrap: %w", &pgconn.PgError{Code: uniqueViolation})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: foreignKeyViolation}))
	assert.False(t, isUniqueViolation(nil))
}
