package database

import (
	"regexp"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMigrations_Embedded(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	first := migrations[0]
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "init", first.Name)
	for _, table := range SequencedTables {
		assert.Contains(t, first.UpScript, "CREATE TABLE "+table, "table %s", table)
	}
	assert.Contains(t, first.UpScript, "titles_year_not_future")
}

// tableBody returns the column list of a CREATE TABLE statement in script.
func tableBody(t *testing.T, script, table string) string {
	t.Helper()
	re := regexp.MustCompile(`(?s)CREATE TABLE ` + table + ` \((.*?)\n\);`)
	m := re.FindStringSubmatch(script)
	require.NotNil(t, m, "table %s", table)
	return m[1]
}

// columnDef returns the definition line of column in a table body.
func columnDef(t *testing.T, body, column string) string {
	t.Helper()
	for _, line := range strings.Split(body, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == column {
			return strings.Join(fields, " ")
		}
	}
	require.Failf(t, "column not found", "column %s", column)
	return ""
}

func TestEmbeddedSchema_DeleteRulesAndConstraints(t *testing.T) {
	migrations, err := LoadMigrations()
	require.NoError(t, err)
	script := migrations[0].UpScript

	titles := tableBody(t, script, "titles")
	reviews := tableBody(t, script, "reviews")
	comments := tableBody(t, script, "comments")

	t.Run("category removal keeps titles", func(t *testing.T) {
		def := columnDef(t, titles, "category_id")
		assert.Contains(t, def, "REFERENCES categories (id) ON DELETE SET NULL")
		assert.NotContains(t, def, "NOT NULL")
	})

	cascades := []struct {
		table  string
		body   string
		column string
		target string
	}{
		{table: "reviews", body: reviews, column: "title_id", target: "titles"},
		{table: "reviews", body: reviews, column: "author_id", target: "users"},
		{table: "comments", body: comments, column: "review_id", target: "reviews"},
		{table: "comments", body: comments, column: "author_id", target: "users"},
	}
	for _, c := range cascades {
		t.Run(c.table+"."+c.column+" cascades", func(t *testing.T) {
			assert.Contains(t, columnDef(t, c.body, c.column), "REFERENCES "+c.target+" (id) ON DELETE CASCADE")
		})
	}

	t.Run("one review per author and title", func(t *testing.T) {
		assert.Contains(t, reviews, "UNIQUE (author_id, title_id)")
	})

	t.Run("score range", func(t *testing.T) {
		assert.Contains(t, columnDef(t, reviews, "score"), "CHECK (score BETWEEN 1 AND 10)")
	})
}

func TestLoadMigrations(t *testing.T) {
	t.Run("sorted by version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/0010_add_index.up.sql": {Data: []byte("CREATE INDEX x ON t (c);")},
			"m/0002_second.up.sql":    {Data: []byte("SELECT 2;")},
			"m/0001_first.up.sql":     {Data: []byte("SELECT 1;")},
			"m/0001_first.down.sql":   {Data: []byte("SELECT 0;")},
			"m/README.md":             {Data: []byte("notes")},
		}

		migrations, err := loadMigrations(fsys, "m")
		require.NoError(t, err)

		require.Len(t, migrations, 3)
		assert.Equal(t, []int{1, 2, 10}, []int{migrations[0].Version, migrations[1].Version, migrations[2].Version})
		assert.Equal(t, "add_index", migrations[2].Name)
		assert.True(t, strings.HasPrefix(migrations[0].UpScript, "SELECT 1"))
	})

	t.Run("duplicate version", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/0001_a.up.sql": {Data: []byte("SELECT 1;")},
			"m/0001_b.up.sql": {Data: []byte("SELECT 1;")},
		}

		_, err := loadMigrations(fsys, "m")
		assert.ErrorContains(t, err, "duplicate migration version 1")
	})

	t.Run("bad prefix", func(t *testing.T) {
		fsys := fstest.MapFS{
			"m/first_table.up.sql": {Data: []byte("SELECT 1;")},
		}

		_, err := loadMigrations(fsys, "m")
		assert.Error(t, err)
	})
}
