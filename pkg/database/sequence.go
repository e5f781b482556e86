package database

import (
	"context"
	"fmt"
)

// SequencedTables lists tables whose id sequence must follow explicit-id inserts.
var SequencedTables = []string{
	"categories", "genres", "titles", "genre_titles", "users", "reviews", "comments",
}

// SyncSequences moves every id sequence past the highest stored id.
func SyncSequences(ctx context.Context, db PgxIface, tables ...string) error {
	if len(tables) == 0 {
		tables = SequencedTables
	}

	for _, table := range tables {
		query := fmt.Sprintf(
			`SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)`,
			table)
		if _, err := db.Exec(ctx, query); err != nil {
			return fmt.Errorf("sync sequence for %s: %w", table, err)
		}
	}

	return nil
}
