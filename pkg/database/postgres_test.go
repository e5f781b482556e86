package database

import (
	"testing"

	"yamdb/pkg/utils"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnString(t *testing.T) {
	tests := []struct {
		name   string
		config utils.DatabaseConfig
		want   string
	}{
		{
			name:   "full",
			config: utils.DatabaseConfig{Host: "db", Port: "5432", Name: "yamdb", User: "app", Password: "s3cr@t", SSLMode: "disable"},
			want:   "postgres://app:s3cr%40t@db:5432/yamdb?sslmode=disable",
		},
		{
			name:   "no credentials",
			config: utils.DatabaseConfig{Host: "localhost", Port: "5433", Name: "reviews"},
			want:   "postgres://localhost:5433/reviews",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConnString(tt.config))
		})
	}
}

func TestConnString_ParsesWithPgx(t *testing.T) {
	cfg, err := pgxpool.ParseConfig(ConnString(utils.DatabaseConfig{
		Host: "db", Port: "5432", Name: "yamdb", User: "app", Password: "p w", SSLMode: "disable",
	}))
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.ConnConfig.Host)
	assert.Equal(t, uint16(5432), cfg.ConnConfig.Port)
	assert.Equal(t, "yamdb", cfg.ConnConfig.Database)
	assert.Equal(t, "app", cfg.ConnConfig.User)
	assert.Equal(t, "p w", cfg.ConnConfig.Password)
}
