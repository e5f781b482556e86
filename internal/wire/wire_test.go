package wire

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yamdb/internal/data/repository"
	"yamdb/pkg/database"
	"yamdb/pkg/token"
	"yamdb/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingDB struct {
	database.PgxIface
	err error
}

func (p *pingDB) Ping(context.Context) error { return p.err }

func testConfig() *utils.Config {
	return &utils.Config{
		JWT:       utils.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
		Code:      utils.CodeConfig{ExpiryMinutes: 60, Length: 6},
		CORS:      utils.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: utils.RateLimitConfig{AuthRequests: 100, AuthWindow: time.Minute},
	}
}

func newTestApp(t *testing.T, db database.PgxIface) *App {
	t.Helper()
	app, err := Wiring(db, &repository.Repository{}, testConfig(), zap.NewNop())
	require.NoError(t, err)
	return app
}

func TestRouter_AccessGates(t *testing.T) {
	app := newTestApp(t, &pingDB{})

	tests := []struct {
		method, path string
		wantStatus   int
	}{
		{http.MethodPost, "/api/v1/titles/", http.StatusUnauthorized},
		{http.MethodPatch, "/api/v1/titles/1/", http.StatusUnauthorized},
		{http.MethodDelete, "/api/v1/categories/books/", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/genres", http.StatusUnauthorized},
		{http.MethodPost, "/api/v1/titles/1/reviews/", http.StatusUnauthorized},
		{http.MethodPatch, "/api/v1/titles/1/reviews/2/comments/3/", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/users/", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/users/me/", http.StatusUnauthorized},
		{http.MethodGet, "/api/v1/nowhere/", http.StatusNotFound},
		{http.MethodPut, "/api/v1/titles/1/", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestRouter_RejectsForgedToken(t *testing.T) {
	app := newTestApp(t, &pingDB{})

	forged, err := token.NewManager("other-secret", time.Hour).Generate(1, "root", "admin")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/categories/", nil)
	req.Header.Set("Authorization", "Bearer "+forged)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestApp(t, &pingDB{}).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	newTestApp(t, &pingDB{err: errors.New("down")}).Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Metrics(t *testing.T) {
	app := newTestApp(t, &pingDB{})

	app.Router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/users/", nil))

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "yamdb_http_requests_total")
}
