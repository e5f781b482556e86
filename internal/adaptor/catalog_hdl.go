package adaptor

import (
	"net/http"

	"yamdb/internal/dto/request"
	"yamdb/internal/usecase"
	"yamdb/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func slugListFromQuery(r *http.Request) *request.SlugListRequest {
	return &request.SlugListRequest{
		PaginatedRequest: pageFromQuery(r),
		Search:           r.URL.Query().Get("search"),
	}
}

type CategoryHandler struct {
	service usecase.CatalogService
	log     *zap.Logger
}

func NewCategoryHandler(service usecase.CatalogService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		log:     log.With(zap.String("handler", "category")),
	}
}

// List handles GET /api/v1/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context(), slugListFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "list categories")
		return
	}

	utils.ResponseSuccess(w, "success", categories)
}

// Create handles POST /api/v1/categories (admin)
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.SlugItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.CreateCategory(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create category")
		return
	}

	utils.ResponseCreated(w, "success", category)
}

// Delete handles DELETE /api/v1/categories/{slug} (admin)
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteCategory(r.Context(), chi.URLParam(r, "slug")); err != nil {
		handleServiceError(w, h.log, err, "delete category")
		return
	}

	utils.ResponseNoContent(w)
}

type GenreHandler struct {
	service usecase.CatalogService
	log     *zap.Logger
}

func NewGenreHandler(service usecase.CatalogService, log *zap.Logger) *GenreHandler {
	return &GenreHandler{
		service: service,
		log:     log.With(zap.String("handler", "genre")),
	}
}

// List handles GET /api/v1/genres
func (h *GenreHandler) List(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.ListGenres(r.Context(), slugListFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "list genres")
		return
	}

	utils.ResponseSuccess(w, "success", genres)
}

// Create handles POST /api/v1/genres (admin)
func (h *GenreHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.SlugItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	genre, err := h.service.CreateGenre(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create genre")
		return
	}

	utils.ResponseCreated(w, "success", genre)
}

// Delete handles DELETE /api/v1/genres/{slug} (admin)
func (h *GenreHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteGenre(r.Context(), chi.URLParam(r, "slug")); err != nil {
		handleServiceError(w, h.log, err, "delete genre")
		return
	}

	utils.ResponseNoContent(w)
}
