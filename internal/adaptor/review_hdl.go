package adaptor

import (
	"net/http"

	"yamdb/internal/dto/request"
	"yamdb/internal/usecase"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

type ReviewHandler struct {
	service usecase.ReviewService
	log     *zap.Logger
}

func NewReviewHandler(service usecase.ReviewService, log *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: service,
		log:     log.With(zap.String("handler", "review")),
	}
}

// List handles GET /api/v1/titles/{title_id}/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	titleID, ok := pathID(w, r, "title_id", "title")
	if !ok {
		return
	}

	reviews, err := h.service.List(r.Context(), titleID, pageFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "list reviews")
		return
	}

	utils.ResponseSuccess(w, "success", reviews)
}

// Get handles GET /api/v1/titles/{title_id}/reviews/{review_id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	titleID, ok := pathID(w, r, "title_id", "title")
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "review_id", "review")
	if !ok {
		return
	}

	review, err := h.service.Get(r.Context(), titleID, reviewID)
	if err != nil {
		handleServiceError(w, h.log, err, "get review")
		return
	}

	utils.ResponseSuccess(w, "success", review)
}

// Create handles POST /api/v1/titles/{title_id}/reviews (authenticated)
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	titleID, ok := pathID(w, r, "title_id", "title")
	if !ok {
		return
	}

	var req request.CreateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.Create(r.Context(), actorFromRequest(r), titleID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create review")
		return
	}

	utils.ResponseCreated(w, "success", review)
}

// Update handles PATCH /api/v1/titles/{title_id}/reviews/{review_id} (author or staff)
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	titleID, ok := pathID(w, r, "title_id", "title")
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "review_id", "review")
	if !ok {
		return
	}

	var req request.UpdateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.Update(r.Context(), actorFromRequest(r), titleID, reviewID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update review")
		return
	}

	utils.ResponseSuccess(w, "success", review)
}

// Delete handles DELETE /api/v1/titles/{title_id}/reviews/{review_id} (author or staff)
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	titleID, ok := pathID(w, r, "title_id", "title")
	if !ok {
		return
	}
	reviewID, ok := pathID(w, r, "review_id", "review")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actorFromRequest(r), titleID, reviewID); err != nil {
		handleServiceError(w, h.log, err, "delete review")
		return
	}

	utils.ResponseNoContent(w)
}
