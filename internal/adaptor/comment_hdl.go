package adaptor

import (
	"net/http"

	"yamdb/internal/dto/request"
	"yamdb/internal/usecase"
	"yamdb/pkg/utils"

	"go.uber.org/zap"
)

type CommentHandler struct {
	service usecase.CommentService
	log     *zap.Logger
}

func NewCommentHandler(service usecase.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{
		service: service,
		log:     log.With(zap.String("handler", "comment")),
	}
}

func (h *CommentHandler) reviewPath(w http.ResponseWriter, r *http.Request) (titleID, reviewID int64, ok bool) {
	if titleID, ok = pathID(w, r, "title_id", "title"); !ok {
		return 0, 0, false
	}
	if reviewID, ok = pathID(w, r, "review_id", "review"); !ok {
		return 0, 0, false
	}
	return titleID, reviewID, true
}

// List handles GET /api/v1/titles/{title_id}/reviews/{review_id}/comments
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := h.reviewPath(w, r)
	if !ok {
		return
	}

	comments, err := h.service.List(r.Context(), titleID, reviewID, pageFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "list comments")
		return
	}

	utils.ResponseSuccess(w, "success", comments)
}

// Get handles GET .../comments/{comment_id}
func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := h.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "comment_id", "comment")
	if !ok {
		return
	}

	comment, err := h.service.Get(r.Context(), titleID, reviewID, commentID)
	if err != nil {
		handleServiceError(w, h.log, err, "get comment")
		return
	}

	utils.ResponseSuccess(w, "success", comment)
}

// Create handles POST .../comments (authenticated)
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := h.reviewPath(w, r)
	if !ok {
		return
	}

	var req request.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.Create(r.Context(), actorFromRequest(r), titleID, reviewID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create comment")
		return
	}

	utils.ResponseCreated(w, "success", comment)
}

// Update handles PATCH .../comments/{comment_id} (author or staff)
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := h.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "comment_id", "comment")
	if !ok {
		return
	}

	var req request.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	comment, err := h.service.Update(r.Context(), actorFromRequest(r), titleID, reviewID, commentID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update comment")
		return
	}

	utils.ResponseSuccess(w, "success", comment)
}

// Delete handles DELETE .../comments/{comment_id} (author or staff)
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	titleID, reviewID, ok := h.reviewPath(w, r)
	if !ok {
		return
	}
	commentID, ok := pathID(w, r, "comment_id", "comment")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actorFromRequest(r), titleID, reviewID, commentID); err != nil {
		handleServiceError(w, h.log, err, "delete comment")
		return
	}

	utils.ResponseNoContent(w)
}
