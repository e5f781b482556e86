package adaptor

import (
	"errors"
	"net/http"

	"yamdb/internal/authz"
	"yamdb/internal/dto/request"
	"yamdb/internal/usecase"
	"yamdb/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// handleServiceError maps service errors onto HTTP responses.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var validationErr *usecase.ValidationError

	switch {
	case errors.As(err, &validationErr):
		log.Warn(operation+" failed - validation error",
			zap.Any("errors", validationErr.Fields),
			zap.String("operation", operation))
		utils.ResponseBadRequest(w, "Validation failed", validationErr.Fields)

	case errors.Is(err, usecase.ErrInvalidConfirmationCode):
		log.Warn(operation+" failed - invalid confirmation code", zap.String("operation", operation))
		utils.ResponseBadRequest(w, err.Error(), map[string]string{"confirmation_code": err.Error()})

	case errors.Is(err, usecase.ErrNotFound):
		log.Warn(operation+" failed - not found", zap.Error(err), zap.String("operation", operation))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrUnauthorized):
		utils.ResponseUnauthorized(w, err.Error())

	case errors.Is(err, usecase.ErrForbidden):
		log.Warn(operation+" failed - forbidden", zap.Error(err), zap.String("operation", operation))
		utils.ResponseForbidden(w, err.Error())

	default:
		log.Error(operation+" failed - internal error", zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// pathID parses a numeric URL parameter. Malformed ids answer 404 like unknown ones.
func pathID(w http.ResponseWriter, r *http.Request, name, what string) (int64, bool) {
	id, ok := utils.ParseID(chi.URLParam(r, name))
	if !ok {
		utils.ResponseNotFound(w, what+" not found")
		return 0, false
	}
	return id, true
}

func pageFromQuery(r *http.Request) request.PaginatedRequest {
	query := r.URL.Query()
	return request.NewPaginatedRequest(
		utils.ParseInt(query.Get("page"), 1),
		utils.ParseInt(query.Get("per_page"), request.DefaultPerPage),
	)
}

func actorFromRequest(r *http.Request) authz.Actor {
	userID, _ := utils.GetUserIDFromContext(r.Context())
	return authz.Actor{ID: userID, Role: utils.GetRoleFromContext(r.Context())}
}
