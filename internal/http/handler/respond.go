package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"readlater/internal/auth"
	apperrors "readlater/internal/errors"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as {"code","message","details"}. Errors without a
// domain code are logged and reported as internal.
func WriteError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) || domainErr.Code == apperrors.CodeInternal {
		log.Error("request failed",
			zap.String("request_id", chimw.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, apperrors.ErrInternal)
		return
	}
	writeJSON(w, domainErr.Code.HTTPStatus(), domainErr)
}

// Unauthorized is the RequireAuth failure response.
func Unauthorized(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusUnauthorized, apperrors.ErrUnauthorized)
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.Validation("bad json")
	}
	return nil
}

func userID(r *http.Request) int64 {
	uid, _ := auth.UserIDFromContext(r.Context())
	return uid
}

func idParam(r *http.Request, name string) (uint64, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.ValidationWithDetails("invalid id", map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}
