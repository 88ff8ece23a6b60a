package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"stockwatch/internal/models"
	"stockwatch/internal/store"
	"stockwatch/internal/validation"
)

// JSON writes a successful API response with the given data.
func JSON(w http.ResponseWriter, data interface{}) {
	JSONStatus(w, http.StatusOK, data)
}

// JSONStatus writes a successful API response with an explicit status code.
func JSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(models.APIResponse{Data: data})
}

// JSONMeta writes a successful API response with a total count.
func JSONMeta(w http.ResponseWriter, data interface{}, total int) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.APIResponse{
		Data: data,
		Meta: &models.Meta{Total: total},
	})
}

// Err writes a JSON error response with the given message and HTTP status code.
func Err(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// FromError maps store and validation errors onto HTTP status codes.
func FromError(w http.ResponseWriter, err error) {
	var ve *validation.ValidationErrors
	switch {
	case errors.As(err, &ve):
		Err(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, store.ErrNotFound):
		Err(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrDuplicate):
		Err(w, err.Error(), http.StatusConflict)
	default:
		Err(w, err.Error(), http.StatusInternalServerError)
	}
}

// DecodeBody decodes a JSON request body into the given value.
func DecodeBody(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}
