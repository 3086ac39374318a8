package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/stratify-hq/stratify/pkg/composables"
	"github.com/stratify-hq/stratify/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Field     string `json:"field,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

var statusByCode = map[string]int{
	"VALIDATION_ERROR":         http.StatusBadRequest,
	"LINEAGE_REQUIRED":         http.StatusBadRequest,
	"INVALID_HIERARCHY":        http.StatusBadRequest,
	"PARENT_NOT_FOUND":         http.StatusNotFound,
	"WORK_ITEM_NOT_FOUND":      http.StatusNotFound,
	"INSUFFICIENT_PERMISSIONS": http.StatusForbidden,
	"CANNOT_DELETE_PARENT":     http.StatusConflict,
	"CONFLICT":                 http.StatusConflict,
	"UPSTREAM_UNAVAILABLE":     http.StatusBadGateway,
}

// WriteDomainError maps a coded domain error onto an HTTP status and a
// JSON envelope carrying the request id for support correlation.
// Uncoded errors become opaque 500s.
func WriteDomainError(w http.ResponseWriter, r *http.Request, err error) {
	requestID := composables.UseRequestID(r.Context())

	var base *serrors.BaseError
	if errors.As(err, &base) {
		status, ok := statusByCode[base.Code]
		if !ok {
			status = http.StatusInternalServerError
		}
		WriteJSON(w, status, &ErrorEnvelope{
			Code:      base.Code,
			Message:   base.Message,
			Field:     base.Field,
			RequestID: requestID,
		})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, &ErrorEnvelope{
		Code:      "INTERNAL",
		Message:   "internal server error",
		RequestID: requestID,
	})
}
