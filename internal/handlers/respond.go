package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"campus-marketplace/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("Warning: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, errorStatus(err), map[string]string{"error": err.Error()})
}

// errorStatus maps domain errors onto HTTP status codes
func errorStatus(err error) int {
	switch {
	case errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrAccessDenied):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidState),
		errors.Is(err, models.ErrAlreadyConfirmed),
		errors.Is(err, models.ErrInvalidPaymentState),
		errors.Is(err, models.ErrNotConfirmed),
		errors.Is(err, models.ErrNotPickup),
		errors.Is(err, models.ErrCartConflict),
		errors.Is(err, models.ErrReferenceMismatch),
		errors.Is(err, models.ErrPaymentNotSucceeded):
		return http.StatusConflict
	case errors.Is(err, models.ErrEmptyCart),
		errors.Is(err, models.ErrMissingDeliveryInfo),
		errors.Is(err, models.ErrSelfPurchase),
		errors.Is(err, models.ErrInvalidPickupDetails),
		errors.Is(err, models.ErrMissingReason),
		errors.Is(err, models.ErrNoValidItems),
		errors.Is(err, models.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
