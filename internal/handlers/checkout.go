package handlers

import (
	"encoding/json"
	"net/http"

	"campus-marketplace/internal/middleware"
	"campus-marketplace/internal/models"
	"campus-marketplace/internal/services"
)

// CheckoutHandler turns the buyer's cart into orders
type CheckoutHandler struct {
	checkoutService services.CheckoutServiceInterface
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService services.CheckoutServiceInterface) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// Checkout handles POST /api/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	buyerID := middleware.UserIDFromContext(r.Context())

	var req models.CheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	result, err := h.checkoutService.Checkout(buyerID, &req)
	if err != nil {
		// A failed checkout can still carry outcomes: pruned reasons, or
		// orders created before a late cart conflict
		if result != nil && (len(result.Orders) > 0 || len(result.Pruned) > 0) {
			payload := map[string]interface{}{"error": err.Error()}
			if len(result.Orders) > 0 {
				payload["orders"] = result.Orders
			}
			if len(result.Pruned) > 0 {
				payload["pruned"] = result.Pruned
			}
			writeJSON(w, errorStatus(err), payload)
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}
