package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"campus-marketplace/internal/middleware"
	"campus-marketplace/internal/services"
)

// PaymentHandler handles the payment workflow
type PaymentHandler struct {
	paymentService services.PaymentServiceInterface
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(paymentService services.PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// Initiate handles POST /api/orders/{orderID}/payment
func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	initiation, err := h.paymentService.InitiatePayment(id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, initiation)
}

// SubmitNotice handles POST /api/orders/{orderID}/payment/notice
func (h *PaymentHandler) SubmitNotice(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	order, err := h.paymentService.SubmitPaymentNotice(id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// webhookPayload is the gateway's confirmation callback body
type webhookPayload struct {
	OrderID   int    `json:"order_id"`
	Reference string `json:"reference"`
}

// Webhook handles POST /api/payments/webhook. The gateway calls this after
// the charge settles; redeliveries of an already-applied confirmation are
// answered with success.
func (h *PaymentHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if payload.OrderID <= 0 || payload.Reference == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "order_id and reference are required"})
		return
	}

	order, err := h.paymentService.ConfirmPayment(payload.OrderID, payload.Reference)
	if err != nil {
		log.Printf("Payment webhook failed for order %d: %v", payload.OrderID, err)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
