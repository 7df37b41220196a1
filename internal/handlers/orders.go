package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"campus-marketplace/internal/middleware"
	"campus-marketplace/internal/models"
	"campus-marketplace/internal/services"
)

// OrderHandler handles order lifecycle operations
type OrderHandler struct {
	orderService services.OrderServiceInterface
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService services.OrderServiceInterface) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

func orderID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "orderID"))
	return id, err == nil && id > 0
}

type orderListResponse struct {
	Orders []*models.Order `json:"orders"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func listParams(r *http.Request) (models.OrderStatus, int, int) {
	status := models.OrderStatus(r.URL.Query().Get("status"))

	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}

	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	return status, limit, offset
}

// GetOrder handles GET /api/orders/{orderID}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	order, err := h.orderService.GetOrder(id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// ListPurchases handles GET /api/orders/purchases
func (h *OrderHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	status, limit, offset := listParams(r)

	orders, total, err := h.orderService.ListBuyerOrders(middleware.UserIDFromContext(r.Context()), status, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderListResponse{Orders: orders, Total: total, Limit: limit, Offset: offset})
}

// ListSales handles GET /api/orders/sales
func (h *OrderHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	status, limit, offset := listParams(r)

	orders, total, err := h.orderService.ListSellerOrders(middleware.UserIDFromContext(r.Context()), status, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderListResponse{Orders: orders, Total: total, Limit: limit, Offset: offset})
}

// Confirm handles POST /api/orders/{orderID}/confirm
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	order, err := h.orderService.ConfirmOrder(id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Reject handles POST /api/orders/{orderID}/reject
func (h *OrderHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	var req models.RejectOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	order, err := h.orderService.RejectOrder(id, middleware.UserIDFromContext(r.Context()), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Cancel handles POST /api/orders/{orderID}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	order, err := h.orderService.CancelOrder(id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// MarkReceived handles POST /api/orders/{orderID}/received
func (h *OrderHandler) MarkReceived(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	order, err := h.orderService.MarkReceived(id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// MarkDelivered handles POST /api/orders/{orderID}/delivered
func (h *OrderHandler) MarkDelivered(w http.ResponseWriter, r *http.Request) {
	id, ok := orderID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	order, err := h.orderService.MarkDelivered(id, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}
