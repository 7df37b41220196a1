package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus-marketplace/internal/middleware"
	"campus-marketplace/internal/models"
	"campus-marketplace/internal/services"
)

// fakeCheckoutService returns scripted checkout outcomes
type fakeCheckoutService struct {
	result *services.CheckoutResult
	err    error
}

func (f *fakeCheckoutService) Checkout(buyerID int, req *models.CheckoutRequest) (*services.CheckoutResult, error) {
	return f.result, f.err
}

// fakeOrderService returns a scripted order or error for every operation
type fakeOrderService struct {
	order *models.Order
	err   error
}

func (f *fakeOrderService) GetOrder(orderID, requesterID int) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) ListBuyerOrders(buyerID int, status models.OrderStatus, limit, offset int) ([]*models.Order, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return []*models.Order{f.order}, 1, nil
}

func (f *fakeOrderService) ListSellerOrders(sellerID int, status models.OrderStatus, limit, offset int) ([]*models.Order, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return []*models.Order{f.order}, 1, nil
}

func (f *fakeOrderService) ConfirmOrder(orderID, sellerID int) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) RejectOrder(orderID, sellerID int, reason string) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) CancelOrder(orderID, buyerID int) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) MarkReceived(orderID, buyerID int) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakeOrderService) MarkDelivered(orderID, sellerID int) (*models.Order, error) {
	return f.order, f.err
}

type fakePaymentService struct {
	initiation *services.PaymentInitiation
	order      *models.Order
	err        error
	confirmed  []string
}

func (f *fakePaymentService) InitiatePayment(orderID, buyerID int) (*services.PaymentInitiation, error) {
	return f.initiation, f.err
}

func (f *fakePaymentService) SubmitPaymentNotice(orderID, buyerID int) (*models.Order, error) {
	return f.order, f.err
}

func (f *fakePaymentService) ConfirmPayment(orderID int, reference string) (*models.Order, error) {
	f.confirmed = append(f.confirmed, reference)
	return f.order, f.err
}

func authed(req *http.Request, userID int) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestCheckoutHandler(t *testing.T) {
	body := `{"delivery_method":"pickup","payment_method":"cash","contact_name":"Fah","contact_phone":"0812345678","pickup":{"location_name":"Canteen"}}`

	t.Run("created", func(t *testing.T) {
		svc := &fakeCheckoutService{result: &services.CheckoutResult{
			Orders: []*models.Order{{ID: 1, Status: models.OrderPendingSellerConfirmation}},
		}}
		h := NewCheckoutHandler(svc)

		req := authed(httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body)), 100)
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)

		var result services.CheckoutResult
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
		assert.Len(t, result.Orders, 1)
	})

	t.Run("no valid items still reports pruned lines", func(t *testing.T) {
		svc := &fakeCheckoutService{
			result: &services.CheckoutResult{Pruned: []services.PrunedLine{{ItemID: 2, Reason: "not approved"}}},
			err:    models.ErrNoValidItems,
		}
		h := NewCheckoutHandler(svc)

		req := authed(httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body)), 100)
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "not approved")
	})

	t.Run("late cart conflict still reports created orders", func(t *testing.T) {
		svc := &fakeCheckoutService{
			result: &services.CheckoutResult{Orders: []*models.Order{{ID: 9, OrderNumber: "ORD-20260901-X1Y2Z3"}}},
			err:    models.ErrCartConflict,
		}
		h := NewCheckoutHandler(svc)

		req := authed(httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body)), 100)
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "ORD-20260901-X1Y2Z3")
	})

	t.Run("empty cart", func(t *testing.T) {
		h := NewCheckoutHandler(&fakeCheckoutService{err: models.ErrEmptyCart})

		req := authed(httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(body)), 100)
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		h := NewCheckoutHandler(&fakeCheckoutService{})

		req := authed(httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader("{")), 100)
		rec := httptest.NewRecorder()
		h.Checkout(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func newOrderRouter(h *OrderHandler, p *PaymentHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/api/orders/{orderID}", h.GetOrder)
	r.Post("/api/orders/{orderID}/confirm", h.Confirm)
	r.Post("/api/orders/{orderID}/reject", h.Reject)
	r.Post("/api/orders/{orderID}/received", h.MarkReceived)
	if p != nil {
		r.Post("/api/orders/{orderID}/payment", p.Initiate)
		r.Post("/api/payments/webhook", p.Webhook)
	}
	return r
}

func TestOrderHandler_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"not found", models.ErrOrderNotFound, http.StatusNotFound},
		{"access denied", models.ErrAccessDenied, http.StatusForbidden},
		{"invalid state", models.ErrInvalidState, http.StatusConflict},
		{"already confirmed", models.ErrAlreadyConfirmed, http.StatusConflict},
		{"not pickup", models.ErrNotPickup, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newOrderRouter(NewOrderHandler(&fakeOrderService{err: tt.err}), nil)

			req := authed(httptest.NewRequest(http.MethodPost, "/api/orders/5/received", nil), 100)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestOrderHandler_GetOrder(t *testing.T) {
	order := &models.Order{ID: 5, OrderNumber: "ORD-20260901-A1B2C3", Status: models.OrderConfirmed}
	router := newOrderRouter(NewOrderHandler(&fakeOrderService{order: order}), nil)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/orders/5", nil), 100)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Order
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "ORD-20260901-A1B2C3", got.OrderNumber)
}

func TestOrderHandler_RejectRequiresReason(t *testing.T) {
	router := newOrderRouter(NewOrderHandler(&fakeOrderService{err: models.ErrMissingReason}), nil)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/orders/5/reject", strings.NewReader(`{"reason":""}`)), 100)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrderHandler_InvalidID(t *testing.T) {
	router := newOrderRouter(NewOrderHandler(&fakeOrderService{}), nil)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/orders/abc", nil), 100)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHandler_Initiate(t *testing.T) {
	svc := &fakePaymentService{initiation: &services.PaymentInitiation{
		Reference: "ref-123",
		QRCodeURL: "https://qr.example.com/ref-123",
	}}
	router := newOrderRouter(NewOrderHandler(&fakeOrderService{}), NewPaymentHandler(svc))

	req := authed(httptest.NewRequest(http.MethodPost, "/api/orders/5/payment", nil), 100)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "ref-123")
}

func TestPaymentHandler_Webhook(t *testing.T) {
	t.Run("applies confirmation", func(t *testing.T) {
		svc := &fakePaymentService{order: &models.Order{ID: 5, PaymentStatus: models.PaymentPaid}}
		router := newOrderRouter(NewOrderHandler(&fakeOrderService{}), NewPaymentHandler(svc))

		body := `{"order_id":5,"reference":"ref-123"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body)))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"ref-123"}, svc.confirmed)
	})

	t.Run("rejects missing fields", func(t *testing.T) {
		svc := &fakePaymentService{}
		router := newOrderRouter(NewOrderHandler(&fakeOrderService{}), NewPaymentHandler(svc))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{"order_id":5}`)))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.confirmed)
	})

	t.Run("reference mismatch maps to conflict", func(t *testing.T) {
		svc := &fakePaymentService{err: models.ErrReferenceMismatch}
		router := newOrderRouter(NewOrderHandler(&fakeOrderService{}), NewPaymentHandler(svc))

		body := `{"order_id":5,"reference":"wrong"}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(body)))

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}
