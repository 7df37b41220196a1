package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"campus-marketplace/internal/models"
)

// PaymentService drives the payment sub-state of an order: intent creation
// against the gateway, buyer-submitted transfer notices, and gateway
// confirmation.
type PaymentService struct {
	orderRepo OrderRepository
	gateway   PaymentGateway
	notifier  NotificationSink
}

// NewPaymentService creates a new payment service
func NewPaymentService(orderRepo OrderRepository, gateway PaymentGateway, notifier NotificationSink) *PaymentService {
	return &PaymentService{
		orderRepo: orderRepo,
		gateway:   gateway,
		notifier:  notifier,
	}
}

// PaymentInitiation is the outcome of creating a payment intent
type PaymentInitiation struct {
	Order     *models.Order `json:"order"`
	Reference string        `json:"reference"`
	QRCodeURL string        `json:"qr_code_url,omitempty"`
}

// InitiatePayment creates a gateway intent sized to the order's total and
// records its reference on the order. Legal only for confirmed PromptPay
// orders whose payment is still pending.
func (s *PaymentService) InitiatePayment(orderID, buyerID int) (*PaymentInitiation, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.BuyerID != buyerID {
		return nil, models.ErrAccessDenied
	}

	if order.PaymentMethod != models.PaymentPromptPay {
		return nil, models.ErrInvalidPaymentState
	}

	if order.Status != models.OrderConfirmed {
		return nil, models.ErrNotConfirmed
	}

	if order.PaymentStatus != models.PaymentPending {
		return nil, models.ErrInvalidPaymentState
	}

	charge, err := s.gateway.CreateCharge(&ChargeRequest{
		Amount:      order.TotalAmount,
		Currency:    "THB",
		Reference:   uuid.NewString(),
		Description: fmt.Sprintf("Order %s", order.OrderNumber),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	updated, err := s.orderRepo.SetPaymentIntent(orderID, charge.Reference)
	if err != nil {
		return nil, err
	}

	return &PaymentInitiation{
		Order:     updated,
		Reference: charge.Reference,
		QRCodeURL: charge.QRCodeURL,
	}, nil
}

// SubmitPaymentNotice records the buyer's claim of having transferred the
// money. Legal only while the order is confirmed and payment has not been
// submitted or confirmed yet. The seller is notified to verify.
func (s *PaymentService) SubmitPaymentNotice(orderID, buyerID int) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.BuyerID != buyerID {
		return nil, models.ErrAccessDenied
	}

	if !order.RequiresPayment() {
		return nil, models.ErrInvalidPaymentState
	}

	if order.Status != models.OrderConfirmed {
		return nil, models.ErrNotConfirmed
	}

	if order.PaymentStatus == models.PaymentSubmitted || order.PaymentStatus == models.PaymentPaid {
		return nil, models.ErrInvalidPaymentState
	}

	updated, err := s.orderRepo.MarkPaymentSubmitted(orderID)
	if err != nil {
		return nil, err
	}

	s.notify(updated.SellerID, "payment_submitted", "Payment submitted",
		fmt.Sprintf("The buyer reports payment for order %s. Please verify.", updated.OrderNumber),
		fmt.Sprintf("/orders/%d", updated.ID))

	return updated, nil
}

// ConfirmPayment applies a gateway confirmation signal. The reference must
// match the intent recorded on the order, and the gateway must report the
// charge as succeeded. Re-confirming an already-paid order with a matching
// reference is a no-op success: gateways redeliver.
func (s *PaymentService) ConfirmPayment(orderID int, gatewayReference string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.PaymentRef == "" || order.PaymentRef != gatewayReference {
		return nil, models.ErrReferenceMismatch
	}

	if order.IsPaid() {
		return order, nil
	}

	verification, err := s.gateway.VerifyCharge(gatewayReference)
	if err != nil {
		return nil, fmt.Errorf("failed to verify charge: %w", err)
	}

	if verification.Status != ChargeSucceeded {
		return nil, models.ErrPaymentNotSucceeded
	}

	updated, err := s.orderRepo.MarkPaid(orderID)
	if err != nil {
		return nil, err
	}

	link := fmt.Sprintf("/orders/%d", updated.ID)
	s.notify(updated.BuyerID, "payment_confirmed", "Payment confirmed",
		fmt.Sprintf("Payment for order %s is confirmed.", updated.OrderNumber), link)
	s.notify(updated.SellerID, "payment_confirmed", "Payment confirmed",
		fmt.Sprintf("Order %s has been paid.", updated.OrderNumber), link)

	return updated, nil
}

// notify dispatches a best-effort notification; failures are logged, never
// propagated
func (s *PaymentService) notify(userID int, kind, title, message, link string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.notifier.Send(ctx, userID, kind, title, message, link); err != nil {
		log.Printf("Warning: failed to send %s notification to user %d: %v", kind, userID, err)
	}
}
