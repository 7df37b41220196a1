package services

import (
	"context"
	"time"

	"campus-marketplace/internal/models"
	"campus-marketplace/internal/repositories"
)

// CartRepository interface for cart data operations
type CartRepository interface {
	Get(buyerID int) (*models.Cart, error)
	ReplaceItems(buyerID, version int, items []models.CartItem) (*models.Cart, error)
	Clear(buyerID, version int) error
	DeleteExpired(window time.Duration) (int, error)
}

// OrderRepository interface for order data operations. All transition
// methods are conditional writes that fail with a state error when the
// order is no longer in the required state.
type OrderRepository interface {
	Create(req *models.OrderCreateRequest) (*models.Order, error)
	GetByID(id int) (*models.Order, error)
	Search(filters repositories.OrderSearchFilters) ([]*models.Order, int, error)
	ConfirmPending(id int) (*models.Order, error)
	RejectPending(id int, reason string) (*models.Order, error)
	CancelPending(id int) (*models.Order, error)
	SetPaymentIntent(id int, reference string) (*models.Order, error)
	MarkPaymentSubmitted(id int) (*models.Order, error)
	MarkPaid(id int) (*models.Order, error)
	MarkBuyerReceived(id int) (*models.Order, error)
	MarkSellerDelivered(id int) (*models.Order, error)
}

// ItemDirectory provides read-only lookups into the item catalog
type ItemDirectory interface {
	Lookup(itemID int) (*models.ItemRecord, error)
	LookupAll(itemIDs []int) (map[int]*models.ItemRecord, error)
}

// NotificationSink accepts best-effort delivery requests. Errors are logged
// by callers and never affect the owning operation.
type NotificationSink interface {
	Send(ctx context.Context, userID int, kind, title, message, link string) error
}

// Charge statuses reported by the payment gateway
const (
	ChargeSucceeded = "succeeded"
	ChargeFailed    = "failed"
	ChargePending   = "pending"
)

// ChargeRequest represents a payment intent sized to an order's total.
// Minor-unit conversion is the gateway's concern.
type ChargeRequest struct {
	Amount      int    // Amount in satang
	Currency    string // e.g. "THB"
	Reference   string // Unique intent reference
	Description string
}

// ChargeResponse contains the created intent
type ChargeResponse struct {
	Reference string
	QRCodeURL string
}

// ChargeVerification contains the gateway's view of a charge
type ChargeVerification struct {
	Reference string
	Status    string // succeeded, failed, pending
	Amount    int
}

// PaymentGateway wraps the external payment provider
type PaymentGateway interface {
	CreateCharge(req *ChargeRequest) (*ChargeResponse, error)
	VerifyCharge(reference string) (*ChargeVerification, error)
}

// CheckoutServiceInterface defines the interface for checkout
type CheckoutServiceInterface interface {
	Checkout(buyerID int, req *models.CheckoutRequest) (*CheckoutResult, error)
}

// OrderServiceInterface defines the interface for order lifecycle operations
type OrderServiceInterface interface {
	GetOrder(orderID, requesterID int) (*models.Order, error)
	ListBuyerOrders(buyerID int, status models.OrderStatus, limit, offset int) ([]*models.Order, int, error)
	ListSellerOrders(sellerID int, status models.OrderStatus, limit, offset int) ([]*models.Order, int, error)
	ConfirmOrder(orderID, sellerID int) (*models.Order, error)
	RejectOrder(orderID, sellerID int, reason string) (*models.Order, error)
	CancelOrder(orderID, buyerID int) (*models.Order, error)
	MarkReceived(orderID, buyerID int) (*models.Order, error)
	MarkDelivered(orderID, sellerID int) (*models.Order, error)
}

// PaymentServiceInterface defines the interface for the payment workflow
type PaymentServiceInterface interface {
	InitiatePayment(orderID, buyerID int) (*PaymentInitiation, error)
	SubmitPaymentNotice(orderID, buyerID int) (*models.Order, error)
	ConfirmPayment(orderID int, gatewayReference string) (*models.Order, error)
}

// CartServiceInterface defines the interface for cart operations
type CartServiceInterface interface {
	GetCart(buyerID int) (*models.Cart, error)
	AddItem(buyerID int, req *models.CartItemRequest) (*models.Cart, error)
	UpdateItem(buyerID, itemID, quantity int) (*models.Cart, error)
	RemoveItem(buyerID, itemID int) (*models.Cart, error)
	Sync(buyerID int, req *models.CartSyncRequest) (*models.Cart, error)
}
