package models

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// OrderStatus represents the lifecycle status of an order
type OrderStatus string

const (
	OrderPendingSellerConfirmation OrderStatus = "pending_seller_confirmation"
	OrderConfirmed                 OrderStatus = "confirmed"
	OrderCompleted                 OrderStatus = "completed"
	OrderRejected                  OrderStatus = "rejected"
	OrderCancelled                 OrderStatus = "cancelled"
)

// PaymentStatus represents the payment sub-state of an order, tracked on an
// axis independent from OrderStatus
type PaymentStatus string

const (
	PaymentNotRequired PaymentStatus = "not_required"
	PaymentPending     PaymentStatus = "pending"
	PaymentAwaiting    PaymentStatus = "awaiting_payment"
	PaymentSubmitted   PaymentStatus = "payment_submitted"
	PaymentPaid        PaymentStatus = "paid"
)

// DeliveryMethod represents how the buyer receives the items
type DeliveryMethod string

const (
	DeliveryPickup   DeliveryMethod = "pickup"
	DeliveryShipping DeliveryMethod = "delivery"
)

// PaymentMethod represents how the buyer pays
type PaymentMethod string

const (
	PaymentCash      PaymentMethod = "cash"
	PaymentTransfer  PaymentMethod = "transfer"
	PaymentPromptPay PaymentMethod = "promptpay"
)

// OrderLineItem is an immutable snapshot of one purchased item, taken at
// order-creation time. Price and title never track the live catalog after
// the order is placed.
type OrderLineItem struct {
	ID        int    `json:"id" db:"id"`
	OrderID   int    `json:"order_id" db:"order_id"`
	ItemID    int    `json:"item_id" db:"item_id"`
	Title     string `json:"title" db:"title"`
	UnitPrice int    `json:"unit_price" db:"unit_price"` // Amount in satang
	Quantity  int    `json:"quantity" db:"quantity"`
	ImageURL  string `json:"image_url" db:"image_url"`
}

// Subtotal returns unit price times quantity for this line
func (li *OrderLineItem) Subtotal() int {
	return li.UnitPrice * li.Quantity
}

// PickupDetails describes the meeting point for pickup orders
type PickupDetails struct {
	LocationName  string     `json:"location_name"`
	Address       string     `json:"address,omitempty"`
	Note          string     `json:"note,omitempty"`
	Latitude      *float64   `json:"latitude,omitempty"`
	Longitude     *float64   `json:"longitude,omitempty"`
	PreferredTime *time.Time `json:"preferred_time,omitempty"`
}

// Order represents one seller's share of a checkout. Line items and total
// are written once at creation; all later mutations touch only the status,
// payment and confirmation fields.
type Order struct {
	ID              int             `json:"id" db:"id"`
	OrderNumber     string          `json:"order_number" db:"order_number"`
	BuyerID         int             `json:"buyer_id" db:"buyer_id"`
	SellerID        int             `json:"seller_id" db:"seller_id"`
	Items           []OrderLineItem `json:"items"`
	TotalAmount     int             `json:"total_amount" db:"total_amount"` // Amount in satang
	Status          OrderStatus     `json:"status" db:"status"`
	PaymentStatus   PaymentStatus   `json:"payment_status" db:"payment_status"`
	PaymentMethod   PaymentMethod   `json:"payment_method" db:"payment_method"`
	PaymentRef      string          `json:"payment_ref,omitempty" db:"payment_ref"`
	DeliveryMethod  DeliveryMethod  `json:"delivery_method" db:"delivery_method"`
	ShippingAddress string          `json:"shipping_address,omitempty" db:"shipping_address"`
	Pickup          *PickupDetails  `json:"pickup,omitempty"`
	ContactName     string          `json:"contact_name" db:"contact_name"`
	ContactPhone    string          `json:"contact_phone" db:"contact_phone"`
	RejectReason    string          `json:"reject_reason,omitempty" db:"reject_reason"`
	BuyerReceived   bool            `json:"buyer_received" db:"buyer_received"`
	SellerDelivered bool            `json:"seller_delivered" db:"seller_delivered"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderCreateRequest represents the data needed to create a new order
type OrderCreateRequest struct {
	BuyerID         int
	SellerID        int
	Items           []OrderLineItem
	TotalAmount     int
	PaymentMethod   PaymentMethod
	DeliveryMethod  DeliveryMethod
	ShippingAddress string
	Pickup          *PickupDetails
	ContactName     string
	ContactPhone    string
}

// Validate validates order creation data
func (req *OrderCreateRequest) Validate() error {
	if req.BuyerID <= 0 || req.SellerID <= 0 {
		return errors.New("buyer and seller are required")
	}

	if req.BuyerID == req.SellerID {
		return ErrSelfPurchase
	}

	if len(req.Items) == 0 {
		return errors.New("order must contain at least one item")
	}

	sum := 0
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return errors.New("line item quantity must be at least 1")
		}
		if item.UnitPrice < 0 {
			return errors.New("line item price cannot be negative")
		}
		sum += item.Subtotal()
	}

	if req.TotalAmount != sum {
		return errors.New("total amount does not match line items")
	}

	if err := validateOrderTotalAmount(req.TotalAmount); err != nil {
		return err
	}

	if err := validateDelivery(req.DeliveryMethod, req.ShippingAddress, req.Pickup); err != nil {
		return err
	}

	if err := validatePaymentMethod(req.PaymentMethod); err != nil {
		return err
	}

	return validateContact(req.ContactName, req.ContactPhone)
}

// InitialPaymentStatus returns the payment status a new order starts in for
// the chosen payment method
func (req *OrderCreateRequest) InitialPaymentStatus() PaymentStatus {
	if req.PaymentMethod == PaymentCash {
		return PaymentNotRequired
	}
	return PaymentPending
}

// validateOrderTotalAmount validates an order total amount
func validateOrderTotalAmount(totalAmount int) error {
	if totalAmount <= 0 {
		return errors.New("total amount must be positive")
	}

	// Maximum order amount of 1,000,000 THB (100,000,000 satang)
	if totalAmount > 100000000 {
		return errors.New("total amount cannot exceed 1,000,000 THB")
	}

	return nil
}

// validateDelivery validates the delivery method and its matching detail
func validateDelivery(method DeliveryMethod, shippingAddress string, pickup *PickupDetails) error {
	switch method {
	case DeliveryShipping:
		if strings.TrimSpace(shippingAddress) == "" {
			return ErrMissingDeliveryInfo
		}
	case DeliveryPickup:
		if pickup == nil || strings.TrimSpace(pickup.LocationName) == "" {
			return ErrMissingDeliveryInfo
		}
	default:
		return fmt.Errorf("%w: unknown delivery method %q", ErrInvalidInput, method)
	}

	return nil
}

// validatePaymentMethod validates a payment method
func validatePaymentMethod(method PaymentMethod) error {
	switch method {
	case PaymentCash, PaymentTransfer, PaymentPromptPay:
		return nil
	default:
		return fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, method)
	}
}

// validateContact validates the buyer contact details
func validateContact(name, phone string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("contact name is required")
	}

	if strings.TrimSpace(phone) == "" {
		return errors.New("contact phone is required")
	}

	// Limits match the orders table columns
	if len(name) > 100 {
		return errors.New("contact name must be at most 100 characters")
	}

	if len(phone) > 20 {
		return errors.New("contact phone must be at most 20 characters")
	}

	return nil
}

// GenerateOrderNumber generates a unique order number
// Format: ORD-YYYYMMDD-XXXXXX (e.g., ORD-20260101-123456)
func GenerateOrderNumber() string {
	now := time.Now()
	dateStr := now.Format("20060102")

	max := big.NewInt(1000000)
	randomNum, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Fallback to timestamp-based generation if crypto/rand fails
		return fmt.Sprintf("ORD-%s-%06d", dateStr, now.UnixNano()%1000000)
	}

	return fmt.Sprintf("ORD-%s-%06d", dateStr, randomNum.Int64())
}

// IsTerminal returns true if the order is in a terminal status
func (o *Order) IsTerminal() bool {
	switch o.Status {
	case OrderCompleted, OrderRejected, OrderCancelled:
		return true
	}
	return false
}

// CanBeConfirmed returns true if the seller can still confirm the order
func (o *Order) CanBeConfirmed() bool {
	return o.Status == OrderPendingSellerConfirmation
}

// CanBeRejected returns true if the seller can still reject the order
func (o *Order) CanBeRejected() bool {
	return o.Status == OrderPendingSellerConfirmation
}

// CanBeCancelled returns true if the buyer can still withdraw the order
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderPendingSellerConfirmation
}

// RequiresPayment returns true if the order has a payment flow at all
func (o *Order) RequiresPayment() bool {
	return o.PaymentStatus != PaymentNotRequired
}

// IsPaid returns true if payment has been confirmed
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentPaid
}

// IsFulfilled returns true when both parties have attested fulfillment.
// This is the AND-join evaluated after every flag update; neither party can
// complete an order alone.
func (o *Order) IsFulfilled() bool {
	return o.BuyerReceived && o.SellerDelivered
}

// IsParty returns true if the given user is the order's buyer or seller
func (o *Order) IsParty(userID int) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

// TotalAmountInCurrency returns the total amount in baht as a float
func (o *Order) TotalAmountInCurrency() float64 {
	return float64(o.TotalAmount) / 100.0
}

// GetStatusDisplayName returns a human-readable status name
func (o *Order) GetStatusDisplayName() string {
	switch o.Status {
	case OrderPendingSellerConfirmation:
		return "Waiting for Seller"
	case OrderConfirmed:
		return "Confirmed"
	case OrderCompleted:
		return "Completed"
	case OrderRejected:
		return "Rejected"
	case OrderCancelled:
		return "Cancelled"
	default:
		return string(o.Status)
	}
}
