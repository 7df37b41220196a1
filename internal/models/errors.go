package models

import "errors"

// Common errors used throughout the application
var (
	// Checkout validation errors
	ErrEmptyCart            = errors.New("cart is empty")
	ErrMissingDeliveryInfo  = errors.New("missing delivery information")
	ErrSelfPurchase         = errors.New("cannot purchase your own item")
	ErrInvalidPickupDetails = errors.New("invalid pickup details")
	ErrNoValidItems         = errors.New("no valid items in cart")

	// Lookup and authorization errors
	ErrOrderNotFound = errors.New("order not found")
	ErrItemNotFound  = errors.New("item not found")
	ErrAccessDenied  = errors.New("access denied")

	// State-conflict errors
	ErrInvalidState        = errors.New("invalid order state for this action")
	ErrMissingReason       = errors.New("rejection reason is required")
	ErrInvalidPaymentState = errors.New("invalid payment state for this action")
	ErrNotConfirmed        = errors.New("order is not confirmed")
	ErrAlreadyConfirmed    = errors.New("fulfillment already confirmed")
	ErrNotPickup           = errors.New("order is not a pickup order")
	ErrCartConflict        = errors.New("cart was modified concurrently")

	// Payment gateway errors
	ErrReferenceMismatch   = errors.New("payment reference does not match")
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")

	ErrInvalidInput = errors.New("invalid input")
)
