package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CheckoutRequest represents the data submitted to start a checkout
type CheckoutRequest struct {
	DeliveryMethod  DeliveryMethod        `json:"delivery_method"`
	PaymentMethod   PaymentMethod         `json:"payment_method"`
	ContactName     string                `json:"contact_name"`
	ContactPhone    string                `json:"contact_phone"`
	ShippingAddress string                `json:"shipping_address,omitempty"`
	Pickup          *PickupDetailsRequest `json:"pickup,omitempty"`
}

// PickupDetailsRequest carries pickup details as submitted by the client.
// Coordinates and preferred time arrive as strings and must parse.
type PickupDetailsRequest struct {
	LocationName  string `json:"location_name"`
	Address       string `json:"address,omitempty"`
	Note          string `json:"note,omitempty"`
	Latitude      string `json:"latitude,omitempty"`
	Longitude     string `json:"longitude,omitempty"`
	PreferredTime string `json:"preferred_time,omitempty"`
}

// Validate checks the checkout preconditions that do not require item lookups
func (req *CheckoutRequest) Validate() error {
	switch req.DeliveryMethod {
	case DeliveryShipping:
		if strings.TrimSpace(req.ShippingAddress) == "" {
			return ErrMissingDeliveryInfo
		}
	case DeliveryPickup:
		if req.Pickup == nil || strings.TrimSpace(req.Pickup.LocationName) == "" {
			return ErrMissingDeliveryInfo
		}
	default:
		return fmt.Errorf("%w: unknown delivery method %q", ErrInvalidInput, req.DeliveryMethod)
	}

	if err := validatePaymentMethod(req.PaymentMethod); err != nil {
		return err
	}

	return validateContact(req.ContactName, req.ContactPhone)
}

// ParsePickup parses the optional pickup details. Returns nil when the
// checkout is not a pickup. Malformed coordinates or preferred time fail
// with ErrInvalidPickupDetails.
func (req *CheckoutRequest) ParsePickup() (*PickupDetails, error) {
	if req.DeliveryMethod != DeliveryPickup || req.Pickup == nil {
		return nil, nil
	}

	details := &PickupDetails{
		LocationName: strings.TrimSpace(req.Pickup.LocationName),
		Address:      strings.TrimSpace(req.Pickup.Address),
		Note:         strings.TrimSpace(req.Pickup.Note),
	}

	// Coordinates come as a pair or not at all
	if req.Pickup.Latitude != "" || req.Pickup.Longitude != "" {
		lat, err := strconv.ParseFloat(req.Pickup.Latitude, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: latitude %q", ErrInvalidPickupDetails, req.Pickup.Latitude)
		}
		lng, err := strconv.ParseFloat(req.Pickup.Longitude, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: longitude %q", ErrInvalidPickupDetails, req.Pickup.Longitude)
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			return nil, fmt.Errorf("%w: coordinates out of range", ErrInvalidPickupDetails)
		}
		details.Latitude = &lat
		details.Longitude = &lng
	}

	if req.Pickup.PreferredTime != "" {
		t, err := time.Parse(time.RFC3339, req.Pickup.PreferredTime)
		if err != nil {
			return nil, fmt.Errorf("%w: preferred time %q", ErrInvalidPickupDetails, req.Pickup.PreferredTime)
		}
		details.PreferredTime = &t
	}

	return details, nil
}

// CartItemRequest represents an add/update request for a single cart line
type CartItemRequest struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

// Validate validates a cart item request
func (req *CartItemRequest) Validate() error {
	if req.ItemID <= 0 {
		return fmt.Errorf("%w: item id is required", ErrInvalidInput)
	}
	if req.Quantity < 0 {
		return fmt.Errorf("%w: quantity cannot be negative", ErrInvalidInput)
	}
	return nil
}

// CartSyncRequest replaces the whole cart contents in one call
type CartSyncRequest struct {
	Items []CartItemRequest `json:"items"`
}

// Validate validates a cart sync request
func (req *CartSyncRequest) Validate() error {
	seen := make(map[int]bool, len(req.Items))
	for _, item := range req.Items {
		if err := item.Validate(); err != nil {
			return err
		}
		if item.Quantity == 0 {
			return fmt.Errorf("%w: sync items must have quantity of at least 1", ErrInvalidInput)
		}
		if seen[item.ItemID] {
			return fmt.Errorf("%w: duplicate item %d", ErrInvalidInput, item.ItemID)
		}
		seen[item.ItemID] = true
	}
	return nil
}

// RejectOrderRequest carries the seller's rejection reason
type RejectOrderRequest struct {
	Reason string `json:"reason"`
}
