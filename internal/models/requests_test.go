package models

import (
	"errors"
	"testing"
	"time"
)

func validCheckoutRequest() *CheckoutRequest {
	return &CheckoutRequest{
		DeliveryMethod: DeliveryPickup,
		PaymentMethod:  PaymentPromptPay,
		ContactName:    "Mali T.",
		ContactPhone:   "0898765432",
		Pickup: &PickupDetailsRequest{
			LocationName: "Student Union, 2nd floor",
		},
	}
}

func TestCheckoutRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *CheckoutRequest)
		wantErr error
	}{
		{
			name:   "valid pickup request",
			mutate: func(req *CheckoutRequest) {},
		},
		{
			name: "valid delivery request",
			mutate: func(req *CheckoutRequest) {
				req.DeliveryMethod = DeliveryShipping
				req.ShippingAddress = "14 Soi 5, Bangkok"
				req.Pickup = nil
			},
		},
		{
			name: "delivery without shipping address",
			mutate: func(req *CheckoutRequest) {
				req.DeliveryMethod = DeliveryShipping
				req.Pickup = nil
			},
			wantErr: ErrMissingDeliveryInfo,
		},
		{
			name: "pickup without details",
			mutate: func(req *CheckoutRequest) {
				req.Pickup = nil
			},
			wantErr: ErrMissingDeliveryInfo,
		},
		{
			name: "pickup with blank location name",
			mutate: func(req *CheckoutRequest) {
				req.Pickup.LocationName = "  "
			},
			wantErr: ErrMissingDeliveryInfo,
		},
		{
			name: "unknown delivery method",
			mutate: func(req *CheckoutRequest) {
				req.DeliveryMethod = "teleport"
			},
			wantErr: ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCheckoutRequest()
			tt.mutate(req)
			err := req.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCheckoutRequest_ParsePickup(t *testing.T) {
	t.Run("no pickup for delivery orders", func(t *testing.T) {
		req := validCheckoutRequest()
		req.DeliveryMethod = DeliveryShipping
		req.ShippingAddress = "somewhere"

		details, err := req.ParsePickup()
		if err != nil || details != nil {
			t.Errorf("ParsePickup() = (%v, %v), want (nil, nil)", details, err)
		}
	})

	t.Run("coordinates and preferred time parse", func(t *testing.T) {
		req := validCheckoutRequest()
		req.Pickup.Latitude = "13.7367"
		req.Pickup.Longitude = "100.5231"
		req.Pickup.PreferredTime = "2026-09-05T15:00:00+07:00"

		details, err := req.ParsePickup()
		if err != nil {
			t.Fatalf("ParsePickup() unexpected error: %v", err)
		}
		if details.Latitude == nil || *details.Latitude != 13.7367 {
			t.Errorf("latitude = %v, want 13.7367", details.Latitude)
		}
		if details.Longitude == nil || *details.Longitude != 100.5231 {
			t.Errorf("longitude = %v, want 100.5231", details.Longitude)
		}
		want := time.Date(2026, 9, 5, 15, 0, 0, 0, time.FixedZone("", 7*3600))
		if details.PreferredTime == nil || !details.PreferredTime.Equal(want) {
			t.Errorf("preferred time = %v, want %v", details.PreferredTime, want)
		}
	})

	t.Run("malformed latitude", func(t *testing.T) {
		req := validCheckoutRequest()
		req.Pickup.Latitude = "north-ish"
		req.Pickup.Longitude = "100.5"

		if _, err := req.ParsePickup(); !errors.Is(err, ErrInvalidPickupDetails) {
			t.Errorf("ParsePickup() error = %v, want ErrInvalidPickupDetails", err)
		}
	})

	t.Run("latitude without longitude", func(t *testing.T) {
		req := validCheckoutRequest()
		req.Pickup.Latitude = "13.7"

		if _, err := req.ParsePickup(); !errors.Is(err, ErrInvalidPickupDetails) {
			t.Errorf("ParsePickup() error = %v, want ErrInvalidPickupDetails", err)
		}
	})

	t.Run("coordinates out of range", func(t *testing.T) {
		req := validCheckoutRequest()
		req.Pickup.Latitude = "91.0"
		req.Pickup.Longitude = "10.0"

		if _, err := req.ParsePickup(); !errors.Is(err, ErrInvalidPickupDetails) {
			t.Errorf("ParsePickup() error = %v, want ErrInvalidPickupDetails", err)
		}
	})

	t.Run("malformed preferred time", func(t *testing.T) {
		req := validCheckoutRequest()
		req.Pickup.PreferredTime = "tomorrow afternoon"

		if _, err := req.ParsePickup(); !errors.Is(err, ErrInvalidPickupDetails) {
			t.Errorf("ParsePickup() error = %v, want ErrInvalidPickupDetails", err)
		}
	})
}

func TestCartItemRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CartItemRequest
		wantErr bool
	}{
		{"valid", CartItemRequest{ItemID: 1, Quantity: 2}, false},
		{"zero quantity allowed for updates", CartItemRequest{ItemID: 1, Quantity: 0}, false},
		{"missing item id", CartItemRequest{Quantity: 1}, true},
		{"negative quantity", CartItemRequest{ItemID: 1, Quantity: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCartSyncRequest_Validate(t *testing.T) {
	t.Run("duplicate items rejected", func(t *testing.T) {
		req := CartSyncRequest{Items: []CartItemRequest{
			{ItemID: 1, Quantity: 1},
			{ItemID: 1, Quantity: 2},
		}}
		if err := req.Validate(); err == nil {
			t.Error("expected error for duplicate items")
		}
	})

	t.Run("zero quantity rejected in sync", func(t *testing.T) {
		req := CartSyncRequest{Items: []CartItemRequest{{ItemID: 1, Quantity: 0}}}
		if err := req.Validate(); err == nil {
			t.Error("expected error for zero quantity")
		}
	})

	t.Run("empty sync is valid", func(t *testing.T) {
		req := CartSyncRequest{}
		if err := req.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}
