package models

import "time"

// Cart represents a buyer's shopping cart. There is at most one cart per
// buyer; it is created lazily on first read and cleared (not deleted) after a
// successful checkout.
type Cart struct {
	BuyerID   int        `json:"buyer_id" db:"buyer_id"`
	Items     []CartItem `json:"items"`
	Version   int        `json:"version" db:"version"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// CartItem represents one item/quantity pair in a cart. Quantity is always
// at least 1; removing an item removes the row.
type CartItem struct {
	ItemID   int       `json:"item_id" db:"item_id"`
	Quantity int       `json:"quantity" db:"quantity"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`
}

// IsEmpty returns true if the cart has no items
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// ItemQuantity returns the quantity of the given item, or 0 if not in the cart
func (c *Cart) ItemQuantity(itemID int) int {
	for _, item := range c.Items {
		if item.ItemID == itemID {
			return item.Quantity
		}
	}
	return 0
}

// IsExpired returns true if the cart has been inactive longer than the window
func (c *Cart) IsExpired(window time.Duration) bool {
	return time.Since(c.UpdatedAt) > window
}
