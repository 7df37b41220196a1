package services

import (
	"fmt"
	"log"
	"time"

	"campus-marketplace/internal/models"
)

// CartService manages the buyer's cart between visits. Every mutation is a
// read-mutate-write over the version-gated cart aggregate.
type CartService struct {
	cartRepo CartRepository
	items    ItemDirectory
}

// NewCartService creates a new cart service
func NewCartService(cartRepo CartRepository, items ItemDirectory) *CartService {
	return &CartService{
		cartRepo: cartRepo,
		items:    items,
	}
}

// GetCart retrieves the buyer's cart, creating it on first read
func (s *CartService) GetCart(buyerID int) (*models.Cart, error) {
	return s.cartRepo.Get(buyerID)
}

// AddItem adds an item to the cart, or raises its quantity if already there
func (s *CartService) AddItem(buyerID int, req *models.CartItemRequest) (*models.Cart, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1", models.ErrInvalidInput)
	}

	item, err := s.items.Lookup(req.ItemID)
	if err != nil {
		return nil, err
	}

	if item.SellerID == buyerID {
		return nil, models.ErrSelfPurchase
	}

	if !item.IsPurchasable() {
		return nil, fmt.Errorf("%w: item is not available", models.ErrInvalidInput)
	}

	cart, err := s.cartRepo.Get(buyerID)
	if err != nil {
		return nil, err
	}

	found := false
	items := make([]models.CartItem, 0, len(cart.Items)+1)
	for _, line := range cart.Items {
		if line.ItemID == req.ItemID {
			line.Quantity += req.Quantity
			found = true
		}
		items = append(items, line)
	}
	if !found {
		items = append(items, models.CartItem{ItemID: req.ItemID, Quantity: req.Quantity, AddedAt: time.Now()})
	}

	return s.cartRepo.ReplaceItems(buyerID, cart.Version, items)
}

// UpdateItem sets an item's quantity; zero removes it
func (s *CartService) UpdateItem(buyerID, itemID, quantity int) (*models.Cart, error) {
	if quantity < 0 {
		return nil, fmt.Errorf("%w: quantity cannot be negative", models.ErrInvalidInput)
	}

	cart, err := s.cartRepo.Get(buyerID)
	if err != nil {
		return nil, err
	}

	if cart.ItemQuantity(itemID) == 0 {
		return nil, models.ErrItemNotFound
	}

	items := make([]models.CartItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		if line.ItemID == itemID {
			if quantity == 0 {
				continue
			}
			line.Quantity = quantity
		}
		items = append(items, line)
	}

	return s.cartRepo.ReplaceItems(buyerID, cart.Version, items)
}

// RemoveItem removes an item from the cart
func (s *CartService) RemoveItem(buyerID, itemID int) (*models.Cart, error) {
	return s.UpdateItem(buyerID, itemID, 0)
}

// Sync replaces the cart with the client's view, dropping lines whose items
// no longer exist or are no longer purchasable. Used to reconcile a locally
// kept cart after login.
func (s *CartService) Sync(buyerID int, req *models.CartSyncRequest) (*models.Cart, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.Get(buyerID)
	if err != nil {
		return nil, err
	}

	itemIDs := make([]int, 0, len(req.Items))
	for _, line := range req.Items {
		itemIDs = append(itemIDs, line.ItemID)
	}

	records, err := s.items.LookupAll(itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve sync items: %w", err)
	}

	now := time.Now()
	items := make([]models.CartItem, 0, len(req.Items))
	for _, line := range req.Items {
		rec, ok := records[line.ItemID]
		if !ok || !rec.IsPurchasable() || rec.SellerID == buyerID {
			continue
		}
		addedAt := now
		for _, existing := range cart.Items {
			if existing.ItemID == line.ItemID {
				addedAt = existing.AddedAt
				break
			}
		}
		items = append(items, models.CartItem{ItemID: line.ItemID, Quantity: line.Quantity, AddedAt: addedAt})
	}

	return s.cartRepo.ReplaceItems(buyerID, cart.Version, items)
}

// CleanupExpiredCarts removes carts idle past the window. Meant to run
// periodically from the server loop.
func (s *CartService) CleanupExpiredCarts(window time.Duration) {
	count, err := s.cartRepo.DeleteExpired(window)
	if err != nil {
		log.Printf("Warning: failed to clean up expired carts: %v", err)
		return
	}
	if count > 0 {
		log.Printf("Removed %d expired cart(s)", count)
	}
}
