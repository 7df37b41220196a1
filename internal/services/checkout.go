package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"campus-marketplace/internal/models"
)

// CheckoutService turns a buyer's cart into one order per seller. Stale cart
// lines are pruned as a side effect; hard validation failures abort the
// whole checkout with nothing created.
type CheckoutService struct {
	cartRepo  CartRepository
	orderRepo OrderRepository
	items     ItemDirectory
	notifier  NotificationSink
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	cartRepo CartRepository,
	orderRepo OrderRepository,
	items ItemDirectory,
	notifier NotificationSink,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
		items:     items,
		notifier:  notifier,
	}
}

// PrunedLine reports one cart line removed during checkout validation
type PrunedLine struct {
	ItemID int    `json:"item_id"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

// CheckoutResult is the outcome of a checkout: the created orders plus the
// reasons for any lines that were pruned along the way
type CheckoutResult struct {
	Orders []*models.Order `json:"orders"`
	Pruned []PrunedLine    `json:"pruned,omitempty"`
}

// Checkout validates the buyer's cart, partitions it by seller and creates
// one order per seller. On models.ErrNoValidItems the returned result still
// carries the pruned reasons: the cart has been cleaned up even though no
// order was created.
func (s *CheckoutService) Checkout(buyerID int, req *models.CheckoutRequest) (*CheckoutResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	pickup, err := req.ParsePickup()
	if err != nil {
		return nil, err
	}

	cart, err := s.cartRepo.Get(buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if cart.IsEmpty() {
		return nil, models.ErrEmptyCart
	}

	itemIDs := make([]int, 0, len(cart.Items))
	for _, line := range cart.Items {
		itemIDs = append(itemIDs, line.ItemID)
	}

	// One query for every line, so all lines see the same catalog snapshot
	records, err := s.items.LookupAll(itemIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cart items: %w", err)
	}

	// Buying your own item aborts the whole checkout, cart untouched
	for _, line := range cart.Items {
		if rec, ok := records[line.ItemID]; ok && rec.SellerID == buyerID {
			return nil, models.ErrSelfPurchase
		}
	}

	var valid []models.CartItem
	var pruned []PrunedLine
	for _, line := range cart.Items {
		rec, ok := records[line.ItemID]
		switch {
		case !ok:
			pruned = append(pruned, PrunedLine{ItemID: line.ItemID, Reason: "item no longer exists"})
		case rec.ApprovalStatus != models.ItemApproved:
			pruned = append(pruned, PrunedLine{ItemID: line.ItemID, Title: rec.Title, Reason: "not approved"})
		case rec.AvailabilityStatus != models.ItemAvailable:
			pruned = append(pruned, PrunedLine{ItemID: line.ItemID, Title: rec.Title, Reason: "not available"})
		default:
			valid = append(valid, line)
		}
	}

	// Prune invalid lines now so a retry does not trip over the same stale
	// entries. This version-gated write is also the serialization point: a
	// concurrent checkout for the same buyer loses here, before any order
	// exists.
	prunedCart, err := s.cartRepo.ReplaceItems(buyerID, cart.Version, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to prune cart: %w", err)
	}

	if len(valid) == 0 {
		return &CheckoutResult{Pruned: pruned}, models.ErrNoValidItems
	}

	// Partition remaining lines by seller
	bySeller := make(map[int][]models.CartItem)
	for _, line := range valid {
		sellerID := records[line.ItemID].SellerID
		bySeller[sellerID] = append(bySeller[sellerID], line)
	}

	sellerIDs := make([]int, 0, len(bySeller))
	for sellerID := range bySeller {
		sellerIDs = append(sellerIDs, sellerID)
	}
	sort.Ints(sellerIDs)

	result := &CheckoutResult{Pruned: pruned}
	for _, sellerID := range sellerIDs {
		lines := bySeller[sellerID]

		items := make([]models.OrderLineItem, 0, len(lines))
		total := 0
		for _, line := range lines {
			rec := records[line.ItemID]
			items = append(items, models.OrderLineItem{
				ItemID:    rec.ID,
				Title:     rec.Title,
				UnitPrice: rec.Price,
				Quantity:  line.Quantity,
				ImageURL:  rec.ImageURL,
			})
			total += rec.Price * line.Quantity
		}

		order, err := s.orderRepo.Create(&models.OrderCreateRequest{
			BuyerID:         buyerID,
			SellerID:        sellerID,
			Items:           items,
			TotalAmount:     total,
			PaymentMethod:   req.PaymentMethod,
			DeliveryMethod:  req.DeliveryMethod,
			ShippingAddress: req.ShippingAddress,
			Pickup:          pickup,
			ContactName:     req.ContactName,
			ContactPhone:    req.ContactPhone,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create order for seller %d: %w", sellerID, err)
		}

		result.Orders = append(result.Orders, order)

		s.notify(order.SellerID, "order_received", "New order received",
			fmt.Sprintf("You have a new order %s with %d item(s).", order.OrderNumber, len(order.Items)),
			fmt.Sprintf("/orders/%d", order.ID))
	}

	// By now only valid, consumed lines remain in the cart. Orders exist
	// either way, so a failed clear still reports them to the caller.
	if err := s.cartRepo.Clear(buyerID, prunedCart.Version); err != nil {
		return result, fmt.Errorf("failed to clear cart after checkout: %w", err)
	}

	return result, nil
}

// notify dispatches a best-effort notification; failures are logged, never
// propagated to the checkout outcome
func (s *CheckoutService) notify(userID int, kind, title, message, link string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.notifier.Send(ctx, userID, kind, title, message, link); err != nil {
		log.Printf("Warning: failed to send %s notification to user %d: %v", kind, userID, err)
	}
}
