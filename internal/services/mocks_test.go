package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campus-marketplace/internal/models"
	"campus-marketplace/internal/repositories"
)

// memCartRepo is an in-memory CartRepository with the same version-gate
// semantics as the Postgres implementation
type memCartRepo struct {
	carts map[int]*models.Cart
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: make(map[int]*models.Cart)}
}

func (m *memCartRepo) Get(buyerID int) (*models.Cart, error) {
	if cart, ok := m.carts[buyerID]; ok {
		return cart, nil
	}
	cart := &models.Cart{BuyerID: buyerID, Version: 1, UpdatedAt: time.Now()}
	m.carts[buyerID] = cart
	return cart, nil
}

func (m *memCartRepo) ReplaceItems(buyerID, version int, items []models.CartItem) (*models.Cart, error) {
	cart, ok := m.carts[buyerID]
	if !ok || cart.Version != version {
		return nil, models.ErrCartConflict
	}
	cart.Version++
	cart.Items = items
	cart.UpdatedAt = time.Now()
	return cart, nil
}

func (m *memCartRepo) Clear(buyerID, version int) error {
	_, err := m.ReplaceItems(buyerID, version, nil)
	return err
}

func (m *memCartRepo) DeleteExpired(window time.Duration) (int, error) {
	count := 0
	for buyerID, cart := range m.carts {
		if cart.IsExpired(window) {
			delete(m.carts, buyerID)
			count++
		}
	}
	return count, nil
}

// memOrderRepo is an in-memory OrderRepository mirroring the conditional
// transition semantics of the Postgres implementation
type memOrderRepo struct {
	orders map[int]*models.Order
	nextID int
}

func newMemOrderRepo() *memOrderRepo {
	return &memOrderRepo{orders: make(map[int]*models.Order), nextID: 1}
}

func (m *memOrderRepo) Create(req *models.OrderCreateRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	order := &models.Order{
		ID:              m.nextID,
		OrderNumber:     models.GenerateOrderNumber(),
		BuyerID:         req.BuyerID,
		SellerID:        req.SellerID,
		TotalAmount:     req.TotalAmount,
		Status:          models.OrderPendingSellerConfirmation,
		PaymentStatus:   req.InitialPaymentStatus(),
		PaymentMethod:   req.PaymentMethod,
		DeliveryMethod:  req.DeliveryMethod,
		ShippingAddress: req.ShippingAddress,
		Pickup:          req.Pickup,
		ContactName:     req.ContactName,
		ContactPhone:    req.ContactPhone,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	for i, item := range req.Items {
		item.ID = i + 1
		item.OrderID = order.ID
		order.Items = append(order.Items, item)
	}

	m.orders[order.ID] = order
	m.nextID++
	return order, nil
}

func (m *memOrderRepo) GetByID(id int) (*models.Order, error) {
	if order, ok := m.orders[id]; ok {
		return order, nil
	}
	return nil, models.ErrOrderNotFound
}

func (m *memOrderRepo) Search(filters repositories.OrderSearchFilters) ([]*models.Order, int, error) {
	var result []*models.Order
	for _, order := range m.orders {
		if filters.BuyerID > 0 && order.BuyerID != filters.BuyerID {
			continue
		}
		if filters.SellerID > 0 && order.SellerID != filters.SellerID {
			continue
		}
		if filters.Status != "" && order.Status != filters.Status {
			continue
		}
		result = append(result, order)
	}
	return result, len(result), nil
}

func (m *memOrderRepo) ConfirmPending(id int) (*models.Order, error) {
	order, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPendingSellerConfirmation {
		return nil, models.ErrInvalidState
	}
	order.Status = models.OrderConfirmed
	return order, nil
}

func (m *memOrderRepo) RejectPending(id int, reason string) (*models.Order, error) {
	order, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPendingSellerConfirmation {
		return nil, models.ErrInvalidState
	}
	order.Status = models.OrderRejected
	order.RejectReason = reason
	return order, nil
}

func (m *memOrderRepo) CancelPending(id int) (*models.Order, error) {
	order, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPendingSellerConfirmation {
		return nil, models.ErrInvalidState
	}
	order.Status = models.OrderCancelled
	return order, nil
}

func (m *memOrderRepo) SetPaymentIntent(id int, reference string) (*models.Order, error) {
	order, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderConfirmed {
		return nil, models.ErrNotConfirmed
	}
	if order.PaymentStatus != models.PaymentPending {
		return nil, models.ErrInvalidPaymentState
	}
	order.PaymentRef = reference
	order.PaymentStatus = models.PaymentAwaiting
	return order, nil
}

func (m *memOrderRepo) MarkPaymentSubmitted(id int) (*models.Order, error) {
	order, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderConfirmed {
		return nil, models.ErrNotConfirmed
	}
	if order.PaymentStatus != models.PaymentPending && order.PaymentStatus != models.PaymentAwaiting {
		return nil, models.ErrInvalidPaymentState
	}
	order.PaymentStatus = models.PaymentSubmitted
	return order, nil
}

func (m *memOrderRepo) MarkPaid(id int) (*models.Order, error) {
	order, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	switch order.PaymentStatus {
	case models.PaymentPending, models.PaymentAwaiting, models.PaymentSubmitted:
		order.PaymentStatus = models.PaymentPaid
		return order, nil
	}
	return nil, models.ErrInvalidPaymentState
}

func (m *memOrderRepo) MarkBuyerReceived(id int) (*models.Order, error) {
	return m.setFlag(id, true)
}

func (m *memOrderRepo) MarkSellerDelivered(id int) (*models.Order, error) {
	return m.setFlag(id, false)
}

func (m *memOrderRepo) setFlag(id int, buyer bool) (*models.Order, error) {
	order, err := m.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderConfirmed {
		return nil, models.ErrInvalidState
	}
	if buyer {
		if order.BuyerReceived {
			return nil, models.ErrAlreadyConfirmed
		}
		order.BuyerReceived = true
	} else {
		if order.SellerDelivered {
			return nil, models.ErrAlreadyConfirmed
		}
		order.SellerDelivered = true
	}
	if order.IsFulfilled() {
		order.Status = models.OrderCompleted
	}
	return order, nil
}

// stubDirectory serves a fixed set of item records
type stubDirectory struct {
	items map[int]*models.ItemRecord
}

func newStubDirectory(items ...*models.ItemRecord) *stubDirectory {
	d := &stubDirectory{items: make(map[int]*models.ItemRecord)}
	for _, item := range items {
		d.items[item.ID] = item
	}
	return d
}

func (d *stubDirectory) Lookup(itemID int) (*models.ItemRecord, error) {
	if item, ok := d.items[itemID]; ok {
		return item, nil
	}
	return nil, models.ErrItemNotFound
}

func (d *stubDirectory) LookupAll(itemIDs []int) (map[int]*models.ItemRecord, error) {
	records := make(map[int]*models.ItemRecord)
	for _, id := range itemIDs {
		if item, ok := d.items[id]; ok {
			records[id] = item
		}
	}
	return records, nil
}

// sentNotification records one Send call
type sentNotification struct {
	UserID  int
	Kind    string
	Title   string
	Message string
	Link    string
}

// recordNotifier records notifications and can be told to fail
type recordNotifier struct {
	sent []sentNotification
	fail bool
}

func (n *recordNotifier) Send(ctx context.Context, userID int, kind, title, message, link string) error {
	if n.fail {
		return errors.New("broker unavailable")
	}
	n.sent = append(n.sent, sentNotification{UserID: userID, Kind: kind, Title: title, Message: message, Link: link})
	return nil
}

func (n *recordNotifier) sentTo(userID int, kind string) bool {
	for _, s := range n.sent {
		if s.UserID == userID && s.Kind == kind {
			return true
		}
	}
	return false
}

// stubGateway returns scripted charge responses
type stubGateway struct {
	createErr    error
	verifyStatus string
	verifyErr    error
	lastCharge   *ChargeRequest
}

func (g *stubGateway) CreateCharge(req *ChargeRequest) (*ChargeResponse, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.lastCharge = req
	return &ChargeResponse{Reference: req.Reference, QRCodeURL: "https://qr.example.com/" + req.Reference}, nil
}

func (g *stubGateway) VerifyCharge(reference string) (*ChargeVerification, error) {
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	status := g.verifyStatus
	if status == "" {
		status = ChargeSucceeded
	}
	return &ChargeVerification{Reference: reference, Status: status}, nil
}
