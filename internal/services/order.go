package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"campus-marketplace/internal/models"
	"campus-marketplace/internal/repositories"
)

// OrderService owns the order lifecycle: seller confirmation and rejection,
// buyer cancellation, and the dual-confirmation completion flow.
type OrderService struct {
	orderRepo OrderRepository
	notifier  NotificationSink
}

// NewOrderService creates a new order service
func NewOrderService(orderRepo OrderRepository, notifier NotificationSink) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		notifier:  notifier,
	}
}

// GetOrder retrieves an order; the requester must be its buyer or seller
func (s *OrderService) GetOrder(orderID, requesterID int) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if !order.IsParty(requesterID) {
		return nil, models.ErrAccessDenied
	}

	return order, nil
}

// ListBuyerOrders retrieves a buyer's orders, newest first, optionally
// filtered by status
func (s *OrderService) ListBuyerOrders(buyerID int, status models.OrderStatus, limit, offset int) ([]*models.Order, int, error) {
	return s.orderRepo.Search(repositories.OrderSearchFilters{
		BuyerID: buyerID,
		Status:  status,
		Limit:   limit,
		Offset:  offset,
	})
}

// ListSellerOrders retrieves a seller's incoming orders
func (s *OrderService) ListSellerOrders(sellerID int, status models.OrderStatus, limit, offset int) ([]*models.Order, int, error) {
	return s.orderRepo.Search(repositories.OrderSearchFilters{
		SellerID: sellerID,
		Status:   status,
		Limit:    limit,
		Offset:   offset,
	})
}

// ConfirmOrder lets the seller accept a pending order
func (s *OrderService) ConfirmOrder(orderID, sellerID int) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.SellerID != sellerID {
		return nil, models.ErrAccessDenied
	}

	confirmed, err := s.orderRepo.ConfirmPending(orderID)
	if err != nil {
		return nil, err
	}

	s.notify(confirmed.BuyerID, "order_confirmed", "Order confirmed",
		fmt.Sprintf("Your order %s was confirmed by the seller.", confirmed.OrderNumber),
		fmt.Sprintf("/orders/%d", confirmed.ID))

	return confirmed, nil
}

// RejectOrder lets the seller decline a pending order with a reason
func (s *OrderService) RejectOrder(orderID, sellerID int, reason string) (*models.Order, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.ErrMissingReason
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.SellerID != sellerID {
		return nil, models.ErrAccessDenied
	}

	rejected, err := s.orderRepo.RejectPending(orderID, reason)
	if err != nil {
		return nil, err
	}

	s.notify(rejected.BuyerID, "order_rejected", "Order rejected",
		fmt.Sprintf("Your order %s was rejected: %s", rejected.OrderNumber, reason),
		fmt.Sprintf("/orders/%d", rejected.ID))

	return rejected, nil
}

// CancelOrder lets the buyer withdraw an order the seller has not yet
// confirmed
func (s *OrderService) CancelOrder(orderID, buyerID int) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.BuyerID != buyerID {
		return nil, models.ErrAccessDenied
	}

	cancelled, err := s.orderRepo.CancelPending(orderID)
	if err != nil {
		return nil, err
	}

	s.notify(cancelled.SellerID, "order_cancelled", "Order cancelled",
		fmt.Sprintf("Order %s was cancelled by the buyer.", cancelled.OrderNumber),
		fmt.Sprintf("/orders/%d", cancelled.ID))

	return cancelled, nil
}

// MarkReceived records the buyer's one-shot receipt confirmation. Only
// pickup orders complete through the in-app flow; the order reaches
// completed exactly when the seller's flag is also set.
func (s *OrderService) MarkReceived(orderID, buyerID int) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.BuyerID != buyerID {
		return nil, models.ErrAccessDenied
	}

	if order.DeliveryMethod != models.DeliveryPickup {
		return nil, models.ErrNotPickup
	}

	updated, err := s.orderRepo.MarkBuyerReceived(orderID)
	if err != nil {
		return nil, err
	}

	s.notifyIfCompleted(updated)

	return updated, nil
}

// MarkDelivered records the seller's one-shot delivery confirmation
func (s *OrderService) MarkDelivered(orderID, sellerID int) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	if order.SellerID != sellerID {
		return nil, models.ErrAccessDenied
	}

	updated, err := s.orderRepo.MarkSellerDelivered(orderID)
	if err != nil {
		return nil, err
	}

	s.notifyIfCompleted(updated)

	return updated, nil
}

// notifyIfCompleted tells both parties when the AND-join just promoted the
// order to completed
func (s *OrderService) notifyIfCompleted(order *models.Order) {
	if order.Status != models.OrderCompleted {
		return
	}

	message := fmt.Sprintf("Order %s is complete. Both sides confirmed fulfillment.", order.OrderNumber)
	link := fmt.Sprintf("/orders/%d", order.ID)
	s.notify(order.BuyerID, "order_completed", "Order completed", message, link)
	s.notify(order.SellerID, "order_completed", "Order completed", message, link)
}

// notify dispatches a best-effort notification; failures are logged, never
// propagated
func (s *OrderService) notify(userID int, kind, title, message, link string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.notifier.Send(ctx, userID, kind, title, message, link); err != nil {
		log.Printf("Warning: failed to send %s notification to user %d: %v", kind, userID, err)
	}
}
