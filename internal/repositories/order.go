package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"campus-marketplace/internal/models"
)

// OrderRepository handles order data operations. Every status, payment and
// confirmation transition is a single conditional UPDATE so that two
// concurrent writers cannot both succeed.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// OrderSearchFilters represents filters for order search
type OrderSearchFilters struct {
	BuyerID  int                // Filter by buyer
	SellerID int                // Filter by seller
	Status   models.OrderStatus // Filter by status
	Limit    int                // Number of results to return
	Offset   int                // Number of results to skip
}

const orderColumns = `id, order_number, buyer_id, seller_id, total_amount, status,
	payment_status, payment_method, payment_ref, delivery_method, shipping_address,
	pickup_location, pickup_address, pickup_note, pickup_latitude, pickup_longitude,
	pickup_preferred_time, contact_name, contact_phone, reject_reason,
	buyer_received, seller_delivered, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanOrder scans one order row in orderColumns order
func scanOrder(row rowScanner) (*models.Order, error) {
	order := &models.Order{}
	var (
		pickupLocation string
		pickupAddress  string
		pickupNote     string
		pickupLat      sql.NullFloat64
		pickupLng      sql.NullFloat64
		pickupTime     sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.BuyerID,
		&order.SellerID,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentStatus,
		&order.PaymentMethod,
		&order.PaymentRef,
		&order.DeliveryMethod,
		&order.ShippingAddress,
		&pickupLocation,
		&pickupAddress,
		&pickupNote,
		&pickupLat,
		&pickupLng,
		&pickupTime,
		&order.ContactName,
		&order.ContactPhone,
		&order.RejectReason,
		&order.BuyerReceived,
		&order.SellerDelivered,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if order.DeliveryMethod == models.DeliveryPickup {
		pickup := &models.PickupDetails{
			LocationName: pickupLocation,
			Address:      pickupAddress,
			Note:         pickupNote,
		}
		if pickupLat.Valid && pickupLng.Valid {
			lat, lng := pickupLat.Float64, pickupLng.Float64
			pickup.Latitude = &lat
			pickup.Longitude = &lng
		}
		if pickupTime.Valid {
			t := pickupTime.Time
			pickup.PreferredTime = &t
		}
		order.Pickup = pickup
	}

	return order, nil
}

// Create creates a new order together with its line-item snapshots. This is
// the only write path for line items and total amount.
func (r *OrderRepository) Create(req *models.OrderCreateRequest) (*models.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Ensure order number is unique (retry if collision)
	orderNumber := models.GenerateOrderNumber()
	for i := 0; i < 5; i++ {
		var exists bool
		err = tx.QueryRow("SELECT EXISTS(SELECT 1 FROM orders WHERE order_number = $1)", orderNumber).Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("failed to check order number uniqueness: %w", err)
		}
		if !exists {
			break
		}
		orderNumber = models.GenerateOrderNumber()
	}

	var (
		pickupLocation string
		pickupAddress  string
		pickupNote     string
		pickupLat      sql.NullFloat64
		pickupLng      sql.NullFloat64
		pickupTime     sql.NullTime
	)
	if req.Pickup != nil {
		pickupLocation = req.Pickup.LocationName
		pickupAddress = req.Pickup.Address
		pickupNote = req.Pickup.Note
		if req.Pickup.Latitude != nil && req.Pickup.Longitude != nil {
			pickupLat = sql.NullFloat64{Float64: *req.Pickup.Latitude, Valid: true}
			pickupLng = sql.NullFloat64{Float64: *req.Pickup.Longitude, Valid: true}
		}
		if req.Pickup.PreferredTime != nil {
			pickupTime = sql.NullTime{Time: *req.Pickup.PreferredTime, Valid: true}
		}
	}

	now := time.Now()
	query := fmt.Sprintf(`
		INSERT INTO orders (order_number, buyer_id, seller_id, total_amount, status,
			payment_status, payment_method, payment_ref, delivery_method, shipping_address,
			pickup_location, pickup_address, pickup_note, pickup_latitude, pickup_longitude,
			pickup_preferred_time, contact_name, contact_phone, reject_reason,
			buyer_received, seller_delivered, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '', $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, '', FALSE, FALSE, $18, $18)
		RETURNING %s`, orderColumns)

	row := tx.QueryRow(
		query,
		orderNumber,
		req.BuyerID,
		req.SellerID,
		req.TotalAmount,
		models.OrderPendingSellerConfirmation,
		req.InitialPaymentStatus(),
		req.PaymentMethod,
		req.DeliveryMethod,
		req.ShippingAddress,
		pickupLocation,
		pickupAddress,
		pickupNote,
		pickupLat,
		pickupLng,
		pickupTime,
		req.ContactName,
		req.ContactPhone,
		now,
	)

	order, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	for _, item := range req.Items {
		var lineID int
		err = tx.QueryRow(`
			INSERT INTO order_items (order_id, item_id, title, unit_price, quantity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			order.ID, item.ItemID, item.Title, item.UnitPrice, item.Quantity, item.ImageURL,
		).Scan(&lineID)
		if err != nil {
			return nil, fmt.Errorf("failed to create order line item: %w", err)
		}

		line := item
		line.ID = lineID
		line.OrderID = order.ID
		order.Items = append(order.Items, line)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order creation: %w", err)
	}

	return order, nil
}

// GetByID retrieves an order with its line items
func (r *OrderRepository) GetByID(id int) (*models.Order, error) {
	query := fmt.Sprintf("SELECT %s FROM orders WHERE id = $1", orderColumns)

	order, err := scanOrder(r.db.QueryRow(query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := r.loadItems([]int{order.ID})
	if err != nil {
		return nil, err
	}
	order.Items = items[order.ID]

	return order, nil
}

// loadItems loads line items for a set of orders in one query
func (r *OrderRepository) loadItems(orderIDs []int) (map[int][]models.OrderLineItem, error) {
	rows, err := r.db.Query(`
		SELECT id, order_id, item_id, title, unit_price, quantity, image_url
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY id`,
		pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to load order items: %w", err)
	}
	defer rows.Close()

	items := make(map[int][]models.OrderLineItem)
	for rows.Next() {
		var item models.OrderLineItem
		err := rows.Scan(&item.ID, &item.OrderID, &item.ItemID, &item.Title, &item.UnitPrice, &item.Quantity, &item.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// Search searches for orders with filters and pagination
func (r *OrderRepository) Search(filters OrderSearchFilters) ([]*models.Order, int, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if filters.BuyerID > 0 {
		conditions = append(conditions, fmt.Sprintf("buyer_id = $%d", argIndex))
		args = append(args, filters.BuyerID)
		argIndex++
	}

	if filters.SellerID > 0 {
		conditions = append(conditions, fmt.Sprintf("seller_id = $%d", argIndex))
		args = append(args, filters.SellerID)
		argIndex++
	}

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filters.Status)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	if filters.Limit <= 0 {
		filters.Limit = 20
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	if err := r.db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to get order count: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filters.Limit, filters.Offset)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search orders: %w", err)
	}
	defer rows.Close()

	var orders []*models.Order
	var orderIDs []int
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
		orderIDs = append(orderIDs, order.ID)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orderIDs) > 0 {
		items, err := r.loadItems(orderIDs)
		if err != nil {
			return nil, 0, err
		}
		for _, order := range orders {
			order.Items = items[order.ID]
		}
	}

	return orders, total, nil
}

// conditionalUpdate runs a single-statement transition and, when no row
// matched, re-reads the order to report the precise failure.
func (r *OrderRepository) conditionalUpdate(id int, query string, args []interface{}, diagnose func(*models.Order) error) (*models.Order, error) {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		order, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		return nil, diagnose(order)
	}

	return r.GetByID(id)
}

// ConfirmPending transitions pending_seller_confirmation -> confirmed
func (r *OrderRepository) ConfirmPending(id int) (*models.Order, error) {
	return r.conditionalUpdate(id,
		"UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4",
		[]interface{}{id, models.OrderConfirmed, time.Now(), models.OrderPendingSellerConfirmation},
		func(o *models.Order) error { return models.ErrInvalidState },
	)
}

// RejectPending transitions pending_seller_confirmation -> rejected with a reason
func (r *OrderRepository) RejectPending(id int, reason string) (*models.Order, error) {
	return r.conditionalUpdate(id,
		"UPDATE orders SET status = $2, reject_reason = $3, updated_at = $4 WHERE id = $1 AND status = $5",
		[]interface{}{id, models.OrderRejected, reason, time.Now(), models.OrderPendingSellerConfirmation},
		func(o *models.Order) error { return models.ErrInvalidState },
	)
}

// CancelPending transitions pending_seller_confirmation -> cancelled
func (r *OrderRepository) CancelPending(id int) (*models.Order, error) {
	return r.conditionalUpdate(id,
		"UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4",
		[]interface{}{id, models.OrderCancelled, time.Now(), models.OrderPendingSellerConfirmation},
		func(o *models.Order) error { return models.ErrInvalidState },
	)
}

// SetPaymentIntent records a gateway intent reference on a confirmed order
// and moves the payment sub-state to awaiting_payment
func (r *OrderRepository) SetPaymentIntent(id int, reference string) (*models.Order, error) {
	return r.conditionalUpdate(id,
		`UPDATE orders SET payment_ref = $2, payment_status = $3, updated_at = $4
		 WHERE id = $1 AND status = $5 AND payment_status = $6`,
		[]interface{}{id, reference, models.PaymentAwaiting, time.Now(), models.OrderConfirmed, models.PaymentPending},
		func(o *models.Order) error {
			if o.Status != models.OrderConfirmed {
				return models.ErrNotConfirmed
			}
			return models.ErrInvalidPaymentState
		},
	)
}

// MarkPaymentSubmitted records the buyer's payment notice on a confirmed
// order whose payment is still pending or awaiting
func (r *OrderRepository) MarkPaymentSubmitted(id int) (*models.Order, error) {
	return r.conditionalUpdate(id,
		`UPDATE orders SET payment_status = $2, updated_at = $3
		 WHERE id = $1 AND status = $4 AND payment_status IN ($5, $6)`,
		[]interface{}{id, models.PaymentSubmitted, time.Now(), models.OrderConfirmed, models.PaymentPending, models.PaymentAwaiting},
		func(o *models.Order) error {
			if o.Status != models.OrderConfirmed {
				return models.ErrNotConfirmed
			}
			return models.ErrInvalidPaymentState
		},
	)
}

// MarkPaid transitions any pre-paid payment state to paid
func (r *OrderRepository) MarkPaid(id int) (*models.Order, error) {
	return r.conditionalUpdate(id,
		`UPDATE orders SET payment_status = $2, updated_at = $3
		 WHERE id = $1 AND payment_status IN ($4, $5, $6)`,
		[]interface{}{id, models.PaymentPaid, time.Now(), models.PaymentPending, models.PaymentAwaiting, models.PaymentSubmitted},
		func(o *models.Order) error { return models.ErrInvalidPaymentState },
	)
}

// MarkBuyerReceived sets the buyer's one-shot received flag and promotes the
// order to completed when the seller's flag is already set. Both writes
// happen in one transaction so the AND-join can never be observed half done.
func (r *OrderRepository) MarkBuyerReceived(id int) (*models.Order, error) {
	return r.setFulfillmentFlag(id, "buyer_received")
}

// MarkSellerDelivered sets the seller's one-shot delivered flag, promoting
// to completed when both flags are true
func (r *OrderRepository) MarkSellerDelivered(id int) (*models.Order, error) {
	return r.setFulfillmentFlag(id, "seller_delivered")
}

func (r *OrderRepository) setFulfillmentFlag(id int, column string) (*models.Order, error) {
	// column is one of two compile-time constants, never user input
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	result, err := tx.Exec(fmt.Sprintf(`
		UPDATE orders SET %s = TRUE, updated_at = $2
		WHERE id = $1 AND status = $3 AND %s = FALSE`, column, column),
		id, now, models.OrderConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to set %s: %w", column, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		order, err := r.GetByID(id)
		if err != nil {
			return nil, err
		}
		if order.Status != models.OrderConfirmed {
			return nil, models.ErrInvalidState
		}
		return nil, models.ErrAlreadyConfirmed
	}

	_, err = tx.Exec(`
		UPDATE orders SET status = $2, updated_at = $3
		WHERE id = $1 AND status = $4 AND buyer_received = TRUE AND seller_delivered = TRUE`,
		id, models.OrderCompleted, now, models.OrderConfirmed)
	if err != nil {
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fulfillment update: %w", err)
	}

	return r.GetByID(id)
}
