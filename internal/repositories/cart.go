package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"campus-marketplace/internal/models"
)

// CartRepository handles cart data operations. Each buyer has at most one
// cart row; every write is gated on the version read beforehand so that
// concurrent checkouts for the same buyer cannot both consume the cart.
type CartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new cart repository
func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Get retrieves the buyer's cart, creating an empty one on first read
func (r *CartRepository) Get(buyerID int) (*models.Cart, error) {
	cart := &models.Cart{BuyerID: buyerID}

	err := r.db.QueryRow(
		"SELECT version, updated_at FROM carts WHERE buyer_id = $1",
		buyerID,
	).Scan(&cart.Version, &cart.UpdatedAt)

	if err == sql.ErrNoRows {
		return r.create(buyerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items, err := r.loadItems(buyerID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

// create inserts an empty cart for the buyer. A concurrent first read may
// have inserted one already; in that case the existing row wins.
func (r *CartRepository) create(buyerID int) (*models.Cart, error) {
	cart := &models.Cart{BuyerID: buyerID}

	err := r.db.QueryRow(`
		INSERT INTO carts (buyer_id, version, updated_at)
		VALUES ($1, 1, $2)
		ON CONFLICT (buyer_id) DO UPDATE SET buyer_id = EXCLUDED.buyer_id
		RETURNING version, updated_at`,
		buyerID, time.Now(),
	).Scan(&cart.Version, &cart.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	items, err := r.loadItems(buyerID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

// loadItems loads the cart lines for a buyer
func (r *CartRepository) loadItems(buyerID int) ([]models.CartItem, error) {
	rows, err := r.db.Query(`
		SELECT item_id, quantity, added_at
		FROM cart_items
		WHERE buyer_id = $1
		ORDER BY added_at`,
		buyerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart items: %w", err)
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var item models.CartItem
		if err := rows.Scan(&item.ItemID, &item.Quantity, &item.AddedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// ReplaceItems replaces the cart contents. The write succeeds only if the
// cart version still matches the one the caller read; a mismatch means a
// concurrent mutation won and the caller gets models.ErrCartConflict.
func (r *CartRepository) ReplaceItems(buyerID, version int, items []models.CartItem) (*models.Cart, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	cart := &models.Cart{BuyerID: buyerID, UpdatedAt: now}

	err = tx.QueryRow(`
		UPDATE carts
		SET version = version + 1, updated_at = $3
		WHERE buyer_id = $1 AND version = $2
		RETURNING version`,
		buyerID, version, now,
	).Scan(&cart.Version)

	if err == sql.ErrNoRows {
		return nil, models.ErrCartConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update cart version: %w", err)
	}

	if _, err = tx.Exec("DELETE FROM cart_items WHERE buyer_id = $1", buyerID); err != nil {
		return nil, fmt.Errorf("failed to clear cart items: %w", err)
	}

	for _, item := range items {
		addedAt := item.AddedAt
		if addedAt.IsZero() {
			addedAt = now
		}
		_, err = tx.Exec(`
			INSERT INTO cart_items (buyer_id, item_id, quantity, added_at)
			VALUES ($1, $2, $3, $4)`,
			buyerID, item.ItemID, item.Quantity, addedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to insert cart item: %w", err)
		}
		cart.Items = append(cart.Items, models.CartItem{
			ItemID:   item.ItemID,
			Quantity: item.Quantity,
			AddedAt:  addedAt,
		})
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit cart update: %w", err)
	}

	return cart, nil
}

// Clear empties the cart, gated on the same version check as ReplaceItems.
// The cart row itself survives so the buyer keeps their version history.
func (r *CartRepository) Clear(buyerID, version int) error {
	_, err := r.ReplaceItems(buyerID, version, nil)
	return err
}

// DeleteExpired removes carts that have been inactive longer than the window
func (r *CartRepository) DeleteExpired(window time.Duration) (int, error) {
	cutoff := time.Now().Add(-window)

	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		DELETE FROM cart_items
		WHERE buyer_id IN (SELECT buyer_id FROM carts WHERE updated_at < $1)`,
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired cart items: %w", err)
	}

	result, err := tx.Exec("DELETE FROM carts WHERE updated_at < $1", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired carts: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit cart cleanup: %w", err)
	}

	return int(count), nil
}
