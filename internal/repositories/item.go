package repositories

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"campus-marketplace/internal/models"
)

// ItemRepository is the read-only adapter over the catalog's items table.
// The checkout orchestrator treats it as the item directory; it never writes
// through it.
type ItemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new item repository
func NewItemRepository(db *sql.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = "id, seller_id, title, price, image_url, approval_status, availability_status"

// Lookup retrieves one item record
func (r *ItemRepository) Lookup(itemID int) (*models.ItemRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM items WHERE id = $1", itemColumns)

	item := &models.ItemRecord{}
	err := r.db.QueryRow(query, itemID).Scan(
		&item.ID,
		&item.SellerID,
		&item.Title,
		&item.Price,
		&item.ImageURL,
		&item.ApprovalStatus,
		&item.AvailabilityStatus,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to lookup item: %w", err)
	}

	return item, nil
}

// LookupAll resolves a set of item ids in one query so that a checkout sees
// a single consistent snapshot of the catalog across all its lines. Missing
// ids are simply absent from the result map.
func (r *ItemRepository) LookupAll(itemIDs []int) (map[int]*models.ItemRecord, error) {
	if len(itemIDs) == 0 {
		return map[int]*models.ItemRecord{}, nil
	}

	query := fmt.Sprintf("SELECT %s FROM items WHERE id = ANY($1)", itemColumns)

	rows, err := r.db.Query(query, pq.Array(itemIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to lookup items: %w", err)
	}
	defer rows.Close()

	records := make(map[int]*models.ItemRecord, len(itemIDs))
	for rows.Next() {
		item := &models.ItemRecord{}
		err := rows.Scan(
			&item.ID,
			&item.SellerID,
			&item.Title,
			&item.Price,
			&item.ImageURL,
			&item.ApprovalStatus,
			&item.AvailabilityStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		records[item.ID] = item
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return records, nil
}
