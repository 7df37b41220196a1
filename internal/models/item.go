package models

// Item approval and availability statuses as reported by the item directory
const (
	ItemApproved  = "approved"
	ItemAvailable = "available"
)

// ItemRecord is a read-only view of a catalog item as served by the item
// directory. Orders snapshot the fields they need; they never hold a live
// reference to the record.
type ItemRecord struct {
	ID                 int    `json:"id" db:"id"`
	SellerID           int    `json:"seller_id" db:"seller_id"`
	Title              string `json:"title" db:"title"`
	Price              int    `json:"price" db:"price"` // Amount in satang
	ImageURL           string `json:"image_url" db:"image_url"`
	ApprovalStatus     string `json:"approval_status" db:"approval_status"`
	AvailabilityStatus string `json:"availability_status" db:"availability_status"`
}

// IsPurchasable returns true if the item can be included in a new order
func (i *ItemRecord) IsPurchasable() bool {
	return i.ApprovalStatus == ItemApproved && i.AvailabilityStatus == ItemAvailable
}
