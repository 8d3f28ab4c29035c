package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID                    string
	OwnerID               *string // nil => guest order
	Status                Status
	TotalAmount           decimal.Decimal
	PaymentMethod         PaymentMethod
	CustomerName          string
	CustomerEmail         string
	CustomerPhone         string
	ShippingAddress       string
	SpecialInstructions   string
	PreferredDeliveryDate *time.Time
	TrackingNumber        *string
	PreviewAssetRef       *string
	PaymentLink           *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// OrderItem is a frozen snapshot taken at checkout; PriceAtPurchase is
// decoupled from the live catalog price and never mutated.
type OrderItem struct {
	OrderID         string
	ProductID       string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// TimelineEntry is one immutable audit record of a status change.
// Entries are append-only, one per transition.
type TimelineEntry struct {
	ID        string
	OrderID   string
	Status    Status
	Message   string
	CreatedAt time.Time
}

type FeedbackMessage struct {
	ID        string
	OrderID   string
	AuthorID  string
	Text      string
	CreatedAt time.Time
}

// ThreadMessage is the read-side view of a feedback message. Role is derived
// by comparing AuthorID to the order's owner at read time, never stored.
type ThreadMessage struct {
	FeedbackMessage
	Role string // "customer" | "admin"
}
