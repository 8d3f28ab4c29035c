package orders

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/atelierworks/orderflow/internal/catalog"
)

type OrderCreator interface {
	CreateOrderTx(ctx context.Context, o *Order, items []OrderItem, note string) error
}

type CartClearer interface {
	Clear(ctx context.Context, ownerID string) error
}

// CheckoutService is the single checkout entry point for members and guests
// alike; a guest is simply an order with no owner.
type CheckoutService struct {
	Store   OrderCreator
	Catalog catalog.Reader
	Cart    CartClearer
	Queue   Dispatcher
	Log     *slog.Logger
}

type CheckoutItem struct {
	ProductID string
	Quantity  int
}

type CheckoutInput struct {
	OwnerID               *string // nil for guests
	CartID                string  // cart to clear on success, empty to skip
	CustomerName          string
	CustomerEmail         string
	CustomerPhone         string
	ShippingAddress       string
	SpecialInstructions   string
	PreferredDeliveryDate *time.Time
	PaymentMethod         string
	Items                 []CheckoutItem
}

// CheckoutResult feeds the post-checkout confirmation view.
type CheckoutResult struct {
	OrderID       string
	PaymentMethod PaymentMethod
	Amount        decimal.Decimal
	IsFree        bool
}

const (
	maxNameLen         = 120
	maxEmailLen        = 254
	maxPhoneLen        = 32
	maxAddressLen      = 500
	maxInstructionsLen = 1000
)

func (in *CheckoutInput) validate() map[string]string {
	fields := map[string]string{}

	name := strings.TrimSpace(in.CustomerName)
	switch {
	case name == "":
		fields["customer_name"] = "name is required"
	case len(name) > maxNameLen:
		fields["customer_name"] = fmt.Sprintf("name must be at most %d characters", maxNameLen)
	}

	email := strings.TrimSpace(in.CustomerEmail)
	switch {
	case email == "":
		fields["customer_email"] = "email is required"
	case len(email) > maxEmailLen:
		fields["customer_email"] = fmt.Sprintf("email must be at most %d characters", maxEmailLen)
	default:
		if _, err := mail.ParseAddress(email); err != nil {
			fields["customer_email"] = "email is not a valid address"
		}
	}

	phone := strings.TrimSpace(in.CustomerPhone)
	switch {
	case phone == "":
		fields["customer_phone"] = "phone is required"
	case len(phone) > maxPhoneLen:
		fields["customer_phone"] = fmt.Sprintf("phone must be at most %d characters", maxPhoneLen)
	}

	addr := strings.TrimSpace(in.ShippingAddress)
	switch {
	case addr == "":
		fields["shipping_address"] = "shipping address is required"
	case len(addr) > maxAddressLen:
		fields["shipping_address"] = fmt.Sprintf("shipping address must be at most %d characters", maxAddressLen)
	}

	if len(in.SpecialInstructions) > maxInstructionsLen {
		fields["special_instructions"] = fmt.Sprintf("instructions must be at most %d characters", maxInstructionsLen)
	}

	if len(in.Items) == 0 {
		fields["items"] = "order must contain at least one item"
	}
	for _, it := range in.Items {
		if it.Quantity < 1 {
			fields["items"] = fmt.Sprintf("invalid quantity for product %s", it.ProductID)
			break
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return fields
}

// Checkout validates the buyer input, snapshots catalog prices into the
// order, and creates order + items + first timeline entry as one unit.
// Side effects are enqueued only after the create commits.
func (s *CheckoutService) Checkout(ctx context.Context, in CheckoutInput) (CheckoutResult, error) {
	if fields := in.validate(); fields != nil {
		return CheckoutResult{}, &ValidationError{Fields: fields}
	}

	ids := make([]string, 0, len(in.Items))
	for _, it := range in.Items {
		ids = append(ids, it.ProductID)
	}
	products, err := s.Catalog.GetMany(ctx, ids)
	if err != nil {
		return CheckoutResult{}, &PersistenceError{Op: "checkout: catalog", Err: err}
	}

	// Snapshot prices now; the order total is frozen here and never
	// recomputed from the catalog again.
	total := decimal.Zero
	items := make([]OrderItem, 0, len(in.Items))
	hasDigital := false
	for _, it := range in.Items {
		p, ok := products[it.ProductID]
		if !ok {
			return CheckoutResult{}, &ValidationError{Fields: map[string]string{
				"items": fmt.Sprintf("unknown product %s", it.ProductID),
			}}
		}
		items = append(items, OrderItem{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: p.Price,
		})
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
		if p.Digital {
			hasDigital = true
		}
	}

	isFree := total.IsZero()
	var method PaymentMethod
	var status Status
	if isFree {
		// Free orders skip payment entirely and start already accepted.
		method = PaymentNone
		status = StatusAccepted
	} else {
		m, ok := ParsePaymentMethod(in.PaymentMethod)
		if !ok {
			return CheckoutResult{}, &ValidationError{Fields: map[string]string{
				"payment_method": "a valid payment method is required",
			}}
		}
		method = m
		status = StatusPending
	}

	o := &Order{
		ID:                    uuid.NewString(),
		OwnerID:               in.OwnerID,
		Status:                status,
		TotalAmount:           total,
		PaymentMethod:         method,
		CustomerName:          strings.TrimSpace(in.CustomerName),
		CustomerEmail:         strings.TrimSpace(in.CustomerEmail),
		CustomerPhone:         strings.TrimSpace(in.CustomerPhone),
		ShippingAddress:       strings.TrimSpace(in.ShippingAddress),
		SpecialInstructions:   strings.TrimSpace(in.SpecialInstructions),
		PreferredDeliveryDate: in.PreferredDeliveryDate,
	}
	for i := range items {
		items[i].OrderID = o.ID
	}

	if err := s.Store.CreateOrderTx(ctx, o, items, status.DefaultMessage()); err != nil {
		return CheckoutResult{}, err
	}

	if in.CartID != "" && s.Cart != nil {
		if err := s.Cart.Clear(ctx, in.CartID); err != nil {
			s.Log.Warn("cart clear failed after checkout", "order_id", o.ID, "cart_id", in.CartID, "err", err)
		}
	}

	s.Queue.EnqueueNotification(NotifyJob{
		OrderID:  o.ID,
		Audience: AudienceAdmin,
		Status:   string(status),
	})
	if hasDigital && (method == PayOnline || isFree) {
		s.Queue.EnqueueDigitalFulfillment(DigitalFulfillJob{OrderID: o.ID})
	}

	return CheckoutResult{OrderID: o.ID, PaymentMethod: method, Amount: total, IsFree: isFree}, nil
}
