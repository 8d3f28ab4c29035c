package orders

type Status string

const (
	StatusPending     Status = "pending"
	StatusAccepted    Status = "accepted"
	StatusInProgress  Status = "in_progress"
	StatusPreviewSent Status = "preview_sent"
	StatusShipped     Status = "shipped"
	StatusDelivered   Status = "delivered"
	StatusCancelled   Status = "cancelled"
)

// Legacy admin tooling still sends these. They are normalized here, at the
// boundary, and never stored or emitted.
var statusAliases = map[string]Status{
	"confirmed":  StatusAccepted,
	"processing": StatusInProgress,
}

var allStatuses = map[Status]bool{
	StatusPending:     true,
	StatusAccepted:    true,
	StatusInProgress:  true,
	StatusPreviewSent: true,
	StatusShipped:     true,
	StatusDelivered:   true,
	StatusCancelled:   true,
}

// ParseStatus normalizes raw input (including the legacy aliases) to a
// canonical Status. ok=false for anything unknown.
func ParseStatus(s string) (Status, bool) {
	if alias, hit := statusAliases[s]; hit {
		return alias, true
	}
	st := Status(s)
	return st, allStatuses[st]
}

// Terminal states refuse further transitions.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// DefaultMessage is the timeline note used when a transition carries no
// operator message.
func (s Status) DefaultMessage() string {
	switch s {
	case StatusPending:
		return "Order received, awaiting confirmation"
	case StatusAccepted:
		return "Order accepted"
	case StatusInProgress:
		return "Work on your order has started"
	case StatusPreviewSent:
		return "A preview is ready for your review"
	case StatusShipped:
		return "Order shipped"
	case StatusDelivered:
		return "Order delivered"
	case StatusCancelled:
		return "Order cancelled"
	}
	return string(s)
}

type PaymentMethod string

const (
	PayOnDelivery PaymentMethod = "pay_on_delivery"
	BankTransfer  PaymentMethod = "bank_transfer"
	PayOnline     PaymentMethod = "pay_online"
	// PaymentNone is forced onto free orders; it is never a valid
	// caller-supplied choice for a priced order.
	PaymentNone PaymentMethod = "none"
)

func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(s) {
	case PayOnDelivery, BankTransfer, PayOnline:
		return PaymentMethod(s), true
	}
	return "", false
}
