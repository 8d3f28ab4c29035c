package orders

const (
	AudienceCustomer = "customer"
	AudienceAdmin    = "admin"
)

// NotifyJob asks for one rendered message about an order. Status is the
// canonical status the order held when the job was enqueued; Message is the
// timeline note that went with it, if any.
type NotifyJob struct {
	OrderID  string `json:"order_id"`
	Audience string `json:"audience"`
	Status   string `json:"status"`
	Message  string `json:"message,omitempty"`
}

// DigitalFulfillJob asks for download grants on every digital item of the
// order, plus the delivery email carrying the links.
type DigitalFulfillJob struct {
	OrderID string `json:"order_id"`
}

// Dispatcher is the enqueue side of the side-effect pipeline. Enqueueing is
// fire-and-forget: it happens after the triggering write commits, returns
// nothing, and its failure is logged downstream, never surfaced here.
type Dispatcher interface {
	EnqueueNotification(job NotifyJob)
	EnqueueDigitalFulfillment(job DigitalFulfillJob)
}
