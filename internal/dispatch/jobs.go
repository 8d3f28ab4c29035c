// Package dispatch is the side-effect pipeline: notification and digital
// fulfillment jobs are enqueued after the triggering write commits and run
// on their own workers with their own timeouts. A job failing never rolls
// back or blocks the write that produced it.
package dispatch

import (
	"encoding/json"
	"time"
)

const (
	TopicNotify         = "orders.notify"
	TopicDigitalFulfill = "orders.fulfill.digital"
)

const (
	JobNotify         = "NotificationRequested"
	JobDigitalFulfill = "DigitalFulfillmentRequested"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"` // order id
	Payload       json.RawMessage `json:"payload"`
}

// Partition key = order id so all jobs for one order keep their order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
