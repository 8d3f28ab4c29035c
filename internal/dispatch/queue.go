package dispatch

import (
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	kafkax "github.com/atelierworks/orderflow/internal/kafka"
	"github.com/atelierworks/orderflow/internal/orders"
)

// KafkaQueue implements orders.Dispatcher on two topics, one per job kind.
type KafkaQueue struct {
	Notify  *kafkax.Producer
	Digital *kafkax.Producer
	Service string
}

var _ orders.Dispatcher = (*KafkaQueue)(nil)

func (q *KafkaQueue) EnqueueNotification(job orders.NotifyJob) {
	q.publish(q.Notify, JobNotify, job.OrderID, kafkax.MustMarshal(job))
}

func (q *KafkaQueue) EnqueueDigitalFulfillment(job orders.DigitalFulfillJob) {
	q.publish(q.Digital, JobDigitalFulfill, job.OrderID, kafkax.MustMarshal(job))
}

func (q *KafkaQueue) publish(p *kafkax.Producer, jobType, orderID string, payload []byte) {
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     jobType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      q.Service,
		CorrelationID: orderID,
		Payload:       payload,
	}
	p.Publish(PartitionKey(orderID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(jobType)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}
