package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/atelierworks/orderflow/internal/catalog"
)

// fakeStore is an in-memory stand-in for Repo with the same transactional
// semantics: create and transition either land fully or not at all.
type fakeStore struct {
	orders   map[string]Order
	items    map[string][]OrderItem
	timeline map[string][]TimelineEntry
	feedback map[string][]FeedbackMessage

	failCreate     error
	failTransition error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:   map[string]Order{},
		items:    map[string][]OrderItem{},
		timeline: map[string][]TimelineEntry{},
		feedback: map[string][]FeedbackMessage{},
	}
}

func (f *fakeStore) CreateOrderTx(_ context.Context, o *Order, items []OrderItem, note string) error {
	if f.failCreate != nil {
		return f.failCreate
	}
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	f.orders[o.ID] = *o
	f.items[o.ID] = items
	f.timeline[o.ID] = append(f.timeline[o.ID], TimelineEntry{
		ID: uuid.NewString(), OrderID: o.ID, Status: o.Status, Message: note, CreatedAt: time.Now(),
	})
	return nil
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return Order{}, &NotFoundError{Entity: "order", ID: id}
	}
	return o, nil
}

func (f *fakeStore) ListItems(_ context.Context, orderID string) ([]OrderItem, error) {
	return f.items[orderID], nil
}

func (f *fakeStore) ListTimeline(_ context.Context, orderID string) ([]TimelineEntry, error) {
	return f.timeline[orderID], nil
}

func (f *fakeStore) TransitionTx(_ context.Context, orderID string, to Status, note string, tracking, previewRef, paymentLink *string) (Order, Status, error) {
	if f.failTransition != nil {
		return Order{}, "", f.failTransition
	}
	o, ok := f.orders[orderID]
	if !ok {
		return Order{}, "", &NotFoundError{Entity: "order", ID: orderID}
	}
	if o.Status.Terminal() {
		return Order{}, "", ErrTerminalState
	}
	prev := o.Status
	o.Status = to
	if tracking != nil {
		o.TrackingNumber = tracking
	}
	if previewRef != nil {
		o.PreviewAssetRef = previewRef
	}
	if paymentLink != nil {
		o.PaymentLink = paymentLink
	}
	o.UpdatedAt = time.Now()
	f.orders[orderID] = o
	f.timeline[orderID] = append(f.timeline[orderID], TimelineEntry{
		ID: uuid.NewString(), OrderID: orderID, Status: to, Message: note, CreatedAt: time.Now(),
	})
	return o, prev, nil
}

func (f *fakeStore) AppendFeedback(_ context.Context, orderID, authorID, text string) (FeedbackMessage, error) {
	m := FeedbackMessage{ID: uuid.NewString(), OrderID: orderID, AuthorID: authorID, Text: text, CreatedAt: time.Now()}
	f.feedback[orderID] = append(f.feedback[orderID], m)
	return m, nil
}

func (f *fakeStore) ListFeedback(_ context.Context, orderID string) ([]FeedbackMessage, error) {
	return f.feedback[orderID], nil
}

type fakeCatalog struct {
	products map[string]catalog.Product
	fail     error
}

func (f *fakeCatalog) Get(_ context.Context, id string) (catalog.Product, error) {
	if f.fail != nil {
		return catalog.Product{}, f.fail
	}
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) GetMany(_ context.Context, ids []string) (map[string]catalog.Product, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	out := map[string]catalog.Product{}
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

type fakeQueue struct {
	notifications []NotifyJob
	fulfillments  []DigitalFulfillJob
}

func (f *fakeQueue) EnqueueNotification(job NotifyJob)            { f.notifications = append(f.notifications, job) }
func (f *fakeQueue) EnqueueDigitalFulfillment(job DigitalFulfillJob) {
	f.fulfillments = append(f.fulfillments, job)
}

type fakeCart struct {
	cleared   []string
	failClear error
}

func (f *fakeCart) Clear(_ context.Context, ownerID string) error {
	if f.failClear != nil {
		return f.failClear
	}
	f.cleared = append(f.cleared, ownerID)
	return nil
}

var errBoom = errors.New("boom")
