package orders

import (
	"context"
	"log/slog"
	"strings"
)

type Transitioner interface {
	TransitionTx(ctx context.Context, orderID string, to Status, note string, tracking, previewRef, paymentLink *string) (Order, Status, error)
}

// StatusCache drops any cached read view of an order after its status moved.
type StatusCache interface {
	Invalidate(ctx context.Context, orderID string)
}

// LifecycleService owns every post-creation mutation of an order. Nothing
// else writes status, tracking, preview or payment-link fields.
type LifecycleService struct {
	Store Transitioner
	Cache StatusCache // optional
	Queue Dispatcher
	Log   *slog.Logger
}

type TransitionInput struct {
	Message             string
	TrackingNumber      string
	PreviewAssetRef     string
	PaymentLinkOverride string
}

// Transition moves the order to the target status and appends exactly one
// timeline entry, atomically. The customer notification (and, when the move
// confirms payment of an online order, digital fulfillment) is enqueued
// only after the commit; its fate never affects the transition.
func (s *LifecycleService) Transition(ctx context.Context, orderID string, to Status, in TransitionInput) (Order, error) {
	note := strings.TrimSpace(in.Message)
	if note == "" {
		note = to.DefaultMessage()
	}

	// Tracking sticks only with shipped, the preview ref only with
	// preview_sent. The payment link is an independent axis and lands
	// whenever supplied.
	tracking := optional(in.TrackingNumber)
	if to != StatusShipped {
		tracking = nil
	}
	previewRef := optional(in.PreviewAssetRef)
	if to != StatusPreviewSent {
		previewRef = nil
	}

	updated, prev, err := s.Store.TransitionTx(ctx, orderID, to, note,
		tracking, previewRef, optional(in.PaymentLinkOverride))
	if err != nil {
		return Order{}, err
	}

	if s.Cache != nil {
		s.Cache.Invalidate(ctx, orderID)
	}

	s.Queue.EnqueueNotification(NotifyJob{
		OrderID:  orderID,
		Audience: AudienceCustomer,
		Status:   string(to),
		Message:  note,
	})

	if updated.PaymentMethod == PayOnline && prev == StatusPending && to == StatusAccepted {
		// Accepting a pending online-payment order is the payment
		// confirmation signal.
		s.Queue.EnqueueDigitalFulfillment(DigitalFulfillJob{OrderID: orderID})
	}

	s.Log.Info("order transitioned", "order_id", orderID, "from", prev, "to", to)
	return updated, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
