package orders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLifecycleFixture(t *testing.T, initial Status, method PaymentMethod) (*LifecycleService, *fakeStore, *fakeQueue, string) {
	t.Helper()
	store := newFakeStore()
	queue := &fakeQueue{}
	svc := &LifecycleService{Store: store, Queue: queue, Log: discardLogger()}

	o := &Order{
		ID:            "ord-1",
		Status:        initial,
		TotalAmount:   decimal.RequireFromString("40.00"),
		PaymentMethod: method,
		CustomerName:  "Maya Chen",
		CustomerEmail: "maya@example.com",
	}
	require.NoError(t, store.CreateOrderTx(context.Background(), o, nil, initial.DefaultMessage()))
	return svc, store, queue, o.ID
}

func TestTransitionAppendsExactlyOneEntry(t *testing.T) {
	svc, store, _, id := newLifecycleFixture(t, StatusPending, PayOnDelivery)

	before := len(store.timeline[id])
	_, err := svc.Transition(context.Background(), id, StatusAccepted, TransitionInput{})
	require.NoError(t, err)
	assert.Equal(t, before+1, len(store.timeline[id]))

	// a second transition appends exactly one more
	_, err = svc.Transition(context.Background(), id, StatusInProgress, TransitionInput{Message: "cutting paper"})
	require.NoError(t, err)
	assert.Equal(t, before+2, len(store.timeline[id]))
	last := store.timeline[id][len(store.timeline[id])-1]
	assert.Equal(t, "cutting paper", last.Message)
}

func TestTransitionDefaultMessage(t *testing.T) {
	svc, store, _, id := newLifecycleFixture(t, StatusPending, PayOnDelivery)

	_, err := svc.Transition(context.Background(), id, StatusAccepted, TransitionInput{})
	require.NoError(t, err)
	last := store.timeline[id][len(store.timeline[id])-1]
	assert.Equal(t, StatusAccepted.DefaultMessage(), last.Message)
}

func TestTransitionShippedPersistsTracking(t *testing.T) {
	svc, store, queue, id := newLifecycleFixture(t, StatusInProgress, PayOnDelivery)

	o, err := svc.Transition(context.Background(), id, StatusShipped, TransitionInput{TrackingNumber: "TRK123"})
	require.NoError(t, err)
	require.NotNil(t, o.TrackingNumber)
	assert.Equal(t, "TRK123", *o.TrackingNumber)

	entries := store.timeline[id]
	assert.Equal(t, StatusShipped, entries[len(entries)-1].Status)

	// a customer notification is attempted for the move
	require.NotEmpty(t, queue.notifications)
	last := queue.notifications[len(queue.notifications)-1]
	assert.Equal(t, AudienceCustomer, last.Audience)
	assert.Equal(t, string(StatusShipped), last.Status)
}

func TestTransitionTrackingIgnoredUnlessShipped(t *testing.T) {
	svc, store, _, id := newLifecycleFixture(t, StatusPending, PayOnDelivery)

	o, err := svc.Transition(context.Background(), id, StatusAccepted, TransitionInput{TrackingNumber: "TRK999"})
	require.NoError(t, err)
	assert.Nil(t, o.TrackingNumber)
	assert.Nil(t, store.orders[id].TrackingNumber)
}

func TestTransitionPreviewRefOnlyWithPreviewSent(t *testing.T) {
	svc, _, _, id := newLifecycleFixture(t, StatusInProgress, PayOnDelivery)

	o, err := svc.Transition(context.Background(), id, StatusPreviewSent, TransitionInput{PreviewAssetRef: "previews/ord-1-v1.jpg"})
	require.NoError(t, err)
	require.NotNil(t, o.PreviewAssetRef)
	assert.Equal(t, "previews/ord-1-v1.jpg", *o.PreviewAssetRef)

	// the ref does not stick when attached to some other status
	o, err = svc.Transition(context.Background(), id, StatusInProgress, TransitionInput{PreviewAssetRef: "previews/ignored.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "previews/ord-1-v1.jpg", *o.PreviewAssetRef)
}

func TestTransitionPaymentLinkIsIndependentAxis(t *testing.T) {
	svc, _, _, id := newLifecycleFixture(t, StatusPending, BankTransfer)

	o, err := svc.Transition(context.Background(), id, StatusAccepted, TransitionInput{PaymentLinkOverride: "https://pay.example/abc"})
	require.NoError(t, err)
	require.NotNil(t, o.PaymentLink)
	assert.Equal(t, "https://pay.example/abc", *o.PaymentLink)
}

func TestTransitionPaymentConfirmationTriggersFulfillment(t *testing.T) {
	svc, _, queue, id := newLifecycleFixture(t, StatusPending, PayOnline)

	_, err := svc.Transition(context.Background(), id, StatusAccepted, TransitionInput{})
	require.NoError(t, err)
	require.Len(t, queue.fulfillments, 1)
	assert.Equal(t, id, queue.fulfillments[0].OrderID)

	// a later move does not re-trigger it
	_, err = svc.Transition(context.Background(), id, StatusInProgress, TransitionInput{})
	require.NoError(t, err)
	assert.Len(t, queue.fulfillments, 1)
}

func TestTransitionNoFulfillmentForOfflinePayment(t *testing.T) {
	svc, _, queue, id := newLifecycleFixture(t, StatusPending, BankTransfer)

	_, err := svc.Transition(context.Background(), id, StatusAccepted, TransitionInput{})
	require.NoError(t, err)
	assert.Empty(t, queue.fulfillments)
}

func TestTransitionUnknownOrder(t *testing.T) {
	svc, _, queue, _ := newLifecycleFixture(t, StatusPending, PayOnDelivery)

	_, err := svc.Transition(context.Background(), "missing", StatusAccepted, TransitionInput{})
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Empty(t, queue.notifications, "no notification for a failed transition")
}

func TestTransitionTerminalStateRefused(t *testing.T) {
	svc, store, queue, id := newLifecycleFixture(t, StatusDelivered, PayOnDelivery)

	before := len(store.timeline[id])
	_, err := svc.Transition(context.Background(), id, StatusCancelled, TransitionInput{})
	require.ErrorIs(t, err, ErrTerminalState)
	assert.Equal(t, before, len(store.timeline[id]), "failed transition appends nothing")
	assert.Empty(t, queue.notifications)
}

func TestTransitionFailureEnqueuesNothing(t *testing.T) {
	svc, store, queue, id := newLifecycleFixture(t, StatusPending, PayOnline)
	store.failTransition = &PersistenceError{Op: "transition", Err: errBoom}

	_, err := svc.Transition(context.Background(), id, StatusAccepted, TransitionInput{})
	var pe *PersistenceError
	require.ErrorAs(t, err, &pe)
	assert.Empty(t, queue.notifications)
	assert.Empty(t, queue.fulfillments)
}
