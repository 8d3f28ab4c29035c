package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelierworks/orderflow/internal/downloads"
	"github.com/atelierworks/orderflow/internal/orders"
)

type stubCheckout struct {
	got orders.CheckoutInput
	res orders.CheckoutResult
	err error
}

func (s *stubCheckout) Checkout(_ context.Context, in orders.CheckoutInput) (orders.CheckoutResult, error) {
	s.got = in
	return s.res, s.err
}

type stubLifecycle struct {
	gotStatus orders.Status
	gotInput  orders.TransitionInput
	res       orders.Order
	err       error
}

func (s *stubLifecycle) Transition(_ context.Context, _ string, to orders.Status, in orders.TransitionInput) (orders.Order, error) {
	s.gotStatus = to
	s.gotInput = in
	return s.res, s.err
}

type stubOrderReader struct {
	order    orders.Order
	items    []orders.OrderItem
	timeline []orders.TimelineEntry
}

func (s *stubOrderReader) GetOrder(_ context.Context, id string) (orders.Order, error) {
	if id != s.order.ID {
		return orders.Order{}, &orders.NotFoundError{Entity: "order", ID: id}
	}
	return s.order, nil
}

func (s *stubOrderReader) ListItems(_ context.Context, _ string) ([]orders.OrderItem, error) {
	return s.items, nil
}

func (s *stubOrderReader) ListTimeline(_ context.Context, _ string) ([]orders.TimelineEntry, error) {
	return s.timeline, nil
}

type stubRedeemer struct {
	res downloads.RedeemResult
	err error
}

func (s *stubRedeemer) Redeem(_ context.Context, _ string) (downloads.RedeemResult, error) {
	return s.res, s.err
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCheckoutHandlerSuccess(t *testing.T) {
	stub := &stubCheckout{res: orders.CheckoutResult{
		OrderID:       "ord-1",
		PaymentMethod: orders.PayOnDelivery,
		Amount:        decimal.RequireFromString("40.00"),
	}}
	r := NewRouter()
	(&CheckoutHandler{Checkout: stub}).Register(r)

	w := doJSON(t, r, http.MethodPost, "/api/checkout", map[string]any{
		"customer_name":    "Maya Chen",
		"customer_email":   "maya@example.com",
		"customer_phone":   "+49 170 1234567",
		"shipping_address": "Torstrasse 1, Berlin",
		"payment_method":   "pay_on_delivery",
		"items":            []map[string]any{{"product_id": "print-a2", "quantity": 2}},
	}, nil)

	require.Equal(t, http.StatusCreated, w.Code)
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ord-1", resp["order_id"])
	assert.Equal(t, "pay_on_delivery", resp["payment_method"])
	assert.Equal(t, "40.00", resp["amount"])
	assert.Equal(t, false, resp["is_free_order"])

	// no auth header => guest
	assert.Nil(t, stub.got.OwnerID)
}

func TestCheckoutHandlerMemberOwner(t *testing.T) {
	stub := &stubCheckout{res: orders.CheckoutResult{OrderID: "ord-1"}}
	r := NewRouter()
	(&CheckoutHandler{Checkout: stub}).Register(r)

	w := doJSON(t, r, http.MethodPost, "/api/checkout", map[string]any{
		"customer_name": "Maya"}, map[string]string{"X-Owner-Id": "user-9"})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NotNil(t, stub.got.OwnerID)
	assert.Equal(t, "user-9", *stub.got.OwnerID)
}

func TestCheckoutHandlerValidationFieldMap(t *testing.T) {
	stub := &stubCheckout{err: &orders.ValidationError{Fields: map[string]string{
		"customer_email": "email is not a valid address",
	}}}
	r := NewRouter()
	(&CheckoutHandler{Checkout: stub}).Register(r)

	w := doJSON(t, r, http.MethodPost, "/api/checkout", map[string]any{}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "email is not a valid address", resp.Fields["customer_email"])
}

func TestCheckoutHandlerBadDeliveryDate(t *testing.T) {
	r := NewRouter()
	(&CheckoutHandler{Checkout: &stubCheckout{}}).Register(r)

	w := doJSON(t, r, http.MethodPost, "/api/checkout", map[string]any{
		"preferred_delivery_date": "next tuesday",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTransitionHandlerAcceptsLegacyAlias(t *testing.T) {
	reader := &stubOrderReader{order: orders.Order{ID: "ord-1"}}
	lc := &stubLifecycle{res: orders.Order{ID: "ord-1", Status: orders.StatusAccepted}}
	r := NewRouter()
	(&OrdersHandler{Repo: reader, Lifecycle: lc}).Register(r)

	w := doJSON(t, r, http.MethodPost, "/api/admin/orders/ord-1/transition", map[string]any{
		"new_status": "confirmed",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, orders.StatusAccepted, lc.gotStatus, "alias normalized before the service sees it")
}

func TestTransitionHandlerUnknownStatus(t *testing.T) {
	r := NewRouter()
	(&OrdersHandler{Repo: &stubOrderReader{}, Lifecycle: &stubLifecycle{}}).Register(r)

	w := doJSON(t, r, http.MethodPost, "/api/admin/orders/ord-1/transition", map[string]any{
		"new_status": "teleported",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTransitionHandlerPassesOptions(t *testing.T) {
	reader := &stubOrderReader{order: orders.Order{ID: "ord-1"}}
	lc := &stubLifecycle{res: orders.Order{ID: "ord-1", Status: orders.StatusShipped}}
	r := NewRouter()
	(&OrdersHandler{Repo: reader, Lifecycle: lc}).Register(r)

	w := doJSON(t, r, http.MethodPost, "/api/admin/orders/ord-1/transition", map[string]any{
		"new_status":      "shipped",
		"message":         "left the studio",
		"tracking_number": "TRK123",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "left the studio", lc.gotInput.Message)
	assert.Equal(t, "TRK123", lc.gotInput.TrackingNumber)
}

func TestGetOrderNotFound(t *testing.T) {
	r := NewRouter()
	(&OrdersHandler{Repo: &stubOrderReader{}, Lifecycle: &stubLifecycle{}}).Register(r)

	w := doJSON(t, r, http.MethodGet, "/api/orders/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetOrderRendersMoneyAsFixedStrings(t *testing.T) {
	reader := &stubOrderReader{
		order: orders.Order{
			ID:            "ord-1",
			Status:        orders.StatusPending,
			TotalAmount:   decimal.RequireFromString("40.00"),
			PaymentMethod: orders.PayOnDelivery,
		},
		items: []orders.OrderItem{
			{OrderID: "ord-1", ProductID: "print-a2", Quantity: 2, PriceAtPurchase: decimal.RequireFromString("20.00")},
		},
	}
	r := NewRouter()
	(&OrdersHandler{Repo: reader, Lifecycle: &stubLifecycle{}}).Register(r)

	w := doJSON(t, r, http.MethodGet, "/api/orders/ord-1", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp orderResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "40.00", resp.TotalAmount)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "20.00", resp.Items[0].PriceAtPurchase)
}

func TestGetTimelineNewestFirstPassthrough(t *testing.T) {
	now := time.Now()
	reader := &stubOrderReader{
		order: orders.Order{ID: "ord-1"},
		timeline: []orders.TimelineEntry{
			{OrderID: "ord-1", Status: orders.StatusAccepted, Message: "Order accepted", CreatedAt: now},
			{OrderID: "ord-1", Status: orders.StatusPending, Message: "Order received", CreatedAt: now.Add(-time.Hour)},
		},
	}
	r := NewRouter()
	(&OrdersHandler{Repo: reader, Lifecycle: &stubLifecycle{}}).Register(r)

	w := doJSON(t, r, http.MethodGet, "/api/orders/ord-1/timeline", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []timelineEntryResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "accepted", resp[0].Status)
}

func TestDownloadsHandlerStatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{downloads.ErrGrantNotFound, http.StatusNotFound},
		{downloads.ErrGrantExpired, http.StatusGone},
		{downloads.ErrGrantExhausted, http.StatusConflict},
	}
	for _, c := range cases {
		r := NewRouter()
		(&DownloadsHandler{Issuer: &stubRedeemer{err: c.err}}).Register(r)
		w := doJSON(t, r, http.MethodGet, "/api/downloads/tok", nil, nil)
		assert.Equal(t, c.code, w.Code, "error %v", c.err)
	}
}

func TestDownloadsHandlerSuccess(t *testing.T) {
	r := NewRouter()
	(&DownloadsHandler{Issuer: &stubRedeemer{res: downloads.RedeemResult{
		AssetURL:  "https://assets.example/fonts/pack.zip?sig=abc",
		ExpiresIn: 5 * time.Minute,
	}}}).Register(r)

	w := doJSON(t, r, http.MethodGet, "/api/downloads/tok", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp redeemResp
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 300, resp.ExpiresInSeconds)
	assert.Contains(t, resp.AssetURL, "fonts/pack.zip")
}
