package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelierworks/orderflow/internal/orders"
)

type OrderReader interface {
	GetOrder(ctx context.Context, id string) (orders.Order, error)
	ListItems(ctx context.Context, orderID string) ([]orders.OrderItem, error)
	ListTimeline(ctx context.Context, orderID string) ([]orders.TimelineEntry, error)
}

type TransitionRunner interface {
	Transition(ctx context.Context, orderID string, to orders.Status, in orders.TransitionInput) (orders.Order, error)
}

// SummaryCache caches rendered order summaries; nil disables caching.
type SummaryCache interface {
	Get(ctx context.Context, orderID string) ([]byte, bool)
	Set(ctx context.Context, orderID string, body []byte)
}

type OrdersHandler struct {
	Repo      OrderReader
	Lifecycle TransitionRunner
	Cache     SummaryCache
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Get("/api/orders/{id}", h.getOrder)
	r.Get("/api/orders/{id}/timeline", h.getTimeline)
	r.Post("/api/admin/orders/{id}/transition", h.transition)
}

type orderItemResp struct {
	ProductID       string `json:"product_id"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase string `json:"price_at_purchase"`
}

type orderResp struct {
	OrderID         string          `json:"order_id"`
	Status          string          `json:"status"`
	TotalAmount     string          `json:"total_amount"`
	PaymentMethod   string          `json:"payment_method"`
	CustomerName    string          `json:"customer_name"`
	ShippingAddress string          `json:"shipping_address"`
	TrackingNumber  *string         `json:"tracking_number,omitempty"`
	PreviewAssetRef *string         `json:"preview_asset_ref,omitempty"`
	PaymentLink     *string         `json:"payment_link,omitempty"`
	Items           []orderItemResp `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func toOrderResp(o orders.Order, items []orders.OrderItem) orderResp {
	resp := orderResp{
		OrderID:         o.ID,
		Status:          string(o.Status),
		TotalAmount:     o.TotalAmount.StringFixed(2),
		PaymentMethod:   string(o.PaymentMethod),
		CustomerName:    o.CustomerName,
		ShippingAddress: o.ShippingAddress,
		TrackingNumber:  o.TrackingNumber,
		PreviewAssetRef: o.PreviewAssetRef,
		PaymentLink:     o.PaymentLink,
		Items:           []orderItemResp{},
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	for _, it := range items {
		resp.Items = append(resp.Items, orderItemResp{
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase.StringFixed(2),
		})
	}
	return resp
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Cache != nil {
		if b, ok := h.Cache.Get(ctx, orderID); ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(b)
			return
		}
	}

	o, err := h.Repo.GetOrder(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.Repo.ListItems(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toOrderResp(o, items)
	if h.Cache != nil {
		if b, err := json.Marshal(resp); err == nil {
			h.Cache.Set(ctx, orderID, b)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

type timelineEntryResp struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *OrdersHandler) getTimeline(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.Repo.GetOrder(ctx, orderID); err != nil {
		writeError(w, err)
		return
	}
	entries, err := h.Repo.ListTimeline(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]timelineEntryResp, 0, len(entries))
	for _, e := range entries {
		out = append(out, timelineEntryResp{Status: string(e.Status), Message: e.Message, CreatedAt: e.CreatedAt})
	}
	writeJSON(w, http.StatusOK, out)
}

type transitionReq struct {
	NewStatus           string `json:"new_status"`
	Message             string `json:"message,omitempty"`
	TrackingNumber      string `json:"tracking_number,omitempty"`
	PreviewAssetRef     string `json:"preview_asset_ref,omitempty"`
	PaymentLinkOverride string `json:"payment_link_override,omitempty"`
}

func (h *OrdersHandler) transition(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req transitionReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	status, ok := orders.ParseStatus(req.NewStatus)
	if !ok {
		writeError(w, &orders.ValidationError{Fields: map[string]string{
			"new_status": "unknown status " + req.NewStatus,
		}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Lifecycle.Transition(ctx, orderID, status, orders.TransitionInput{
		Message:             req.Message,
		TrackingNumber:      req.TrackingNumber,
		PreviewAssetRef:     req.PreviewAssetRef,
		PaymentLinkOverride: req.PaymentLinkOverride,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.Repo.ListItems(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResp(o, items))
}
