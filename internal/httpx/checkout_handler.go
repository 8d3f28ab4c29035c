package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelierworks/orderflow/internal/orders"
)

type CheckoutRunner interface {
	Checkout(ctx context.Context, in orders.CheckoutInput) (orders.CheckoutResult, error)
}

type CheckoutHandler struct {
	Checkout CheckoutRunner
}

type checkoutItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type checkoutReq struct {
	CustomerName          string            `json:"customer_name"`
	CustomerEmail         string            `json:"customer_email"`
	CustomerPhone         string            `json:"customer_phone"`
	ShippingAddress       string            `json:"shipping_address"`
	SpecialInstructions   string            `json:"special_instructions,omitempty"`
	PreferredDeliveryDate string            `json:"preferred_delivery_date,omitempty"` // YYYY-MM-DD
	PaymentMethod         string            `json:"payment_method"`
	CartID                string            `json:"cart_id,omitempty"`
	Items                 []checkoutItemReq `json:"items"`
}

// checkoutResp carries the confirmation view parameters.
type checkoutResp struct {
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
	Amount        string `json:"amount"`
	IsFreeOrder   bool   `json:"is_free_order"`
}

func (h *CheckoutHandler) Register(r *chi.Mux) {
	r.Post("/api/checkout", h.checkout)
}

// ownerID reads the authenticated member id set by the identity gateway.
// Absent header means guest.
func ownerID(r *http.Request) *string {
	if v := r.Header.Get("X-Owner-Id"); v != "" {
		return &v
	}
	return nil
}

func (h *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	in := orders.CheckoutInput{
		OwnerID:             ownerID(r),
		CartID:              req.CartID,
		CustomerName:        req.CustomerName,
		CustomerEmail:       req.CustomerEmail,
		CustomerPhone:       req.CustomerPhone,
		ShippingAddress:     req.ShippingAddress,
		SpecialInstructions: req.SpecialInstructions,
		PaymentMethod:       req.PaymentMethod,
	}
	if req.PreferredDeliveryDate != "" {
		d, err := time.Parse("2006-01-02", req.PreferredDeliveryDate)
		if err != nil {
			writeError(w, &orders.ValidationError{Fields: map[string]string{
				"preferred_delivery_date": "must be a YYYY-MM-DD date",
			}})
			return
		}
		in.PreferredDeliveryDate = &d
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, orders.CheckoutItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.Checkout.Checkout(ctx, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, checkoutResp{
		OrderID:       res.OrderID,
		PaymentMethod: string(res.PaymentMethod),
		Amount:        res.Amount.StringFixed(2),
		IsFreeOrder:   res.IsFree,
	})
}
