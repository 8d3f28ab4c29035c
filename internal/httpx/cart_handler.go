package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/atelierworks/orderflow/internal/cart"
)

type CartStore interface {
	AddItem(ctx context.Context, ownerID, productID string, qty int) error
	UpdateQuantity(ctx context.Context, ownerID, productID string, qty int) error
	RemoveItem(ctx context.Context, ownerID, productID string) error
}

type CartPricer interface {
	Totals(ctx context.Context, ownerID string) (cart.Summary, error)
}

type CartHandler struct {
	Store  CartStore
	Pricer CartPricer
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Post("/api/cart/items", h.addItem)
	r.Patch("/api/cart/items/{productID}", h.updateQuantity)
	r.Delete("/api/cart/items/{productID}", h.removeItem)
	r.Get("/api/cart", h.getCart)
}

// cartOwner resolves the cart key: the member id when authenticated, else
// an anonymous cart id from the X-Cart-Id header (minted here on first use).
func cartOwner(r *http.Request) (id string, minted bool) {
	if v := ownerID(r); v != nil {
		return *v, false
	}
	if v := r.Header.Get("X-Cart-Id"); v != "" {
		return v, false
	}
	return uuid.NewString(), true
}

type cartItemReq struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req cartItemReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ProductID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing product_id"})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	owner, minted := cartOwner(r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Store.AddItem(ctx, owner, req.ProductID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	if minted {
		w.Header().Set("X-Cart-Id", owner)
	}
	writeJSON(w, http.StatusOK, map[string]string{"cart_id": owner})
}

func (h *CartHandler) updateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	owner, _ := cartOwner(r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// quantity <= 0 removes the line
	if err := h.Store.UpdateQuantity(ctx, owner, productID, req.Quantity); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cart_id": owner})
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "productID")
	owner, _ := cartOwner(r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Store.RemoveItem(ctx, owner, productID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"cart_id": owner})
}

type cartLineResp struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type cartResp struct {
	CartID string         `json:"cart_id"`
	Lines  []cartLineResp `json:"lines"`
	Total  string         `json:"total"`
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	owner, _ := cartOwner(r)

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	sum, err := h.Pricer.Totals(ctx, owner)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := cartResp{CartID: owner, Lines: []cartLineResp{}, Total: sum.Total.StringFixed(2)}
	for _, l := range sum.Lines {
		resp.Lines = append(resp.Lines, cartLineResp{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice.StringFixed(2),
			LineTotal: l.LineTotal.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
