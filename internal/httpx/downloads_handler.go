package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelierworks/orderflow/internal/downloads"
)

type Redeemer interface {
	Redeem(ctx context.Context, token string) (downloads.RedeemResult, error)
}

type DownloadsHandler struct {
	Issuer Redeemer
}

func (h *DownloadsHandler) Register(r *chi.Mux) {
	r.Get("/api/downloads/{token}", h.redeem)
}

type redeemResp struct {
	AssetURL         string `json:"asset_url"`
	ExpiresInSeconds int    `json:"expires_in_seconds"`
}

func (h *DownloadsHandler) redeem(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing token"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.Issuer.Redeem(ctx, token)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redeemResp{
		AssetURL:         res.AssetURL,
		ExpiresInSeconds: int(res.ExpiresIn.Seconds()),
	})
}
