package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atelierworks/orderflow/internal/downloads"
	"github.com/atelierworks/orderflow/internal/orders"
)

func NewRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger)
	r.Use(middleware.Timeout(15 * time.Second))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP. Validation errors
// keep their field map so forms can address them per field.
func writeError(w http.ResponseWriter, err error) {
	var ve *orders.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": ve.Fields,
		})
		return
	}
	var nf *orders.NotFoundError
	if errors.As(err, &nf) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": nf.Error()})
		return
	}
	switch {
	case errors.Is(err, downloads.ErrGrantNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "download not found"})
	case errors.Is(err, downloads.ErrGrantExpired):
		writeJSON(w, http.StatusGone, map[string]string{"error": "download link has expired"})
	case errors.Is(err, downloads.ErrGrantExhausted):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "download limit reached"})
	case errors.Is(err, orders.ErrTerminalState):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "order is in a terminal state"})
	default:
		// persistence and everything else: generic retry message
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "something went wrong, please try again"})
	}
}
