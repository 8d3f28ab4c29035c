package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/atelierworks/orderflow/internal/orders"
)

type FeedbackRunner interface {
	PostMessage(ctx context.Context, orderID, authorID, text string) (orders.FeedbackMessage, error)
	ListThread(ctx context.Context, orderID string) ([]orders.ThreadMessage, error)
}

type FeedbackHandler struct {
	Feedback FeedbackRunner
}

func (h *FeedbackHandler) Register(r *chi.Mux) {
	r.Post("/api/orders/{id}/feedback", h.post)
	r.Get("/api/orders/{id}/feedback", h.list)
}

type feedbackPostReq struct {
	AuthorID string `json:"author_id"`
	Text     string `json:"text"`
}

type feedbackMsgResp struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Role      string    `json:"role,omitempty"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *FeedbackHandler) post(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req feedbackPostReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	authorID := req.AuthorID
	if v := ownerID(r); v != nil {
		authorID = *v
	}
	if authorID == "" {
		writeError(w, &orders.ValidationError{Fields: map[string]string{"author_id": "author is required"}})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	m, err := h.Feedback.PostMessage(ctx, orderID, authorID, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, feedbackMsgResp{
		ID: m.ID, AuthorID: m.AuthorID, Text: m.Text, CreatedAt: m.CreatedAt,
	})
}

func (h *FeedbackHandler) list(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	msgs, err := h.Feedback.ListThread(ctx, orderID)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]feedbackMsgResp, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, feedbackMsgResp{
			ID: m.ID, AuthorID: m.AuthorID, Role: m.Role, Text: m.Text, CreatedAt: m.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
