package orders

import (
	"context"
	"strings"
)

type FeedbackStore interface {
	GetOrder(ctx context.Context, id string) (Order, error)
	AppendFeedback(ctx context.Context, orderID, authorID, text string) (FeedbackMessage, error)
	ListFeedback(ctx context.Context, orderID string) ([]FeedbackMessage, error)
}

// FeedbackService is the order-scoped message thread between customer and
// studio. Append-only, like the timeline.
type FeedbackService struct {
	Store FeedbackStore
}

const maxFeedbackLen = 4000

func (s *FeedbackService) PostMessage(ctx context.Context, orderID, authorID, text string) (FeedbackMessage, error) {
	text = strings.TrimSpace(text)
	switch {
	case text == "":
		return FeedbackMessage{}, &ValidationError{Fields: map[string]string{"text": "message text is required"}}
	case len(text) > maxFeedbackLen:
		return FeedbackMessage{}, &ValidationError{Fields: map[string]string{"text": "message is too long"}}
	}
	if _, err := s.Store.GetOrder(ctx, orderID); err != nil {
		return FeedbackMessage{}, err
	}
	return s.Store.AppendFeedback(ctx, orderID, authorID, text)
}

// ListThread returns the thread oldest-first. The author role is derived by
// comparing the author to the order owner here, at read time, so the two
// facts cannot drift apart.
func (s *FeedbackService) ListThread(ctx context.Context, orderID string) ([]ThreadMessage, error) {
	o, err := s.Store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	msgs, err := s.Store.ListFeedback(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]ThreadMessage, 0, len(msgs))
	for _, m := range msgs {
		role := "admin"
		if o.OwnerID != nil && m.AuthorID == *o.OwnerID {
			role = "customer"
		}
		out = append(out, ThreadMessage{FeedbackMessage: m, Role: role})
	}
	return out, nil
}
