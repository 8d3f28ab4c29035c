package orders

import (
	"context"

	"github.com/google/uuid"
)

// Feedback is an append-only log, same audit character as the timeline.
// No update or delete statements exist for it.

func (r *Repo) AppendFeedback(ctx context.Context, orderID, authorID, text string) (FeedbackMessage, error) {
	m := FeedbackMessage{ID: uuid.NewString(), OrderID: orderID, AuthorID: authorID, Text: text}
	err := r.DB.QueryRow(ctx, `
		INSERT INTO order_feedback(id, order_id, author_id, body)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		m.ID, orderID, authorID, text).Scan(&m.CreatedAt)
	if err != nil {
		return FeedbackMessage{}, &PersistenceError{Op: "append feedback", Err: err}
	}
	return m, nil
}

// ListFeedback returns messages oldest-first, as displayed.
func (r *Repo) ListFeedback(ctx context.Context, orderID string) ([]FeedbackMessage, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, order_id, author_id, body, created_at
		FROM order_feedback WHERE order_id=$1 ORDER BY created_at ASC`, orderID)
	if err != nil {
		return nil, &PersistenceError{Op: "list feedback", Err: err}
	}
	defer rows.Close()

	var out []FeedbackMessage
	for rows.Next() {
		var m FeedbackMessage
		if err := rows.Scan(&m.ID, &m.OrderID, &m.AuthorID, &m.Text, &m.CreatedAt); err != nil {
			return nil, &PersistenceError{Op: "list feedback", Err: err}
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "list feedback", Err: err}
	}
	return out, nil
}
