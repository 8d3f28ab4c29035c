package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/atelierworks/orderflow/internal/catalog"
	"github.com/atelierworks/orderflow/internal/downloads"
	kafkax "github.com/atelierworks/orderflow/internal/kafka"
	"github.com/atelierworks/orderflow/internal/notify"
	"github.com/atelierworks/orderflow/internal/orders"
)

type OrderSource interface {
	GetOrder(ctx context.Context, id string) (orders.Order, error)
	ListItems(ctx context.Context, orderID string) ([]orders.OrderItem, error)
}

type GrantIssuer interface {
	IssueGrant(ctx context.Context, orderID, productID string) (downloads.Grant, error)
}

// Worker executes side-effect jobs. Every handler returns nil even when the
// job fails: side effects are logged, never retried and never requeued, so
// the offset is always committed.
type Worker struct {
	Orders   OrderSource
	Catalog  catalog.Reader
	Issuer   GrantIssuer
	Mailer   notify.Mailer
	Push     notify.PushSender // optional
	Renderer *notify.Renderer

	AdminEmail      string
	DownloadBaseURL string // public base for grant redemption links
	Timeout         time.Duration
	Log             *slog.Logger
}

func (w *Worker) timeout() time.Duration {
	if w.Timeout > 0 {
		return w.Timeout
	}
	return 30 * time.Second
}

// HandleNotify processes one NotificationRequested job.
func (w *Worker) HandleNotify(ctx context.Context, m kafkago.Message) error {
	var ev Envelope
	if err := kafkax.Unmarshal(m.Value, &ev); err != nil {
		w.Log.Error("notify: bad envelope", "err", err)
		return nil
	}
	job, err := kafkax.UnwrapPayload[orders.NotifyJob](ev.Payload)
	if err != nil {
		w.Log.Error("notify: bad payload", "event_id", ev.EventID, "err", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout())
	defer cancel()

	if err := w.notify(ctx, job); err != nil {
		w.Log.Error("notification dispatch failed", "order_id", job.OrderID, "audience", job.Audience, "err", err)
	}
	return nil
}

func (w *Worker) notify(ctx context.Context, job orders.NotifyJob) error {
	o, err := w.Orders.GetOrder(ctx, job.OrderID)
	if err != nil {
		return err
	}

	if job.Audience == orders.AudienceAdmin {
		msg := w.Renderer.AdminNewOrder(o)
		return w.Mailer.Send(ctx, w.AdminEmail, msg.Subject, msg.Text, msg.HTML)
	}

	status, ok := orders.ParseStatus(job.Status)
	if !ok {
		status = o.Status
	}
	msg := w.Renderer.StatusMessage(o, status, job.Message)
	if err := w.Mailer.Send(ctx, o.CustomerEmail, msg.Subject, msg.Text, msg.HTML); err != nil {
		return err
	}

	if w.Push != nil && o.OwnerID != nil {
		if err := w.Push.Send(ctx, *o.OwnerID, msg.Subject, job.Message); err != nil {
			// email already went out; the push is best-effort on top
			w.Log.Warn("push dispatch failed", "order_id", o.ID, "err", err)
		}
	}
	return nil
}

// HandleDigitalFulfillment processes one DigitalFulfillmentRequested job:
// a grant per digital item, then the delivery email with the links.
func (w *Worker) HandleDigitalFulfillment(ctx context.Context, m kafkago.Message) error {
	var ev Envelope
	if err := kafkax.Unmarshal(m.Value, &ev); err != nil {
		w.Log.Error("fulfillment: bad envelope", "err", err)
		return nil
	}
	job, err := kafkax.UnwrapPayload[orders.DigitalFulfillJob](ev.Payload)
	if err != nil {
		w.Log.Error("fulfillment: bad payload", "event_id", ev.EventID, "err", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout())
	defer cancel()

	if err := w.fulfill(ctx, job.OrderID); err != nil {
		w.Log.Error("digital fulfillment failed", "order_id", job.OrderID, "err", err)
	}
	return nil
}

func (w *Worker) fulfill(ctx context.Context, orderID string) error {
	o, err := w.Orders.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	items, err := w.Orders.ListItems(ctx, orderID)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	products, err := w.Catalog.GetMany(ctx, ids)
	if err != nil {
		return err
	}

	var links []notify.DownloadLink
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok || !p.Digital {
			continue
		}
		g, err := w.Issuer.IssueGrant(ctx, orderID, it.ProductID)
		if err != nil {
			return fmt.Errorf("issue grant for product %s: %w", it.ProductID, err)
		}
		links = append(links, notify.DownloadLink{
			ProductName: p.Name,
			URL:         fmt.Sprintf("%s/api/downloads/%s", w.DownloadBaseURL, g.Token),
			ExpiresAt:   g.ExpiresAt.Format("2006-01-02 15:04 MST"),
			MaxUses:     g.MaxDownloads,
		})
	}
	if len(links) == 0 {
		return nil
	}

	msg := w.Renderer.Downloads(o, links)
	return w.Mailer.Send(ctx, o.CustomerEmail, msg.Subject, msg.Text, msg.HTML)
}
