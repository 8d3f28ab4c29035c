package notify

import (
	"fmt"
	"strings"

	"github.com/atelierworks/orderflow/internal/orders"
)

// Renderer builds the customer-facing messages for order events.
type Renderer struct {
	StudioName     string
	PreviewBaseURL string // previews live in object storage behind this base
}

type Message struct {
	Subject string
	Text    string
	HTML    string
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// StatusMessage renders the notification for an order reaching a status.
// preview_sent carries the preview link, shipped the tracking number.
func (r *Renderer) StatusMessage(o orders.Order, status orders.Status, note string) Message {
	ref := shortID(o.ID)
	var subject string
	lines := []string{fmt.Sprintf("Dear %s,", o.CustomerName), ""}

	switch status {
	case orders.StatusPending:
		subject = fmt.Sprintf("Order %s received", ref)
		lines = append(lines, "We have received your order and will confirm it shortly.")
	case orders.StatusAccepted:
		subject = fmt.Sprintf("Order %s accepted", ref)
		lines = append(lines, "Your order has been accepted and is queued for work.")
	case orders.StatusInProgress:
		subject = fmt.Sprintf("Order %s in progress", ref)
		lines = append(lines, "Work on your order has started.")
	case orders.StatusPreviewSent:
		subject = fmt.Sprintf("A preview of order %s is ready", ref)
		lines = append(lines, "A preview of your order is ready for review:")
		if o.PreviewAssetRef != nil {
			lines = append(lines, fmt.Sprintf("%s/%s", r.PreviewBaseURL, *o.PreviewAssetRef))
		}
	case orders.StatusShipped:
		subject = fmt.Sprintf("Order %s shipped", ref)
		lines = append(lines, "Your order is on its way.")
		if o.TrackingNumber != nil {
			lines = append(lines, fmt.Sprintf("Tracking number: %s", *o.TrackingNumber))
		}
	case orders.StatusDelivered:
		subject = fmt.Sprintf("Order %s delivered", ref)
		lines = append(lines, "Your order has been delivered. Thank you!")
	case orders.StatusCancelled:
		subject = fmt.Sprintf("Order %s cancelled", ref)
		lines = append(lines, "Your order has been cancelled.")
	default:
		subject = fmt.Sprintf("Order %s update", ref)
		lines = append(lines, fmt.Sprintf("Your order status is now %s.", status))
	}

	if note != "" && note != status.DefaultMessage() {
		lines = append(lines, "", note)
	}
	if o.PaymentLink != nil && status != orders.StatusCancelled {
		lines = append(lines, "", fmt.Sprintf("Payment link: %s", *o.PaymentLink))
	}
	lines = append(lines, "", "Best regards,", r.StudioName)

	return Message{Subject: subject, Text: strings.Join(lines, "\n"), HTML: toHTML(lines)}
}

// AdminNewOrder is the internal heads-up sent when a checkout lands.
func (r *Renderer) AdminNewOrder(o orders.Order) Message {
	ref := shortID(o.ID)
	kind := "member"
	if o.OwnerID == nil {
		kind = "guest"
	}
	lines := []string{
		fmt.Sprintf("New %s order %s", kind, ref),
		"",
		fmt.Sprintf("Customer: %s <%s>", o.CustomerName, o.CustomerEmail),
		fmt.Sprintf("Total: %s", o.TotalAmount.StringFixed(2)),
		fmt.Sprintf("Payment: %s", o.PaymentMethod),
	}
	if o.SpecialInstructions != "" {
		lines = append(lines, fmt.Sprintf("Instructions: %s", o.SpecialInstructions))
	}
	return Message{
		Subject: fmt.Sprintf("New order %s (%s)", ref, o.TotalAmount.StringFixed(2)),
		Text:    strings.Join(lines, "\n"),
		HTML:    toHTML(lines),
	}
}

type DownloadLink struct {
	ProductName string
	URL         string
	ExpiresAt   string
	MaxUses     int
}

// Downloads renders the digital delivery email carrying grant links.
func (r *Renderer) Downloads(o orders.Order, links []DownloadLink) Message {
	ref := shortID(o.ID)
	lines := []string{
		fmt.Sprintf("Dear %s,", o.CustomerName),
		"",
		fmt.Sprintf("Your downloads for order %s are ready:", ref),
		"",
	}
	for _, l := range links {
		lines = append(lines, fmt.Sprintf("%s: %s", l.ProductName, l.URL))
		lines = append(lines, fmt.Sprintf("  (valid until %s, up to %d downloads)", l.ExpiresAt, l.MaxUses))
	}
	lines = append(lines, "", "Best regards,", r.StudioName)
	return Message{
		Subject: fmt.Sprintf("Your downloads for order %s", ref),
		Text:    strings.Join(lines, "\n"),
		HTML:    toHTML(lines),
	}
}

func toHTML(lines []string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, l := range lines {
		if l == "" {
			b.WriteString("<br>")
			continue
		}
		b.WriteString("<p>" + l + "</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
