package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// PushSender delivers the optional push notification. Whether the owner ever
// granted push permission is the gateway's call: it returns 404 for owners
// without a subscription and that is treated as a clean no-op.
type PushSender interface {
	Send(ctx context.Context, ownerID, title, body string) error
}

type HTTPPushSender struct {
	Client *http.Client
	URL    string
	APIKey string
}

type pushRequest struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

func (p *HTTPPushSender) Send(ctx context.Context, ownerID, title, body string) error {
	payload, err := json.Marshal(pushRequest{OwnerID: ownerID, Title: title, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("push send failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// no subscription for this owner
		return nil
	case resp.StatusCode >= 300:
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode)
	}
	return nil
}
