// Package downloads mints and redeems download grants for digital goods.
// A grant is a time- and count-limited credential; the redemption counter is
// the only field in the system mutated under real contention, so the store
// contract requires an atomic check-and-increment.
package downloads

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

type Grant struct {
	OrderID       string
	ProductID     string
	Token         string
	ExpiresAt     time.Time
	MaxDownloads  int
	DownloadCount int
}

var (
	ErrGrantNotFound = errors.New("download grant not found")
	ErrGrantExpired  = errors.New("download grant expired")
	// ErrGrantExhausted means the download cap was reached. Non-retryable.
	ErrGrantExhausted = errors.New("download grant exhausted")
)

// Store persists grants. Consume must check expiry and cap and increment the
// counter as one atomic step: two racing redemptions must never both get the
// last download.
type Store interface {
	// Upsert is idempotent per (orderID, productID): reissue refreshes the
	// expiry but keeps the token and the accumulated download count.
	Upsert(ctx context.Context, g Grant) (Grant, error)
	Consume(ctx context.Context, token string, now time.Time) (Grant, error)
}

// NewToken returns 256 bits from crypto/rand, hex-encoded.
func NewToken() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err) // crypto/rand failing means the host is unusable
	}
	return hex.EncodeToString(b)
}
