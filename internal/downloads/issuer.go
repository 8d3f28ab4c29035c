package downloads

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/atelierworks/orderflow/internal/catalog"
)

// Issuer mints grants and turns redemptions into short-lived signed asset
// references. The binary itself lives in object storage; only the signed
// reference leaves this package.
type Issuer struct {
	Store   Store
	Catalog catalog.Reader

	Window  time.Duration // grant lifetime, e.g. 7 days
	Cap     int           // max downloads per grant
	LinkTTL time.Duration // lifetime of a signed asset reference

	AssetBaseURL string
	SigningKey   []byte

	now func() time.Time // test hook
}

func NewIssuer(store Store, cat catalog.Reader, window time.Duration, cap int, linkTTL time.Duration, baseURL string, key []byte) *Issuer {
	return &Issuer{
		Store:        store,
		Catalog:      cat,
		Window:       window,
		Cap:          cap,
		LinkTTL:      linkTTL,
		AssetBaseURL: baseURL,
		SigningKey:   key,
		now:          time.Now,
	}
}

// IssueGrant creates or refreshes the one grant for (orderID, productID).
func (i *Issuer) IssueGrant(ctx context.Context, orderID, productID string) (Grant, error) {
	return i.Store.Upsert(ctx, Grant{
		OrderID:      orderID,
		ProductID:    productID,
		Token:        NewToken(),
		ExpiresAt:    i.now().UTC().Add(i.Window),
		MaxDownloads: i.Cap,
	})
}

type RedeemResult struct {
	AssetURL  string
	ExpiresIn time.Duration
}

// Redeem consumes one download from the grant and returns a signed,
// short-lived reference to the underlying asset.
func (i *Issuer) Redeem(ctx context.Context, token string) (RedeemResult, error) {
	now := i.now().UTC()
	g, err := i.Store.Consume(ctx, token, now)
	if err != nil {
		return RedeemResult{}, err
	}

	p, err := i.Catalog.Get(ctx, g.ProductID)
	if err != nil {
		return RedeemResult{}, fmt.Errorf("resolve asset for product %s: %w", g.ProductID, err)
	}

	claims := jwt.MapClaims{
		"key": p.AssetKey,
		"ord": g.OrderID,
		"iat": now.Unix(),
		"exp": now.Add(i.LinkTTL).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.SigningKey)
	if err != nil {
		return RedeemResult{}, fmt.Errorf("sign asset reference: %w", err)
	}

	return RedeemResult{
		AssetURL:  fmt.Sprintf("%s/%s?sig=%s", i.AssetBaseURL, p.AssetKey, url.QueryEscape(signed)),
		ExpiresIn: i.LinkTTL,
	}, nil
}
