package downloads

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

var _ Store = (*Repo)(nil)

func (r *Repo) Upsert(ctx context.Context, g Grant) (Grant, error) {
	// On conflict the token stays stable so links already emailed keep
	// working, and download_count survives: the cap is per grant lifetime.
	err := r.DB.QueryRow(ctx, `
		INSERT INTO download_grants(order_id, product_id, token, expires_at, max_downloads, download_count)
		VALUES ($1,$2,$3,$4,$5,0)
		ON CONFLICT (order_id, product_id)
		DO UPDATE SET expires_at = EXCLUDED.expires_at
		RETURNING token, expires_at, max_downloads, download_count`,
		g.OrderID, g.ProductID, g.Token, g.ExpiresAt, g.MaxDownloads).
		Scan(&g.Token, &g.ExpiresAt, &g.MaxDownloads, &g.DownloadCount)
	if err != nil {
		return Grant{}, err
	}
	return g, nil
}

func (r *Repo) Consume(ctx context.Context, token string, now time.Time) (Grant, error) {
	var g Grant
	// Single conditional UPDATE: the row-level atomicity of the store is
	// what keeps download_count <= max_downloads under concurrency.
	err := r.DB.QueryRow(ctx, `
		UPDATE download_grants
		SET download_count = download_count + 1
		WHERE token = $1 AND expires_at > $2 AND download_count < max_downloads
		RETURNING order_id, product_id, token, expires_at, max_downloads, download_count`,
		token, now).
		Scan(&g.OrderID, &g.ProductID, &g.Token, &g.ExpiresAt, &g.MaxDownloads, &g.DownloadCount)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Grant{}, err
	}

	// Zero rows touched: classify without mutating anything.
	var expiresAt time.Time
	var count, max int
	err = r.DB.QueryRow(ctx, `
		SELECT expires_at, download_count, max_downloads
		FROM download_grants WHERE token=$1`, token).
		Scan(&expiresAt, &count, &max)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grant{}, ErrGrantNotFound
	}
	if err != nil {
		return Grant{}, err
	}
	if !expiresAt.After(now) {
		return Grant{}, ErrGrantExpired
	}
	return Grant{}, ErrGrantExhausted
}
