// Package catalog is a read-only view of products. Catalog management lives
// in the back-office service; this side only needs prices, the digital flag
// and asset keys.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Digital  bool
	AssetKey string // object-storage key for digital products, empty otherwise
}

var ErrProductNotFound = errors.New("product not found")

type Reader interface {
	Get(ctx context.Context, id string) (Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]Product, error)
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Get(ctx context.Context, id string) (Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, price, is_digital, asset_key
		FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Name, &p.Price, &p.Digital, &p.AssetKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, fmt.Errorf("%w: %s", ErrProductNotFound, id)
	}
	if err != nil {
		return Product{}, err
	}
	return p, nil
}

func (r *Repo) GetMany(ctx context.Context, ids []string) (map[string]Product, error) {
	if len(ids) == 0 {
		return map[string]Product{}, nil
	}
	params := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := r.DB.Query(ctx, `
		SELECT id, name, price, is_digital, asset_key
		FROM products WHERE id IN (`+params+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Digital, &p.AssetKey); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}
