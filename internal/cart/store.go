// Package cart holds per-owner line items in Redis. Totals are computed
// against live catalog prices on every read, unlike the frozen snapshot an
// order takes at checkout.
package cart

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/atelierworks/orderflow/internal/redisx"
)

type Line struct {
	ProductID string
	Quantity  int
}

type Store struct{ RDB *redis.Client }

func key(ownerID string) string { return fmt.Sprintf(redisx.KeyCart, ownerID) }

// AddItem merges into an existing line rather than duplicating it.
func (s *Store) AddItem(ctx context.Context, ownerID, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	k := key(ownerID)
	if err := s.RDB.HIncrBy(ctx, k, productID, int64(qty)).Err(); err != nil {
		return err
	}
	return s.RDB.Expire(ctx, k, redisx.TTLCart).Err()
}

// UpdateQuantity sets the line quantity; qty <= 0 removes the line.
func (s *Store) UpdateQuantity(ctx context.Context, ownerID, productID string, qty int) error {
	if qty <= 0 {
		return s.RemoveItem(ctx, ownerID, productID)
	}
	return s.RDB.HSet(ctx, key(ownerID), productID, qty).Err()
}

func (s *Store) RemoveItem(ctx context.Context, ownerID, productID string) error {
	return s.RDB.HDel(ctx, key(ownerID), productID).Err()
}

// Clear empties the cart; invoked after a successful checkout.
func (s *Store) Clear(ctx context.Context, ownerID string) error {
	return s.RDB.Del(ctx, key(ownerID)).Err()
}

func (s *Store) Items(ctx context.Context, ownerID string) ([]Line, error) {
	raw, err := s.RDB.HGetAll(ctx, key(ownerID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Line, 0, len(raw))
	for pid, q := range raw {
		n, err := strconv.Atoi(q)
		if err != nil || n < 1 {
			continue
		}
		out = append(out, Line{ProductID: pid, Quantity: n})
	}
	return out, nil
}
