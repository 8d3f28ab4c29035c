package cart

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/atelierworks/orderflow/internal/catalog"
)

type LineSource interface {
	Items(ctx context.Context, ownerID string) ([]Line, error)
}

type Service struct {
	Lines   LineSource
	Catalog catalog.Reader
}

type PricedLine struct {
	ProductID string
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

type Summary struct {
	Lines []PricedLine
	Total decimal.Decimal
}

// Totals prices the cart against the catalog as it is right now. Lines whose
// product vanished from the catalog are dropped rather than failing the view.
func (s *Service) Totals(ctx context.Context, ownerID string) (Summary, error) {
	lines, err := s.Lines.Items(ctx, ownerID)
	if err != nil {
		return Summary{}, err
	}
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	products, err := s.Catalog.GetMany(ctx, ids)
	if err != nil {
		return Summary{}, err
	}

	sum := Summary{Total: decimal.Zero}
	for _, l := range lines {
		p, ok := products[l.ProductID]
		if !ok {
			continue
		}
		lt := p.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		sum.Lines = append(sum.Lines, PricedLine{
			ProductID: l.ProductID,
			Name:      p.Name,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
			LineTotal: lt,
		})
		sum.Total = sum.Total.Add(lt)
	}
	sort.Slice(sum.Lines, func(i, j int) bool { return sum.Lines[i].ProductID < sum.Lines[j].ProductID })
	return sum, nil
}
