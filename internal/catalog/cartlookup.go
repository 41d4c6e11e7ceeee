package catalog

import (
	"context"
	"errors"

	"github.com/minishop/backend-minishop/internal/cart"
)

// CartLookup adapts the catalog service to the cart's product source.
type CartLookup struct {
	Service *Service
}

// Product resolves id to the cart's product representation.
func (l CartLookup) Product(ctx context.Context, id string) (cart.Product, error) {
	p, err := l.Service.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return cart.Product{}, cart.ErrProductNotFound
		}
		return cart.Product{}, err
	}
	return cart.Product{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Image:       p.Image,
		Brand:       p.Brand,
		Category:    p.Category,
		Description: p.Description,
		Rating:      p.Rating,
		InStock:     p.InStock,
		IsPopular:   p.IsPopular,
		IsNew:       p.IsNew,
	}, nil
}
