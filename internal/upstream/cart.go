package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// GetCartItem handles GET {api}/cart/{id}. Bearer-authenticated.
// Returns domain.ErrNotFound when the backend has no such cart item.
func (c *Client) GetCartItem(ctx context.Context, token, id string) (domain.CartItem, error) {
	var resp struct {
		CartItem *wireCartItem `json:"cartItem"`
	}
	if err := c.do(ctx, http.MethodGet, "/cart/"+escape(id), token, nil, &resp); err != nil {
		return domain.CartItem{}, fmt.Errorf("upstream.Client.GetCartItem: %w", err)
	}
	if resp.CartItem == nil {
		return domain.CartItem{}, fmt.Errorf("upstream.Client.GetCartItem: %w", domain.ErrNotFound)
	}
	return resp.CartItem.toDomain(id), nil
}

// UpdateCartItem handles PUT {api}/cart/{id}. Bearer-authenticated.
// The body fully replaces the departure date and traveler list.
func (c *Client) UpdateCartItem(ctx context.Context, token, id string, upd domain.CartUpdate) error {
	body := wireCartUpdate{
		DepartureDate: wireDate{Time: upd.DepartureDate},
		Travelers:     make([]wireTraveler, len(upd.Travelers)),
	}
	for i, t := range upd.Travelers {
		body.Travelers[i] = wireTraveler{FirstName: t.FirstName, LastName: t.LastName}
	}
	if err := c.do(ctx, http.MethodPut, "/cart/"+escape(id), token, body, nil); err != nil {
		return fmt.Errorf("upstream.Client.UpdateCartItem: %w", err)
	}
	return nil
}
