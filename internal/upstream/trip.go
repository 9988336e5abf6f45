package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// GetTrip handles GET {api}/trips/{id}. Unauthenticated.
// A response without a trip object is reported as domain.ErrNotFound.
func (c *Client) GetTrip(ctx context.Context, id string) (domain.Trip, error) {
	var resp struct {
		Trip *wireTrip `json:"trip"`
	}
	if err := c.do(ctx, http.MethodGet, "/trips/"+escape(id), "", nil, &resp); err != nil {
		return domain.Trip{}, fmt.Errorf("upstream.Client.GetTrip: %w", err)
	}
	if resp.Trip == nil {
		return domain.Trip{}, fmt.Errorf("upstream.Client.GetTrip: %w", domain.ErrNotFound)
	}
	return resp.Trip.toDomain(id), nil
}
