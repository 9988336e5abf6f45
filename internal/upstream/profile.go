package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// UpdateProfile handles PUT {api}/profile/{userID}. Bearer-authenticated.
// Only the non-nil fields of patch are sent.
func (c *Client) UpdateProfile(ctx context.Context, token, userID string, patch domain.ProfilePatch) error {
	if err := c.do(ctx, http.MethodPut, "/profile/"+escape(userID), token, patch, nil); err != nil {
		return fmt.Errorf("upstream.Client.UpdateProfile: %w", err)
	}
	return nil
}
