package profile

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// DefaultAvatar is shown when the user has neither a stored nor a pending
// avatar.
const DefaultAvatar = "/user/profile.jpg"

var (
	// ErrNotImage is returned by SelectAvatar when the upload is empty or its
	// detected type is not image/*.
	ErrNotImage = fmt.Errorf("%w: avatar must be an image", domain.ErrValidation)

	// ErrAvatarTooLarge is returned by SelectAvatar when the upload exceeds
	// Options.AvatarMaxBytes.
	ErrAvatarTooLarge = fmt.Errorf("%w: avatar is too large", domain.ErrValidation)
)

// readAvatar reads at most max bytes from r and returns them as a data URL.
func readAvatar(r io.Reader, max int64) (string, error) {
	b, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return "", fmt.Errorf("read avatar: %w", err)
	}
	if int64(len(b)) > max {
		return "", ErrAvatarTooLarge
	}
	if len(b) == 0 {
		return "", ErrNotImage
	}
	mt := mimetype.Detect(b)
	if !strings.HasPrefix(mt.String(), "image/") {
		return "", ErrNotImage
	}
	return "data:" + mt.String() + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}
