package profile

import (
	"maps"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// PromptView is the password confirmation prompt. The password itself is
// never echoed back.
type PromptView struct {
	Open        bool   `json:"open"`
	HasPassword bool   `json:"has_password"`
	Error       string `json:"error,omitempty"`
}

// View is a snapshot of the profile page.
type View struct {
	Values         Values             `json:"values"`
	FieldErrors    map[string]string  `json:"field_errors,omitempty"`
	Dirty          bool               `json:"dirty"`
	AvatarPending  bool               `json:"avatar_pending"`
	CanSubmit      bool               `json:"can_submit"`
	Avatar         string             `json:"avatar"`
	Genders        []string           `json:"genders"`
	MaxDateOfBirth openapi_types.Date `json:"max_date_of_birth"`
	Prompt         PromptView         `json:"prompt"`
}

// View returns the current state.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	y, m, d := e.today().Date()
	avatar := e.avatar
	if avatar == "" {
		avatar = e.user.ProfilePicture
	}
	if avatar == "" {
		avatar = DefaultAvatar
	}
	return View{
		Values:         e.values,
		FieldErrors:    maps.Clone(e.fieldErrs),
		Dirty:          e.dirty(),
		AvatarPending:  e.avatar != "",
		CanSubmit:      e.submittable() == nil,
		Avatar:         avatar,
		Genders:        domain.Genders,
		MaxDateOfBirth: openapi_types.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)},
		Prompt: PromptView{
			Open:        e.prompt,
			HasPassword: e.password != "",
			Error:       e.promptErr,
		},
	}
}
