package domain

import "time"

// Gender values accepted by the profile editor. The empty string means
// "not specified".
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Genders lists the enumerated gender options in display order.
var Genders = []string{GenderMale, GenderFemale, GenderOther}

// User is the authenticated user's profile as returned by the upstream
// login collaborator. Field names follow the upstream wire format.
type User struct {
	ID             string     `json:"id"`
	FirstName      string     `json:"firstname"`
	LastName       string     `json:"lastname"`
	Email          string     `json:"email"`
	Phone          string     `json:"phone,omitempty"`
	Gender         string     `json:"gender,omitempty"`
	DateOfBirth    *time.Time `json:"dateOfBirth,omitempty"`
	Country        string     `json:"country,omitempty"`
	ProfilePicture string     `json:"profilePicture,omitempty"`
}

// ProfilePatch is a partial profile update. Nil fields are left unchanged
// upstream; only fields the user actually edited are set.
type ProfilePatch struct {
	FirstName    *string `json:"firstname,omitempty"`
	LastName     *string `json:"lastname,omitempty"`
	Gender       *string `json:"gender,omitempty"`
	DateOfBirth  *string `json:"dateOfBirth,omitempty"` // "2006-01-02"
	Country      *string `json:"country,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"` // data URL
}

// Empty reports whether the patch carries no changes at all.
func (p ProfilePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Gender == nil &&
		p.DateOfBirth == nil && p.Country == nil && p.Phone == nil &&
		p.ProfileImage == nil
}
