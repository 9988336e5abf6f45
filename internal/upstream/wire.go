package upstream

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// wireDate accepts either a calendar date ("2006-01-02") or a full RFC 3339
// timestamp, since the backend echoes whatever the browser originally sent.
// It always marshals as a calendar date.
type wireDate struct {
	time.Time
}

func (d *wireDate) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		d.Time = t
		return nil
	}
	var od openapi_types.Date
	if err := od.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	d.Time = od.Time
	return nil
}

func (d wireDate) MarshalJSON() ([]byte, error) {
	return openapi_types.Date{Time: d.Time}.MarshalJSON()
}

type wireTraveler struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type wireCartItem struct {
	ID            string         `json:"_id"`
	AltID         string         `json:"id"`
	TripID        string         `json:"trip_id"`
	DepartureDate wireDate       `json:"departure_date"`
	Travelers     []wireTraveler `json:"travelers"`
}

func (w wireCartItem) toDomain(fallbackID string) domain.CartItem {
	item := domain.CartItem{
		ID:            firstNonEmpty(w.ID, w.AltID, fallbackID),
		TripID:        w.TripID,
		DepartureDate: w.DepartureDate.Time,
		Travelers:     make([]domain.Traveler, len(w.Travelers)),
	}
	for i, t := range w.Travelers {
		item.Travelers[i] = domain.Traveler{FirstName: t.FirstName, LastName: t.LastName}
	}
	return item
}

type wireCartUpdate struct {
	DepartureDate wireDate       `json:"departure_date"`
	Travelers     []wireTraveler `json:"travelers"`
}

type wireTrip struct {
	ID              string   `json:"_id"`
	AltID           string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Images          []string `json:"images"`
	DestinationFrom string   `json:"destination_from"`
	DestinationTo   string   `json:"destination_to"`
	DurationDays    int      `json:"duration_days"`
	Price           float64  `json:"price"`
	PackageImages   []string `json:"package_images"`
}

func (w wireTrip) toDomain(fallbackID string) domain.Trip {
	return domain.Trip{
		ID:              firstNonEmpty(w.ID, w.AltID, fallbackID),
		Name:            w.Name,
		Description:     w.Description,
		Images:          w.Images,
		DestinationFrom: w.DestinationFrom,
		DestinationTo:   w.DestinationTo,
		DurationDays:    w.DurationDays,
		Price:           w.Price,
		PackageImages:   w.PackageImages,
	}
}

type wireUser struct {
	ID             string    `json:"_id"`
	AltID          string    `json:"id"`
	FirstName      string    `json:"firstname"`
	LastName       string    `json:"lastname"`
	Email          string    `json:"email"`
	Phone          string    `json:"phone"`
	Gender         string    `json:"gender"`
	DateOfBirth    *wireDate `json:"dateOfBirth"`
	Country        string    `json:"country"`
	ProfilePicture string    `json:"profilePicture"`
}

func (w wireUser) toDomain() domain.User {
	u := domain.User{
		ID:             firstNonEmpty(w.ID, w.AltID),
		FirstName:      w.FirstName,
		LastName:       w.LastName,
		Email:          w.Email,
		Phone:          w.Phone,
		Gender:         w.Gender,
		Country:        w.Country,
		ProfilePicture: w.ProfilePicture,
	}
	if w.DateOfBirth != nil && !w.DateOfBirth.IsZero() {
		dob := w.DateOfBirth.Time
		u.DateOfBirth = &dob
	}
	return u
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
