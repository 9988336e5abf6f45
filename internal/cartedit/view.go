package cartedit

import (
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/voyager-portal/internal/domain"
)

// TripView is the trip summary shown on the page.
type TripView struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	CoverImage      string   `json:"cover_image,omitempty"`
	PackageImages   []string `json:"package_images,omitempty"`
	DestinationFrom string   `json:"destination_from"`
	DestinationTo   string   `json:"destination_to"`
	DurationDays    int      `json:"duration_days"`
	Nights          int      `json:"nights"`
	Price           float64  `json:"price"`
}

// DraftView is the open edit surface.
type DraftView struct {
	Position  int    `json:"position"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// View is a consistent snapshot of the editor for rendering.
type View struct {
	CartItemID       string               `json:"cart_item_id"`
	Trip             TripView             `json:"trip"`
	Travelers        []domain.RosterEntry `json:"travelers"`
	Editing          *DraftView           `json:"editing,omitempty"`
	DepartureDate    openapi_types.Date   `json:"departure_date"`
	ReturnDate       openapi_types.Date   `json:"return_date"`
	MinDepartureDate openapi_types.Date   `json:"min_departure_date"`
	TravelerCount    int                  `json:"traveler_count"`
	TotalPrice       float64              `json:"total_price"`
	Status           Status               `json:"status,omitempty"`
	StatusMessage    string               `json:"status_message,omitempty"`
}

// View returns the current state. Derived values (total price, return date,
// live status) are computed on every call, so they always reflect the latest
// roster and departure date.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	status := e.flash.at(e.opts.Now())
	v := View{
		CartItemID: e.id,
		Trip: TripView{
			ID:              e.trip.ID,
			Name:            e.trip.Name,
			Description:     e.trip.Description,
			CoverImage:      e.trip.CoverImage(),
			PackageImages:   e.trip.PackageImages,
			DestinationFrom: e.trip.DestinationFrom,
			DestinationTo:   e.trip.DestinationTo,
			DurationDays:    e.trip.DurationDays,
			Nights:          e.trip.Nights(),
			Price:           e.trip.Price,
		},
		Travelers:        e.roster.Entries(),
		DepartureDate:    openapi_types.Date{Time: e.departure},
		ReturnDate:       openapi_types.Date{Time: e.trip.ReturnDate(e.departure)},
		MinDepartureDate: openapi_types.Date{Time: e.today()},
		TravelerCount:    e.roster.Len(),
		TotalPrice:       e.trip.TotalPrice(e.roster.Len()),
		Status:           status,
		StatusMessage:    status.Message(),
	}
	if e.open != 0 {
		if t, err := e.roster.At(e.open); err == nil {
			v.Editing = &DraftView{Position: e.open, FirstName: t.FirstName, LastName: t.LastName}
		}
	}
	return v
}
