package domain

import "time"

// Traveler is a named participant in a booking.
type Traveler struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// CartItem is a pending, not-yet-paid booking: a trip reference, a departure
// date, and the ordered traveler list.
type CartItem struct {
	ID            string
	TripID        string
	DepartureDate time.Time
	Travelers     []Traveler
}

// CartUpdate is the full-replacement body sent when a cart item is saved.
// Positional keys are not part of the update; order is preserved.
type CartUpdate struct {
	DepartureDate time.Time
	Travelers     []Traveler
}
