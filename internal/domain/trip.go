// Package domain contains the core data types for the Voyager portal.
// This package has no dependencies on other internal packages and is imported
// by every one of them (upstream, session, cartedit, profile, handler).
package domain

import "time"

// Trip is read-only reference data describing a bookable travel package.
// It is fetched once per cart-edit mount and never mutated by the portal.
type Trip struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Images          []string `json:"images"`
	DestinationFrom string   `json:"destination_from"`
	DestinationTo   string   `json:"destination_to"`
	DurationDays    int      `json:"duration_days"`
	Price           float64  `json:"price"`
	PackageImages   []string `json:"package_images,omitempty"`
}

// CoverImage returns the first image of the trip, or "" when it has none.
func (t Trip) CoverImage() string {
	if len(t.Images) == 0 {
		return ""
	}
	return t.Images[0]
}

// Nights is the number of nights spent on the trip (duration in days minus one).
// A zero-day trip yields zero nights rather than a negative count.
func (t Trip) Nights() int {
	if t.DurationDays < 1 {
		return 0
	}
	return t.DurationDays - 1
}

// ReturnDate is the date of the return leg for a trip departing on departure.
// The departure day counts as day one, so a 5-day trip departing on the 1st
// returns on the 5th.
func (t Trip) ReturnDate(departure time.Time) time.Time {
	return departure.AddDate(0, 0, t.Nights())
}

// TotalPrice is the package price multiplied by the number of travelers.
func (t Trip) TotalPrice(travelers int) float64 {
	return t.Price * float64(travelers)
}
