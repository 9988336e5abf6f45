package domain

import (
	"fmt"
	"strings"
)

// Roster is an ordered list of travelers addressed by 1-based position.
// Positions are derived from slice order, so after any insertion or removal
// they always form the dense range 1..Len().
type Roster struct {
	travelers []Traveler
}

// RosterEntry pairs a traveler with its current 1-based position.
type RosterEntry struct {
	Position  int    `json:"position"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// NewRoster copies travelers into a new roster, preserving their order.
func NewRoster(travelers []Traveler) Roster {
	out := make([]Traveler, len(travelers))
	copy(out, travelers)
	return Roster{travelers: out}
}

// Len returns the number of travelers.
func (r *Roster) Len() int { return len(r.travelers) }

// Has reports whether pos addresses an existing traveler.
func (r *Roster) Has(pos int) bool { return pos >= 1 && pos <= len(r.travelers) }

// At returns the traveler at pos.
// Returns ErrNotFound when pos is outside 1..Len().
func (r *Roster) At(pos int) (Traveler, error) {
	if !r.Has(pos) {
		return Traveler{}, fmt.Errorf("traveler %d: %w", pos, ErrNotFound)
	}
	return r.travelers[pos-1], nil
}

// Set overwrites the traveler at pos.
func (r *Roster) Set(pos int, t Traveler) error {
	if !r.Has(pos) {
		return fmt.Errorf("traveler %d: %w", pos, ErrNotFound)
	}
	r.travelers[pos-1] = t
	return nil
}

// Append adds t at the end and returns its position.
func (r *Roster) Append(t Traveler) int {
	r.travelers = append(r.travelers, t)
	return len(r.travelers)
}

// Remove deletes the traveler at pos; every later traveler moves up one
// position.
func (r *Roster) Remove(pos int) error {
	if !r.Has(pos) {
		return fmt.Errorf("traveler %d: %w", pos, ErrNotFound)
	}
	r.travelers = append(r.travelers[:pos-1], r.travelers[pos:]...)
	return nil
}

// Travelers returns a copy of the roster in position order.
func (r *Roster) Travelers() []Traveler {
	out := make([]Traveler, len(r.travelers))
	copy(out, r.travelers)
	return out
}

// Entries returns the roster with explicit positions, for display.
func (r *Roster) Entries() []RosterEntry {
	out := make([]RosterEntry, len(r.travelers))
	for i, t := range r.travelers {
		out[i] = RosterEntry{Position: i + 1, FirstName: t.FirstName, LastName: t.LastName}
	}
	return out
}

// Blank reports whether both names are empty after trimming whitespace.
func (t Traveler) Blank() bool {
	return strings.TrimSpace(t.FirstName) == "" && strings.TrimSpace(t.LastName) == ""
}

// Complete reports whether both names are non-empty after trimming whitespace.
func (t Traveler) Complete() bool {
	return strings.TrimSpace(t.FirstName) != "" && strings.TrimSpace(t.LastName) != ""
}
