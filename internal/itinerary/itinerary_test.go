package itinerary_test

import (
	"bytes"
	"testing"
	"time"

	openapi_types "github.com/oapi-codegen/runtime/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/voyager-portal/internal/cartedit"
	"github.com/pkordes/voyager-portal/internal/domain"
	"github.com/pkordes/voyager-portal/internal/itinerary"
)

func TestRender_WritesPDF(t *testing.T) {
	dep := time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)
	v := cartedit.View{
		CartItemID: "c-1",
		Trip: cartedit.TripView{
			Name: "Okinawa Café Tour", DestinationFrom: "BKK", DestinationTo: "OKA",
			DurationDays: 5, Nights: 4, Price: 1000, Description: "Five days by the sea.",
		},
		Travelers: []domain.RosterEntry{
			{Position: 1, FirstName: "Ada", LastName: "Lovelace"},
			{Position: 2, FirstName: "Blaise", LastName: "Pascal"},
		},
		DepartureDate: openapi_types.Date{Time: dep},
		ReturnDate:    openapi_types.Date{Time: dep.AddDate(0, 0, 4)},
		TravelerCount: 2,
		TotalPrice:    2000,
	}
	var buf bytes.Buffer

	err := itinerary.Render(&buf, v)

	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Contains(t, buf.String(), "%%EOF")
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "itinerary-c-1.pdf", itinerary.Filename("c-1"))
}
