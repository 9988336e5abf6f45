// Package itinerary renders a cart item as a one-page PDF the user can keep
// or print before paying.
package itinerary

import (
	"fmt"
	"io"

	"github.com/phpdave11/gofpdf"

	"github.com/pkordes/voyager-portal/internal/cartedit"
)

const dateLayout = "Mon, 02 Jan 2006"

// Filename is the download name for the itinerary of cart item id.
func Filename(id string) string {
	return fmt.Sprintf("itinerary-%s.pdf", id)
}

// Render writes the itinerary for v to w.
func Render(w io.Writer, v cartedit.View) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Itinerary "+v.Trip.Name, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(v.Trip.Name))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Route        : %s - %s", safe(v.Trip.DestinationFrom), safe(v.Trip.DestinationTo)),
		fmt.Sprintf("Departure    : %s", v.DepartureDate.Format(dateLayout)),
		fmt.Sprintf("Return       : %s", v.ReturnDate.Format(dateLayout)),
		fmt.Sprintf("Duration     : %d days / %d nights", v.Trip.DurationDays, v.Trip.Nights),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, tr(s))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Voyagers (%d)", v.TravelerCount))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 12)
	for _, t := range v.Travelers {
		pdf.Cell(0, 7, tr(fmt.Sprintf("%d. %s %s", t.Position, t.FirstName, t.LastName)))
		pdf.Ln(7)
	}
	pdf.Ln(4)

	pdf.Cell(0, 7, fmt.Sprintf("Price per voyager : %s", money(v.Trip.Price)))
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Total : %s", money(v.TotalPrice)))
	pdf.Ln(12)

	if v.Trip.Description != "" {
		pdf.SetFont("Helvetica", "I", 10)
		pdf.MultiCell(0, 6, tr(v.Trip.Description), "", "", false)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("itinerary.Render: %w", err)
	}
	return nil
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func safe(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
