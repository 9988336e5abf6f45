package cartedit

import "time"

// Status is the transient save indicator shown after Persist.
type Status string

const (
	StatusNone  Status = ""
	StatusSaved Status = "saved"
	StatusError Status = "error"
)

// Message returns the user-facing text for s.
func (s Status) Message() string {
	switch s {
	case StatusSaved:
		return "Changes have been saved"
	case StatusError:
		return "There was an error saving your changes. Please try again."
	default:
		return ""
	}
}

// flash is a status that clears itself once until has passed. Nothing needs
// to fire a timer: readers ask for the status at a given instant.
type flash struct {
	status Status
	until  time.Time
}

func newFlash(s Status, now time.Time, d time.Duration) flash {
	return flash{status: s, until: now.Add(d)}
}

func (f flash) at(now time.Time) Status {
	if f.status == StatusNone || !now.Before(f.until) {
		return StatusNone
	}
	return f.status
}
