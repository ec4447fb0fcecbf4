package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusScheduled Status = "scheduled"
	StatusCancelled Status = "cancelled"
)

var statusLabels = map[Status]string{
	StatusPending:   "Ausstehend",
	StatusScheduled: "Geplant",
	StatusCancelled: "Abgesagt",
}

func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Terminal reports whether no transition is defined out of s.
func (s Status) Terminal() bool {
	return s == StatusScheduled || s == StatusCancelled
}

// Label is the front desk display text for s.
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

type Appointment struct {
	ID                 uuid.UUID `json:"id"`
	PatientID          uuid.UUID `json:"patientId"`
	UserID             string    `json:"userId"`
	PrimaryPhysician   string    `json:"primaryPhysician"`
	Schedule           time.Time `json:"schedule"`
	Status             Status    `json:"status"`
	Reason             string    `json:"reason,omitempty"`
	Note               string    `json:"note,omitempty"`
	CancellationReason string    `json:"cancellationReason,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// CreateInput is what a patient submits when booking.
type CreateInput struct {
	PatientID        uuid.UUID `validate:"required"`
	UserID           string
	PrimaryPhysician string    `validate:"required,max=200"`
	Schedule         time.Time `validate:"required"`
	Reason           string    `validate:"required,max=2000"`
	Note             string    `validate:"max=2000"`
}

// Patch carries the fields an administrator may change alongside a transition.
// Nil means leave as stored.
type Patch struct {
	PrimaryPhysician   *string
	Schedule           *time.Time
	CancellationReason *string
}

// Fields is the resolved column set written by Store.Update.
type Fields struct {
	Status             Status
	PrimaryPhysician   *string
	Schedule           *time.Time
	CancellationReason *string
}

// Counts is the dashboard read model. It is recomputed from the authoritative
// list on every request.
type Counts struct {
	Total     int `json:"totalCount"`
	Scheduled int `json:"scheduledCount"`
	Pending   int `json:"pendingCount"`
	Cancelled int `json:"cancelledCount"`
}

type RecentList struct {
	Counts
	Documents []Appointment `json:"documents"`
}

// CountByStatus walks docs once and tallies each status. Documents with an
// unknown status are skipped; none are reordered or deduplicated.
func CountByStatus(docs []Appointment) Counts {
	var c Counts
	for _, a := range docs {
		if !a.Status.Valid() {
			continue
		}
		switch a.Status {
		case StatusScheduled:
			c.Scheduled++
		case StatusPending:
			c.Pending++
		case StatusCancelled:
			c.Cancelled++
		}
		c.Total++
	}
	return c
}
