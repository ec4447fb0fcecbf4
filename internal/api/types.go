package api

import (
	"time"

	"github.com/hackgods/clinic-appointment-ledger/internal/appointment"
)

type CreateAppointmentRequest struct {
	PatientID        string    `json:"patientId"`
	UserID           string    `json:"userId"`
	PrimaryPhysician string    `json:"primaryPhysician"`
	Schedule         time.Time `json:"schedule"`
	Reason           string    `json:"reason"`
	Note             string    `json:"note,omitempty"`
}

// TransitionRequest is the body of the schedule and cancel endpoints. Omitted
// fields keep their stored value.
type TransitionRequest struct {
	UserID             string     `json:"userId"`
	PrimaryPhysician   *string    `json:"primaryPhysician,omitempty"`
	Schedule           *time.Time `json:"schedule,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
}

type AppointmentResponse struct {
	appointment.Appointment
	StatusLabel string `json:"statusLabel"`
}

type RecentListResponse struct {
	TotalCount     int                   `json:"totalCount"`
	ScheduledCount int                   `json:"scheduledCount"`
	PendingCount   int                   `json:"pendingCount"`
	CancelledCount int                   `json:"cancelledCount"`
	Documents      []AppointmentResponse `json:"documents"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toResponse(a appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{Appointment: a, StatusLabel: a.Status.Label()}
}

func toListResponse(l appointment.RecentList) RecentListResponse {
	docs := make([]AppointmentResponse, 0, len(l.Documents))
	for _, a := range l.Documents {
		docs = append(docs, toResponse(a))
	}
	return RecentListResponse{
		TotalCount:     l.Total,
		ScheduledCount: l.Scheduled,
		PendingCount:   l.Pending,
		CancelledCount: l.Cancelled,
		Documents:      docs,
	}
}
