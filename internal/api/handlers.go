package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-ledger/internal/appointment"
)

// Ledger is the subset of appointment.Service the handlers call.
type Ledger interface {
	CreateAppointment(ctx context.Context, in appointment.CreateInput) (*appointment.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
	ListRecentAppointments(ctx context.Context) appointment.RecentList
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, userID string, patch appointment.Patch, t appointment.TransitionType) (*appointment.Appointment, error)
}

func createAppointmentHandler(svc Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patientId must be a valid UUID")
			return
		}

		appt, err := svc.CreateAppointment(r.Context(), appointment.CreateInput{
			PatientID:        patientID,
			UserID:           req.UserID,
			PrimaryPhysician: req.PrimaryPhysician,
			Schedule:         req.Schedule,
			Reason:           req.Reason,
			Note:             req.Note,
		})
		if err != nil {
			handleLedgerError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toResponse(*appt))
	}
}

func getAppointmentHandler(svc Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleLedgerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(*appt))
	}
}

// listAppointmentsHandler always answers 200; a failing store shows up as an
// empty dashboard.
func listAppointmentsHandler(svc Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, toListResponse(svc.ListRecentAppointments(r.Context())))
	}
}

// transitionHandler serves POST /appointments/{id}/{transition}.
func transitionHandler(svc Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		t, err := appointment.ParseTransitionType(chi.URLParam(r, "transition"))
		if err != nil {
			handleLedgerError(w, err)
			return
		}

		var req TransitionRequest
		// an empty body is a transition without patch fields
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appt, err := svc.UpdateAppointmentStatus(r.Context(), id, req.UserID, appointment.Patch{
			PrimaryPhysician:   req.PrimaryPhysician,
			Schedule:           req.Schedule,
			CancellationReason: req.CancellationReason,
		}, t)
		if err != nil {
			handleLedgerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toResponse(*appt))
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, appointment.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "invalid_transition", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrInvalidStatusTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	case errors.Is(err, appointment.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "persistence_error", "the appointment store is unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}
