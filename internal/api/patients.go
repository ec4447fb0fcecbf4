package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackgods/clinic-appointment-ledger/internal/patient"
)

// Registry is the subset of patient.Service the handlers call.
type Registry interface {
	RegisterPatient(ctx context.Context, in patient.RegisterInput) (*patient.Patient, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
	GetPatientByUserID(ctx context.Context, userID string) (*patient.Patient, error)
}

func registerPatientHandler(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in patient.RegisterInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		p, err := reg.RegisterPatient(r.Context(), in)
		if err != nil {
			handlePatientError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, p)
	}
}

func getPatientHandler(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		p, err := reg.GetPatient(r.Context(), id)
		if err != nil {
			handlePatientError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

// findPatientHandler serves GET /patients?userId=...
func findPatientHandler(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := reg.GetPatientByUserID(r.Context(), r.URL.Query().Get("userId"))
		if err != nil {
			handlePatientError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

func handlePatientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, patient.ErrValidation):
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, patient.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, patient.ErrUserRegistered):
		writeError(w, http.StatusConflict, "user_already_registered", err.Error())
	case errors.Is(err, patient.ErrPersistence):
		writeError(w, http.StatusInternalServerError, "persistence_error", "the patient store is unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
