package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation              = errors.New("validation failed")
	ErrAppointmentNotFound     = errors.New("appointment not found")
	ErrPersistence             = errors.New("document store failure")
	ErrInvalidTransition       = errors.New("unknown transition type")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

// ValidationError names the input field that was missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Store is the document store capability the ledger depends on.
// Implementations return ErrAppointmentNotFound for unknown ids and wrap
// every other failure so that it matches ErrPersistence.
type Store interface {
	// Create assigns ID and CreatedAt.
	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// List returns every appointment newest first by CreatedAt.
	List(ctx context.Context) ([]Appointment, error)

	Update(ctx context.Context, id uuid.UUID, f Fields) (*Appointment, error)
}

// persistenceErr makes err match ErrPersistence unless it already carries a
// more specific kind.
func persistenceErr(op string, err error) error {
	if errors.Is(err, ErrAppointmentNotFound) || errors.Is(err, ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
