package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrPatientNotFound = errors.New("patient not found")
	ErrUserRegistered  = errors.New("user already registered")
	ErrPersistence     = errors.New("patient store failure")
)

// ValidationError names the registration field that was missing or malformed.
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

// Store keeps patient records. Create returns ErrUserRegistered when the user
// id is taken.
type Store interface {
	Create(ctx context.Context, p *Patient) (*Patient, error)
	Get(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByUserID(ctx context.Context, userID string) (*Patient, error)
}
