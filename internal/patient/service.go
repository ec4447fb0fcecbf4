package patient

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var validate = newValidator()

// newValidator reports json field names so errors match the request body.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Service registers patients and looks them up for the booking flow.
type Service struct {
	store  Store
	logger zerolog.Logger
}

func NewService(store Store, logger zerolog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

func (s *Service) RegisterPatient(ctx context.Context, in RegisterInput) (*Patient, error) {
	normalize(&in)
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.UserID == "" {
		in.UserID = uuid.NewString()
	}

	created, err := s.store.Create(ctx, &Patient{
		UserID:                 in.UserID,
		Name:                   in.Name,
		Email:                  in.Email,
		Phone:                  in.Phone,
		BirthDate:              in.BirthDate,
		Gender:                 in.Gender,
		Address:                in.Address,
		Occupation:             in.Occupation,
		EmergencyContactName:   in.EmergencyContactName,
		EmergencyContactNumber: in.EmergencyContactNumber,
		PrimaryPhysician:       in.PrimaryPhysician,
		InsuranceProvider:      in.InsuranceProvider,
		InsurancePolicyNumber:  in.InsurancePolicyNumber,
		Allergies:              in.Allergies,
		CurrentMedication:      in.CurrentMedication,
		FamilyMedicalHistory:   in.FamilyMedicalHistory,
		PastMedicalHistory:     in.PastMedicalHistory,
		IdentificationType:     in.IdentificationType,
		IdentificationNumber:   in.IdentificationNumber,
		TreatmentConsent:       in.TreatmentConsent,
		DisclosureConsent:      in.DisclosureConsent,
		PrivacyConsent:         in.PrivacyConsent,
	})
	if err != nil {
		return nil, storeErr("register patient", err)
	}

	s.logger.Info().
		Str("patient_id", created.ID.String()).
		Str("user_id", created.UserID).
		Msg("patient registered")

	return created, nil
}

func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	if id == uuid.Nil {
		return nil, &ValidationError{Field: "patientId", Reason: "is required"}
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, storeErr("get patient", err)
	}
	return p, nil
}

// GetPatientByUserID resolves the patient behind an account, as the booking
// confirmation page does.
func (s *Service) GetPatientByUserID(ctx context.Context, userID string) (*Patient, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, &ValidationError{Field: "userId", Reason: "is required"}
	}
	p, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, storeErr("get patient by user", err)
	}
	return p, nil
}

func normalize(in *RegisterInput) {
	for _, f := range []*string{
		&in.UserID, &in.Name, &in.Phone, &in.Address, &in.Occupation,
		&in.EmergencyContactName, &in.EmergencyContactNumber, &in.PrimaryPhysician,
		&in.InsuranceProvider, &in.InsurancePolicyNumber, &in.Allergies,
		&in.CurrentMedication, &in.FamilyMedicalHistory, &in.PastMedicalHistory,
		&in.IdentificationType, &in.IdentificationNumber,
	} {
		*f = strings.TrimSpace(*f)
	}
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

func validateInput(in RegisterInput) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "is invalid"
		switch fe.Tag() {
		case "required":
			reason = "is required"
		case "max":
			reason = "exceeds " + fe.Param() + " characters"
		case "min":
			reason = "needs at least " + fe.Param() + " characters"
		case "email":
			reason = "must be an email address"
		case "e164":
			reason = "must be an international phone number"
		case "oneof":
			reason = "must be one of " + fe.Param()
		}
		return &ValidationError{Field: fe.Field(), Reason: reason}
	}
	return &ValidationError{Field: "input", Reason: err.Error()}
}

func storeErr(op string, err error) error {
	if errors.Is(err, ErrPatientNotFound) || errors.Is(err, ErrUserRegistered) || errors.Is(err, ErrPersistence) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}
