package patient

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// Patient is the intake record a person fills in before booking. UserID is
// the account id notifications are routed to.
type Patient struct {
	ID                     uuid.UUID `json:"id"`
	UserID                 string    `json:"userId"`
	Name                   string    `json:"name"`
	Email                  string    `json:"email"`
	Phone                  string    `json:"phone"`
	BirthDate              time.Time `json:"birthDate"`
	Gender                 Gender    `json:"gender"`
	Address                string    `json:"address,omitempty"`
	Occupation             string    `json:"occupation,omitempty"`
	EmergencyContactName   string    `json:"emergencyContactName,omitempty"`
	EmergencyContactNumber string    `json:"emergencyContactNumber,omitempty"`
	PrimaryPhysician       string    `json:"primaryPhysician"`
	InsuranceProvider      string    `json:"insuranceProvider,omitempty"`
	InsurancePolicyNumber  string    `json:"insurancePolicyNumber,omitempty"`
	Allergies              string    `json:"allergies,omitempty"`
	CurrentMedication      string    `json:"currentMedication,omitempty"`
	FamilyMedicalHistory   string    `json:"familyMedicalHistory,omitempty"`
	PastMedicalHistory     string    `json:"pastMedicalHistory,omitempty"`
	IdentificationType     string    `json:"identificationType,omitempty"`
	IdentificationNumber   string    `json:"identificationNumber,omitempty"`
	TreatmentConsent       bool      `json:"treatmentConsent"`
	DisclosureConsent      bool      `json:"disclosureConsent"`
	PrivacyConsent         bool      `json:"privacyConsent"`
	CreatedAt              time.Time `json:"createdAt"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

// RegisterInput is the registration form. All three consents must be given.
// An empty UserID gets a generated one.
type RegisterInput struct {
	UserID                 string    `json:"userId" validate:"max=64"`
	Name                   string    `json:"name" validate:"required,min=2,max=50"`
	Email                  string    `json:"email" validate:"required,email"`
	Phone                  string    `json:"phone" validate:"required,e164"`
	BirthDate              time.Time `json:"birthDate" validate:"required"`
	Gender                 Gender    `json:"gender" validate:"required,oneof=male female other"`
	Address                string    `json:"address" validate:"max=500"`
	Occupation             string    `json:"occupation" validate:"max=500"`
	EmergencyContactName   string    `json:"emergencyContactName" validate:"max=50"`
	EmergencyContactNumber string    `json:"emergencyContactNumber" validate:"omitempty,e164"`
	PrimaryPhysician       string    `json:"primaryPhysician" validate:"required,max=200"`
	InsuranceProvider      string    `json:"insuranceProvider" validate:"max=50"`
	InsurancePolicyNumber  string    `json:"insurancePolicyNumber" validate:"max=50"`
	Allergies              string    `json:"allergies" validate:"max=2000"`
	CurrentMedication      string    `json:"currentMedication" validate:"max=2000"`
	FamilyMedicalHistory   string    `json:"familyMedicalHistory" validate:"max=2000"`
	PastMedicalHistory     string    `json:"pastMedicalHistory" validate:"max=2000"`
	IdentificationType     string    `json:"identificationType" validate:"max=50"`
	IdentificationNumber   string    `json:"identificationNumber" validate:"max=50"`
	TreatmentConsent       bool      `json:"treatmentConsent" validate:"required"`
	DisclosureConsent      bool      `json:"disclosureConsent" validate:"required"`
	PrivacyConsent         bool      `json:"privacyConsent" validate:"required"`
}
