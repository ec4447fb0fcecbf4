package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const patientColumns = `id, user_id, name, email, phone, birth_date, gender, address, occupation,
	emergency_contact_name, emergency_contact_number, primary_physician,
	insurance_provider, insurance_policy_number, allergies, current_medication,
	family_medical_history, past_medical_history, identification_type, identification_number,
	treatment_consent, disclosure_consent, privacy_consent, created_at, updated_at`

type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(
		&p.ID, &p.UserID, &p.Name, &p.Email, &p.Phone, &p.BirthDate, &p.Gender,
		&p.Address, &p.Occupation, &p.EmergencyContactName, &p.EmergencyContactNumber,
		&p.PrimaryPhysician, &p.InsuranceProvider, &p.InsurancePolicyNumber,
		&p.Allergies, &p.CurrentMedication, &p.FamilyMedicalHistory, &p.PastMedicalHistory,
		&p.IdentificationType, &p.IdentificationNumber,
		&p.TreatmentConsent, &p.DisclosureConsent, &p.PrivacyConsent,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func classify(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPatientNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrUserRegistered
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

func (r *PgStore) Create(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, user_id, name, email, phone, birth_date, gender, address,
		                      occupation, emergency_contact_name, emergency_contact_number,
		                      primary_physician, insurance_provider, insurance_policy_number,
		                      allergies, current_medication, family_medical_history,
		                      past_medical_history, identification_type, identification_number,
		                      treatment_consent, disclosure_consent, privacy_consent,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		        $18, $19, $20, $21, $22, $23, now(), now())
		RETURNING `+patientColumns,
		uuid.New(), p.UserID, p.Name, p.Email, p.Phone, p.BirthDate, p.Gender, p.Address,
		p.Occupation, p.EmergencyContactName, p.EmergencyContactNumber,
		p.PrimaryPhysician, p.InsuranceProvider, p.InsurancePolicyNumber,
		p.Allergies, p.CurrentMedication, p.FamilyMedicalHistory,
		p.PastMedicalHistory, p.IdentificationType, p.IdentificationNumber,
		p.TreatmentConsent, p.DisclosureConsent, p.PrivacyConsent)

	return scanPatient(row)
}

func (r *PgStore) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
}

func (r *PgStore) GetByUserID(ctx context.Context, userID string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE user_id = $1`, userID))
}
