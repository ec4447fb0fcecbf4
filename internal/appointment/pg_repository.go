package appointment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `id, patient_id, user_id, primary_physician, schedule, status,
	reason, note, cancellation_reason, created_at, updated_at`

// PgStore keeps appointments in the appointments table.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var reason, note, cancellationReason *string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.UserID,
		&a.PrimaryPhysician,
		&a.Schedule,
		&a.Status,
		&reason,
		&note,
		&cancellationReason,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	a.Reason = deref(reason)
	a.Note = deref(note)
	a.CancellationReason = deref(cancellationReason)
	return &a, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Store methods

func (r *PgStore) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	id := uuid.New()

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, user_id, primary_physician, schedule, status,
		                          reason, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+appointmentColumns,
		id, a.PatientID, a.UserID, a.PrimaryPhysician, a.Schedule, a.Status,
		nullable(a.Reason), nullable(a.Note))

	return scanAppointment(row)
}

func (r *PgStore) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgStore) List(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: list appointments: %w", ErrPersistence, err)
	}
	defer rows.Close()

	result := make([]Appointment, 0)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list appointments: %w", ErrPersistence, err)
	}

	return result, nil
}

// Update writes status unconditionally; the last writer wins.
func (r *PgStore) Update(ctx context.Context, id uuid.UUID, f Fields) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    primary_physician = COALESCE($3, primary_physician),
		    schedule = COALESCE($4, schedule),
		    cancellation_reason = COALESCE($5, cancellation_reason),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		id, f.Status, f.PrimaryPhysician, f.Schedule, f.CancellationReason)

	return scanAppointment(row)
}
