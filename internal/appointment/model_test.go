package appointment

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTargetStatus(t *testing.T) {
	got, err := TargetStatus(TransitionSchedule)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got)

	got, err = TargetStatus(TransitionCancel)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got)

	for _, bad := range []TransitionType{"", "create", "pending", "SCHEDULE"} {
		_, err := TargetStatus(bad)
		assert.ErrorIs(t, err, ErrInvalidTransition, "transition %q", bad)
	}
}

func TestParseTransitionType(t *testing.T) {
	tt, err := ParseTransitionType("cancel")
	require.NoError(t, err)
	assert.Equal(t, TransitionCancel, tt)

	_, err = ParseTransitionType("reopen")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestStatus(t *testing.T) {
	assert.True(t, StatusPending.Valid())
	assert.False(t, Status("expired").Valid())

	assert.False(t, StatusPending.Terminal())
	assert.True(t, StatusScheduled.Terminal())
	assert.True(t, StatusCancelled.Terminal())

	assert.Equal(t, "Ausstehend", StatusPending.Label())
	assert.Equal(t, "Geplant", StatusScheduled.Label())
	assert.Equal(t, "Abgesagt", StatusCancelled.Label())
	assert.Equal(t, "expired", Status("expired").Label())
}

func TestCountByStatus(t *testing.T) {
	docs := []Appointment{
		{ID: uuid.New(), Status: StatusScheduled},
		{ID: uuid.New(), Status: StatusPending},
		{ID: uuid.New(), Status: StatusPending},
		{ID: uuid.New(), Status: StatusCancelled},
		{ID: uuid.New(), Status: StatusScheduled},
		{ID: uuid.New(), Status: StatusScheduled},
	}

	c := CountByStatus(docs)
	assert.Equal(t, Counts{Total: 6, Scheduled: 3, Pending: 2, Cancelled: 1}, c)
	assert.Equal(t, c.Total, c.Scheduled+c.Pending+c.Cancelled)

	assert.Equal(t, Counts{}, CountByStatus(nil))

	withUnknown := append(docs, Appointment{ID: uuid.New(), Status: "expired"})
	assert.Equal(t, c, CountByStatus(withUnknown))
}

func TestComposeSMS(t *testing.T) {
	a := Appointment{
		PrimaryPhysician:   "Jane Powell",
		Schedule:           time.Date(2026, 3, 7, 14, 30, 0, 0, time.UTC),
		CancellationReason: "Patient unavailable",
	}

	assert.Equal(t,
		"Hi, this is CarePulse. Your appointment has been scheduled for 07. März 2026, 14:30 with Dr. Jane Powell.",
		ComposeSMS("CarePulse", a, TransitionSchedule))

	assert.Equal(t,
		"Hi, this is CarePulse. We regret to inform you that your appointment has been cancelled for the following reason: Patient unavailable",
		ComposeSMS("CarePulse", a, TransitionCancel))
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{Field: "reason", Reason: "is required"}
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, "validation failed: reason is required", err.Error())
}

func TestPersistenceErr(t *testing.T) {
	assert.ErrorIs(t, persistenceErr("get", ErrAppointmentNotFound), ErrAppointmentNotFound)
	assert.NotErrorIs(t, persistenceErr("get", ErrAppointmentNotFound), ErrPersistence)
	assert.ErrorIs(t, persistenceErr("get", assert.AnError), ErrPersistence)
	assert.ErrorIs(t, persistenceErr("get", assert.AnError), assert.AnError)
}
