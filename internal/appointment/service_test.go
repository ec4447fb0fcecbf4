package appointment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-appointment-ledger/internal/metrics"
	"github.com/hackgods/clinic-appointment-ledger/internal/notify"
)

// -- fakes --

type memStore struct {
	mu    sync.Mutex
	docs  map[uuid.UUID]*Appointment
	clock time.Time

	createErr error
	listErr   error
	getErr    error
	updateErr error
}

func newMemStore() *memStore {
	return &memStore{
		docs:  make(map[uuid.UUID]*Appointment),
		clock: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memStore) Create(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	cp := *a
	cp.ID = uuid.New()
	m.clock = m.clock.Add(time.Minute)
	cp.CreatedAt = m.clock
	cp.UpdatedAt = m.clock
	m.docs[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memStore) Get(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	a, ok := m.docs[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	out := *a
	return &out, nil
}

func (m *memStore) List(_ context.Context) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Appointment
	for _, a := range m.docs {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) Update(_ context.Context, id uuid.UUID, f Fields) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return nil, m.updateErr
	}
	a, ok := m.docs[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	a.Status = f.Status
	if f.PrimaryPhysician != nil {
		a.PrimaryPhysician = *f.PrimaryPhysician
	}
	if f.Schedule != nil {
		a.Schedule = *f.Schedule
	}
	if f.CancellationReason != nil {
		a.CancellationReason = *f.CancellationReason
	}
	out := *a
	return &out, nil
}

type smsCall struct {
	userID  string
	message string
}

type fakeSender struct {
	mu    sync.Mutex
	calls []smsCall
	err   error
}

func (f *fakeSender) SendSMS(_ context.Context, userID, message string) (*notify.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, smsCall{userID: userID, message: message})
	if f.err != nil {
		return nil, f.err
	}
	return &notify.Receipt{ID: uuid.New(), AcceptedAt: time.Now()}, nil
}

func newTestService(store Store, sender notify.Sender) *Service {
	return NewService(store, sender, zerolog.Nop(), WithSenderName("CarePulse"))
}

func validInput() CreateInput {
	return CreateInput{
		PatientID:        uuid.New(),
		UserID:           "user-42",
		PrimaryPhysician: "Jane Powell",
		Schedule:         time.Date(2026, 3, 7, 14, 30, 0, 0, time.UTC),
		Reason:           "Checkup",
	}
}

func strPtr(s string) *string { return &s }

// -- CreateAppointment --

func TestCreateAppointment_ForcesPending(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeSender{})

	appt, err := svc.CreateAppointment(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, appt.ID)
	assert.Equal(t, StatusPending, appt.Status)
	assert.Equal(t, "Checkup", appt.Reason)
	assert.False(t, appt.CreatedAt.IsZero())
}

func TestCreateAppointment_Validation(t *testing.T) {
	cases := map[string]struct {
		mutate func(*CreateInput)
		field  string
	}{
		"missing patient":   {func(in *CreateInput) { in.PatientID = uuid.Nil }, "patientId"},
		"missing physician": {func(in *CreateInput) { in.PrimaryPhysician = "  " }, "primaryPhysician"},
		"missing schedule":  {func(in *CreateInput) { in.Schedule = time.Time{} }, "schedule"},
		"missing reason":    {func(in *CreateInput) { in.Reason = "" }, "reason"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			store := newMemStore()
			svc := newTestService(store, &fakeSender{})
			in := validInput()
			tc.mutate(&in)

			appt, err := svc.CreateAppointment(context.Background(), in)
			require.Error(t, err)
			assert.Nil(t, appt)
			assert.ErrorIs(t, err, ErrValidation)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
			assert.Empty(t, store.docs)
		})
	}
}

func TestCreateAppointment_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.createErr = errors.New("connection reset")
	svc := newTestService(store, &fakeSender{})

	appt, err := svc.CreateAppointment(context.Background(), validInput())
	assert.Nil(t, appt)
	assert.ErrorIs(t, err, ErrPersistence)
}

// -- GetAppointment --

func TestGetAppointment_Found(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeSender{})
	created, err := svc.CreateAppointment(context.Background(), validInput())
	require.NoError(t, err)

	got, err := svc.GetAppointment(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestGetAppointment_NotFound(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeSender{})

	got, err := svc.GetAppointment(context.Background(), uuid.New())
	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.NotErrorIs(t, err, ErrPersistence)
}

func TestGetAppointment_NilID(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeSender{})

	_, err := svc.GetAppointment(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestGetAppointment_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.getErr = errors.New("timeout")
	svc := newTestService(store, &fakeSender{})

	_, err := svc.GetAppointment(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrPersistence)
	assert.NotErrorIs(t, err, ErrAppointmentNotFound)
}

// -- ListRecentAppointments --

func TestListRecentAppointments_NewestFirst(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeSender{})
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		a, err := svc.CreateAppointment(ctx, validInput())
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	list := svc.ListRecentAppointments(ctx)
	require.Len(t, list.Documents, 3)
	assert.Equal(t, ids[2], list.Documents[0].ID)
	assert.Equal(t, ids[1], list.Documents[1].ID)
	assert.Equal(t, ids[0], list.Documents[2].ID)
}

func TestListRecentAppointments_DegradesToEmpty(t *testing.T) {
	store := newMemStore()
	store.listErr = errors.New("store offline")
	m := metrics.New()
	svc := NewService(store, &fakeSender{}, zerolog.Nop(), WithMetrics(m))

	list := svc.ListRecentAppointments(context.Background())
	assert.Equal(t, Counts{}, list.Counts)
	assert.NotNil(t, list.Documents)
	assert.Empty(t, list.Documents)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ListDegraded))
}

func TestListRecentAppointments_EmptyStore(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeSender{})

	list := svc.ListRecentAppointments(context.Background())
	assert.Equal(t, 0, list.Total)
	assert.NotNil(t, list.Documents)
}

// -- UpdateAppointmentStatus --

func TestUpdateAppointmentStatus_ScheduleScenario(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(newMemStore(), sender)
	ctx := context.Background()

	a, err := svc.CreateAppointment(ctx, validInput())
	require.NoError(t, err)
	require.Equal(t, StatusPending, a.Status)

	updated, err := svc.UpdateAppointmentStatus(ctx, a.ID, "user-42", Patch{}, TransitionSchedule)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, updated.Status)

	require.Len(t, sender.calls, 1)
	assert.Equal(t, "user-42", sender.calls[0].userID)
	assert.Contains(t, sender.calls[0].message, "Dr. Jane Powell")

	list := svc.ListRecentAppointments(ctx)
	assert.Equal(t, 1, list.Scheduled)
	assert.Equal(t, 0, list.Pending)
	assert.Equal(t, StatusScheduled, list.Documents[0].Status)
}

func TestUpdateAppointmentStatus_NotificationFailureDoesNotFailUpdate(t *testing.T) {
	sender := &fakeSender{err: notify.ErrNotification}
	m := metrics.New()
	svc := NewService(newMemStore(), sender, zerolog.Nop(), WithMetrics(m))
	ctx := context.Background()

	a, err := svc.CreateAppointment(ctx, validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateAppointmentStatus(ctx, a.ID, "user-42", Patch{}, TransitionSchedule)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, updated.Status)
	assert.Len(t, sender.calls, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("failed")))

	got, err := svc.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, got.Status)
}

func TestUpdateAppointmentStatus_AppliesPatch(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeSender{})
	ctx := context.Background()
	a, err := svc.CreateAppointment(ctx, validInput())
	require.NoError(t, err)

	when := time.Date(2026, 4, 2, 8, 15, 0, 0, time.UTC)
	updated, err := svc.UpdateAppointmentStatus(ctx, a.ID, "user-42", Patch{
		PrimaryPhysician: strPtr("Alex Ramirez"),
		Schedule:         &when,
	}, TransitionSchedule)
	require.NoError(t, err)
	assert.Equal(t, "Alex Ramirez", updated.PrimaryPhysician)
	assert.True(t, when.Equal(updated.Schedule))
}

func TestUpdateAppointmentStatus_PatchCannotBlankRequiredFields(t *testing.T) {
	var zero time.Time
	cases := map[string]struct {
		patch Patch
		t     TransitionType
		field string
	}{
		"cancel blank physician":   {Patch{PrimaryPhysician: strPtr("   "), CancellationReason: strPtr("sick")}, TransitionCancel, "primaryPhysician"},
		"cancel zero schedule":     {Patch{Schedule: &zero, CancellationReason: strPtr("sick")}, TransitionCancel, "schedule"},
		"schedule blank physician": {Patch{PrimaryPhysician: strPtr("")}, TransitionSchedule, "primaryPhysician"},
		"schedule zero schedule":   {Patch{Schedule: &zero}, TransitionSchedule, "schedule"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sender := &fakeSender{}
			svc := newTestService(newMemStore(), sender)
			ctx := context.Background()
			a, err := svc.CreateAppointment(ctx, validInput())
			require.NoError(t, err)

			_, err = svc.UpdateAppointmentStatus(ctx, a.ID, "user-42", tc.patch, tc.t)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tc.field, verr.Field)
			assert.Empty(t, sender.calls)

			got, err := svc.GetAppointment(ctx, a.ID)
			require.NoError(t, err)
			assert.Equal(t, StatusPending, got.Status)
			assert.Equal(t, "Jane Powell", got.PrimaryPhysician)
			assert.True(t, a.Schedule.Equal(got.Schedule))
		})
	}
}

func TestNotificationErr(t *testing.T) {
	wrapped := notificationErr(errors.New("gateway timeout"))
	assert.ErrorIs(t, wrapped, notify.ErrNotification)
	assert.Contains(t, wrapped.Error(), "gateway timeout")

	already := fmt.Errorf("send: %w", notify.ErrNotification)
	assert.Same(t, already, notificationErr(already))
}

func TestUpdateAppointmentStatus_CancelRequiresReason(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(newMemStore(), sender)
	ctx := context.Background()
	a, err := svc.CreateAppointment(ctx, validInput())
	require.NoError(t, err)

	_, err = svc.UpdateAppointmentStatus(ctx, a.ID, "user-42", Patch{}, TransitionCancel)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.UpdateAppointmentStatus(ctx, a.ID, "user-42", Patch{CancellationReason: strPtr("   ")}, TransitionCancel)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, sender.calls)

	got, err := svc.GetAppointment(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
}

func TestUpdateAppointmentStatus_Cancel(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(newMemStore(), sender)
	ctx := context.Background()
	a, err := svc.CreateAppointment(ctx, validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateAppointmentStatus(ctx, a.ID, "", Patch{CancellationReason: strPtr("Patient unavailable")}, TransitionCancel)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, updated.Status)
	assert.Equal(t, "Patient unavailable", updated.CancellationReason)

	// empty userId routes to the stored owner
	require.Len(t, sender.calls, 1)
	assert.Equal(t, "user-42", sender.calls[0].userID)
	assert.Contains(t, sender.calls[0].message, "Patient unavailable")
}

func TestUpdateAppointmentStatus_NoRecipientSkipsNotification(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(newMemStore(), sender)
	ctx := context.Background()

	in := validInput()
	in.UserID = ""
	a, err := svc.CreateAppointment(ctx, in)
	require.NoError(t, err)

	updated, err := svc.UpdateAppointmentStatus(ctx, a.ID, "  ", Patch{}, TransitionSchedule)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, updated.Status)
	assert.Empty(t, sender.calls)
}

func TestUpdateAppointmentStatus_NotFound(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(newMemStore(), sender)

	_, err := svc.UpdateAppointmentStatus(context.Background(), uuid.New(), "u", Patch{}, TransitionSchedule)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)
	assert.Empty(t, sender.calls)
}

func TestUpdateAppointmentStatus_StoreWriteFailure(t *testing.T) {
	store := newMemStore()
	sender := &fakeSender{}
	svc := newTestService(store, sender)
	ctx := context.Background()
	a, err := svc.CreateAppointment(ctx, validInput())
	require.NoError(t, err)

	store.updateErr = errors.New("disk full")
	_, err = svc.UpdateAppointmentStatus(ctx, a.ID, "u", Patch{}, TransitionSchedule)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.Empty(t, sender.calls)
}

func TestUpdateAppointmentStatus_UnknownTransition(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeSender{})

	_, err := svc.UpdateAppointmentStatus(context.Background(), uuid.New(), "u", Patch{}, TransitionType("reopen"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestUpdateAppointmentStatus_TerminalIsRejected(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestService(newMemStore(), sender)
	ctx := context.Background()

	scheduled, err := svc.CreateAppointment(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.UpdateAppointmentStatus(ctx, scheduled.ID, "u", Patch{}, TransitionSchedule)
	require.NoError(t, err)

	cancelled, err := svc.CreateAppointment(ctx, validInput())
	require.NoError(t, err)
	_, err = svc.UpdateAppointmentStatus(ctx, cancelled.ID, "u", Patch{CancellationReason: strPtr("sick")}, TransitionCancel)
	require.NoError(t, err)

	_, err = svc.UpdateAppointmentStatus(ctx, scheduled.ID, "u", Patch{}, TransitionSchedule)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	_, err = svc.UpdateAppointmentStatus(ctx, scheduled.ID, "u", Patch{CancellationReason: strPtr("x")}, TransitionCancel)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)
	_, err = svc.UpdateAppointmentStatus(ctx, cancelled.ID, "u", Patch{CancellationReason: strPtr("again")}, TransitionCancel)
	assert.ErrorIs(t, err, ErrInvalidStatusTransition)

	// only the two successful transitions notified
	assert.Len(t, sender.calls, 2)

	got, err := svc.GetAppointment(ctx, cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, "sick", got.CancellationReason)
}

func TestUpdateAppointmentStatus_MixedCounts(t *testing.T) {
	svc := newTestService(newMemStore(), &fakeSender{})
	ctx := context.Background()

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		a, err := svc.CreateAppointment(ctx, validInput())
		require.NoError(t, err)
		ids = append(ids, a.ID)
	}

	_, err := svc.UpdateAppointmentStatus(ctx, ids[0], "u", Patch{CancellationReason: strPtr("Patient unavailable")}, TransitionCancel)
	require.NoError(t, err)
	_, err = svc.UpdateAppointmentStatus(ctx, ids[1], "u", Patch{}, TransitionSchedule)
	require.NoError(t, err)

	list := svc.ListRecentAppointments(ctx)
	assert.Equal(t, Counts{Total: 3, Scheduled: 1, Pending: 1, Cancelled: 1}, list.Counts)
}

func TestUpdateAppointmentStatus_NilSender(t *testing.T) {
	svc := NewService(newMemStore(), nil, zerolog.Nop())
	ctx := context.Background()
	a, err := svc.CreateAppointment(ctx, validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateAppointmentStatus(ctx, a.ID, "u", Patch{}, TransitionSchedule)
	require.NoError(t, err)
	assert.Equal(t, StatusScheduled, updated.Status)
}
