package appointment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinic-appointment-ledger/internal/metrics"
	"github.com/hackgods/clinic-appointment-ledger/internal/notify"
)

var validate = validator.New()

// Service is a stateless facade over the document store that owns the status
// rules and the dashboard aggregation.
type Service struct {
	store      Store
	sender     notify.Sender
	senderName string
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

type Option func(*Service)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSenderName sets the clinic name used to greet patients in SMS texts.
func WithSenderName(name string) Option {
	return func(s *Service) { s.senderName = name }
}

func NewService(store Store, sender notify.Sender, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		sender:     sender,
		senderName: "CarePulse",
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateAppointment books a new appointment. The stored status is always
// pending.
func (s *Service) CreateAppointment(ctx context.Context, in CreateInput) (*Appointment, error) {
	in.UserID = strings.TrimSpace(in.UserID)
	in.PrimaryPhysician = strings.TrimSpace(in.PrimaryPhysician)
	in.Reason = strings.TrimSpace(in.Reason)
	in.Note = strings.TrimSpace(in.Note)

	if err := validateInput(in); err != nil {
		return nil, err
	}

	created, err := s.store.Create(ctx, &Appointment{
		PatientID:        in.PatientID,
		UserID:           in.UserID,
		PrimaryPhysician: in.PrimaryPhysician,
		Schedule:         in.Schedule,
		Status:           StatusPending,
		Reason:           in.Reason,
		Note:             in.Note,
	})
	if err != nil {
		return nil, persistenceErr("create appointment", err)
	}
	if created == nil {
		return nil, fmt.Errorf("create appointment: %w: store returned no record", ErrPersistence)
	}

	s.logger.Info().
		Str("appointment_id", created.ID.String()).
		Str("patient_id", created.PatientID.String()).
		Msg("appointment created")

	return created, nil
}

// GetAppointment never returns a nil appointment without an error.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	if id == uuid.Nil {
		return nil, &ValidationError{Field: "appointmentId", Reason: "is required"}
	}

	appt, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, persistenceErr("get appointment", err)
	}
	if appt == nil {
		return nil, fmt.Errorf("get appointment %s: %w", id, ErrAppointmentNotFound)
	}
	return appt, nil
}

// ListRecentAppointments returns every appointment newest first together with
// per status counts. A store failure yields an empty result, not an error:
// the dashboard shows nothing rather than failing.
func (s *Service) ListRecentAppointments(ctx context.Context) RecentList {
	docs, err := s.store.List(ctx)
	if err != nil {
		s.metrics.Degraded()
		s.logger.Error().Err(err).Msg("list recent appointments failed, serving empty dashboard")
		return RecentList{Documents: []Appointment{}}
	}
	if docs == nil {
		docs = []Appointment{}
	}

	counts := CountByStatus(docs)
	s.metrics.SetCounts(counts.Scheduled, counts.Pending, counts.Cancelled)

	return RecentList{Counts: counts, Documents: docs}
}

// UpdateAppointmentStatus applies patch and the status implied by t, then
// notifies the patient. Notification failure never fails the update.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, userID string, patch Patch, t TransitionType) (*Appointment, error) {
	updated, err := s.applyTransition(ctx, id, patch, t)
	if err != nil {
		s.metrics.Transition(string(t), "error")
		return nil, err
	}
	s.metrics.Transition(string(t), "ok")

	s.logger.Info().
		Str("appointment_id", updated.ID.String()).
		Str("transition", string(t)).
		Str("status", string(updated.Status)).
		Msg("appointment status updated")

	recipient := strings.TrimSpace(userID)
	if recipient == "" {
		recipient = updated.UserID
	}
	s.notify(ctx, recipient, *updated, t)

	return updated, nil
}

func (s *Service) applyTransition(ctx context.Context, id uuid.UUID, patch Patch, t TransitionType) (*Appointment, error) {
	target, err := TargetStatus(t)
	if err != nil {
		return nil, err
	}
	if id == uuid.Nil {
		return nil, &ValidationError{Field: "appointmentId", Reason: "is required"}
	}

	fields := Fields{
		Status:           target,
		PrimaryPhysician: trimmed(patch.PrimaryPhysician),
		Schedule:         patch.Schedule,
	}

	// A patch may only replace required fields with usable values, whatever
	// the transition.
	if fields.PrimaryPhysician != nil && *fields.PrimaryPhysician == "" {
		return nil, &ValidationError{Field: "primaryPhysician", Reason: "must not be blank"}
	}
	if fields.Schedule != nil && fields.Schedule.IsZero() {
		return nil, &ValidationError{Field: "schedule", Reason: "must be a valid time"}
	}

	if t == TransitionCancel {
		reason := trimmed(patch.CancellationReason)
		if reason == nil || *reason == "" {
			return nil, &ValidationError{Field: "cancellationReason", Reason: "is required when cancelling"}
		}
		fields.CancellationReason = reason
	}

	current, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, persistenceErr("load appointment", err)
	}
	if current == nil {
		return nil, fmt.Errorf("load appointment %s: %w", id, ErrAppointmentNotFound)
	}
	if current.Status.Terminal() {
		return nil, fmt.Errorf("%w: %s appointment cannot %s", ErrInvalidStatusTransition, current.Status, t)
	}

	updated, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return nil, persistenceErr("update appointment", err)
	}
	if updated == nil {
		return nil, fmt.Errorf("update appointment %s: %w", id, ErrAppointmentNotFound)
	}
	return updated, nil
}

// notify runs after the store write has completed. Its outcome is only logged.
func (s *Service) notify(ctx context.Context, recipient string, a Appointment, t TransitionType) {
	if s.sender == nil {
		return
	}
	if recipient == "" {
		s.metrics.Notification("skipped")
		s.logger.Warn().
			Str("appointment_id", a.ID.String()).
			Msg("appointment has no user id, notification skipped")
		return
	}

	msg := ComposeSMS(s.senderName, a, t)

	// The request context may be cancelled as soon as the caller returns;
	// give the send its own short deadline instead.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	receipt, err := s.sender.SendSMS(sendCtx, recipient, msg)
	if err != nil {
		s.metrics.Notification("failed")
		s.logger.Warn().
			Err(notificationErr(err)).
			Str("appointment_id", a.ID.String()).
			Str("user_id", recipient).
			Msg("appointment notification failed")
		return
	}

	s.metrics.Notification("queued")
	s.logger.Debug().
		Str("appointment_id", a.ID.String()).
		Str("receipt_id", receipt.ID.String()).
		Msg("appointment notification accepted")
}

// notificationErr makes err match notify.ErrNotification.
func notificationErr(err error) error {
	if errors.Is(err, notify.ErrNotification) {
		return err
	}
	return fmt.Errorf("%w: %w", notify.ErrNotification, err)
}

func validateInput(in CreateInput) error {
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
		}
		return &ValidationError{Field: jsonFieldName(fe.Field()), Reason: reason}
	}
	return &ValidationError{Field: "input", Reason: err.Error()}
}

func jsonFieldName(goName string) string {
	switch goName {
	case "PatientID":
		return "patientId"
	case "UserID":
		return "userId"
	case "PrimaryPhysician":
		return "primaryPhysician"
	}
	if goName == "" {
		return goName
	}
	return strings.ToLower(goName[:1]) + goName[1:]
}

func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
