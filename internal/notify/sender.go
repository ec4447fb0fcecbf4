package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/hackgods/clinic-appointment-ledger/internal/redis"
)

var ErrNotification = errors.New("notification failed")

// Receipt acknowledges that a message was accepted for delivery.
type Receipt struct {
	ID         uuid.UUID
	AcceptedAt time.Time
}

// Sender delivers a short text message to the phone registered for a user.
type Sender interface {
	SendSMS(ctx context.Context, recipientUserID, message string) (*Receipt, error)
}

type jobQueue interface {
	Push(ctx context.Context, job redisclient.SMSJob) error
}

// QueueSender hands messages to the sms worker through Redis instead of
// calling the gateway inline.
type QueueSender struct {
	queue jobQueue
	now   func() time.Time
}

func NewQueueSender(queue jobQueue) *QueueSender {
	return &QueueSender{queue: queue, now: time.Now}
}

func (s *QueueSender) SendSMS(ctx context.Context, recipientUserID, message string) (*Receipt, error) {
	if err := checkMessage(recipientUserID, message); err != nil {
		return nil, err
	}

	job := redisclient.SMSJob{
		ID:        uuid.New(),
		UserID:    recipientUserID,
		Message:   message,
		CreatedAt: s.now().UTC(),
	}
	if err := s.queue.Push(ctx, job); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotification, err)
	}

	return &Receipt{ID: job.ID, AcceptedAt: job.CreatedAt}, nil
}

func checkMessage(recipientUserID, message string) error {
	if strings.TrimSpace(recipientUserID) == "" {
		return fmt.Errorf("%w: recipient user id is required", ErrNotification)
	}
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is empty", ErrNotification)
	}
	return nil
}
