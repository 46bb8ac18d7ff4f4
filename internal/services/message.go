package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"guestline/internal/domain"
)

type messageService struct {
	eventRepo      domain.EventRepository
	attendeeRepo   domain.AttendeeRepository
	messageRepo    domain.MessageRepository
	sender         domain.MessageSender
	contextTimeout time.Duration
}

// NewMessageService creates a MessageService with the given repositories and sender.
func NewMessageService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	messageRepo domain.MessageRepository,
	sender domain.MessageSender,
	timeout time.Duration,
) domain.MessageService {
	return &messageService{
		eventRepo:      eventRepo,
		attendeeRepo:   attendeeRepo,
		messageRepo:    messageRepo,
		sender:         sender,
		contextTimeout: timeout,
	}
}

func (s *messageService) CreateMessage(ctx context.Context, eventID, actingUserID string, draft domain.MessageDraft) (*domain.Message, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != actingUserID {
		return nil, domain.ErrForbidden
	}

	now := time.Now()
	if draft.ScheduledDate != nil && !draft.ScheduledDate.After(now) {
		return nil, domain.ErrInvalidSchedule
	}

	// Snapshot the audience size once. The count is never recomputed, so
	// status changes between scheduling and dispatch do not alter it.
	count, err := s.attendeeRepo.CountByFilter(ctx, eventID, draft.Filter)
	if err != nil {
		return nil, fmt.Errorf("count recipients: %w", err)
	}

	msg := &domain.Message{
		EventID:        eventID,
		Subject:        draft.Subject,
		Content:        draft.Content,
		Filter:         draft.Filter,
		RecipientCount: count,
		DeliveryStatus: domain.DeliveryStatusScheduled,
		ScheduledDate:  draft.ScheduledDate,
		CreatedBy:      actingUserID,
		CreatedAt:      now,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	// No scheduled date means immediate hand-off to the sender.
	if draft.ScheduledDate == nil {
		if err := s.dispatchMessage(ctx, msg); err != nil {
			return nil, fmt.Errorf("dispatch message: %w", err)
		}
	}
	return msg, nil
}

func (s *messageService) ScheduleMessage(ctx context.Context, eventID, actingUserID string, draft domain.MessageDraft) (*domain.Message, error) {
	if draft.ScheduledDate == nil {
		return nil, domain.ErrMissingSchedule
	}
	return s.CreateMessage(ctx, eventID, actingUserID, draft)
}

func (s *messageService) ListMessages(ctx context.Context, eventID, actingUserID string, params domain.PaginationParams) ([]*domain.Message, int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, 0, domain.ErrNotFound
		}
		return nil, 0, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != actingUserID {
		return nil, 0, domain.ErrForbidden
	}

	messages, total, err := s.messageRepo.ListByEvent(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return messages, total, nil
}

func (s *messageService) GetDeliveryStatus(ctx context.Context, messageID, actingUserID string) (*domain.DeliveryReport, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	msg, err := s.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get message: %w", err)
	}

	event, err := s.eventRepo.GetByID(ctx, msg.EventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != actingUserID {
		return nil, domain.ErrForbidden
	}

	recipients, err := s.messageRepo.ListRecipients(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("list recipients: %w", err)
	}
	delivered, failed, pending, err := s.messageRepo.CountOutcomes(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}

	return &domain.DeliveryReport{
		MessageID:  messageID,
		Status:     msg.DeliveryStatus,
		Sent:       len(recipients),
		Delivered:  delivered,
		Failed:     failed,
		Pending:    pending,
		Recipients: recipients,
	}, nil
}

func (s *messageService) EvaluateRecipientCount(ctx context.Context, eventID, actingUserID string, filter domain.RecipientFilter) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return 0, domain.ErrNotFound
		}
		return 0, fmt.Errorf("get event: %w", err)
	}
	if event.OwnerID != actingUserID {
		return 0, domain.ErrForbidden
	}

	count, err := s.attendeeRepo.CountByFilter(ctx, eventID, filter)
	if err != nil {
		return 0, fmt.Errorf("count recipients: %w", err)
	}
	return count, nil
}

func (s *messageService) DispatchDue(ctx context.Context) (int, error) {
	due, err := s.messageRepo.ListDue(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("list due messages: %w", err)
	}

	dispatched := 0
	var errs []error
	for _, msg := range due {
		if err := s.dispatchMessage(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("message %s: %w", msg.ID, err))
			continue
		}
		dispatched++
	}
	return dispatched, errors.Join(errs...)
}

// dispatchMessage evaluates the message filter in list mode, hands each
// recipient to the sender, records per-recipient outcomes, and moves the
// message to its terminal state exactly once. The terminal transition is a
// conditional update on the scheduled state, so a retry after a crash cannot
// flip an already-sent message.
func (s *messageService) dispatchMessage(ctx context.Context, msg *domain.Message) error {
	attendees, err := s.attendeeRepo.ListByFilter(ctx, msg.EventID, msg.Filter)
	if err != nil {
		return fmt.Errorf("list recipients: %w", err)
	}

	recipients := make([]*domain.MessageRecipient, 0, len(attendees))
	for _, att := range attendees {
		recipients = append(recipients, &domain.MessageRecipient{
			MessageID:  msg.ID,
			AttendeeID: att.ID,
			Email:      att.Email,
			Status:     domain.RecipientStatusPending,
		})
	}
	if err := s.messageRepo.AddRecipients(ctx, recipients); err != nil {
		return fmt.Errorf("add recipients: %w", err)
	}

	anyDelivered := false
	for i, att := range attendees {
		rec := recipients[i]
		now := time.Now()
		if sendErr := s.sender.SendToAttendee(ctx, att, msg.Subject, msg.Content); sendErr != nil {
			detail := sendErr.Error()
			if err := s.messageRepo.ReportRecipient(ctx, rec.ID, domain.RecipientStatusFailed, &detail, now); err != nil {
				return fmt.Errorf("report recipient: %w", err)
			}
			rec.Status = domain.RecipientStatusFailed
			rec.ErrorDetail = &detail
			continue
		}
		if err := s.messageRepo.ReportRecipient(ctx, rec.ID, domain.RecipientStatusDelivered, nil, now); err != nil {
			return fmt.Errorf("report recipient: %w", err)
		}
		rec.Status = domain.RecipientStatusDelivered
		anyDelivered = true
	}

	now := time.Now()
	if len(attendees) > 0 && !anyDelivered {
		if _, err := s.messageRepo.MarkFailed(ctx, msg.ID, now); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		msg.DeliveryStatus = domain.DeliveryStatusFailed
		msg.SentDate = &now
		return nil
	}
	if _, err := s.messageRepo.MarkSent(ctx, msg.ID, now); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	msg.DeliveryStatus = domain.DeliveryStatusSent
	msg.SentDate = &now
	return nil
}
