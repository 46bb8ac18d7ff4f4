package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"guestline/internal/domain"
)

type rsvpService struct {
	eventRepo      domain.EventRepository
	attendeeRepo   domain.AttendeeRepository
	contextTimeout time.Duration
}

// NewRSVPService creates an RSVPService with the given repositories.
func NewRSVPService(
	eventRepo domain.EventRepository,
	attendeeRepo domain.AttendeeRepository,
	timeout time.Duration,
) domain.RSVPService {
	return &rsvpService{
		eventRepo:      eventRepo,
		attendeeRepo:   attendeeRepo,
		contextTimeout: timeout,
	}
}

func (s *rsvpService) CreateRSVP(ctx context.Context, eventID string, sub domain.RSVPSubmission) (*domain.Attendee, error) {
	ctx, cancel := context.WithTimeout(ctx, s.contextTimeout)
	defer cancel()

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get event: %w", err)
	}

	now := time.Now()
	if err := event.OpenForRSVP(now); err != nil {
		return nil, err
	}

	status := sub.RSVPStatus
	if status == "" {
		status = domain.RSVPStatusPending
	}
	if !domain.ValidRSVPStatus(status) {
		return nil, fmt.Errorf("unknown rsvp status %q", status)
	}

	email := strings.ToLower(strings.TrimSpace(sub.Email))
	attendee := domain.NewAttendee(eventID, strings.TrimSpace(sub.Name), email, status, now)
	attendee.Company = sub.Company
	attendee.DietaryRequirements = sub.DietaryRequirements
	attendee.GuestCount = sub.GuestCount

	// The repository runs the capacity check and the insert in one
	// transaction; checking the count here first would race.
	if err := s.attendeeRepo.CreateAdmitting(ctx, attendee); err != nil {
		switch {
		case errors.Is(err, domain.ErrCapacityExceeded),
			errors.Is(err, domain.ErrDuplicateAttendee),
			errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
		return nil, fmt.Errorf("create attendee: %w", err)
	}
	return attendee, nil
}

func (s *rsvpService) UpdateAttendeeStatus(ctx context.Context, eventID, attendeeID, status, actingUserID string) (*domain.Attendee, error) {
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

	if !domain.ValidRSVPStatus(status) {
		return nil, fmt.Errorf("unknown rsvp status %q", status)
	}

	attendee, err := s.attendeeRepo.GetByEventAndID(ctx, eventID, attendeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}

	now := time.Now()
	// Only a transition into attending consumes a capacity slot; every other
	// transition always succeeds.
	if status == domain.RSVPStatusAttending && attendee.RSVPStatus != domain.RSVPStatusAttending {
		updated, err := s.attendeeRepo.UpdateStatusAdmitting(ctx, attendeeID, status, now)
		if err != nil {
			if errors.Is(err, domain.ErrCapacityExceeded) || errors.Is(err, domain.ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("update attendee status: %w", err)
		}
		return updated, nil
	}

	updated, err := s.attendeeRepo.UpdateStatus(ctx, attendeeID, status, now)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("update attendee status: %w", err)
	}
	return updated, nil
}

func (s *rsvpService) DeleteAttendee(ctx context.Context, eventID, attendeeID, actingUserID string) (*domain.Attendee, error) {
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

	if _, err := s.attendeeRepo.GetByEventAndID(ctx, eventID, attendeeID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get attendee: %w", err)
	}

	deleted, err := s.attendeeRepo.Delete(ctx, attendeeID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("delete attendee: %w", err)
	}
	return deleted, nil
}

func (s *rsvpService) ListAttendees(ctx context.Context, eventID, actingUserID string, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
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

	attendees, total, err := s.attendeeRepo.ListByEvent(ctx, eventID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	return attendees, total, nil
}
