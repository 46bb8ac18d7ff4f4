package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors shared across the domain.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// Event status values.
const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusCancelled = "cancelled"
)

// Sentinel errors for event admission rules.
var (
	ErrEventNotPublished = errors.New("event is not open for rsvps")
	ErrDeadlinePassed    = errors.New("rsvp deadline has passed")
)

// Event represents an event accepting RSVPs.
// swagger:model Event
type Event struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	OwnerID      string     `json:"owner_id"`
	Status       string     `json:"status"`
	Capacity     *int       `json:"capacity,omitempty"`
	RSVPDeadline *time.Time `json:"rsvp_deadline,omitempty"`
	Description  *string    `json:"description,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewEvent returns a new draft Event. ID is typically set by the repository on create.
func NewEvent(name, ownerID string, createdAt, updatedAt time.Time) *Event {
	return &Event{
		Name:      name,
		OwnerID:   ownerID,
		Status:    EventStatusDraft,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
}

// OpenForRSVP reports whether the event admits new RSVPs at the given time:
// it must be published and its deadline, if set, must not have passed.
// These gates apply only to public RSVP creation, not to organizer status updates.
func (e *Event) OpenForRSVP(now time.Time) error {
	if e.Status != EventStatusPublished {
		return ErrEventNotPublished
	}
	if e.RSVPDeadline != nil && !now.Before(*e.RSVPDeadline) {
		return ErrDeadlinePassed
	}
	return nil
}

// EventUpdate carries the optional fields of an event update; nil means unchanged.
type EventUpdate struct {
	Status       *string
	Capacity     *int
	RSVPDeadline *time.Time
	Description  *string
}

// EventRepository defines storage operations for events.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	Update(ctx context.Context, eventID string, upd EventUpdate) (*Event, error)
	Delete(ctx context.Context, id string) error
}

// EventService defines organizer-facing event operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListMyEvents(ctx context.Context, ownerID string) ([]*Event, error)
	UpdateEvent(ctx context.Context, eventID, ownerID string, upd EventUpdate) (*Event, error)
}
