package domain

import (
	"context"
	"errors"
	"time"
)

// RSVP status values.
const (
	RSVPStatusAttending    = "attending"
	RSVPStatusNotAttending = "not_attending"
	RSVPStatusMaybe        = "maybe"
	RSVPStatusPending      = "pending"
)

// ValidRSVPStatus reports whether s is a known RSVP status.
func ValidRSVPStatus(s string) bool {
	switch s {
	case RSVPStatusAttending, RSVPStatusNotAttending, RSVPStatusMaybe, RSVPStatusPending:
		return true
	}
	return false
}

// Sentinel errors for attendee admission.
var (
	ErrDuplicateAttendee = errors.New("attendee already registered for this event")
	ErrCapacityExceeded  = errors.New("event capacity exceeded")
)

// Attendee represents one RSVP record for an event. At most one record exists
// per (event, email) pair, compared case-insensitively.
// swagger:model Attendee
type Attendee struct {
	ID                  string    `json:"id"`
	EventID             string    `json:"event_id"`
	Name                string    `json:"name"`
	Email               string    `json:"email"`
	Company             *string   `json:"company,omitempty"`
	RSVPStatus          string    `json:"rsvp_status"`
	DietaryRequirements *string   `json:"dietary_requirements,omitempty"`
	GuestCount          int       `json:"guest_count"`
	RegistrationDate    time.Time `json:"registration_date"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// NewAttendee returns a new Attendee. ID is typically set by the repository on create.
func NewAttendee(eventID, name, email, rsvpStatus string, registeredAt time.Time) *Attendee {
	return &Attendee{
		EventID:          eventID,
		Name:             name,
		Email:            email,
		RSVPStatus:       rsvpStatus,
		GuestCount:       0,
		RegistrationDate: registeredAt,
		UpdatedAt:        registeredAt,
	}
}

// AttendeeRepository defines storage operations for attendees.
//
// CreateAdmitting and UpdateStatusAdmitting must run the capacity check and the
// write inside one transaction, holding a lock on the event row so that
// concurrent admissions near the capacity boundary serialize. They return
// ErrCapacityExceeded when the attending count has reached the event capacity,
// and CreateAdmitting returns ErrDuplicateAttendee on the (event_id, lower(email))
// unique constraint.
type AttendeeRepository interface {
	CreateAdmitting(ctx context.Context, attendee *Attendee) error
	GetByEventAndID(ctx context.Context, eventID, attendeeID string) (*Attendee, error)
	UpdateStatus(ctx context.Context, attendeeID, status string, updatedAt time.Time) (*Attendee, error)
	UpdateStatusAdmitting(ctx context.Context, attendeeID, status string, updatedAt time.Time) (*Attendee, error)
	Delete(ctx context.Context, attendeeID string) (*Attendee, error)
	ListByEvent(ctx context.Context, eventID string, params PaginationParams) ([]*Attendee, int, error)
	CountByFilter(ctx context.Context, eventID string, filter RecipientFilter) (int, error)
	ListByFilter(ctx context.Context, eventID string, filter RecipientFilter) ([]*Attendee, error)
}

// RSVPService defines attendee admission operations.
type RSVPService interface {
	// CreateRSVP admits a public RSVP submission. Create-only: a second
	// submission for the same email fails with ErrDuplicateAttendee.
	CreateRSVP(ctx context.Context, eventID string, sub RSVPSubmission) (*Attendee, error)
	// UpdateAttendeeStatus moves an attendee to a new status on behalf of the
	// event owner. Transitions into attending re-run the capacity check.
	UpdateAttendeeStatus(ctx context.Context, eventID, attendeeID, status, actingUserID string) (*Attendee, error)
	// DeleteAttendee removes an attendee and returns the deleted record.
	DeleteAttendee(ctx context.Context, eventID, attendeeID, actingUserID string) (*Attendee, error)
	ListAttendees(ctx context.Context, eventID, actingUserID string, params PaginationParams) ([]*Attendee, int, error)
}

// RSVPSubmission is the already-validated input of a public RSVP.
type RSVPSubmission struct {
	Name                string
	Email               string
	Company             *string
	RSVPStatus          string
	DietaryRequirements *string
	GuestCount          int
}
