package domain

import (
	"context"
	"errors"
	"time"
)

// Message delivery status values. Scheduled messages are picked up by the
// dispatcher; sent and failed are terminal.
const (
	DeliveryStatusScheduled = "scheduled"
	DeliveryStatusSent      = "sent"
	DeliveryStatusFailed    = "failed"
)

// Per-recipient delivery outcome values.
const (
	RecipientStatusPending   = "pending"
	RecipientStatusDelivered = "delivered"
	RecipientStatusFailed    = "failed"
)

// Sentinel errors for message scheduling.
var (
	ErrInvalidSchedule = errors.New("scheduled date must be in the future")
	ErrMissingSchedule = errors.New("scheduled date is required")
)

// RecipientFilter selects attendees of an event. Each field is optional and
// imposes no constraint when absent; present fields are combined with AND.
// swagger:model RecipientFilter
type RecipientFilter struct {
	// RSVPStatus matches attendees whose status is in the set.
	RSVPStatus []string `json:"rsvp_status,omitempty"`
	// RegistrationDateRange matches attendees registered within the inclusive bounds.
	RegistrationDateRange *DateRange `json:"registration_date_range,omitempty"`
	// SearchQuery is a case-insensitive substring match against name, email,
	// or company (OR across the three fields).
	SearchQuery string `json:"search_query,omitempty"`
}

// DateRange is an inclusive date range; either bound may be nil.
// swagger:model DateRange
type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Message represents a message to an event's attendees. RecipientCount is
// snapshotted when the message is created and never recomputed.
// swagger:model Message
type Message struct {
	ID             string          `json:"id"`
	EventID        string          `json:"event_id"`
	Subject        string          `json:"subject"`
	Content        string          `json:"content"`
	Filter         RecipientFilter `json:"recipient_filter"`
	RecipientCount int             `json:"recipient_count"`
	DeliveryStatus string          `json:"delivery_status"`
	ScheduledDate  *time.Time      `json:"scheduled_date,omitempty"`
	SentDate       *time.Time      `json:"sent_date,omitempty"`
	CreatedBy      string          `json:"created_by"`
	CreatedAt      time.Time       `json:"created_at"`
}

// MessageRecipient records the delivery outcome for one recipient of a message.
// swagger:model MessageRecipient
type MessageRecipient struct {
	ID          string     `json:"id"`
	MessageID   string     `json:"message_id"`
	AttendeeID  string     `json:"attendee_id"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	ErrorDetail *string    `json:"error_detail,omitempty"`
	ReportedAt  *time.Time `json:"reported_at,omitempty"`
}

// DeliveryReport aggregates per-recipient outcomes for a message.
// swagger:model DeliveryReport
type DeliveryReport struct {
	MessageID  string              `json:"message_id"`
	Status     string              `json:"status"`
	Sent       int                 `json:"sent"`
	Delivered  int                 `json:"delivered"`
	Failed     int                 `json:"failed"`
	Pending    int                 `json:"pending"`
	Recipients []*MessageRecipient `json:"recipients"`
}

// MessageRepository defines storage operations for messages and their
// per-recipient delivery records.
//
// MarkSent and MarkFailed only transition a message that is still scheduled;
// calling either on a terminal message reports false and changes nothing, which
// makes the dispatch hook safe to retry.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	ListByEvent(ctx context.Context, eventID string, params PaginationParams) ([]*Message, int, error)
	ListDue(ctx context.Context, now time.Time) ([]*Message, error)
	MarkSent(ctx context.Context, id string, sentAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, id string, failedAt time.Time) (bool, error)
	AddRecipients(ctx context.Context, recipients []*MessageRecipient) error
	ReportRecipient(ctx context.Context, recipientID, status string, errorDetail *string, reportedAt time.Time) error
	ListRecipients(ctx context.Context, messageID string) ([]*MessageRecipient, error)
	CountOutcomes(ctx context.Context, messageID string) (delivered, failed, pending int, err error)
}

// MessageService defines the message lifecycle operations.
type MessageService interface {
	// CreateMessage snapshots the recipient count and either schedules the
	// message for later dispatch or hands it to the sender immediately.
	CreateMessage(ctx context.Context, eventID, actingUserID string, draft MessageDraft) (*Message, error)
	// ScheduleMessage is CreateMessage with a mandatory scheduled date.
	ScheduleMessage(ctx context.Context, eventID, actingUserID string, draft MessageDraft) (*Message, error)
	ListMessages(ctx context.Context, eventID, actingUserID string, params PaginationParams) ([]*Message, int, error)
	GetDeliveryStatus(ctx context.Context, messageID, actingUserID string) (*DeliveryReport, error)
	EvaluateRecipientCount(ctx context.Context, eventID, actingUserID string, filter RecipientFilter) (int, error)
	// DispatchDue sends every scheduled message whose scheduled date has
	// elapsed. Safe to call repeatedly; already-terminal messages are skipped.
	DispatchDue(ctx context.Context) (int, error)
}

// MessageDraft is the already-validated input of a message creation.
type MessageDraft struct {
	Subject       string
	Content       string
	Filter        RecipientFilter
	ScheduledDate *time.Time
}

// MessageSender delivers one rendered message to one recipient. Implementations
// report failure per recipient; the dispatcher accumulates the outcomes.
type MessageSender interface {
	SendToAttendee(ctx context.Context, att *Attendee, subject, content string) error
}
