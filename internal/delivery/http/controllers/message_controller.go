package controllers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"guestline/internal/delivery/http/helpers"
	"guestline/internal/delivery/http/middleware"
	"guestline/internal/domain"
)

type MessageController struct {
	Logger  *slog.Logger
	Service domain.MessageService
}

func NewMessageController(logger *slog.Logger, svc domain.MessageService) *MessageController {
	return &MessageController{
		Logger:  logger,
		Service: svc,
	}
}

// RecipientFilterRequest is the wire shape of a recipient filter. All fields
// are optional; absent fields impose no constraint.
type RecipientFilterRequest struct {
	RSVPStatus            []string          `json:"rsvp_status,omitempty"`
	RegistrationDateRange *DateRangeRequest `json:"registration_date_range,omitempty"`
	SearchQuery           string            `json:"search_query,omitempty"`
}

// DateRangeRequest is an inclusive ISO8601 date range; either bound may be omitted.
type DateRangeRequest struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

func (f *RecipientFilterRequest) validate() []string {
	var errs []string
	for _, s := range f.RSVPStatus {
		if !domain.ValidRSVPStatus(s) {
			errs = append(errs, "rsvp_status contains an unknown status: "+s)
		}
	}
	if f.RegistrationDateRange != nil && f.RegistrationDateRange.Start != nil && f.RegistrationDateRange.End != nil {
		if f.RegistrationDateRange.End.Before(*f.RegistrationDateRange.Start) {
			errs = append(errs, "registration_date_range end must not be before start")
		}
	}
	return errs
}

func (f *RecipientFilterRequest) toDomain() domain.RecipientFilter {
	filter := domain.RecipientFilter{
		RSVPStatus:  f.RSVPStatus,
		SearchQuery: f.SearchQuery,
	}
	if f.RegistrationDateRange != nil {
		filter.RegistrationDateRange = &domain.DateRange{
			Start: f.RegistrationDateRange.Start,
			End:   f.RegistrationDateRange.End,
		}
	}
	return filter
}

// CreateMessageRequest is the request body for message creation and scheduling.
type CreateMessageRequest struct {
	Subject       string                 `json:"subject"`
	Content       string                 `json:"content"`
	Filter        RecipientFilterRequest `json:"recipient_filter"`
	ScheduledDate *time.Time             `json:"scheduled_date,omitempty"`
}

// Validate implements helpers.Validator.
func (req *CreateMessageRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Subject) == "" {
		errs = append(errs, "subject is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		errs = append(errs, "content is required")
	}
	errs = append(errs, req.Filter.validate()...)
	return errs
}

// MessageSuccessResponse is the success response envelope for message endpoints.
type MessageSuccessResponse struct {
	Data  *domain.Message   `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateMessage godoc
// @Summary Create a message for an event's attendees
// @Description Snapshots the recipient count from the filter at creation time. With a future scheduled_date the message waits for the dispatcher; without one it is handed to the sender immediately.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.CreateMessageRequest true "Message"
// @Success 201 {object} controllers.MessageSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule_violation (scheduled date in the past)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/messages [post]
func (c *MessageController) CreateMessage(w http.ResponseWriter, r *http.Request) {
	c.createMessage(w, r, false)
}

// ScheduleMessage godoc
// @Summary Schedule a message for later dispatch
// @Description Same as message creation but scheduled_date is mandatory, so the scheduling path is always taken intentionally.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.CreateMessageRequest true "Message with mandatory scheduled_date"
// @Success 201 {object} controllers.MessageSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 422 {object} helpers.APIResponse "error.code: rule_violation (missing or past scheduled date)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/messages/schedule [post]
func (c *MessageController) ScheduleMessage(w http.ResponseWriter, r *http.Request) {
	c.createMessage(w, r, true)
}

func (c *MessageController) createMessage(w http.ResponseWriter, r *http.Request, requireSchedule bool) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req CreateMessageRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	draft := domain.MessageDraft{
		Subject:       strings.TrimSpace(req.Subject),
		Content:       req.Content,
		Filter:        req.Filter.toDomain(),
		ScheduledDate: req.ScheduledDate,
	}

	var msg *domain.Message
	var err error
	if requireSchedule {
		msg, err = c.Service.ScheduleMessage(r.Context(), eventID, userID, draft)
	} else {
		msg, err = c.Service.CreateMessage(r.Context(), eventID, userID, draft)
	}
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, msg)
}

// MessageListResponse is the data payload for GET /events/{eventID}/messages.
type MessageListResponse struct {
	Messages   []*domain.Message      `json:"messages"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListMessages godoc
// @Summary List an event's messages
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data: controllers.MessageListResponse"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/messages [get]
func (c *MessageController) ListMessages(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	params := helpers.ParsePagination(r)
	messages, total, err := c.Service.ListMessages(r.Context(), eventID, userID, params)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, MessageListResponse{
		Messages:   messages,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}

// GetDeliveryStatus godoc
// @Summary Delivery status for a message
// @Description Returns the accumulated per-recipient outcomes reported by the sender, plus aggregate counts.
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param messageID path string true "Message ID (UUID)"
// @Success 200 {object} helpers.APIResponse "data: domain.DeliveryReport"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /messages/{messageID}/delivery [get]
func (c *MessageController) GetDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	messageID := r.PathValue("messageID")
	if !uuidRegex.MatchString(messageID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid messageID")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	report, err := c.Service.GetDeliveryStatus(r.Context(), messageID, userID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, report)
}

// RecipientCountRequest is the request body for POST /events/{eventID}/recipients/count.
type RecipientCountRequest struct {
	Filter RecipientFilterRequest `json:"recipient_filter"`
}

// Validate implements helpers.Validator.
func (req *RecipientCountRequest) Validate() []string {
	return req.Filter.validate()
}

// RecipientCountResponse is the data payload for the recipient count endpoint.
type RecipientCountResponse struct {
	Count int `json:"count"`
}

// EvaluateRecipientCount godoc
// @Summary Count the recipients a filter would select
// @Description Evaluates the filter against the event's current attendees. Deterministic for a fixed attendee set.
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.RecipientCountRequest true "Recipient filter"
// @Success 200 {object} helpers.APIResponse "data: controllers.RecipientCountResponse"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/recipients/count [post]
func (c *MessageController) EvaluateRecipientCount(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req RecipientCountRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	count, err := c.Service.EvaluateRecipientCount(r.Context(), eventID, userID, req.Filter.toDomain())
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, RecipientCountResponse{Count: count})
}
