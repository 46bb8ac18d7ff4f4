package controllers

import (
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"guestline/internal/delivery/http/helpers"
	"guestline/internal/delivery/http/middleware"
	"guestline/internal/domain"
)

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

type RSVPController struct {
	Logger  *slog.Logger
	Service domain.RSVPService
}

func NewRSVPController(logger *slog.Logger, svc domain.RSVPService) *RSVPController {
	return &RSVPController{
		Logger:  logger,
		Service: svc,
	}
}

// CreateRSVPRequest is the request body for POST /events/{eventID}/rsvps.
type CreateRSVPRequest struct {
	Name                string  `json:"name"`
	Email               string  `json:"email"`
	Company             *string `json:"company,omitempty"`
	RSVPStatus          string  `json:"rsvp_status,omitempty"`
	DietaryRequirements *string `json:"dietary_requirements,omitempty"`
	GuestCount          int     `json:"guest_count,omitempty"`
}

// Validate implements helpers.Validator.
func (req *CreateRSVPRequest) Validate() []string {
	var errs []string
	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, "name is required")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailRegexp.MatchString(email) {
		errs = append(errs, "invalid email format")
	}
	req.Email = email
	if req.RSVPStatus != "" && !domain.ValidRSVPStatus(req.RSVPStatus) {
		errs = append(errs, "rsvp_status must be one of attending, not_attending, maybe, pending")
	}
	if req.GuestCount < 0 {
		errs = append(errs, "guest_count must not be negative")
	}
	return errs
}

// AttendeeSuccessResponse is the success response envelope for attendee endpoints.
type AttendeeSuccessResponse struct {
	Data  *domain.Attendee  `json:"data"`
	Error *helpers.APIError `json:"error"`
}

// CreateRSVP godoc
// @Summary Submit a public RSVP for an event
// @Description Creates one attendee record for the given email. Create-only: a second submission for the same email returns 409. Admission into the attending status is checked against the event capacity atomically.
// @Tags rsvp
// @Accept json
// @Produce json
// @Param eventID path string true "Event ID (UUID)"
// @Param body body controllers.CreateRSVPRequest true "RSVP submission"
// @Success 201 {object} controllers.AttendeeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: conflict or capacity_exceeded"
// @Failure 422 {object} helpers.APIResponse "error.code: rule_violation (not published, deadline passed)"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/rsvps [post]
func (c *RSVPController) CreateRSVP(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	if !uuidRegex.MatchString(eventID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid eventID")
		return
	}

	var req CreateRSVPRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	attendee, err := c.Service.CreateRSVP(r.Context(), eventID, domain.RSVPSubmission{
		Name:                req.Name,
		Email:               req.Email,
		Company:             req.Company,
		RSVPStatus:          req.RSVPStatus,
		DietaryRequirements: req.DietaryRequirements,
		GuestCount:          req.GuestCount,
	})
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusCreated, attendee)
}

// UpdateAttendeeStatusRequest is the request body for PATCH /events/{eventID}/attendees/{attendeeID}.
type UpdateAttendeeStatusRequest struct {
	RSVPStatus string `json:"rsvp_status"`
}

// Validate implements helpers.Validator.
func (req *UpdateAttendeeStatusRequest) Validate() []string {
	if !domain.ValidRSVPStatus(req.RSVPStatus) {
		return []string{"rsvp_status must be one of attending, not_attending, maybe, pending"}
	}
	return nil
}

// UpdateAttendeeStatus godoc
// @Summary Change an attendee's RSVP status
// @Description Moves the attendee to a new status on behalf of the event owner. Transitions into attending re-run the capacity check; transitions out always succeed.
// @Tags rsvp
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param attendeeID path string true "Attendee ID (UUID)"
// @Param body body controllers.UpdateAttendeeStatusRequest true "New status"
// @Success 200 {object} controllers.AttendeeSuccessResponse
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 409 {object} helpers.APIResponse "error.code: capacity_exceeded"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees/{attendeeID} [patch]
func (c *RSVPController) UpdateAttendeeStatus(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	attendeeID := r.PathValue("attendeeID")
	if !uuidRegex.MatchString(eventID) || !uuidRegex.MatchString(attendeeID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid id")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	var req UpdateAttendeeStatusRequest
	if !helpers.DecodeAndValidate(w, r, &req) {
		return
	}

	attendee, err := c.Service.UpdateAttendeeStatus(r.Context(), eventID, attendeeID, req.RSVPStatus, userID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, attendee)
}

// DeleteAttendee godoc
// @Summary Remove an attendee from an event
// @Description Deletes the attendee record and returns the deleted value.
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param attendeeID path string true "Attendee ID (UUID)"
// @Success 200 {object} controllers.AttendeeSuccessResponse "Deleted attendee"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees/{attendeeID} [delete]
func (c *RSVPController) DeleteAttendee(w http.ResponseWriter, r *http.Request) {
	eventID := r.PathValue("eventID")
	attendeeID := r.PathValue("attendeeID")
	if !uuidRegex.MatchString(eventID) || !uuidRegex.MatchString(attendeeID) {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, "invalid id")
		return
	}

	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		helpers.WriteJSONError(w, http.StatusUnauthorized, helpers.ErrCodeUnauthorized, "unauthorized")
		return
	}

	deleted, err := c.Service.DeleteAttendee(r.Context(), eventID, attendeeID, userID)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, deleted)
}

// AttendeeListResponse is the data payload for GET /events/{eventID}/attendees.
type AttendeeListResponse struct {
	Attendees  []*domain.Attendee     `json:"attendees"`
	Pagination helpers.PaginationMeta `json:"pagination"`
}

// ListAttendees godoc
// @Summary List an event's attendees
// @Tags rsvp
// @Produce json
// @Security BearerAuth
// @Param eventID path string true "Event ID (UUID)"
// @Param page query int false "Page (default 1)"
// @Param page_size query int false "Page size (default 20, max 100)"
// @Success 200 {object} helpers.APIResponse "data: controllers.AttendeeListResponse"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 403 {object} helpers.APIResponse "error.code: forbidden"
// @Failure 404 {object} helpers.APIResponse "error.code: not_found"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /events/{eventID}/attendees [get]
func (c *RSVPController) ListAttendees(w http.ResponseWriter, r *http.Request) {
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
	attendees, total, err := c.Service.ListAttendees(r.Context(), eventID, userID, params)
	if err != nil {
		writeDomainError(w, r, c.Logger, err)
		return
	}
	helpers.WriteJSONSuccess(w, http.StatusOK, AttendeeListResponse{
		Attendees:  attendees,
		Pagination: helpers.NewPaginationMeta(params.Page, params.PageSize, total),
	})
}
