package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"guestline/internal/delivery/http/helpers"
	"guestline/internal/delivery/http/middleware"
	"guestline/internal/domain"
)

const (
	testEventID    = "6f1f63b1-9c6f-4f57-9e5a-2f6d7a1b0c0d"
	testAttendeeID = "7a2e54c2-8d7e-4a68-8f6b-3e7d8b2c1d1e"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type mockRSVPService struct {
	attendee *domain.Attendee
	list     []*domain.Attendee
	total    int
	err      error
}

func (m *mockRSVPService) CreateRSVP(ctx context.Context, eventID string, sub domain.RSVPSubmission) (*domain.Attendee, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.attendee, nil
}

func (m *mockRSVPService) UpdateAttendeeStatus(ctx context.Context, eventID, attendeeID, status, actingUserID string) (*domain.Attendee, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.attendee, nil
}

func (m *mockRSVPService) DeleteAttendee(ctx context.Context, eventID, attendeeID, actingUserID string) (*domain.Attendee, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.attendee, nil
}

func (m *mockRSVPService) ListAttendees(ctx context.Context, eventID, actingUserID string, params domain.PaginationParams) ([]*domain.Attendee, int, error) {
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.list, m.total, nil
}

func TestRSVPController_CreateRSVP_Success(t *testing.T) {
	svc := &mockRSVPService{attendee: &domain.Attendee{ID: testAttendeeID, EventID: testEventID, Email: "alice@example.com", RSVPStatus: domain.RSVPStatusPending}}
	ctrl := NewRSVPController(testLogger(), svc)

	body := `{"name":"Alice","email":"alice@example.com"}`
	req := httptest.NewRequest(http.MethodPost, "/events/"+testEventID+"/rsvps", strings.NewReader(body))
	req.SetPathValue("eventID", testEventID)
	w := httptest.NewRecorder()

	ctrl.CreateRSVP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("expected no error, got %v", resp.Error)
	}
}

func TestRSVPController_CreateRSVP_InvalidBody(t *testing.T) {
	ctrl := NewRSVPController(testLogger(), &mockRSVPService{})

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email":"alice@example.com"}`},
		{"bad email", `{"name":"Alice","email":"not-an-email"}`},
		{"unknown status", `{"name":"Alice","email":"alice@example.com","rsvp_status":"perhaps"}`},
		{"negative guest count", `{"name":"Alice","email":"alice@example.com","guest_count":-1}`},
		{"unknown field", `{"name":"Alice","email":"alice@example.com","surprise":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/events/"+testEventID+"/rsvps", strings.NewReader(tt.body))
			req.SetPathValue("eventID", testEventID)
			w := httptest.NewRecorder()

			ctrl.CreateRSVP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
			}
		})
	}
}

func TestRSVPController_CreateRSVP_DomainErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate", domain.ErrDuplicateAttendee, http.StatusConflict, helpers.ErrCodeConflict},
		{"capacity", domain.ErrCapacityExceeded, http.StatusConflict, helpers.ErrCodeCapacityExceeded},
		{"not published", domain.ErrEventNotPublished, http.StatusUnprocessableEntity, helpers.ErrCodeRuleViolation},
		{"deadline passed", domain.ErrDeadlinePassed, http.StatusUnprocessableEntity, helpers.ErrCodeRuleViolation},
		{"missing event", domain.ErrNotFound, http.StatusNotFound, helpers.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewRSVPController(testLogger(), &mockRSVPService{err: tt.err})

			body := `{"name":"Alice","email":"alice@example.com"}`
			req := httptest.NewRequest(http.MethodPost, "/events/"+testEventID+"/rsvps", strings.NewReader(body))
			req.SetPathValue("eventID", testEventID)
			w := httptest.NewRecorder()

			ctrl.CreateRSVP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			var resp helpers.APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Fatalf("expected error code %q, got %v", tt.wantCode, resp.Error)
			}
		})
	}
}

func TestRSVPController_CreateRSVP_InvalidEventID(t *testing.T) {
	ctrl := NewRSVPController(testLogger(), &mockRSVPService{})

	req := httptest.NewRequest(http.MethodPost, "/events/not-a-uuid/rsvps", strings.NewReader(`{}`))
	req.SetPathValue("eventID", "not-a-uuid")
	w := httptest.NewRecorder()

	ctrl.CreateRSVP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestRSVPController_UpdateAttendeeStatus_Unauthorized(t *testing.T) {
	ctrl := NewRSVPController(testLogger(), &mockRSVPService{})

	req := httptest.NewRequest(http.MethodPatch, "/events/"+testEventID+"/attendees/"+testAttendeeID, strings.NewReader(`{"rsvp_status":"attending"}`))
	req.SetPathValue("eventID", testEventID)
	req.SetPathValue("attendeeID", testAttendeeID)
	w := httptest.NewRecorder()

	ctrl.UpdateAttendeeStatus(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestRSVPController_UpdateAttendeeStatus_Success(t *testing.T) {
	svc := &mockRSVPService{attendee: &domain.Attendee{ID: testAttendeeID, EventID: testEventID, RSVPStatus: domain.RSVPStatusAttending}}
	ctrl := NewRSVPController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodPatch, "/events/"+testEventID+"/attendees/"+testAttendeeID, strings.NewReader(`{"rsvp_status":"attending"}`))
	req.SetPathValue("eventID", testEventID)
	req.SetPathValue("attendeeID", testAttendeeID)
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	ctrl.UpdateAttendeeStatus(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
}

func TestRSVPController_DeleteAttendee_Forbidden(t *testing.T) {
	ctrl := NewRSVPController(testLogger(), &mockRSVPService{err: domain.ErrForbidden})

	req := httptest.NewRequest(http.MethodDelete, "/events/"+testEventID+"/attendees/"+testAttendeeID, nil)
	req.SetPathValue("eventID", testEventID)
	req.SetPathValue("attendeeID", testAttendeeID)
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-2"))
	w := httptest.NewRecorder()

	ctrl.DeleteAttendee(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
	}
}

func TestRSVPController_ListAttendees_Success(t *testing.T) {
	svc := &mockRSVPService{
		list:  []*domain.Attendee{{ID: testAttendeeID, EventID: testEventID, Email: "alice@example.com"}},
		total: 1,
	}
	ctrl := NewRSVPController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events/"+testEventID+"/attendees?page=1&page_size=20", nil)
	req.SetPathValue("eventID", testEventID)
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	ctrl.ListAttendees(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var resp helpers.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("expected no error, got %v", resp.Error)
	}
}
