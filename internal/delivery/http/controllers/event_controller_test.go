package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"guestline/internal/delivery/http/helpers"
	"guestline/internal/delivery/http/middleware"
	"guestline/internal/domain"
)

type mockEventService struct {
	event *domain.Event
	list  []*domain.Event
	err   error
}

func (m *mockEventService) CreateEvent(ctx context.Context, event *domain.Event) error {
	if m.err != nil {
		return m.err
	}
	event.ID = testEventID
	return nil
}

func (m *mockEventService) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}

func (m *mockEventService) ListMyEvents(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockEventService) UpdateEvent(ctx context.Context, eventID, ownerID string, upd domain.EventUpdate) (*domain.Event, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.event, nil
}

func TestEventController_CreateEvent_Success(t *testing.T) {
	ctrl := NewEventController(testLogger(), &mockEventService{})

	body := `{"name":"Launch Party","capacity":50}`
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	ctrl.CreateEvent(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	var resp EventSuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp.Data == nil || resp.Data.ID != testEventID {
		t.Fatalf("unexpected event payload: %+v", resp.Data)
	}
	if resp.Data.Status != domain.EventStatusDraft {
		t.Errorf("expected new event to be draft, got %q", resp.Data.Status)
	}
	if resp.Data.Capacity == nil || *resp.Data.Capacity != 50 {
		t.Errorf("expected capacity 50, got %v", resp.Data.Capacity)
	}
}

func TestEventController_CreateEvent_Unauthorized(t *testing.T) {
	ctrl := NewEventController(testLogger(), &mockEventService{})

	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(`{"name":"Launch Party"}`))
	w := httptest.NewRecorder()

	ctrl.CreateEvent(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestEventController_CreateEvent_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"capacity":10}`},
		{"blank name", `{"name":"   "}`},
		{"negative capacity", `{"name":"Launch Party","capacity":-1}`},
		{"unknown field", `{"name":"Launch Party","venue":"HQ"}`},
		{"malformed json", `{"name":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := NewEventController(testLogger(), &mockEventService{})
			req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(tt.body))
			req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
			w := httptest.NewRecorder()

			ctrl.CreateEvent(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
			}
			var resp helpers.APIResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Error == nil || resp.Error.Code != helpers.ErrCodeBadRequest {
				t.Errorf("expected error code %q, got %+v", helpers.ErrCodeBadRequest, resp.Error)
			}
		})
	}
}

func TestEventController_GetEvent(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		capacity := 100
		svc := &mockEventService{event: &domain.Event{ID: testEventID, Name: "Launch Party", Status: domain.EventStatusPublished, Capacity: &capacity}}
		ctrl := NewEventController(testLogger(), svc)

		req := httptest.NewRequest(http.MethodGet, "/events/"+testEventID, nil)
		req.SetPathValue("eventID", testEventID)
		w := httptest.NewRecorder()

		ctrl.GetEvent(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		var resp EventSuccessResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Data == nil || resp.Data.Name != "Launch Party" {
			t.Fatalf("unexpected event payload: %+v", resp.Data)
		}
	})

	t.Run("invalid event id", func(t *testing.T) {
		ctrl := NewEventController(testLogger(), &mockEventService{})
		req := httptest.NewRequest(http.MethodGet, "/events/not-a-uuid", nil)
		req.SetPathValue("eventID", "not-a-uuid")
		w := httptest.NewRecorder()

		ctrl.GetEvent(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d", http.StatusBadRequest, w.Code)
		}
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := NewEventController(testLogger(), &mockEventService{err: domain.ErrNotFound})
		req := httptest.NewRequest(http.MethodGet, "/events/"+testEventID, nil)
		req.SetPathValue("eventID", testEventID)
		w := httptest.NewRecorder()

		ctrl.GetEvent(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}

func TestEventController_ListMyEvents(t *testing.T) {
	svc := &mockEventService{list: []*domain.Event{
		{ID: testEventID, Name: "Launch Party", OwnerID: "user-1"},
		{ID: testAttendeeID, Name: "Retro", OwnerID: "user-1"},
	}}
	ctrl := NewEventController(testLogger(), svc)

	req := httptest.NewRequest(http.MethodGet, "/events", nil)
	req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	ctrl.ListMyEvents(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	var resp struct {
		Data  []*domain.Event   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Data))
	}
}

func TestEventController_UpdateEvent(t *testing.T) {
	t.Run("publishes event", func(t *testing.T) {
		deadline := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
		svc := &mockEventService{event: &domain.Event{ID: testEventID, Name: "Launch Party", Status: domain.EventStatusPublished, RSVPDeadline: &deadline}}
		ctrl := NewEventController(testLogger(), svc)

		body := `{"status":"published","rsvp_deadline":"` + deadline.Format(time.RFC3339) + `"}`
		req := httptest.NewRequest(http.MethodPatch, "/events/"+testEventID, strings.NewReader(body))
		req.SetPathValue("eventID", testEventID)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
		w := httptest.NewRecorder()

		ctrl.UpdateEvent(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
		}
		var resp EventSuccessResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Data == nil || resp.Data.Status != domain.EventStatusPublished {
			t.Fatalf("expected published event, got %+v", resp.Data)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		ctrl := NewEventController(testLogger(), &mockEventService{})
		req := httptest.NewRequest(http.MethodPatch, "/events/"+testEventID, strings.NewReader(`{"status":"archived"}`))
		req.SetPathValue("eventID", testEventID)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-1"))
		w := httptest.NewRecorder()

		ctrl.UpdateEvent(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, w.Code, w.Body.String())
		}
	})

	t.Run("forbidden for non owner", func(t *testing.T) {
		ctrl := NewEventController(testLogger(), &mockEventService{err: domain.ErrForbidden})
		req := httptest.NewRequest(http.MethodPatch, "/events/"+testEventID, strings.NewReader(`{"status":"cancelled"}`))
		req.SetPathValue("eventID", testEventID)
		req = req.WithContext(middleware.SetUserID(req.Context(), "user-2"))
		w := httptest.NewRecorder()

		ctrl.UpdateEvent(w, req)

		if w.Code != http.StatusForbidden {
			t.Fatalf("expected status %d, got %d", http.StatusForbidden, w.Code)
		}
		var resp helpers.APIResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
		if resp.Error == nil || resp.Error.Code != helpers.ErrCodeForbidden {
			t.Errorf("expected error code %q, got %+v", helpers.ErrCodeForbidden, resp.Error)
		}
	})
}
