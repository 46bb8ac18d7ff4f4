package http

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"guestline/internal/delivery/http/controllers"
	"guestline/internal/delivery/http/middleware"
	"guestline/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes.
// The public RSVP submission and event lookup are unauthenticated; everything
// else requires a Bearer token resolving to the acting user.
func NewRouter(
	authController *controllers.AuthController,
	eventController *controllers.EventController,
	rsvpController *controllers.RSVPController,
	messageController *controllers.MessageController,
	verifier domain.TokenVerifier,
) *http.ServeMux {
	mux := http.NewServeMux()
	auth := middleware.RequireAuth(verifier)

	// Auth
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Events
	mux.HandleFunc("POST /events", auth(eventController.CreateEvent))
	mux.HandleFunc("GET /events", auth(eventController.ListMyEvents))
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("PATCH /events/{eventID}", auth(eventController.UpdateEvent))

	// RSVPs and attendees
	mux.HandleFunc("POST /events/{eventID}/rsvps", rsvpController.CreateRSVP)
	mux.HandleFunc("GET /events/{eventID}/attendees", auth(rsvpController.ListAttendees))
	mux.HandleFunc("PATCH /events/{eventID}/attendees/{attendeeID}", auth(rsvpController.UpdateAttendeeStatus))
	mux.HandleFunc("DELETE /events/{eventID}/attendees/{attendeeID}", auth(rsvpController.DeleteAttendee))

	// Messages
	mux.HandleFunc("POST /events/{eventID}/messages", auth(messageController.CreateMessage))
	mux.HandleFunc("POST /events/{eventID}/messages/schedule", auth(messageController.ScheduleMessage))
	mux.HandleFunc("GET /events/{eventID}/messages", auth(messageController.ListMessages))
	mux.HandleFunc("POST /events/{eventID}/recipients/count", auth(messageController.EvaluateRecipientCount))
	mux.HandleFunc("GET /messages/{messageID}/delivery", auth(messageController.GetDeliveryStatus))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
