package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RegisterRoutes mounts every page, form and download route on r.
// metricsHandler may be nil to leave /metrics unmounted.
func RegisterRoutes(r *chi.Mux, eventHandler *EventHandler, registrationHandler *RegistrationHandler, adminHandler *AdminHandler, contactHandler *ContactHandler, metricsHandler http.Handler) {
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Initialize Huma API
	config := huma.DefaultConfig("IEDC Site API", "1.0.0")
	api := humachi.New(r, config)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	// Events
	huma.Get(api, "/", eventHandler.HandleHome)
	huma.Get(api, "/events", eventHandler.HandleListEvents)
	huma.Get(api, "/events/upcoming", eventHandler.HandleUpcoming)
	huma.Get(api, "/event/{id}", eventHandler.HandleGetEvent)

	// Registration
	huma.Get(api, "/event/{id}/register", registrationHandler.HandleForm)
	r.Post("/event/{id}/register", registrationHandler.Register)

	// Contact
	huma.Get(api, "/contact", contactHandler.HandleForm)
	r.Post("/contact", contactHandler.Submit)

	// Admin
	huma.Get(api, "/admin/registrations", adminHandler.HandleRegistrations)
	huma.Get(api, "/admin/messages", adminHandler.HandleMessages)
	r.Get("/admin/export-registrations", adminHandler.ExportAll)
	r.Get("/admin/export-event-registrations/{id}", adminHandler.ExportEvent)
}
