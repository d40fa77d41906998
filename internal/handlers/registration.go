package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/iedc-snmimt/iedc-site/internal/catalog"
	"github.com/iedc-snmimt/iedc-site/internal/flash"
	"github.com/iedc-snmimt/iedc-site/internal/metrics"
	"github.com/iedc-snmimt/iedc-site/internal/models"
	"github.com/iedc-snmimt/iedc-site/internal/notifier"
	"github.com/iedc-snmimt/iedc-site/internal/registration"
)

type RegistrationHandler struct {
	engine   *registration.Engine
	catalog  *catalog.Catalog
	flash    *flash.Flasher
	notifier notifier.Notifier
	metrics  *metrics.Metrics
}

func NewRegistrationHandler(engine *registration.Engine, c *catalog.Catalog, f *flash.Flasher, n notifier.Notifier, m *metrics.Metrics) *RegistrationHandler {
	return &RegistrationHandler{engine: engine, catalog: c, flash: f, notifier: n, metrics: m}
}

type RegistrationFormRequest struct {
	FlashInput
	ID int `path:"id" doc:"Event ID"`
}

type RegistrationFormResponse struct {
	SetCookie string `header:"Set-Cookie"`
	Body      struct {
		Event          EventView     `json:"event"`
		AvailableSeats int           `json:"available_seats"`
		Notice         *flash.Notice `json:"notice,omitempty"`
		Fields         []string      `json:"fields" doc:"Form fields accepted by POST"`
	}
}

var registrationFields = []string{"name", "email", "phone", "department", "year", "message"}

func (h *RegistrationHandler) HandleForm(ctx context.Context, input *RegistrationFormRequest) (*RegistrationFormResponse, error) {
	event, err := lookupEvent(ctx, h.catalog, input.ID)
	if err != nil {
		return nil, err
	}

	res := &RegistrationFormResponse{}
	res.Body.Event = newEventView(*event)
	res.Body.AvailableSeats = catalog.AvailableSeats(*event)
	res.Body.Notice, res.SetCookie = takeNotice(h.flash, input.Cookie)
	res.Body.Fields = registrationFields
	return res, nil
}

// Register handles the form POST of /event/{id}/register.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	formURL := fmt.Sprintf("/event/%s/register", url.PathEscape(id))

	if err := r.ParseForm(); err != nil {
		h.metrics.Registration(metrics.OutcomeInvalid)
		redirectWithNotice(w, r, h.flash, formURL, failure("Could not read the registration form."))
		return
	}

	req := registration.Request{
		EventID: id,
		RegistrationFields: models.RegistrationFields{
			Name:       r.PostForm.Get("name"),
			Email:      r.PostForm.Get("email"),
			Phone:      r.PostForm.Get("phone"),
			Department: r.PostForm.Get("department"),
			Year:       r.PostForm.Get("year"),
			Message:    r.PostForm.Get("message"),
		},
	}

	reg, err := h.engine.Register(r.Context(), req)
	if err != nil {
		var vErr *models.ValidationError
		switch {
		case errors.As(err, &vErr):
			h.metrics.Registration(metrics.OutcomeInvalid)
			redirectWithNotice(w, r, h.flash, formURL, failure("Please fill in all required fields correctly: "+strings.Join(vErr.Fields, ", ")+"."))
		case errors.Is(err, models.ErrEventNotFound):
			h.metrics.Registration(metrics.OutcomeNotFound)
			redirectWithNotice(w, r, h.flash, "/events", failure("Event not found."))
		case errors.Is(err, models.ErrEventFull):
			h.metrics.Registration(metrics.OutcomeFull)
			redirectWithNotice(w, r, h.flash, formURL, failure("Sorry, this event is full."))
		case errors.Is(err, models.ErrAlreadyRegistered):
			h.metrics.Registration(metrics.OutcomeDuplicate)
			redirectWithNotice(w, r, h.flash, formURL, failure("You have already registered for this event with this email."))
		default:
			log.Printf("Registration for event %s failed: %v", id, err)
			h.metrics.Registration(metrics.OutcomeError)
			redirectWithNotice(w, r, h.flash, formURL, failure("Sorry, there was an error saving your registration. Please try again."))
		}
		return
	}

	h.metrics.Registration(metrics.OutcomeSuccess)
	h.notify(r.Context(), *reg)
	redirectWithNotice(w, r, h.flash, "/events",
		success(fmt.Sprintf("Thank you %s! You have successfully registered for %s.", reg.Name, reg.EventTitle)))
}

func (h *RegistrationHandler) notify(ctx context.Context, reg models.Registration) {
	if h.notifier == nil {
		return
	}
	event, err := h.catalog.GetEvent(ctx, reg.EventID)
	if err != nil {
		log.Printf("Failed to load event %d for notification: %v", reg.EventID, err)
		return
	}
	if err := h.notifier.NotifyRegistration(*event, reg); err != nil {
		log.Printf("Failed to send registration notification: %v", err)
	}
}
