package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/iedc-snmimt/iedc-site/internal/contact"
	"github.com/iedc-snmimt/iedc-site/internal/flash"
	"github.com/iedc-snmimt/iedc-site/internal/metrics"
	"github.com/iedc-snmimt/iedc-site/internal/models"
	"github.com/iedc-snmimt/iedc-site/internal/notifier"
)

type ContactHandler struct {
	inbox    *contact.Inbox
	flash    *flash.Flasher
	notifier notifier.Notifier
	metrics  *metrics.Metrics
}

func NewContactHandler(inbox *contact.Inbox, f *flash.Flasher, n notifier.Notifier, m *metrics.Metrics) *ContactHandler {
	return &ContactHandler{inbox: inbox, flash: f, notifier: n, metrics: m}
}

type ContactFormResponse struct {
	SetCookie string `header:"Set-Cookie"`
	Body      struct {
		Notice *flash.Notice `json:"notice,omitempty"`
		Fields []string      `json:"fields" doc:"Form fields accepted by POST"`
	}
}

func (h *ContactHandler) HandleForm(ctx context.Context, input *FlashInput) (*ContactFormResponse, error) {
	res := &ContactFormResponse{}
	res.Body.Notice, res.SetCookie = takeNotice(h.flash, input.Cookie)
	res.Body.Fields = []string{"name", "email", "subject", "message"}
	return res, nil
}

// Submit handles the form POST of /contact.
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.metrics.Message(metrics.OutcomeInvalid)
		redirectWithNotice(w, r, h.flash, "/contact", failure("Could not read the contact form."))
		return
	}

	msg, err := h.inbox.Submit(r.Context(), contact.Submission{
		Name:    r.PostForm.Get("name"),
		Email:   r.PostForm.Get("email"),
		Subject: r.PostForm.Get("subject"),
		Message: r.PostForm.Get("message"),
	})
	if err != nil {
		var vErr *models.ValidationError
		if errors.As(err, &vErr) {
			h.metrics.Message(metrics.OutcomeInvalid)
			redirectWithNotice(w, r, h.flash, "/contact", failure("Please fill in all fields."))
			return
		}
		log.Printf("Failed to save contact message: %v", err)
		h.metrics.Message(metrics.OutcomeError)
		redirectWithNotice(w, r, h.flash, "/contact", failure("Sorry, there was an error saving your message. Please try again."))
		return
	}

	log.Printf("Message saved: %s - %s", msg.Name, msg.Subject)
	h.metrics.Message(metrics.OutcomeSuccess)
	if h.notifier != nil {
		if err := h.notifier.NotifyContactMessage(*msg); err != nil {
			log.Printf("Failed to send contact notification: %v", err)
		}
	}
	redirectWithNotice(w, r, h.flash, "/contact",
		success(fmt.Sprintf("Thank you %s! Your message has been received. We will contact you soon.", msg.Name)))
}
