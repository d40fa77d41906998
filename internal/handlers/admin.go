package handlers

import (
	"bytes"
	"context"
	"errors"
	"log"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"
	"github.com/iedc-snmimt/iedc-site/internal/catalog"
	"github.com/iedc-snmimt/iedc-site/internal/contact"
	"github.com/iedc-snmimt/iedc-site/internal/export"
	"github.com/iedc-snmimt/iedc-site/internal/flash"
	"github.com/iedc-snmimt/iedc-site/internal/metrics"
	"github.com/iedc-snmimt/iedc-site/internal/models"
	"github.com/iedc-snmimt/iedc-site/internal/registration"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminHandler serves the read-only admin views and spreadsheet downloads.
// Access control is left to the deployment.
type AdminHandler struct {
	engine   *registration.Engine
	catalog  *catalog.Catalog
	exporter *export.Exporter
	inbox    *contact.Inbox
	flash    *flash.Flasher
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewAdminHandler(engine *registration.Engine, c *catalog.Catalog, x *export.Exporter, inbox *contact.Inbox, f *flash.Flasher, m *metrics.Metrics) *AdminHandler {
	return &AdminHandler{engine: engine, catalog: c, exporter: x, inbox: inbox, flash: f, metrics: m, now: time.Now}
}

type EventCount struct {
	EventID    int    `json:"event_id"`
	Title      string `json:"title"`
	Registered int    `json:"registered"`
	Seats      int    `json:"seats"`
}

type AdminRegistrationsResponse struct {
	SetCookie string `header:"Set-Cookie"`
	Body      struct {
		Notice        *flash.Notice         `json:"notice,omitempty"`
		Total         int                   `json:"total"`
		Registrations []models.Registration `json:"registrations"`
		Events        []EventCount          `json:"events" doc:"Confirmed registrations per event"`
	}
}

func (h *AdminHandler) HandleRegistrations(ctx context.Context, input *FlashInput) (*AdminRegistrationsResponse, error) {
	regs, err := h.engine.Registrations(ctx, nil)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load registrations")
	}
	counts, err := h.engine.Counts(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load registrations")
	}
	events, err := h.catalog.ListEvents(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load events")
	}

	res := &AdminRegistrationsResponse{}
	res.Body.Notice, res.SetCookie = takeNotice(h.flash, input.Cookie)
	res.Body.Total = len(regs)
	res.Body.Registrations = regs
	res.Body.Events = make([]EventCount, 0, len(events))
	for _, e := range events {
		res.Body.Events = append(res.Body.Events, EventCount{
			EventID:    e.ID,
			Title:      e.Title,
			Registered: counts[e.ID],
			Seats:      e.Seats,
		})
	}
	return res, nil
}

type AdminMessagesResponse struct {
	Body struct {
		Stats    contact.Stats           `json:"stats"`
		Messages []models.ContactMessage `json:"messages"`
	}
}

func (h *AdminHandler) HandleMessages(ctx context.Context, input *struct{}) (*AdminMessagesResponse, error) {
	msgs, err := h.inbox.List(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load messages")
	}

	stats, err := h.inbox.Stats(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load message stats")
	}

	res := &AdminMessagesResponse{}
	res.Body.Messages = msgs
	res.Body.Stats = stats
	return res, nil
}

// ExportAll downloads every registration as a spreadsheet.
func (h *AdminHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	buf, err := h.exporter.Export(r.Context(), nil)
	if err != nil {
		h.exportFailed(w, r, "all", err)
		return
	}
	h.metrics.Export("all", metrics.OutcomeSuccess)
	writeSpreadsheet(w, h.exporter.AllFilename(h.now()), buf)
}

// ExportEvent downloads the registrations of one event as a spreadsheet.
func (h *AdminHandler) ExportEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.exportFailed(w, r, "event", models.ErrEventNotFound)
		return
	}
	event, err := h.catalog.GetEvent(r.Context(), id)
	if err != nil {
		h.exportFailed(w, r, "event", err)
		return
	}

	buf, err := h.exporter.Export(r.Context(), &id)
	if err != nil {
		h.exportFailed(w, r, "event", err)
		return
	}
	h.metrics.Export("event", metrics.OutcomeSuccess)
	writeSpreadsheet(w, h.exporter.EventFilename(event.Title, h.now()), buf)
}

func (h *AdminHandler) exportFailed(w http.ResponseWriter, r *http.Request, scope string, err error) {
	var notice flash.Notice
	switch {
	case errors.Is(err, models.ErrNoRegistrations):
		h.metrics.Export(scope, metrics.OutcomeEmpty)
		notice = failure("No registrations found to export.")
	case errors.Is(err, models.ErrEventNotFound):
		h.metrics.Export(scope, metrics.OutcomeNotFound)
		notice = failure("Event not found.")
	default:
		log.Printf("Export (%s) failed: %v", scope, err)
		h.metrics.Export(scope, metrics.OutcomeError)
		notice = failure("Sorry, the export failed. Please try again.")
	}
	redirectWithNotice(w, r, h.flash, "/admin/registrations", notice)
}

func writeSpreadsheet(w http.ResponseWriter, filename string, buf *bytes.Buffer) {
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		log.Printf("Failed to write spreadsheet %s: %v", filename, err)
	}
}
