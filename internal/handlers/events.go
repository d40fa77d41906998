package handlers

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"github.com/iedc-snmimt/iedc-site/internal/catalog"
	"github.com/iedc-snmimt/iedc-site/internal/contact"
	"github.com/iedc-snmimt/iedc-site/internal/flash"
	"github.com/iedc-snmimt/iedc-site/internal/models"
)

type EventHandler struct {
	catalog       *catalog.Catalog
	inbox         *contact.Inbox
	flash         *flash.Flasher
	upcomingLimit int
}

func NewEventHandler(c *catalog.Catalog, inbox *contact.Inbox, f *flash.Flasher, upcomingLimit int) *EventHandler {
	return &EventHandler{catalog: c, inbox: inbox, flash: f, upcomingLimit: upcomingLimit}
}

type HomeResponse struct {
	Body struct {
		Messages contact.Stats `json:"messages" doc:"Contact message counters"`
		Upcoming []EventView   `json:"upcoming" doc:"Next upcoming events"`
	}
}

func (h *EventHandler) HandleHome(ctx context.Context, input *struct{}) (*HomeResponse, error) {
	stats, err := h.inbox.Stats(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load message stats")
	}
	upcoming, err := h.catalog.ListUpcoming(ctx, h.upcomingLimit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load events")
	}

	res := &HomeResponse{}
	res.Body.Messages = stats
	res.Body.Upcoming = newEventViews(upcoming)
	return res, nil
}

type ListEventsResponse struct {
	SetCookie string `header:"Set-Cookie"`
	Body      struct {
		Notice *flash.Notice `json:"notice,omitempty" doc:"One-shot notice left by the previous action"`
		Events []EventView   `json:"events"`
	}
}

func (h *EventHandler) HandleListEvents(ctx context.Context, input *FlashInput) (*ListEventsResponse, error) {
	events, err := h.catalog.ListEvents(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load events")
	}

	res := &ListEventsResponse{}
	res.Body.Notice, res.SetCookie = takeNotice(h.flash, input.Cookie)
	res.Body.Events = newEventViews(events)
	return res, nil
}

type UpcomingRequest struct {
	Limit int `query:"limit" minimum:"0" doc:"Maximum number of events, 0 for the configured default"`
}

type UpcomingResponse struct {
	Body struct {
		Events []EventView `json:"events"`
	}
}

func (h *EventHandler) HandleUpcoming(ctx context.Context, input *UpcomingRequest) (*UpcomingResponse, error) {
	limit := input.Limit
	if limit == 0 {
		limit = h.upcomingLimit
	}
	events, err := h.catalog.ListUpcoming(ctx, limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to load events")
	}

	res := &UpcomingResponse{}
	res.Body.Events = newEventViews(events)
	return res, nil
}

type GetEventRequest struct {
	ID int `path:"id" doc:"Event ID"`
}

type GetEventResponse struct {
	Body struct {
		Event EventView `json:"event"`
	}
}

func (h *EventHandler) HandleGetEvent(ctx context.Context, input *GetEventRequest) (*GetEventResponse, error) {
	event, err := lookupEvent(ctx, h.catalog, input.ID)
	if err != nil {
		return nil, err
	}

	res := &GetEventResponse{}
	res.Body.Event = newEventView(*event)
	return res, nil
}

// lookupEvent maps catalog errors onto huma status errors.
func lookupEvent(ctx context.Context, c *catalog.Catalog, id int) (*models.Event, error) {
	event, err := c.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrEventNotFound) {
			return nil, huma.Error404NotFound("Event not found")
		}
		return nil, huma.Error500InternalServerError("Failed to load event")
	}
	return event, nil
}
