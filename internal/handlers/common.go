package handlers

import (
	"log"
	"net/http"

	"github.com/iedc-snmimt/iedc-site/internal/catalog"
	"github.com/iedc-snmimt/iedc-site/internal/flash"
	"github.com/iedc-snmimt/iedc-site/internal/models"
)

// FlashInput gives an operation access to the pending flash notice.
type FlashInput struct {
	Cookie string `header:"Cookie"`
}

// EventView is an event together with its derived seat availability.
type EventView struct {
	models.Event
	AvailableSeats int `json:"available_seats"`
}

func newEventView(e models.Event) EventView {
	return EventView{Event: e, AvailableSeats: catalog.AvailableSeats(e)}
}

func newEventViews(events []models.Event) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, newEventView(e))
	}
	return views
}

// takeNotice reads the pending notice and, if there was one, returns the
// Set-Cookie value that consumes it.
func takeNotice(f *flash.Flasher, cookieHeader string) (*flash.Notice, string) {
	n := f.Read(cookieHeader)
	if n == nil {
		return nil, ""
	}
	return n, flash.Clear().String()
}

// redirectWithNotice stores n in the flash cookie and answers with 303 See Other.
func redirectWithNotice(w http.ResponseWriter, r *http.Request, f *flash.Flasher, url string, n flash.Notice) {
	if err := f.Set(w, n); err != nil {
		log.Printf("Failed to set flash notice: %v", err)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func success(msg string) flash.Notice {
	return flash.Notice{Kind: flash.Success, Message: msg}
}

func failure(msg string) flash.Notice {
	return flash.Notice{Kind: flash.Error, Message: msg}
}
