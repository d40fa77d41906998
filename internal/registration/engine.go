// Package registration validates and commits event registrations while
// keeping each event's registered counter equal to its registration count.
package registration

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/iedc-snmimt/iedc-site/internal/catalog"
	"github.com/iedc-snmimt/iedc-site/internal/models"
	"github.com/iedc-snmimt/iedc-site/internal/store"
)

// Request is the raw registration form for one event.
type Request struct {
	EventID string
	models.RegistrationFields
}

type Engine struct {
	store   store.Store
	catalog *catalog.Catalog
	now     func() time.Time

	// mu serializes every read-modify-write of the events and
	// registrations collections.
	mu sync.Mutex
}

func NewEngine(s store.Store, c *catalog.Catalog) *Engine {
	return &Engine{store: s, catalog: c, now: time.Now}
}

// Initialize creates an empty registrations collection on first start.
func (e *Engine) Initialize(ctx context.Context) error {
	return store.Initialize[models.Registration](ctx, e.store, store.Registrations, nil)
}

// Register validates req and, if the event has a free seat and the email is
// not yet registered for it, stores the registration and bumps the event's
// counter in one save.
func (e *Engine) Register(ctx context.Context, req Request) (*models.Registration, error) {
	req = normalize(req)
	eventID, err := validate(req)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	events, err := e.catalog.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range events {
		if events[i].ID == eventID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, models.ErrEventNotFound
	}
	event := &events[idx]

	if event.IsFull() {
		return nil, models.ErrEventFull
	}

	regs, err := store.Load[models.Registration](ctx, e.store, store.Registrations)
	if err != nil {
		return nil, err
	}
	for _, r := range regs {
		if r.EventID == eventID && strings.EqualFold(r.Email, req.Email) {
			return nil, models.ErrAlreadyRegistered
		}
	}

	reg := models.Registration{
		ID:                 nextID(regs),
		EventID:            eventID,
		EventTitle:         event.Title,
		RegistrationFields: req.RegistrationFields,
		Timestamp:          e.now().Format(models.TimestampLayout),
		Status:             models.RegistrationConfirmed,
	}
	regs = append(regs, reg)
	event.Registered++

	err = store.Save(ctx, e.store,
		store.Change{Collection: store.Registrations, Docs: regs},
		store.Change{Collection: store.Events, Docs: events},
	)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

// Registrations lists stored registrations, optionally only those of one event.
func (e *Engine) Registrations(ctx context.Context, eventID *int) ([]models.Registration, error) {
	regs, err := store.Load[models.Registration](ctx, e.store, store.Registrations)
	if err != nil {
		return nil, err
	}
	if eventID == nil {
		return regs, nil
	}

	filtered := make([]models.Registration, 0, len(regs))
	for _, r := range regs {
		if r.EventID == *eventID {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// Counts returns the number of confirmed registrations per event id.
func (e *Engine) Counts(ctx context.Context) (map[int]int, error) {
	regs, err := store.Load[models.Registration](ctx, e.store, store.Registrations)
	if err != nil {
		return nil, err
	}
	return confirmedCounts(regs), nil
}

// Reconcile recomputes every event's registered counter from the
// registrations collection and saves the events if any counter was wrong.
// It returns the number of corrected events.
func (e *Engine) Reconcile(ctx context.Context) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	events, err := e.catalog.ListEvents(ctx)
	if err != nil {
		return 0, err
	}
	regs, err := store.Load[models.Registration](ctx, e.store, store.Registrations)
	if err != nil {
		return 0, err
	}

	counts := confirmedCounts(regs)
	fixed := 0
	for i := range events {
		ev := &events[i]
		if want := counts[ev.ID]; ev.Registered != want {
			log.Printf("Reconcile: event %d (%s) registered %d -> %d", ev.ID, ev.Title, ev.Registered, want)
			ev.Registered = want
			fixed++
		}
		if ev.Registered > ev.Seats {
			log.Printf("WARNING: event %d (%s) has %d registrations for %d seats", ev.ID, ev.Title, ev.Registered, ev.Seats)
		}
	}
	if fixed == 0 {
		return 0, nil
	}

	if err := store.Save(ctx, e.store, store.Change{Collection: store.Events, Docs: events}); err != nil {
		return 0, err
	}
	return fixed, nil
}

func confirmedCounts(regs []models.Registration) map[int]int {
	counts := make(map[int]int)
	for _, r := range regs {
		if r.Status == models.RegistrationConfirmed {
			counts[r.EventID]++
		}
	}
	return counts
}

// nextID is one more than the largest id in use, so ids stay unique even
// after a registration is removed.
func nextID(regs []models.Registration) int {
	maxID := 0
	for _, r := range regs {
		maxID = max(maxID, r.ID)
	}
	return maxID + 1
}

func normalize(req Request) Request {
	req.EventID = strings.TrimSpace(req.EventID)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	req.Department = strings.TrimSpace(req.Department)
	req.Year = strings.TrimSpace(req.Year)
	req.Message = strings.TrimSpace(req.Message)
	return req
}

// MaxFieldLength is the longest value a spreadsheet cell holds, so every
// stored registration exports without truncation.
const MaxFieldLength = 32767

func validate(req Request) (int, error) {
	var missing []string
	required := []struct {
		field string
		value string
	}{
		{"event_id", req.EventID},
		{"name", req.Name},
		{"email", req.Email},
		{"phone", req.Phone},
		{"department", req.Department},
		{"year", req.Year},
	}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return 0, &models.ValidationError{Fields: missing}
	}

	var tooLong []string
	for _, f := range []struct {
		field string
		value string
	}{
		{"name", req.Name},
		{"email", req.Email},
		{"phone", req.Phone},
		{"department", req.Department},
		{"year", req.Year},
		{"message", req.Message},
	} {
		if utf8.RuneCountInString(f.value) > MaxFieldLength {
			tooLong = append(tooLong, f.field)
		}
	}
	if len(tooLong) > 0 {
		return 0, &models.ValidationError{Fields: tooLong}
	}

	eventID, err := strconv.Atoi(req.EventID)
	if err != nil || eventID <= 0 {
		return 0, &models.ValidationError{Fields: []string{"event_id"}}
	}
	if !isValidEmail(req.Email) {
		return 0, &models.ValidationError{Fields: []string{"email"}}
	}
	return eventID, nil
}

// isValidEmail does a basic structural check.
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
