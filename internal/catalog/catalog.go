// Package catalog provides read access to the event catalog.
package catalog

import (
	"context"
	"slices"

	"github.com/iedc-snmimt/iedc-site/internal/models"
	"github.com/iedc-snmimt/iedc-site/internal/store"
)

type Catalog struct {
	store store.Store
	seed  []models.Event
}

func New(s store.Store, seed []models.Event) *Catalog {
	return &Catalog{store: s, seed: seed}
}

// Initialize writes the seed catalog unless events were already persisted.
func (c *Catalog) Initialize(ctx context.Context) error {
	return store.Initialize(ctx, c.store, store.Events, c.seed)
}

// ListEvents returns the persisted events, or the seed catalog when the store
// holds none.
func (c *Catalog) ListEvents(ctx context.Context) ([]models.Event, error) {
	events, err := store.Load[models.Event](ctx, c.store, store.Events)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return slices.Clone(c.seed), nil
	}
	return events, nil
}

func (c *Catalog) GetEvent(ctx context.Context, id int) (*models.Event, error) {
	events, err := c.ListEvents(ctx)
	if err != nil {
		return nil, err
	}
	return Find(events, id)
}

// ListUpcoming returns at most limit upcoming events in catalog order.
// A limit of zero or less returns all of them.
func (c *Catalog) ListUpcoming(ctx context.Context, limit int) ([]models.Event, error) {
	events, err := c.ListEvents(ctx)
	if err != nil {
		return nil, err
	}

	upcoming := make([]models.Event, 0, len(events))
	for _, e := range events {
		if e.Status != models.EventUpcoming {
			continue
		}
		if limit > 0 && len(upcoming) == limit {
			break
		}
		upcoming = append(upcoming, e)
	}
	return upcoming, nil
}

// AvailableSeats is seats minus registered, never negative.
func AvailableSeats(e models.Event) int {
	return e.AvailableSeats()
}

// Find returns the event with the given id from events.
func Find(events []models.Event, id int) (*models.Event, error) {
	i := slices.IndexFunc(events, func(e models.Event) bool { return e.ID == id })
	if i < 0 {
		return nil, models.ErrEventNotFound
	}
	e := events[i]
	return &e, nil
}
