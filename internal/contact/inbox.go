// Package contact stores messages sent through the contact form.
package contact

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/iedc-snmimt/iedc-site/internal/models"
	"github.com/iedc-snmimt/iedc-site/internal/store"
)

type Submission struct {
	Name    string
	Email   string
	Subject string
	Message string
}

type Stats struct {
	Total  int `json:"total"`
	Unread int `json:"unread"`
}

type Inbox struct {
	store store.Store
	now   func() time.Time
	mu    sync.Mutex
}

func NewInbox(s store.Store) *Inbox {
	return &Inbox{store: s, now: time.Now}
}

// Initialize creates an empty messages collection on first start.
func (in *Inbox) Initialize(ctx context.Context) error {
	return store.Initialize[models.ContactMessage](ctx, in.store, store.Messages, nil)
}

// Submit appends a new unread message. Every field is required.
func (in *Inbox) Submit(ctx context.Context, sub Submission) (*models.ContactMessage, error) {
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Subject = strings.TrimSpace(sub.Subject)
	sub.Message = strings.TrimSpace(sub.Message)

	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", sub.Name},
		{"email", sub.Email},
		{"subject", sub.Subject},
		{"message", sub.Message},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return nil, &models.ValidationError{Fields: missing}
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	msgs, err := store.Load[models.ContactMessage](ctx, in.store, store.Messages)
	if err != nil {
		return nil, err
	}

	maxID := 0
	for _, m := range msgs {
		maxID = max(maxID, m.ID)
	}
	msg := models.ContactMessage{
		ID:        maxID + 1,
		Name:      sub.Name,
		Email:     sub.Email,
		Subject:   sub.Subject,
		Message:   sub.Message,
		Timestamp: in.now().Format(models.TimestampLayout),
	}
	msgs = append(msgs, msg)

	if err := store.Save(ctx, in.store, store.Change{Collection: store.Messages, Docs: msgs}); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (in *Inbox) List(ctx context.Context) ([]models.ContactMessage, error) {
	return store.Load[models.ContactMessage](ctx, in.store, store.Messages)
}

func (in *Inbox) Stats(ctx context.Context) (Stats, error) {
	msgs, err := in.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Total: len(msgs)}
	for _, m := range msgs {
		if !m.Read {
			st.Unread++
		}
	}
	return st, nil
}
