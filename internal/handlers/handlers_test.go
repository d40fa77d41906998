package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/xuri/excelize/v2"

	"github.com/iedc-snmimt/iedc-site/internal/catalog"
	"github.com/iedc-snmimt/iedc-site/internal/contact"
	"github.com/iedc-snmimt/iedc-site/internal/export"
	"github.com/iedc-snmimt/iedc-site/internal/flash"
	"github.com/iedc-snmimt/iedc-site/internal/metrics"
	"github.com/iedc-snmimt/iedc-site/internal/models"
	"github.com/iedc-snmimt/iedc-site/internal/registration"
	"github.com/iedc-snmimt/iedc-site/internal/store"
)

type recordingNotifier struct {
	registrations []models.Registration
	messages      []models.ContactMessage
}

func (n *recordingNotifier) NotifyRegistration(_ models.Event, reg models.Registration) error {
	n.registrations = append(n.registrations, reg)
	return nil
}

func (n *recordingNotifier) NotifyContactMessage(msg models.ContactMessage) error {
	n.messages = append(n.messages, msg)
	return nil
}

type testSite struct {
	router   *chi.Mux
	store    store.Store
	flash    *flash.Flasher
	notifier *recordingNotifier
}

func setupSite(t *testing.T, events []models.Event) *testSite {
	t.Helper()
	return setupSiteWithStore(t, store.NewMemoryStore(), events)
}

func setupSiteWithStore(t *testing.T, s store.Store, events []models.Event) *testSite {
	t.Helper()
	ctx := context.Background()

	c := catalog.New(s, events)
	if err := c.Initialize(ctx); err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	inbox := contact.NewInbox(s)
	if err := inbox.Initialize(ctx); err != nil {
		t.Fatalf("failed to init inbox: %v", err)
	}
	engine := registration.NewEngine(s, c)
	exporter := export.NewExporter(engine, "IEDC")
	f := flash.New("test-secret")
	n := &recordingNotifier{}
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	admin := NewAdminHandler(engine, c, exporter, inbox, f, m)
	admin.now = func() time.Time { return time.Date(2024, 3, 10, 8, 5, 9, 0, time.UTC) }

	r := chi.NewRouter()
	RegisterRoutes(r,
		NewEventHandler(c, inbox, f, 2),
		NewRegistrationHandler(engine, c, f, n, m),
		admin,
		NewContactHandler(inbox, f, n, m),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)
	return &testSite{router: r, store: s, flash: f, notifier: n}
}

func defaultEvents() []models.Event {
	return []models.Event{
		{ID: 1, Title: "Startup Bootcamp", Seats: 1, Status: models.EventUpcoming},
		{ID: 2, Title: "Hackathon 2024", Seats: 10, Status: models.EventUpcoming},
		{ID: 3, Title: "Investor Meet", Seats: 5, Status: models.EventPast},
	}
}

func (s *testSite) do(t *testing.T, method, target string, form url.Values, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	var body *strings.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	} else {
		body = strings.NewReader("")
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

// flashOf returns the flash cookie pair set by a response, and its notice.
func (s *testSite) flashOf(t *testing.T, rr *httptest.ResponseRecorder) (string, *flash.Notice) {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == flash.CookieName && c.Value != "" {
			pair := c.Name + "=" + c.Value
			return pair, s.flash.Read(pair)
		}
	}
	t.Fatalf("expected a %s cookie on the response", flash.CookieName)
	return "", nil
}

func registrationForm(name, email string) url.Values {
	return url.Values{
		"name":       {name},
		"email":      {email},
		"phone":      {"9876543210"},
		"department": {"CSE"},
		"year":       {"3"},
		"message":    {"Looking forward"},
	}
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("failed to decode body %q: %v", rr.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	site := setupSite(t, defaultEvents())
	rr := site.do(t, http.MethodGet, "/health", nil, "")
	if rr.Code != http.StatusOK || rr.Body.String() != "OK" {
		t.Errorf("expected 200 OK, got %d %q", rr.Code, rr.Body.String())
	}
}

func TestListEvents(t *testing.T) {
	site := setupSite(t, defaultEvents())

	rr := site.do(t, http.MethodGet, "/events", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %d", rr.Code)
	}

	var body struct {
		Notice *flash.Notice `json:"notice"`
		Events []struct {
			ID             int    `json:"id"`
			Title          string `json:"title"`
			AvailableSeats int    `json:"available_seats"`
		} `json:"events"`
	}
	decode(t, rr, &body)

	if len(body.Events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(body.Events))
	}
	if body.Events[1].Title != "Hackathon 2024" || body.Events[1].AvailableSeats != 10 {
		t.Errorf("unexpected second event %+v", body.Events[1])
	}
	if body.Notice != nil {
		t.Errorf("expected no notice, got %+v", body.Notice)
	}
}

func TestHome(t *testing.T) {
	site := setupSite(t, defaultEvents())

	rr := site.do(t, http.MethodGet, "/", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %d", rr.Code)
	}
	var body struct {
		Messages contact.Stats `json:"messages"`
		Upcoming []struct {
			ID int `json:"id"`
		} `json:"upcoming"`
	}
	decode(t, rr, &body)
	if len(body.Upcoming) != 2 || body.Upcoming[0].ID != 1 || body.Upcoming[1].ID != 2 {
		t.Errorf("expected upcoming events 1 and 2, got %+v", body.Upcoming)
	}
}

func TestGetEvent(t *testing.T) {
	site := setupSite(t, defaultEvents())

	t.Run("Found", func(t *testing.T) {
		rr := site.do(t, http.MethodGet, "/event/2", nil, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status OK, got %d", rr.Code)
		}
		var body struct {
			Event struct {
				Title          string `json:"title"`
				AvailableSeats int    `json:"available_seats"`
			} `json:"event"`
		}
		decode(t, rr, &body)
		if body.Event.Title != "Hackathon 2024" || body.Event.AvailableSeats != 10 {
			t.Errorf("unexpected event %+v", body.Event)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		rr := site.do(t, http.MethodGet, "/event/99", nil, "")
		if rr.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rr.Code)
		}
	})
}

func TestRegisterFlow(t *testing.T) {
	site := setupSite(t, defaultEvents())

	t.Run("Success", func(t *testing.T) {
		rr := site.do(t, http.MethodPost, "/event/2/register", registrationForm("Asha", "asha@example.com"), "")
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/events" {
			t.Errorf("expected redirect to /events, got %s", loc)
		}
		cookie, notice := site.flashOf(t, rr)
		if notice == nil || notice.Kind != flash.Success || !strings.Contains(notice.Message, "Hackathon 2024") {
			t.Fatalf("unexpected notice %+v", notice)
		}
		if len(site.notifier.registrations) != 1 {
			t.Errorf("expected one notification, got %d", len(site.notifier.registrations))
		}

		// The events page shows the notice once and the seat count drops.
		rr = site.do(t, http.MethodGet, "/events", nil, cookie)
		var body struct {
			Notice *flash.Notice `json:"notice"`
			Events []struct {
				AvailableSeats int `json:"available_seats"`
				Registered     int `json:"registered"`
			} `json:"events"`
		}
		decode(t, rr, &body)
		if body.Notice == nil || body.Notice.Kind != flash.Success {
			t.Errorf("expected success notice on events page, got %+v", body.Notice)
		}
		if body.Events[1].Registered != 1 || body.Events[1].AvailableSeats != 9 {
			t.Errorf("expected 1 registered / 9 available, got %+v", body.Events[1])
		}
		if !strings.Contains(rr.Header().Get("Set-Cookie"), flash.CookieName+"=;") {
			t.Errorf("expected flash cookie to be cleared, got %q", rr.Header().Get("Set-Cookie"))
		}
	})

	t.Run("Duplicate", func(t *testing.T) {
		rr := site.do(t, http.MethodPost, "/event/2/register", registrationForm("Asha", "ASHA@example.com"), "")
		if loc := rr.Header().Get("Location"); loc != "/event/2/register" {
			t.Errorf("expected redirect back to form, got %s", loc)
		}
		_, notice := site.flashOf(t, rr)
		if notice == nil || notice.Kind != flash.Error || !strings.Contains(notice.Message, "already registered") {
			t.Errorf("unexpected notice %+v", notice)
		}
	})

	t.Run("Full", func(t *testing.T) {
		site.do(t, http.MethodPost, "/event/1/register", registrationForm("A", "a@x.com"), "")
		rr := site.do(t, http.MethodPost, "/event/1/register", registrationForm("B", "b@x.com"), "")
		if loc := rr.Header().Get("Location"); loc != "/event/1/register" {
			t.Errorf("expected redirect back to form, got %s", loc)
		}
		_, notice := site.flashOf(t, rr)
		if notice == nil || !strings.Contains(notice.Message, "full") {
			t.Errorf("unexpected notice %+v", notice)
		}
	})

	t.Run("MissingFields", func(t *testing.T) {
		form := registrationForm("", "c@x.com")
		form.Del("year")
		rr := site.do(t, http.MethodPost, "/event/2/register", form, "")
		_, notice := site.flashOf(t, rr)
		if notice == nil || !strings.Contains(notice.Message, "name, year") {
			t.Errorf("unexpected notice %+v", notice)
		}
	})

	t.Run("UnknownEvent", func(t *testing.T) {
		rr := site.do(t, http.MethodPost, "/event/99/register", registrationForm("A", "a@x.com"), "")
		if loc := rr.Header().Get("Location"); loc != "/events" {
			t.Errorf("expected redirect to /events, got %s", loc)
		}
	})

	t.Run("FormShowsNotice", func(t *testing.T) {
		rr := site.do(t, http.MethodPost, "/event/1/register", registrationForm("C", "c@x.com"), "")
		cookie, _ := site.flashOf(t, rr)

		rr = site.do(t, http.MethodGet, "/event/1/register", nil, cookie)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status OK, got %d", rr.Code)
		}
		var body struct {
			AvailableSeats int           `json:"available_seats"`
			Notice         *flash.Notice `json:"notice"`
		}
		decode(t, rr, &body)
		if body.AvailableSeats != 0 {
			t.Errorf("expected 0 available seats, got %d", body.AvailableSeats)
		}
		if body.Notice == nil || body.Notice.Kind != flash.Error {
			t.Errorf("expected error notice, got %+v", body.Notice)
		}
	})
}

// failingStore rejects every write once failWrites is set.
type failingStore struct {
	store.Store
	failWrites bool
}

func (s *failingStore) Write(ctx context.Context, docs ...store.Document) error {
	if s.failWrites {
		return errors.New("disk full")
	}
	return s.Store.Write(ctx, docs...)
}

func TestRegisterSaveFailure(t *testing.T) {
	fs := &failingStore{Store: store.NewMemoryStore()}
	site := setupSiteWithStore(t, fs, defaultEvents())
	fs.failWrites = true

	rr := site.do(t, http.MethodPost, "/event/2/register", registrationForm("Asha", "asha@example.com"), "")
	if rr.Code != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/event/2/register" {
		t.Errorf("expected redirect back to form, got %s", loc)
	}
	_, notice := site.flashOf(t, rr)
	if notice == nil || notice.Kind != flash.Error || !strings.Contains(notice.Message, "Please try again") {
		t.Errorf("unexpected notice %+v", notice)
	}
	if len(site.notifier.registrations) != 0 {
		t.Errorf("expected no notification, got %d", len(site.notifier.registrations))
	}

	rr = site.do(t, http.MethodGet, "/event/2", nil, "")
	var body struct {
		Event struct {
			Registered     int `json:"registered"`
			AvailableSeats int `json:"available_seats"`
		} `json:"event"`
	}
	decode(t, rr, &body)
	if body.Event.Registered != 0 || body.Event.AvailableSeats != 10 {
		t.Errorf("expected counters unchanged, got %+v", body.Event)
	}
}

func TestExport(t *testing.T) {
	site := setupSite(t, defaultEvents())

	t.Run("EmptyRedirects", func(t *testing.T) {
		rr := site.do(t, http.MethodGet, "/admin/export-registrations", nil, "")
		if rr.Code != http.StatusSeeOther {
			t.Fatalf("expected 303, got %d", rr.Code)
		}
		if loc := rr.Header().Get("Location"); loc != "/admin/registrations" {
			t.Errorf("expected redirect to /admin/registrations, got %s", loc)
		}
		_, notice := site.flashOf(t, rr)
		if notice == nil || notice.Kind != flash.Error {
			t.Errorf("expected error notice, got %+v", notice)
		}
	})

	site.do(t, http.MethodPost, "/event/2/register", registrationForm("Asha", "asha@example.com"), "")
	site.do(t, http.MethodPost, "/event/1/register", registrationForm("Ravi", "ravi@example.com"), "")

	t.Run("All", func(t *testing.T) {
		rr := site.do(t, http.MethodGet, "/admin/export-registrations", nil, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != xlsxContentType {
			t.Errorf("unexpected content type %s", ct)
		}
		if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "IEDC_All_Registrations_20240310_080509.xlsx") {
			t.Errorf("unexpected content disposition %s", cd)
		}
		if rows := sheetRows(t, rr.Body.Bytes()); len(rows) != 3 {
			t.Errorf("expected header + 2 rows, got %d", len(rows))
		}
	})

	t.Run("Event", func(t *testing.T) {
		rr := site.do(t, http.MethodGet, "/admin/export-event-registrations/2", nil, "")
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "IEDC_Hackathon_2024_Registrations_20240310_080509.xlsx") {
			t.Errorf("unexpected content disposition %s", cd)
		}
		rows := sheetRows(t, rr.Body.Bytes())
		if len(rows) != 2 || rows[1][3] != "Asha" {
			t.Errorf("unexpected rows %v", rows)
		}
	})

	t.Run("EventWithoutRegistrations", func(t *testing.T) {
		rr := site.do(t, http.MethodGet, "/admin/export-event-registrations/3", nil, "")
		if rr.Code != http.StatusSeeOther {
			t.Errorf("expected 303, got %d", rr.Code)
		}
	})

	t.Run("UnknownEvent", func(t *testing.T) {
		rr := site.do(t, http.MethodGet, "/admin/export-event-registrations/99", nil, "")
		if rr.Code != http.StatusSeeOther {
			t.Errorf("expected 303, got %d", rr.Code)
		}
		_, notice := site.flashOf(t, rr)
		if notice == nil || !strings.Contains(notice.Message, "not found") {
			t.Errorf("unexpected notice %+v", notice)
		}
	})
}

func TestAdminRegistrations(t *testing.T) {
	site := setupSite(t, defaultEvents())
	site.do(t, http.MethodPost, "/event/2/register", registrationForm("Asha", "asha@example.com"), "")
	site.do(t, http.MethodPost, "/event/2/register", registrationForm("Meera", "meera@example.com"), "")

	rr := site.do(t, http.MethodGet, "/admin/registrations", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status OK, got %d", rr.Code)
	}
	var body struct {
		Total         int                   `json:"total"`
		Registrations []models.Registration `json:"registrations"`
		Events        []EventCount          `json:"events"`
	}
	decode(t, rr, &body)

	if body.Total != 2 || len(body.Registrations) != 2 {
		t.Errorf("expected 2 registrations, got %d", body.Total)
	}
	if body.Events[1].EventID != 2 || body.Events[1].Registered != 2 {
		t.Errorf("unexpected counts %+v", body.Events)
	}
}

func TestContactFlow(t *testing.T) {
	site := setupSite(t, defaultEvents())

	t.Run("Invalid", func(t *testing.T) {
		rr := site.do(t, http.MethodPost, "/contact", url.Values{"name": {"A"}}, "")
		if loc := rr.Header().Get("Location"); loc != "/contact" {
			t.Errorf("expected redirect to /contact, got %s", loc)
		}
		_, notice := site.flashOf(t, rr)
		if notice == nil || notice.Kind != flash.Error {
			t.Errorf("expected error notice, got %+v", notice)
		}
	})

	t.Run("Valid", func(t *testing.T) {
		form := url.Values{"name": {"Asha"}, "email": {"asha@example.com"}, "subject": {"Hello"}, "message": {"Hi there"}}
		rr := site.do(t, http.MethodPost, "/contact", form, "")
		cookie, notice := site.flashOf(t, rr)
		if notice == nil || notice.Kind != flash.Success {
			t.Fatalf("expected success notice, got %+v", notice)
		}
		if len(site.notifier.messages) != 1 {
			t.Errorf("expected one notification, got %d", len(site.notifier.messages))
		}

		rr = site.do(t, http.MethodGet, "/contact", nil, cookie)
		var form2 struct {
			Notice *flash.Notice `json:"notice"`
		}
		decode(t, rr, &form2)
		if form2.Notice == nil || !strings.Contains(form2.Notice.Message, "Thank you Asha") {
			t.Errorf("unexpected notice %+v", form2.Notice)
		}
	})

	t.Run("AdminMessages", func(t *testing.T) {
		rr := site.do(t, http.MethodGet, "/admin/messages", nil, "")
		var body struct {
			Stats    contact.Stats           `json:"stats"`
			Messages []models.ContactMessage `json:"messages"`
		}
		decode(t, rr, &body)
		if body.Stats.Total != 1 || body.Stats.Unread != 1 || body.Messages[0].Subject != "Hello" {
			t.Errorf("unexpected messages %+v", body)
		}
	})
}

func TestMetricsEndpoint(t *testing.T) {
	site := setupSite(t, defaultEvents())
	site.do(t, http.MethodPost, "/event/2/register", registrationForm("Asha", "asha@example.com"), "")

	rr := site.do(t, http.MethodGet, "/metrics", nil, "")
	if !strings.Contains(rr.Body.String(), `iedc_registrations_total{outcome="success"} 1`) {
		t.Errorf("expected success counter in metrics output")
	}
}

func sheetRows(t *testing.T, data []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("failed to open spreadsheet: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(export.SheetName)
	if err != nil {
		t.Fatalf("failed to read rows: %v", err)
	}
	return rows
}
