package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/iedc-snmimt/iedc-site/internal/models"
)

// DefaultEvents is the catalog written on first start.
func DefaultEvents() []models.Event {
	return []models.Event{
		{
			ID:          1,
			Title:       "Startup Bootcamp",
			Date:        "2024-02-15",
			Time:        "10:00 AM",
			Description: "Learn the basics of starting up",
			Location:    "IEDC Lab",
			Seats:       50,
			Category:    "Workshop",
			Status:      models.EventUpcoming,
		},
		{
			ID:          2,
			Title:       "Hackathon 2024",
			Date:        "2024-03-10",
			Time:        "09:00 AM",
			Description: "24-hour coding competition",
			Location:    "Computer Lab",
			Seats:       100,
			Category:    "Competition",
			Status:      models.EventUpcoming,
		},
		{
			ID:          3,
			Title:       "Investor Meet",
			Date:        "2024-04-05",
			Time:        "02:00 PM",
			Description: "Connect with potential investors",
			Location:    "Conference Hall",
			Seats:       30,
			Category:    "Networking",
			Status:      models.EventUpcoming,
		},
	}
}

type seedFile struct {
	Events []models.Event `yaml:"events"`
}

// LoadSeedFile reads a catalog from a YAML file with a top-level "events" list.
func LoadSeedFile(path string) ([]models.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	seen := make(map[int]bool, len(f.Events))
	for i := range f.Events {
		e := &f.Events[i]
		if e.ID <= 0 {
			return nil, fmt.Errorf("seed event %d: id must be a positive integer", i)
		}
		if seen[e.ID] {
			return nil, fmt.Errorf("seed event %d: duplicate id %d", i, e.ID)
		}
		seen[e.ID] = true
		if e.Seats < 0 {
			return nil, fmt.Errorf("seed event %d: seats cannot be negative", e.ID)
		}
		if e.Status == "" {
			e.Status = models.EventUpcoming
		}
		e.Registered = 0
	}
	return f.Events, nil
}
