package events

import (
	"errors"
	"sync"
	"time"
)

// CompositeSource combines multiple Sources
type CompositeSource struct {
	mu      sync.RWMutex
	sources []Source
}

// NewCompositeSource creates a new composite event source
func NewCompositeSource(sources ...Source) *CompositeSource {
	return &CompositeSource{sources: sources}
}

// AddSource adds a new source to the composite
func (c *CompositeSource) AddSource(source Source) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, source)
}

// Events implements Source. Events are de-duplicated by ID, first source
// wins. A failing source does not hide the others; its error is returned
// alongside whatever the rest produced.
func (c *CompositeSource) Events(start, end time.Time) ([]Event, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var (
		all  []Event
		errs []error
	)
	seen := make(map[string]bool)

	for _, source := range c.sources {
		events, err := source.Events(start, end)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		for _, event := range events {
			if seen[event.ID] {
				continue
			}
			seen[event.ID] = true
			all = append(all, event)
		}
	}

	SortEvents(all)
	return all, errors.Join(errs...)
}
