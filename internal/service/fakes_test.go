package service

import (
	"context"
	"io"
	"sync"

	"github.com/citizencircle/civic-api/internal/events"
	"github.com/citizencircle/civic-api/internal/media"
)

// --- media

type fakeHost struct {
	mu       sync.Mutex
	uploaded map[string][]byte
	deleted  []string
}

func newFakeHost() *fakeHost {
	return &fakeHost{uploaded: map[string][]byte{}}
}

func (h *fakeHost) Upload(_ context.Context, obj media.Object) (*media.Uploaded, error) {
	body, err := io.ReadAll(obj.Body)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.uploaded[obj.Key] = body
	return &media.Uploaded{URL: "https://cdn.example.org/" + obj.Key, PublicID: obj.Key}, nil
}

func (h *fakeHost) Delete(_ context.Context, publicID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.deleted = append(h.deleted, publicID)
	delete(h.uploaded, publicID)
	return nil
}

// --- events

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(t events.EventType) []events.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []events.Event
	for _, e := range d.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}
