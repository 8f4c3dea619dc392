package pipeline

import (
	"sort"
	"sync"
	"time"

	"socsentinel/pkg/models"
)

// windowTracker keeps the recent event history per actor. It bounds
// memory two ways: events older than the window behind each actor's
// newest event are pruned, and each actor's history is capped at
// maxEvents. A per-actor cooldown keeps one noisy actor from producing
// an alert per event.
type windowTracker struct {
	mu        sync.Mutex
	byActor   map[string]*actorWindow
	window    time.Duration
	maxEvents int
	cooldown  time.Duration
}

type actorWindow struct {
	events    []models.Event
	lastAlert time.Time
}

func newWindowTracker(window time.Duration, maxEvents int, cooldown time.Duration) *windowTracker {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &windowTracker{
		byActor:   make(map[string]*actorWindow),
		window:    window,
		maxEvents: maxEvents,
		cooldown:  cooldown,
	}
}

// Add records an event and returns a copy of the actor's current
// window, safe to score without holding the lock.
func (t *windowTracker) Add(event *models.Event) []models.Event {
	t.mu.Lock()
	defer t.mu.Unlock()

	aw, ok := t.byActor[event.Actor]
	if !ok {
		aw = &actorWindow{}
		t.byActor[event.Actor] = aw
	}

	aw.events = append(aw.events, *event)
	t.prune(aw)

	out := make([]models.Event, len(aw.events))
	copy(out, aw.events)
	return out
}

func (t *windowTracker) prune(aw *actorWindow) {
	if len(aw.events) == 0 {
		return
	}

	newest := aw.events[0].Timestamp
	for _, e := range aw.events[1:] {
		if e.Timestamp.After(newest) {
			newest = e.Timestamp
		}
	}
	cutoff := newest.Add(-t.window)

	kept := aw.events[:0]
	for _, e := range aw.events {
		if !e.Timestamp.Before(cutoff) {
			kept = append(kept, e)
		}
	}
	aw.events = kept

	if len(aw.events) > t.maxEvents {
		// Drop the oldest overflow.
		sort.SliceStable(aw.events, func(i, j int) bool {
			return aw.events[i].Timestamp.Before(aw.events[j].Timestamp)
		})
		aw.events = aw.events[len(aw.events)-t.maxEvents:]
	}
}

// ShouldScore reports whether the actor is outside its alert cooldown.
func (t *windowTracker) ShouldScore(actor string, now time.Time) bool {
	if t.cooldown <= 0 {
		return true
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	aw, ok := t.byActor[actor]
	if !ok || aw.lastAlert.IsZero() {
		return true
	}
	return now.Sub(aw.lastAlert) >= t.cooldown
}

// MarkAlert records that the actor just alerted, starting its cooldown.
func (t *windowTracker) MarkAlert(actor string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if aw, ok := t.byActor[actor]; ok {
		aw.lastAlert = now
	}
}
