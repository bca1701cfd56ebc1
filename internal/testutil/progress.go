package testutil

import (
	"sync"

	"github.com/syncwell/treesync/synctypes"
)

// ProgressRecorder collects progress events for later assertions.
// It is safe for use as a callback from concurrent workers.
type ProgressRecorder struct {
	mu     sync.Mutex
	events []synctypes.ProgressEvent
}

// NewProgressRecorder creates an empty recorder.
func NewProgressRecorder() *ProgressRecorder {
	return &ProgressRecorder{}
}

// Record is the callback to hand to sync options.
func (p *ProgressRecorder) Record(ev synctypes.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

// Events returns a copy of everything recorded so far.
func (p *ProgressRecorder) Events() []synctypes.ProgressEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]synctypes.ProgressEvent, len(p.events))
	copy(out, p.events)
	return out
}

// Len returns the number of recorded events.
func (p *ProgressRecorder) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

// Last returns the most recent event and whether one exists.
func (p *ProgressRecorder) Last() (synctypes.ProgressEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.events) == 0 {
		return synctypes.ProgressEvent{}, false
	}
	return p.events[len(p.events)-1], true
}
