// SPDX-License-Identifier: MPL-2.0

package report

import (
	"slices"
	"sync"
)

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Report records e.
func (r *Recorder) Report(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events)
}

// OfKind returns the recorded events of kind k.
func (r *Recorder) OfKind(k Kind) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// Messages returns the messages of KindLog events at level.
func (r *Recorder) Messages(level Level) []string {
	var out []string
	for _, e := range r.OfKind(KindLog) {
		if e.Level == level {
			out = append(out, e.Message)
		}
	}
	return out
}

// StageStatuses returns the stage events as "stage:status" strings.
func (r *Recorder) StageStatuses() []string {
	var out []string
	for _, e := range r.OfKind(KindStage) {
		out = append(out, string(e.Stage)+":"+string(e.Status))
	}
	return out
}
