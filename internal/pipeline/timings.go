// SPDX-License-Identifier: MPL-2.0

package pipeline

import (
	"time"

	"github.com/mochi/mochi-cli/internal/report"
)

// Timings holds stage durations.
type Timings struct {
	stages map[report.Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[report.Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage report.Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage report.Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage report.Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages, or across
// every recorded stage when none are given.
func (t Timings) Sum(stages ...report.Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	if len(stages) == 0 {
		stages = report.Stages
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
