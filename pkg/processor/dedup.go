/*
Copyright 2024 The Gopond Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package processor

import (
	"fmt"

	"github.com/pondtools/gopond/pkg/event"
)

// DedupPolicy picks which event of a same-key run survives. The same
// policies drive collection-level dedup in the event package.
type DedupPolicy = event.DedupPolicy

const (
	// KeepLast keeps the newest event of a run.
	KeepLast = event.KeepLast
	// KeepFirst keeps the oldest event of a run.
	KeepFirst = event.KeepFirst
	// MergeFields unions the run's payloads into one event.
	MergeFields = event.MergeFields
)

// DedupOption tweaks a Deduper.
type DedupOption func(*Deduper)

// WithPayloadComparison treats two events as duplicates only when
// their payloads match as well as their keys. Same-key events carrying
// different data then pass through untouched.
func WithPayloadComparison() DedupOption {
	return func(d *Deduper) { d.comparePayload = true }
}

// Deduper collapses consecutive events sharing a key down to one.
// Only adjacent runs collapse; an old key reappearing later in the
// stream starts a fresh run. Output lags the input by one run since a
// run only closes when a different key arrives or the stream flushes.
type Deduper struct {
	policy         DedupPolicy
	comparePayload bool
	run            []event.Event
}

// NewDeduper builds a Deduper.
func NewDeduper(policy DedupPolicy, opts ...DedupOption) (*Deduper, error) {
	switch policy {
	case KeepLast, KeepFirst, MergeFields:
	default:
		return nil, fmt.Errorf("%w: unknown dedup policy %d", ErrInvalidConfiguration, policy)
	}
	d := &Deduper{policy: policy}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

func (d *Deduper) Name() string { return "deduper" }

func (d *Deduper) duplicate(ev event.Event) bool {
	last := d.run[len(d.run)-1]
	if ev.Key() != last.Key() {
		return false
	}
	if d.comparePayload {
		return event.Same(ev, last)
	}
	return true
}

func (d *Deduper) ProcessEvent(ev event.Event) ([]event.Event, error) {
	if len(d.run) == 0 {
		d.run = []event.Event{ev}
		return nil, nil
	}
	if d.duplicate(ev) {
		d.run = append(d.run, ev)
		return nil, nil
	}
	out := d.closeRun()
	d.run = []event.Event{ev}
	return []event.Event{out}, nil
}

func (d *Deduper) Flush() ([]event.Event, error) {
	if len(d.run) == 0 {
		return nil, nil
	}
	out := d.closeRun()
	d.run = nil
	return []event.Event{out}, nil
}

func (d *Deduper) closeRun() event.Event {
	switch d.policy {
	case KeepFirst:
		return d.run[0]
	case MergeFields:
		return event.Merge(d.run)[0]
	default:
		return d.run[len(d.run)-1]
	}
}
