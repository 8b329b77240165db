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

// RateConfig configures a Rate processor.
type RateConfig struct {
	// FieldSpec lists the dotted paths to derive. Empty derives the
	// default "value" field.
	FieldSpec []string
	// AllowNegative keeps negative rates. When false a decreasing
	// value, a counter reset for instance, yields the missing marker
	// instead.
	AllowNegative bool
}

// Rate emits the per-second derivative between consecutive instant
// events as a range event spanning the pair. The derived field is the
// source field with a "_rate" suffix on its last segment.
type Rate struct {
	spec          [][]string
	allowNegative bool
	warnings      *Warnings

	prev *event.Event
}

// NewRate builds a Rate processor. A nil warnings sink discards
// diagnostics.
func NewRate(cfg RateConfig, warnings *Warnings) (*Rate, error) {
	spec, err := event.ParseFieldSpec(cfg.FieldSpec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if warnings == nil {
		warnings = NewWarnings(nil)
	}
	return &Rate{
		spec:          spec,
		allowNegative: cfg.AllowNegative,
		warnings:      warnings,
	}, nil
}

func (r *Rate) Name() string { return "rate" }

func (r *Rate) ProcessEvent(ev event.Event) ([]event.Event, error) {
	if ev.Key().Kind() != event.Instant {
		return nil, fmt.Errorf("%w: rate requires instant events, got %s",
			ErrInvalidConfiguration, ev.Key().Kind())
	}
	if r.prev == nil {
		r.prev = &ev
		return nil, nil
	}
	prev := *r.prev
	r.prev = &ev

	prevMS := prev.Key().BeginMillis()
	curMS := ev.Key().BeginMillis()
	if curMS <= prevMS {
		return nil, nil
	}
	seconds := float64(curMS-prevMS) / 1000.0

	data := map[string]interface{}{}
	for _, fp := range r.spec {
		name := event.JoinFieldPath(fp)
		ratePath := make([]string, len(fp))
		copy(ratePath, fp)
		ratePath[len(ratePath)-1] += "_rate"

		prevVal, prevOK := numericAt(prev, name)
		curVal, curOK := numericAt(ev, name)
		if !prevOK || !curOK {
			r.warnings.Add(WarnNonNumeric, name, "rate requires numeric values at "+name)
			event.SetPath(data, ratePath, nil)
			continue
		}
		rate := (curVal - prevVal) / seconds
		if rate < 0 && !r.allowNegative {
			event.SetPath(data, ratePath, nil)
			continue
		}
		event.SetPath(data, ratePath, rate)
	}

	tr, err := event.TimeRangeFromMillis(prevMS, curMS)
	if err != nil {
		return nil, err
	}
	return []event.Event{event.NewRangeEvent(tr, data)}, nil
}

func (r *Rate) Flush() ([]event.Event, error) {
	return nil, nil
}

func numericAt(ev event.Event, name string) (float64, bool) {
	v, ok := ev.Get(name)
	if !ok || !event.IsValid(v) {
		return 0, false
	}
	return event.Float(v)
}
