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

// AlignMethod selects how values are produced at window boundaries.
type AlignMethod int8

const (
	// AlignHold repeats the value of the event before the boundary.
	AlignHold AlignMethod = iota
	// AlignLinear interpolates between the events bracketing the
	// boundary, proportional to time.
	AlignLinear
)

func (m AlignMethod) String() string {
	switch m {
	case AlignHold:
		return "hold"
	case AlignLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// ParseAlignMethod maps the wire names "hold" and "linear".
func ParseAlignMethod(s string) (AlignMethod, error) {
	switch s {
	case "hold":
		return AlignHold, nil
	case "linear":
		return AlignLinear, nil
	default:
		return 0, fmt.Errorf("%w: unknown align method %q", ErrInvalidConfiguration, s)
	}
}

// AlignerConfig configures an Aligner.
type AlignerConfig struct {
	// FieldSpec lists the dotted paths to align. Empty aligns the
	// default "value" field.
	FieldSpec []string
	// Window is a duration window like "1m" or "30s".
	Window string
	Method AlignMethod
	// Limit caps how many boundaries inside one gap receive computed
	// values. Boundaries beyond the limit are emitted with the missing
	// marker. Zero means no cap.
	Limit int
}

// Aligner snaps irregular instant events onto regular window
// boundaries. Each emitted event sits exactly on a boundary between
// two observed events and carries only the aligned fields.
type Aligner struct {
	spec     [][]string
	window   string
	windowMS int64
	method   AlignMethod
	limit    int
	warnings *Warnings

	prev *event.Event
}

// NewAligner builds an Aligner. A nil warnings sink discards
// diagnostics.
func NewAligner(cfg AlignerConfig, warnings *Warnings) (*Aligner, error) {
	d, ok := event.WindowDuration(cfg.Window)
	if !ok || d <= 0 {
		return nil, fmt.Errorf("%w: bad align window %q", ErrInvalidConfiguration, cfg.Window)
	}
	switch cfg.Method {
	case AlignHold, AlignLinear:
	default:
		return nil, fmt.Errorf("%w: unknown align method %d", ErrInvalidConfiguration, cfg.Method)
	}
	if cfg.Limit < 0 {
		return nil, fmt.Errorf("%w: negative align limit %d", ErrInvalidConfiguration, cfg.Limit)
	}
	spec, err := event.ParseFieldSpec(cfg.FieldSpec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if warnings == nil {
		warnings = NewWarnings(nil)
	}
	return &Aligner{
		spec:     spec,
		window:   cfg.Window,
		windowMS: d.Milliseconds(),
		method:   cfg.Method,
		limit:    cfg.Limit,
		warnings: warnings,
	}, nil
}

func (a *Aligner) Name() string { return "aligner" }

func (a *Aligner) ProcessEvent(ev event.Event) ([]event.Event, error) {
	if ev.Key().Kind() != event.Instant {
		return nil, fmt.Errorf("%w: alignment requires instant events, got %s",
			ErrInvalidConfiguration, ev.Key().Kind())
	}
	if a.prev == nil {
		a.prev = &ev
		return nil, nil
	}
	prev := *a.prev
	a.prev = &ev

	prevMS := prev.Key().BeginMillis()
	curMS := ev.Key().BeginMillis()
	if curMS <= prevMS {
		return nil, nil
	}

	// boundaries strictly after prev, up to and including cur
	firstIdx := floorDiv(prevMS, a.windowMS) + 1
	lastIdx := floorDiv(curMS, a.windowMS)

	var out []event.Event
	n := 0
	for idx := firstIdx; idx <= lastIdx; idx++ {
		boundary := idx * a.windowMS
		n++
		data := map[string]interface{}{}
		for _, fp := range a.spec {
			name := event.JoinFieldPath(fp)
			if a.limit > 0 && n > a.limit {
				event.SetPath(data, fp, nil)
				continue
			}
			v, ok := a.boundaryValue(prev, ev, name, boundary)
			if !ok {
				event.SetPath(data, fp, nil)
				continue
			}
			event.SetPath(data, fp, v)
		}
		out = append(out, event.NewAtMillis(boundary, data))
	}
	return out, nil
}

func (a *Aligner) Flush() ([]event.Event, error) {
	return nil, nil
}

func (a *Aligner) boundaryValue(prev, cur event.Event, name string, boundary int64) (float64, bool) {
	pv, ok := prev.Get(name)
	if !ok || !event.IsValid(pv) {
		a.warnings.Add(WarnInvalidValue, name, "cannot align missing value at "+name)
		return 0, false
	}
	prevVal, numeric := event.Float(pv)
	if !numeric {
		a.warnings.Add(WarnNonNumeric, name, "alignment requires numeric values at "+name)
		return 0, false
	}
	if a.method == AlignHold {
		return prevVal, true
	}
	cv, ok := cur.Get(name)
	if !ok || !event.IsValid(cv) {
		a.warnings.Add(WarnInvalidValue, name, "cannot align missing value at "+name)
		return 0, false
	}
	curVal, numeric := event.Float(cv)
	if !numeric {
		a.warnings.Add(WarnNonNumeric, name, "alignment requires numeric values at "+name)
		return 0, false
	}
	prevMS := prev.Key().BeginMillis()
	curMS := cur.Key().BeginMillis()
	frac := float64(boundary-prevMS) / float64(curMS-prevMS)
	return prevVal + frac*(curVal-prevVal), true
}

// floorDiv divides rounding toward negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
