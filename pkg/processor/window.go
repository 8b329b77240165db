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
	"time"

	"github.com/pondtools/gopond/pkg/event"
)

// WindowKind selects the bucketing scheme of a windowed stage.
type WindowKind int8

const (
	// WindowGlobal puts everything in one bucket.
	WindowGlobal WindowKind = iota
	// WindowFixed buckets by a fixed duration like "5m". Fixed buckets
	// are always UTC aligned.
	WindowFixed
	// WindowDaily buckets by calendar day.
	WindowDaily
	// WindowMonthly buckets by calendar month.
	WindowMonthly
	// WindowYearly buckets by calendar year.
	WindowYearly
)

func (k WindowKind) String() string {
	switch k {
	case WindowGlobal:
		return "global"
	case WindowFixed:
		return "fixed"
	case WindowDaily:
		return "daily"
	case WindowMonthly:
		return "monthly"
	case WindowYearly:
		return "yearly"
	default:
		return "unknown"
	}
}

// WindowSpec names the bucketing of a windowed stage. Duration is only
// meaningful for fixed windows; UTC only for calendar windows, which
// otherwise bucket in local time.
type WindowSpec struct {
	Kind     WindowKind
	Duration string
	UTC      bool
}

// FixedWindow is a UTC-aligned duration window like "1h".
func FixedWindow(duration string) WindowSpec {
	return WindowSpec{Kind: WindowFixed, Duration: duration, UTC: true}
}

// DailyWindow buckets by calendar day.
func DailyWindow(utc bool) WindowSpec { return WindowSpec{Kind: WindowDaily, UTC: utc} }

// MonthlyWindow buckets by calendar month.
func MonthlyWindow(utc bool) WindowSpec { return WindowSpec{Kind: WindowMonthly, UTC: utc} }

// YearlyWindow buckets by calendar year.
func YearlyWindow(utc bool) WindowSpec { return WindowSpec{Kind: WindowYearly, UTC: utc} }

// GlobalWindow holds the whole stream in one bucket.
func GlobalWindow() WindowSpec { return WindowSpec{Kind: WindowGlobal} }

// Validate checks the spec is runnable.
func (w WindowSpec) Validate() error {
	switch w.Kind {
	case WindowGlobal, WindowDaily, WindowMonthly, WindowYearly:
		return nil
	case WindowFixed:
		if d, ok := event.WindowDuration(w.Duration); !ok || d <= 0 {
			return fmt.Errorf("%w: bad window duration %q", ErrInvalidConfiguration, w.Duration)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown window kind %d", ErrInvalidConfiguration, w.Kind)
	}
}

// BucketOf resolves the bucket string containing t.
func (w WindowSpec) BucketOf(t time.Time) (string, error) {
	switch w.Kind {
	case WindowGlobal:
		return "global", nil
	case WindowFixed:
		return event.IndexString(w.Duration, t)
	case WindowDaily:
		return event.DailyIndexString(t, w.UTC), nil
	case WindowMonthly:
		return event.MonthlyIndexString(t, w.UTC), nil
	case WindowYearly:
		return event.YearlyIndexString(t, w.UTC), nil
	default:
		return "", fmt.Errorf("%w: unknown window kind %d", event.ErrUnresolvedBucket, w.Kind)
	}
}

// EmitOn selects when a windowed stage emits results downstream.
type EmitOn int8

const (
	// EmitEachEvent re-emits the running result of a bucket on every
	// event added to it.
	EmitEachEvent EmitOn = iota
	// EmitOnDiscard emits a bucket when a newer bucket opens.
	EmitOnDiscard
	// EmitOnFlush holds all buckets until the stream flushes.
	EmitOnFlush
)

func (e EmitOn) String() string {
	switch e {
	case EmitEachEvent:
		return "eachEvent"
	case EmitOnDiscard:
		return "discards"
	case EmitOnFlush:
		return "flush"
	default:
		return "unknown"
	}
}

// ParseEmitOn maps the wire names "eachEvent", "discards" and "flush".
func ParseEmitOn(s string) (EmitOn, error) {
	switch s {
	case "eachEvent":
		return EmitEachEvent, nil
	case "discards":
		return EmitOnDiscard, nil
	case "flush":
		return EmitOnFlush, nil
	default:
		return 0, fmt.Errorf("%w: unknown emit trigger %q", ErrInvalidConfiguration, s)
	}
}
