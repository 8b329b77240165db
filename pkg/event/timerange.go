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

package event

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeRange is returned when a range would end before it begins.
var ErrInvalidTimeRange = errors.New("invalid time range")

// TimeRange is an inclusive interval on the time axis, held as
// millisecond epoch offsets. The zero TimeRange is the single
// millisecond at the epoch.
type TimeRange struct {
	begin int64
	end   int64
}

// NewTimeRange builds a range from two times. Both ends are sanitized
// and the end must not precede the begin.
func NewTimeRange(begin, end time.Time) (TimeRange, error) {
	b, err := SanitizeTime(begin)
	if err != nil {
		return TimeRange{}, err
	}
	e, err := SanitizeTime(end)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRangeFromMillis(Millis(b), Millis(e))
}

// TimeRangeFromMillis builds a range from millisecond epoch offsets.
func TimeRangeFromMillis(begin, end int64) (TimeRange, error) {
	if end < begin {
		return TimeRange{}, fmt.Errorf("%w: end %d before begin %d", ErrInvalidTimeRange, end, begin)
	}
	return TimeRange{begin: begin, end: end}, nil
}

func (tr TimeRange) Begin() time.Time { return FromMillis(tr.begin) }
func (tr TimeRange) End() time.Time   { return FromMillis(tr.end) }

func (tr TimeRange) BeginMillis() int64 { return tr.begin }
func (tr TimeRange) EndMillis() int64   { return tr.end }

// Duration is the length of the range.
func (tr TimeRange) Duration() time.Duration {
	return time.Duration(tr.end-tr.begin) * time.Millisecond
}

func (tr TimeRange) Equal(other TimeRange) bool {
	return tr == other
}

// SetBegin returns a copy of the range with a new begin time.
func (tr TimeRange) SetBegin(t time.Time) (TimeRange, error) {
	b, err := SanitizeTime(t)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRangeFromMillis(Millis(b), tr.end)
}

// SetEnd returns a copy of the range with a new end time.
func (tr TimeRange) SetEnd(t time.Time) (TimeRange, error) {
	e, err := SanitizeTime(t)
	if err != nil {
		return TimeRange{}, err
	}
	return TimeRangeFromMillis(tr.begin, Millis(e))
}

// Contains reports whether t falls inside the range, bounds included.
func (tr TimeRange) Contains(t time.Time) bool {
	ms := Millis(t)
	return ms >= tr.begin && ms <= tr.end
}

// ContainsRange reports whether other lies completely inside this range.
func (tr TimeRange) ContainsRange(other TimeRange) bool {
	return other.begin >= tr.begin && other.end <= tr.end
}

// Within reports whether this range lies completely inside other.
func (tr TimeRange) Within(other TimeRange) bool {
	return other.ContainsRange(tr)
}

// Disjoint reports whether the two ranges in no way overlap.
func (tr TimeRange) Disjoint(other TimeRange) bool {
	return tr.end < other.begin || tr.begin > other.end
}

// Overlaps reports whether the two ranges share any instant.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	return !tr.Disjoint(other)
}

// Extents returns the smallest range covering both this and other.
func (tr TimeRange) Extents(other TimeRange) TimeRange {
	out := tr
	if other.begin < out.begin {
		out.begin = other.begin
	}
	if other.end > out.end {
		out.end = other.end
	}
	return out
}

// Intersection returns the overlapping part of this and other. The
// boolean is false when the ranges are disjoint.
func (tr TimeRange) Intersection(other TimeRange) (TimeRange, bool) {
	if tr.Disjoint(other) {
		return TimeRange{}, false
	}
	out := tr
	if other.begin > out.begin {
		out.begin = other.begin
	}
	if other.end < out.end {
		out.end = other.end
	}
	return out, true
}

func (tr TimeRange) String() string {
	return fmt.Sprintf("[%d,%d]", tr.begin, tr.end)
}

// LastDuration returns the range spanning the last d, ending now.
func LastDuration(d time.Duration) TimeRange {
	end := Millis(time.Now())
	return TimeRange{begin: end - d.Milliseconds(), end: end}
}

// LastHour returns the range spanning the last hour.
func LastHour() TimeRange { return LastDuration(time.Hour) }

// LastDay returns the range spanning the last 24 hours.
func LastDay() TimeRange { return LastDuration(24 * time.Hour) }

// LastThirtyDays returns the range spanning the last 30 days.
func LastThirtyDays() TimeRange { return LastDuration(30 * 24 * time.Hour) }
