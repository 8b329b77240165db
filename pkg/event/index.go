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
	"regexp"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// ErrUnresolvedBucket is returned when an index string cannot be
// resolved to a time bucket.
var ErrUnresolvedBucket = errors.New("unresolved index bucket")

// An index string names a fixed bucket of time. Two grammars are
// supported:
//
//	<n><unit>-<ordinal>   duration buckets, e.g. "5m-4135541" is the
//	                      4135541st five minute block since the epoch
//	YYYY[-MM[-DD]]        calendar buckets, e.g. "2014-09" is
//	                      September 2014
var (
	durationIndexRe = regexp.MustCompile(`^(\d+)([smhd])-(\d+)$`)
	windowRe        = regexp.MustCompile(`^(\d+)([smhd])$`)
	yearIndexRe     = regexp.MustCompile(`^\d{4}$`)
	monthIndexRe    = regexp.MustCompile(`^\d{4}-\d{2}$`)
	dayIndexRe      = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var unitMillis = map[string]int64{
	"s": 1000,
	"m": 60 * 1000,
	"h": 60 * 60 * 1000,
	"d": 24 * 60 * 60 * 1000,
}

type indexKind int8

const (
	durationIndex indexKind = iota
	yearIndex
	monthIndex
	dayIndex
)

// Index is a bucket of time named by an index string. Duration buckets
// are always UTC aligned; calendar buckets resolve in local time when
// utc is false.
type Index struct {
	str  string
	utc  bool
	kind indexKind
	r    TimeRange
}

// Index resolution happens on every windowed event, usually against a
// small working set of strings, so parses are memoized.
var indexCache, _ = lru.New[string, Index](8192)

// NewIndex parses an index string, resolving calendar buckets in UTC.
func NewIndex(s string) (Index, error) {
	return ParseIndex(s, true)
}

// ParseIndex parses an index string. The utc flag picks the location
// calendar buckets resolve in; duration buckets ignore it.
func ParseIndex(s string, utc bool) (Index, error) {
	cacheKey := s
	if !utc {
		cacheKey = s + "|local"
	}
	if idx, ok := indexCache.Get(cacheKey); ok {
		return idx, nil
	}
	idx, err := parseIndex(s, utc)
	if err != nil {
		return Index{}, err
	}
	indexCache.Add(cacheKey, idx)
	return idx, nil
}

func parseIndex(s string, utc bool) (Index, error) {
	loc := time.UTC
	if !utc {
		loc = time.Local
	}
	switch {
	case durationIndexRe.MatchString(s):
		m := durationIndexRe.FindStringSubmatch(s)
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return Index{}, fmt.Errorf("%w: %q: %v", ErrUnresolvedBucket, s, err)
		}
		ord, err := strconv.ParseInt(m[3], 10, 64)
		if err != nil {
			return Index{}, fmt.Errorf("%w: %q: %v", ErrUnresolvedBucket, s, err)
		}
		size := n * unitMillis[m[2]]
		if size <= 0 {
			return Index{}, fmt.Errorf("%w: %q: zero length window", ErrUnresolvedBucket, s)
		}
		begin := ord * size
		return Index{str: s, utc: utc, kind: durationIndex,
			r: TimeRange{begin: begin, end: begin + size}}, nil
	case yearIndexRe.MatchString(s):
		begin, err := time.ParseInLocation("2006", s, loc)
		if err != nil {
			return Index{}, fmt.Errorf("%w: %q: %v", ErrUnresolvedBucket, s, err)
		}
		return Index{str: s, utc: utc, kind: yearIndex,
			r: calendarRange(begin, 1, 0, 0)}, nil
	case monthIndexRe.MatchString(s):
		begin, err := time.ParseInLocation("2006-01", s, loc)
		if err != nil {
			return Index{}, fmt.Errorf("%w: %q: %v", ErrUnresolvedBucket, s, err)
		}
		return Index{str: s, utc: utc, kind: monthIndex,
			r: calendarRange(begin, 0, 1, 0)}, nil
	case dayIndexRe.MatchString(s):
		begin, err := time.ParseInLocation("2006-01-02", s, loc)
		if err != nil {
			return Index{}, fmt.Errorf("%w: %q: %v", ErrUnresolvedBucket, s, err)
		}
		return Index{str: s, utc: utc, kind: dayIndex,
			r: calendarRange(begin, 0, 0, 1)}, nil
	default:
		return Index{}, fmt.Errorf("%w: unrecognized index string %q", ErrUnresolvedBucket, s)
	}
}

// calendarRange spans from begin to the start of the next period less
// one second.
func calendarRange(begin time.Time, years, months, days int) TimeRange {
	end := begin.AddDate(years, months, days).Add(-time.Second)
	return TimeRange{begin: Millis(begin), end: Millis(end)}
}

func (i Index) String() string { return i.str }

// UTC reports whether calendar buckets resolve in UTC.
func (i Index) UTC() bool { return i.utc }

// AsRange returns the span of time the index names.
func (i Index) AsRange() TimeRange { return i.r }

func (i Index) Begin() time.Time { return i.r.Begin() }
func (i Index) End() time.Time   { return i.r.End() }

// NiceString renders calendar indexes in a human readable form. An
// optional Go reference layout overrides the default per-kind layout.
// Duration indexes render as themselves.
func (i Index) NiceString(layout ...string) string {
	var format string
	switch i.kind {
	case yearIndex:
		format = "2006"
	case monthIndex:
		format = "January"
	case dayIndex:
		format = "January 2 2006"
	default:
		return i.str
	}
	if len(layout) > 0 && layout[0] != "" {
		format = layout[0]
	}
	loc := time.UTC
	if !i.utc {
		loc = time.Local
	}
	return i.r.Begin().In(loc).Format(format)
}

// WindowDuration returns the span of a duration window or index
// string, e.g. "30s" or "30s-41135541" both give 30s. Calendar strings
// have no fixed span and return false.
func WindowDuration(s string) (time.Duration, bool) {
	var n, unit string
	if m := windowRe.FindStringSubmatch(s); m != nil {
		n, unit = m[1], m[2]
	} else if m := durationIndexRe.FindStringSubmatch(s); m != nil {
		n, unit = m[1], m[2]
	} else {
		return 0, false
	}
	count, err := strconv.ParseInt(n, 10, 64)
	if err != nil || count <= 0 {
		return 0, false
	}
	return time.Duration(count*unitMillis[unit]) * time.Millisecond, true
}

// IndexString returns the index string of the window bucket containing
// t, for a duration window like "5m".
func IndexString(window string, t time.Time) (string, error) {
	m := windowRe.FindStringSubmatch(window)
	if m == nil {
		return "", fmt.Errorf("%w: unrecognized window %q", ErrUnresolvedBucket, window)
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("%w: unrecognized window %q", ErrUnresolvedBucket, window)
	}
	size := n * unitMillis[m[2]]
	return fmt.Sprintf("%s-%d", window, floorDiv(Millis(t), size)), nil
}

// DailyIndexString returns the calendar day bucket containing t.
func DailyIndexString(t time.Time, utc bool) string {
	return calendarFormat(t, utc, "2006-01-02")
}

// MonthlyIndexString returns the calendar month bucket containing t.
func MonthlyIndexString(t time.Time, utc bool) string {
	return calendarFormat(t, utc, "2006-01")
}

// YearlyIndexString returns the calendar year bucket containing t.
func YearlyIndexString(t time.Time, utc bool) string {
	return calendarFormat(t, utc, "2006")
}

func calendarFormat(t time.Time, utc bool, layout string) string {
	if utc {
		return t.UTC().Format(layout)
	}
	return t.In(time.Local).Format(layout)
}

// floorDiv divides rounding toward negative infinity, so pre-epoch
// times land in the right bucket.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
