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
	"fmt"
	"time"
)

// KeyKind discriminates the three ways an event sits on the time axis.
type KeyKind int8

const (
	// Instant keys pin an event to a single millisecond.
	Instant KeyKind = iota
	// Range keys span an arbitrary interval.
	Range
	// Indexed keys span a named bucket like "5m-4135541" or "2014-09".
	Indexed
)

func (k KeyKind) String() string {
	switch k {
	case Instant:
		return "Instant"
	case Range:
		return "Range"
	case Indexed:
		return "Indexed"
	default:
		return "Unknown"
	}
}

// Key locates an event in time. It is a closed sum over the three key
// kinds, comparable with ==, and usable as a map key. Keys order by
// begin time, then end time.
type Key struct {
	kind  KeyKind
	begin int64
	end   int64
	index string
	utc   bool
}

// InstantKey builds an instant key at t.
func InstantKey(t time.Time) (Key, error) {
	st, err := SanitizeTime(t)
	if err != nil {
		return Key{}, err
	}
	ms := Millis(st)
	return Key{kind: Instant, begin: ms, end: ms}, nil
}

// InstantKeyMillis builds an instant key at ms since the epoch.
func InstantKeyMillis(ms int64) Key {
	return Key{kind: Instant, begin: ms, end: ms}
}

// RangeKey builds a key spanning tr.
func RangeKey(tr TimeRange) Key {
	return Key{kind: Range, begin: tr.begin, end: tr.end}
}

// IndexKey builds a key spanning the bucket idx names.
func IndexKey(idx Index) Key {
	r := idx.AsRange()
	return Key{kind: Indexed, begin: r.begin, end: r.end, index: idx.str, utc: idx.utc}
}

func (k Key) Kind() KeyKind { return k.kind }

// Timestamp is the representative instant of the key, its begin time.
func (k Key) Timestamp() time.Time { return FromMillis(k.begin) }

func (k Key) Begin() time.Time { return FromMillis(k.begin) }
func (k Key) End() time.Time   { return FromMillis(k.end) }

func (k Key) BeginMillis() int64 { return k.begin }
func (k Key) EndMillis() int64   { return k.end }

// AsRange returns the interval the key covers. For instant keys this
// is the single millisecond at the timestamp.
func (k Key) AsRange() TimeRange {
	return TimeRange{begin: k.begin, end: k.end}
}

// Index returns the Index of an indexed key.
func (k Key) Index() (Index, bool) {
	if k.kind != Indexed {
		return Index{}, false
	}
	idx, err := ParseIndex(k.index, k.utc)
	if err != nil {
		return Index{}, false
	}
	return idx, true
}

// IndexString returns the index string of an indexed key, or "".
func (k Key) IndexString() string { return k.index }

// Less orders keys by begin, then end, then kind.
func (k Key) Less(other Key) bool {
	if k.begin != other.begin {
		return k.begin < other.begin
	}
	if k.end != other.end {
		return k.end < other.end
	}
	return k.kind < other.kind
}

func (k Key) String() string {
	switch k.kind {
	case Instant:
		return FromMillis(k.begin).Format(time.RFC3339Nano)
	case Range:
		return fmt.Sprintf("[%d,%d]", k.begin, k.end)
	case Indexed:
		return k.index
	default:
		return "unknown"
	}
}
