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
	"sort"
	"time"

	"github.com/pondtools/gopond/pkg/aggregate"
)

// Collection is an immutable ordered bag of events. Methods that
// change membership return a new Collection sharing nothing mutable
// with the receiver.
type Collection struct {
	events []Event
}

// NewCollection builds a collection over the given events in order.
func NewCollection(events ...Event) Collection {
	out := make([]Event, len(events))
	copy(out, events)
	return Collection{events: out}
}

// Size is the number of events held.
func (c Collection) Size() int { return len(c.events) }

// SizeValid counts the events holding a valid value at path.
func (c Collection) SizeValid(path string) int {
	n := 0
	for _, ev := range c.events {
		if ev.IsValid(path) {
			n++
		}
	}
	return n
}

// At returns the event at position i.
func (c Collection) At(i int) Event { return c.events[i] }

// Events returns a copy of the underlying event slice.
func (c Collection) Events() []Event {
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// AddEvent returns a new collection with ev appended.
func (c Collection) AddEvent(ev Event) Collection {
	out := make([]Event, len(c.events), len(c.events)+1)
	copy(out, c.events)
	return Collection{events: append(out, ev)}
}

// Bisect returns the position of the rightmost event whose timestamp
// is at or before t, or -1 when every event is later. The collection
// must be chronological.
func (c Collection) Bisect(t time.Time) int {
	ms := Millis(t)
	return sort.Search(len(c.events), func(i int) bool {
		return c.events[i].key.begin > ms
	}) - 1
}

// AtTime returns the latest event at or before t.
func (c Collection) AtTime(t time.Time) (Event, bool) {
	i := c.Bisect(t)
	if i < 0 {
		return Event{}, false
	}
	return c.events[i], true
}

// AtKey returns every event sharing key k, in collection order. Merge,
// sum and avg group by key, so a key can legitimately hold several
// events.
func (c Collection) AtKey(k Key) []Event {
	var out []Event
	for _, ev := range c.events {
		if ev.key == k {
			out = append(out, ev)
		}
	}
	return out
}

// AtFirst returns the first event.
func (c Collection) AtFirst() (Event, bool) {
	if len(c.events) == 0 {
		return Event{}, false
	}
	return c.events[0], true
}

// AtLast returns the last event.
func (c Collection) AtLast() (Event, bool) {
	if len(c.events) == 0 {
		return Event{}, false
	}
	return c.events[len(c.events)-1], true
}

// Slice returns the events in positions [begin, end), clamped.
func (c Collection) Slice(begin, end int) Collection {
	if begin < 0 {
		begin = 0
	}
	if end > len(c.events) {
		end = len(c.events)
	}
	if begin >= end {
		return Collection{}
	}
	return NewCollection(c.events[begin:end]...)
}

// Range returns the extents of time the collection covers.
func (c Collection) Range() (TimeRange, bool) {
	if len(c.events) == 0 {
		return TimeRange{}, false
	}
	out := c.events[0].key.AsRange()
	for _, ev := range c.events[1:] {
		out = out.Extents(ev.key.AsRange())
	}
	return out, true
}

// IsChronological reports whether events are in non-decreasing key
// order.
func (c Collection) IsChronological() bool {
	for i := 1; i < len(c.events); i++ {
		if c.events[i].key.Less(c.events[i-1].key) {
			return false
		}
	}
	return true
}

// SortByKey returns a copy of the collection in key order. The sort is
// stable so same-key events keep their arrival order.
func (c Collection) SortByKey() Collection {
	out := c.Events()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].key.Less(out[j].key)
	})
	return Collection{events: out}
}

// DedupPolicy picks what survives of the events sharing a key.
type DedupPolicy int8

const (
	// KeepLast keeps the newest event of the group.
	KeepLast DedupPolicy = iota
	// KeepFirst keeps the oldest event of the group.
	KeepFirst
	// MergeFields unions the group's payloads into one event; on a
	// field conflict the later event wins.
	MergeFields
)

func (p DedupPolicy) String() string {
	switch p {
	case KeepLast:
		return "last"
	case KeepFirst:
		return "first"
	case MergeFields:
		return "merge"
	default:
		return "unknown"
	}
}

// Dedup collapses the events sharing a key down to one per the policy.
// Keys keep their first-seen order. An unrecognized policy behaves as
// KeepFirst.
func (c Collection) Dedup(policy DedupPolicy) Collection {
	if policy == MergeFields {
		return Collection{events: Merge(c.events)}
	}
	var order []Key
	pick := map[Key]Event{}
	for _, ev := range c.events {
		if _, ok := pick[ev.key]; !ok {
			order = append(order, ev.key)
			pick[ev.key] = ev
			continue
		}
		if policy == KeepLast {
			pick[ev.key] = ev
		}
	}
	out := make([]Event, 0, len(order))
	for _, k := range order {
		out = append(out, pick[k])
	}
	return Collection{events: out}
}

// Clean returns the events holding valid values at every listed path.
func (c Collection) Clean(paths ...string) (Collection, error) {
	if _, err := ParseFieldSpec(paths); err != nil {
		return Collection{}, err
	}
	if len(paths) == 0 {
		paths = []string{DefaultField}
	}
	return c.Filter(func(ev Event) bool {
		return ev.IsValid(paths...)
	}), nil
}

// Filter returns the events fn keeps.
func (c Collection) Filter(fn func(Event) bool) Collection {
	var out []Event
	for _, ev := range c.events {
		if fn(ev) {
			out = append(out, ev)
		}
	}
	return Collection{events: out}
}

// Map returns a collection of fn applied to every event.
func (c Collection) Map(fn func(Event) Event) Collection {
	out := make([]Event, len(c.events))
	for i, ev := range c.events {
		out[i] = fn(ev)
	}
	return Collection{events: out}
}

// samples gathers the values at path across the collection, marking
// missing or non-numeric values as gaps.
func (c Collection) samples(path string) []aggregate.Sample {
	out := make([]aggregate.Sample, 0, len(c.events))
	for _, ev := range c.events {
		v, ok := ev.Get(path)
		if !ok || !IsValid(v) {
			out = append(out, aggregate.Sample{})
			continue
		}
		f, ok := Float(v)
		out = append(out, aggregate.Sample{V: f, OK: ok})
	}
	return out
}

// Aggregate reduces the valid values at path with fn.
func (c Collection) Aggregate(fn aggregate.Func, path string) (float64, bool) {
	return aggregate.Apply(fn, aggregate.IgnoreMissing, c.samples(path))
}

func (c Collection) Sum(path string) (float64, bool) {
	return c.Aggregate(aggregate.Sum, path)
}

func (c Collection) Avg(path string) (float64, bool) {
	return c.Aggregate(aggregate.Avg, path)
}

func (c Collection) Max(path string) (float64, bool) {
	return c.Aggregate(aggregate.Max, path)
}

func (c Collection) Min(path string) (float64, bool) {
	return c.Aggregate(aggregate.Min, path)
}

func (c Collection) First(path string) (float64, bool) {
	return c.Aggregate(aggregate.First, path)
}

func (c Collection) Last(path string) (float64, bool) {
	return c.Aggregate(aggregate.Last, path)
}

func (c Collection) Median(path string) (float64, bool) {
	return c.Aggregate(aggregate.Median, path)
}

func (c Collection) Stdev(path string) (float64, bool) {
	return c.Aggregate(aggregate.Stdev, path)
}

func (c Collection) Percentile(q float64, path string) (float64, bool) {
	return c.Aggregate(aggregate.Percentile(q), path)
}

// Count is the number of valid values at path.
func (c Collection) Count(path string) int {
	return c.SizeValid(path)
}
