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

// Package event holds the core data model: timestamps, time ranges and
// index buckets, the keys built from them, and the immutable events
// and collections that carry measurement payloads.
package event

import (
	"fmt"
	"sort"
	"time"

	json "github.com/goccy/go-json"

	"github.com/pondtools/gopond/pkg/aggregate"
)

// Event is an immutable pairing of a Key and a data payload. Mutating
// methods return a new Event and never touch the receiver's payload.
type Event struct {
	key  Key
	data map[string]interface{}
}

// New builds an instant event at t.
func New(t time.Time, data map[string]interface{}) (Event, error) {
	key, err := InstantKey(t)
	if err != nil {
		return Event{}, err
	}
	return Event{key: key, data: deepCopyMap(data)}, nil
}

// NewAtMillis builds an instant event at ms since the epoch.
func NewAtMillis(ms int64, data map[string]interface{}) Event {
	return Event{key: InstantKeyMillis(ms), data: deepCopyMap(data)}
}

// NewRangeEvent builds an event spanning tr.
func NewRangeEvent(tr TimeRange, data map[string]interface{}) Event {
	return Event{key: RangeKey(tr), data: deepCopyMap(data)}
}

// NewIndexedEvent builds an event spanning the bucket idx names.
func NewIndexedEvent(idx Index, data map[string]interface{}) Event {
	return Event{key: IndexKey(idx), data: deepCopyMap(data)}
}

// NewWithKey builds an event with an existing key.
func NewWithKey(key Key, data map[string]interface{}) Event {
	return Event{key: key, data: deepCopyMap(data)}
}

func (e Event) Key() Key             { return e.key }
func (e Event) Timestamp() time.Time { return e.key.Timestamp() }
func (e Event) Begin() time.Time     { return e.key.Begin() }
func (e Event) End() time.Time       { return e.key.End() }

// Data returns a deep copy of the payload.
func (e Event) Data() map[string]interface{} {
	return deepCopyMap(e.data)
}

// Get returns the value at a dotted field path. The boolean is false
// when the path does not exist; a present but invalid value returns
// (nil-ish value, true).
func (e Event) Get(path string) (interface{}, bool) {
	parts, err := ParseFieldPath(path)
	if err != nil {
		return nil, false
	}
	return nestedGet(e.data, parts)
}

// Value returns the value at path, or nil when absent.
func (e Event) Value(path string) interface{} {
	v, _ := e.Get(path)
	return v
}

// Set returns a copy of the event with v written at path.
func (e Event) Set(path string, v interface{}) Event {
	parts, err := ParseFieldPath(path)
	if err != nil {
		return e
	}
	data := deepCopyMap(e.data)
	nestedSet(data, parts, deepCopyValue(v))
	return Event{key: e.key, data: data}
}

// SetData returns a copy of the event carrying a new payload.
func (e Event) SetData(data map[string]interface{}) Event {
	return Event{key: e.key, data: deepCopyMap(data)}
}

// IsValid reports whether every listed path holds a valid value. With
// no paths it checks the default "value" field.
func (e Event) IsValid(paths ...string) bool {
	if len(paths) == 0 {
		paths = []string{DefaultField}
	}
	for _, p := range paths {
		v, ok := e.Get(p)
		if !ok || !IsValid(v) {
			return false
		}
	}
	return true
}

// Select returns a copy of the event keeping only the listed paths.
func (e Event) Select(paths ...string) Event {
	data := map[string]interface{}{}
	for _, p := range paths {
		parts, err := ParseFieldPath(p)
		if err != nil {
			continue
		}
		if v, ok := nestedGet(e.data, parts); ok {
			nestedSet(data, parts, deepCopyValue(v))
		}
	}
	return Event{key: e.key, data: data}
}

// Collapse reduces the values at the listed paths into a single output
// field. With keep set, the source fields survive alongside the
// output; otherwise the output field is all that remains.
func (e Event) Collapse(paths []string, output string, fn aggregate.Func, keep bool) (Event, error) {
	outParts, err := ParseFieldPath(output)
	if err != nil {
		return Event{}, err
	}
	samples := make([]aggregate.Sample, 0, len(paths))
	for _, p := range paths {
		v, ok := e.Get(p)
		if !ok || !IsValid(v) {
			samples = append(samples, aggregate.Sample{})
			continue
		}
		f, ok := Float(v)
		samples = append(samples, aggregate.Sample{V: f, OK: ok})
	}
	var data map[string]interface{}
	if keep {
		data = deepCopyMap(e.data)
	} else {
		data = map[string]interface{}{}
	}
	if v, ok := aggregate.Apply(fn, aggregate.IgnoreMissing, samples); ok {
		nestedSet(data, outParts, v)
	} else {
		nestedSet(data, outParts, nil)
	}
	return Event{key: e.key, data: data}, nil
}

// ToPoint flattens the event payload into a row of cells, one per
// column, for the wire format.
func (e Event) ToPoint(columns []string) []interface{} {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		if v, ok := e.data[c]; ok {
			row[i] = deepCopyValue(v)
		}
	}
	return row
}

func (e Event) String() string {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Sprintf("event[%s]", e.key)
	}
	return string(b)
}

// MarshalJSON renders the event in the wire style of its key kind.
func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"data": e.data}
	switch e.key.kind {
	case Instant:
		out["time"] = e.key.begin
	case Range:
		out["timerange"] = []int64{e.key.begin, e.key.end}
	case Indexed:
		out["index"] = e.key.index
	}
	return json.Marshal(out)
}

// Same reports whether two events have equal keys and structurally
// equal payloads.
func Same(a, b Event) bool {
	if a.key != b.key {
		return false
	}
	return valueEqual(a.data, b.data)
}

// Merge unions the payloads of events sharing a key. One event per
// distinct key comes back, in first-seen key order; on a field
// conflict the later event wins.
func Merge(events []Event) []Event {
	var order []Key
	merged := map[Key]map[string]interface{}{}
	for _, ev := range events {
		data, ok := merged[ev.key]
		if !ok {
			order = append(order, ev.key)
			data = map[string]interface{}{}
			merged[ev.key] = data
		}
		for k, v := range ev.data {
			data[k] = deepCopyValue(v)
		}
	}
	out := make([]Event, 0, len(order))
	for _, key := range order {
		out = append(out, Event{key: key, data: merged[key]})
	}
	return out
}

// Combine reduces events sharing a key into one event per key, with
// the values at each listed path run through fn. An empty spec
// combines every top-level field seen in the group.
func Combine(events []Event, paths []string, fn aggregate.Func) ([]Event, error) {
	parsed, err := ParseFieldSpec(paths)
	if err != nil {
		return nil, err
	}
	var order []Key
	groups := map[Key][]Event{}
	for _, ev := range events {
		if _, ok := groups[ev.key]; !ok {
			order = append(order, ev.key)
		}
		groups[ev.key] = append(groups[ev.key], ev)
	}
	out := make([]Event, 0, len(order))
	for _, key := range order {
		group := groups[key]
		groupPaths := parsed
		if len(paths) == 0 {
			groupPaths = topLevelPaths(group)
		}
		data := map[string]interface{}{}
		for _, p := range groupPaths {
			samples := make([]aggregate.Sample, 0, len(group))
			for _, ev := range group {
				v, ok := nestedGet(ev.data, p)
				if !ok || !IsValid(v) {
					continue
				}
				if f, ok := Float(v); ok {
					samples = append(samples, aggregate.Sample{V: f, OK: true})
				}
			}
			if v, ok := aggregate.Apply(fn, aggregate.IgnoreMissing, samples); ok {
				nestedSet(data, p, v)
			}
		}
		out = append(out, Event{key: key, data: data})
	}
	return out, nil
}

// SumEvents combines same-key events by summing the listed fields.
func SumEvents(events []Event, paths ...string) ([]Event, error) {
	return Combine(events, paths, aggregate.Sum)
}

// AvgEvents combines same-key events by averaging the listed fields.
func AvgEvents(events []Event, paths ...string) ([]Event, error) {
	return Combine(events, paths, aggregate.Avg)
}

func topLevelPaths(events []Event) [][]string {
	var order []string
	seen := map[string]struct{}{}
	for _, ev := range events {
		for k := range ev.data {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				order = append(order, k)
			}
		}
	}
	// map iteration is unordered, keep output deterministic
	sort.Strings(order)
	out := make([][]string, 0, len(order))
	for _, k := range order {
		out = append(out, []string{k})
	}
	return out
}
