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

// Package timeseries pairs an event collection with metadata and a
// column list, and speaks the JSON wire format shared with sibling
// implementations.
package timeseries

import (
	"sort"
	"time"

	"github.com/pondtools/gopond/pkg/aggregate"
	"github.com/pondtools/gopond/pkg/event"
	"github.com/pondtools/gopond/pkg/processor"
)

// TimeSeries is an immutable, chronological series of events plus
// metadata. Methods that change contents return a new series.
type TimeSeries struct {
	name    string
	utc     bool
	index   string
	meta    map[string]interface{}
	columns []string
	coll    event.Collection

	// diagnostics of the pipeline run that produced this series
	warnings []processor.Warning
}

// New builds a series over a collection, deriving columns from the
// payloads.
func New(name string, coll event.Collection) *TimeSeries {
	return &TimeSeries{
		name:    name,
		utc:     true,
		meta:    map[string]interface{}{},
		columns: columnsOf(coll),
		coll:    coll,
	}
}

func columnsOf(coll event.Collection) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, ev := range coll.Events() {
		for k := range ev.Data() {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				out = append(out, k)
			}
		}
	}
	sort.Strings(out)
	return out
}

// withCollection derives a new series carrying the same metadata.
func (ts *TimeSeries) withCollection(coll event.Collection) *TimeSeries {
	out := &TimeSeries{
		name:    ts.name,
		utc:     ts.utc,
		index:   ts.index,
		meta:    map[string]interface{}{},
		columns: columnsOf(coll),
		coll:    coll,
	}
	for k, v := range ts.meta {
		out.meta[k] = v
	}
	return out
}

func (ts *TimeSeries) Name() string { return ts.name }
func (ts *TimeSeries) UTC() bool    { return ts.utc }

// Index is the optional index string attached to the whole series.
func (ts *TimeSeries) Index() string { return ts.index }

// IndexAsRange resolves the series index to its time span.
func (ts *TimeSeries) IndexAsRange() (event.TimeRange, bool) {
	if ts.index == "" {
		return event.TimeRange{}, false
	}
	idx, err := event.ParseIndex(ts.index, ts.utc)
	if err != nil {
		return event.TimeRange{}, false
	}
	return idx.AsRange(), true
}

// Meta returns a metadata value by key.
func (ts *TimeSeries) Meta(key string) (interface{}, bool) {
	v, ok := ts.meta[key]
	return v, ok
}

// SetMeta returns a copy of the series with a metadata key set.
func (ts *TimeSeries) SetMeta(key string, v interface{}) *TimeSeries {
	out := ts.withCollection(ts.coll)
	out.meta[key] = v
	return out
}

// SetName returns a copy of the series with a new name.
func (ts *TimeSeries) SetName(name string) *TimeSeries {
	out := ts.withCollection(ts.coll)
	out.name = name
	return out
}

// Warnings returns the diagnostics of the pipeline run that produced
// this series, if any.
func (ts *TimeSeries) Warnings() []processor.Warning { return ts.warnings }

func (ts *TimeSeries) Collection() event.Collection { return ts.coll }

// Columns returns the data columns of the series.
func (ts *TimeSeries) Columns() []string {
	out := make([]string, len(ts.columns))
	copy(out, ts.columns)
	return out
}

func (ts *TimeSeries) Size() int                 { return ts.coll.Size() }
func (ts *TimeSeries) SizeValid(path string) int { return ts.coll.SizeValid(path) }
func (ts *TimeSeries) At(i int) event.Event      { return ts.coll.At(i) }

func (ts *TimeSeries) AtTime(t time.Time) (event.Event, bool) { return ts.coll.AtTime(t) }
func (ts *TimeSeries) Bisect(t time.Time) int                 { return ts.coll.Bisect(t) }

// Range is the extent of time the series covers.
func (ts *TimeSeries) Range() (event.TimeRange, bool) { return ts.coll.Range() }

func (ts *TimeSeries) Begin() (time.Time, bool) {
	tr, ok := ts.coll.Range()
	return tr.Begin(), ok
}

func (ts *TimeSeries) End() (time.Time, bool) {
	tr, ok := ts.coll.Range()
	return tr.End(), ok
}

// Slice returns the series of events in positions [begin, end).
func (ts *TimeSeries) Slice(begin, end int) *TimeSeries {
	return ts.withCollection(ts.coll.Slice(begin, end))
}

// Clean returns the series of events valid at every listed path.
func (ts *TimeSeries) Clean(paths ...string) (*TimeSeries, error) {
	coll, err := ts.coll.Clean(paths...)
	if err != nil {
		return nil, err
	}
	return ts.withCollection(coll), nil
}

// RenameColumns returns a copy of the series with top-level columns
// renamed per the mapping.
func (ts *TimeSeries) RenameColumns(mapping map[string]string) *TimeSeries {
	coll := ts.coll.Map(func(ev event.Event) event.Event {
		data := ev.Data()
		out := make(map[string]interface{}, len(data))
		for k, v := range data {
			if to, ok := mapping[k]; ok {
				out[to] = v
			} else {
				out[k] = v
			}
		}
		return ev.SetData(out)
	})
	return ts.withCollection(coll)
}

func (ts *TimeSeries) Aggregate(fn aggregate.Func, path string) (float64, bool) {
	return ts.coll.Aggregate(fn, path)
}

func (ts *TimeSeries) Sum(path string) (float64, bool)    { return ts.coll.Sum(path) }
func (ts *TimeSeries) Avg(path string) (float64, bool)    { return ts.coll.Avg(path) }
func (ts *TimeSeries) Max(path string) (float64, bool)    { return ts.coll.Max(path) }
func (ts *TimeSeries) Min(path string) (float64, bool)    { return ts.coll.Min(path) }
func (ts *TimeSeries) First(path string) (float64, bool)  { return ts.coll.First(path) }
func (ts *TimeSeries) Last(path string) (float64, bool)   { return ts.coll.Last(path) }
func (ts *TimeSeries) Median(path string) (float64, bool) { return ts.coll.Median(path) }
func (ts *TimeSeries) Stdev(path string) (float64, bool)  { return ts.coll.Stdev(path) }
func (ts *TimeSeries) Count(path string) int              { return ts.coll.Count(path) }

func (ts *TimeSeries) Percentile(q float64, path string) (float64, bool) {
	return ts.coll.Percentile(q, path)
}

// Same reports whether two series carry the same name, metadata and
// events.
func Same(a, b *TimeSeries) bool {
	if a.name != b.name || a.utc != b.utc || a.index != b.index {
		return false
	}
	if len(a.meta) != len(b.meta) {
		return false
	}
	for k, v := range a.meta {
		bv, ok := b.meta[k]
		if !ok || !metaEqual(v, bv) {
			return false
		}
	}
	if a.coll.Size() != b.coll.Size() {
		return false
	}
	for i := 0; i < a.coll.Size(); i++ {
		if !event.Same(a.coll.At(i), b.coll.At(i)) {
			return false
		}
	}
	return true
}

func metaEqual(a, b interface{}) bool {
	if fa, ok := event.Float(a); ok {
		fb, ok := event.Float(b)
		return ok && fa == fb
	}
	return a == b
}

// Merge unions the fields of same-key events across several series
// into one chronological series. Fields of later series win conflicts.
func Merge(name string, series ...*TimeSeries) (*TimeSeries, error) {
	var events []event.Event
	for _, s := range series {
		events = append(events, s.coll.Events()...)
	}
	merged := event.Merge(events)
	out := New(name, event.NewCollection(merged...).SortByKey())
	return out, nil
}

// Reduce combines same-key events across several series with fn, one
// output event per distinct key, chronologically. Inputs may arrive in
// any order.
func Reduce(name string, fn aggregate.Func, series []*TimeSeries, paths ...string) (*TimeSeries, error) {
	var events []event.Event
	for _, s := range series {
		events = append(events, s.coll.Events()...)
	}
	combined, err := event.Combine(events, paths, fn)
	if err != nil {
		return nil, err
	}
	return New(name, event.NewCollection(combined...).SortByKey()), nil
}

// Sum adds up same-key events across several series.
func Sum(name string, series []*TimeSeries, paths ...string) (*TimeSeries, error) {
	return Reduce(name, aggregate.Sum, series, paths...)
}
