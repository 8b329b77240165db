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

package timeseries

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/pondtools/gopond/pkg/event"
)

// ErrWireFormat is returned when a payload does not fit the columnar
// wire format.
var ErrWireFormat = errors.New("bad wire format")

// First wire column, naming the key variant of every point.
const (
	colTime      = "time"
	colTimeRange = "timerange"
	colIndex     = "index"
)

// wire is the columnar envelope. Points are rows under the columns,
// the first cell being the event key. Unknown top-level keys are
// metadata and round-trip unchanged.
type wire struct {
	Name    string          `json:"name"`
	UTC     bool            `json:"utc"`
	Index   string          `json:"index,omitempty"`
	Columns []string        `json:"columns"`
	Points  [][]interface{} `json:"points"`
}

// MarshalJSON renders the series in the columnar wire format.
func (ts *TimeSeries) MarshalJSON() ([]byte, error) {
	variant := colTime
	if ts.coll.Size() > 0 {
		switch ts.coll.At(0).Key().Kind() {
		case event.Range:
			variant = colTimeRange
		case event.Indexed:
			variant = colIndex
		}
	}

	points := make([][]interface{}, 0, ts.coll.Size())
	for _, ev := range ts.coll.Events() {
		row := make([]interface{}, 0, len(ts.columns)+1)
		switch ev.Key().Kind() {
		case event.Instant:
			row = append(row, ev.Key().BeginMillis())
		case event.Range:
			row = append(row, []int64{ev.Key().BeginMillis(), ev.Key().EndMillis()})
		case event.Indexed:
			row = append(row, ev.Key().IndexString())
		}
		row = append(row, ev.ToPoint(ts.columns)...)
		points = append(points, row)
	}

	out := map[string]interface{}{}
	for k, v := range ts.meta {
		out[k] = v
	}
	out["name"] = ts.name
	out["utc"] = ts.utc
	if ts.index != "" {
		out["index"] = ts.index
	}
	out["columns"] = append([]string{variant}, ts.columns...)
	out["points"] = points
	return json.Marshal(out)
}

// UnmarshalJSON parses the columnar wire format.
func (ts *TimeSeries) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*ts = *parsed
	return nil
}

// FromJSON parses a series from the columnar wire format. The first
// column must be "time", "timerange" or "index"; the rest name the
// data columns each point carries.
func FromJSON(data []byte) (*TimeSeries, error) {
	var env wire
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWireFormat, err)
	}
	if len(env.Columns) == 0 {
		return nil, fmt.Errorf("%w: no columns", ErrWireFormat)
	}
	variant := env.Columns[0]
	switch variant {
	case colTime, colTimeRange, colIndex:
	default:
		return nil, fmt.Errorf("%w: unknown first column %q", ErrWireFormat, variant)
	}
	columns := env.Columns[1:]

	// utc defaults to true when absent
	utc := true
	var extra map[string]interface{}
	if err := json.Unmarshal(data, &extra); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWireFormat, err)
	}
	if v, ok := extra["utc"].(bool); ok {
		utc = v
	}

	events := make([]event.Event, 0, len(env.Points))
	for i, row := range env.Points {
		if len(row) != len(columns)+1 {
			return nil, fmt.Errorf("%w: point %d has %d cells, want %d",
				ErrWireFormat, i, len(row), len(columns)+1)
		}
		payload := make(map[string]interface{}, len(columns))
		for j, c := range columns {
			payload[c] = row[j+1]
		}
		ev, err := pointEvent(variant, row[0], payload, utc)
		if err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		events = append(events, ev)
	}

	ts := New(env.Name, event.NewCollection(events...))
	ts.utc = utc
	ts.index = env.Index
	if len(columns) > 0 {
		ts.columns = columns
	}
	for k, v := range extra {
		switch k {
		case "name", "utc", "index", "columns", "points":
		default:
			ts.meta[k] = v
		}
	}
	return ts, nil
}

func pointEvent(variant string, cell interface{}, payload map[string]interface{}, utc bool) (event.Event, error) {
	switch variant {
	case colTime:
		ms, ok := event.Float(cell)
		if !ok {
			return event.Event{}, fmt.Errorf("%w: time cell %v is not a number", ErrWireFormat, cell)
		}
		return event.NewAtMillis(int64(ms), payload), nil
	case colTimeRange:
		pair, ok := cell.([]interface{})
		if !ok || len(pair) != 2 {
			return event.Event{}, fmt.Errorf("%w: timerange cell %v is not a pair", ErrWireFormat, cell)
		}
		begin, bok := event.Float(pair[0])
		end, eok := event.Float(pair[1])
		if !bok || !eok {
			return event.Event{}, fmt.Errorf("%w: timerange cell %v is not numeric", ErrWireFormat, cell)
		}
		tr, err := event.TimeRangeFromMillis(int64(begin), int64(end))
		if err != nil {
			return event.Event{}, err
		}
		return event.NewRangeEvent(tr, payload), nil
	default:
		s, ok := cell.(string)
		if !ok {
			return event.Event{}, fmt.Errorf("%w: index cell %v is not a string", ErrWireFormat, cell)
		}
		idx, err := event.ParseIndex(s, utc)
		if err != nil {
			return event.Event{}, err
		}
		return event.NewIndexedEvent(idx, payload), nil
	}
}
