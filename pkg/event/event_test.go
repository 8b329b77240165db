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
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pondtools/gopond/pkg/aggregate"
)

func TestNewEvent(t *testing.T) {
	at := time.Date(2014, 9, 17, 8, 0, 0, 0, time.UTC)
	ev, err := New(at, map[string]interface{}{"value": 42.0})
	assert.NoError(t, err)
	assert.True(t, at.Equal(ev.Timestamp()))
	assert.Equal(t, 42.0, ev.Value("value"))

	_, err = New(time.Time{}, nil)
	assert.ErrorIs(t, err, ErrNaiveTimestamp)
}

func TestEventImmutable(t *testing.T) {
	in := map[string]interface{}{"a": 1.0, "nested": map[string]interface{}{"b": 2.0}}
	ev := NewAtMillis(1000, in)

	// mutating the input map after construction changes nothing
	in["a"] = 99.0
	assert.Equal(t, 1.0, ev.Value("a"))

	// mutating a copy from Data changes nothing
	ev.Data()["a"] = 99.0
	assert.Equal(t, 1.0, ev.Value("a"))

	// Set returns a new event, the original keeps its payload
	ev2 := ev.Set("a", 5.0)
	assert.Equal(t, 5.0, ev2.Value("a"))
	assert.Equal(t, 1.0, ev.Value("a"))
}

func TestEventGetSet(t *testing.T) {
	ev := NewAtMillis(1000, map[string]interface{}{
		"direction": map[string]interface{}{"in": 5.0, "out": 7.0},
	})

	v, ok := ev.Get("direction.in")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = ev.Get("direction.bogus")
	assert.False(t, ok)

	ev2 := ev.Set("direction.in", 9.0)
	assert.Equal(t, 9.0, ev2.Value("direction.in"))
	assert.Equal(t, 7.0, ev2.Value("direction.out"))

	// a deep set builds intermediate maps
	ev3 := ev.Set("totals.today", 12.0)
	assert.Equal(t, 12.0, ev3.Value("totals.today"))
}

func TestEventIsValid(t *testing.T) {
	ev := NewAtMillis(1000, map[string]interface{}{
		"value": 3.0, "gap": nil, "nan": math.NaN(), "blank": "",
	})
	assert.True(t, ev.IsValid())
	assert.True(t, ev.IsValid("value"))
	assert.False(t, ev.IsValid("gap"))
	assert.False(t, ev.IsValid("nan"))
	assert.False(t, ev.IsValid("blank"))
	assert.False(t, ev.IsValid("missing"))
	assert.False(t, ev.IsValid("value", "gap"))
}

func TestEventSelect(t *testing.T) {
	ev := NewAtMillis(1000, map[string]interface{}{"a": 1.0, "b": 2.0, "c": 3.0})
	got := ev.Select("a", "c")
	assert.Equal(t, map[string]interface{}{"a": 1.0, "c": 3.0}, got.Data())
	assert.Equal(t, ev.Key(), got.Key())
}

func TestEventCollapse(t *testing.T) {
	ev := NewAtMillis(1000, map[string]interface{}{"in": 5.0, "out": 7.0})

	got, err := ev.Collapse([]string{"in", "out"}, "total", aggregate.Sum, false)
	assert.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"total": 12.0}, got.Data())

	got, err = ev.Collapse([]string{"in", "out"}, "total", aggregate.Sum, true)
	assert.NoError(t, err)
	assert.Equal(t, 12.0, got.Value("total"))
	assert.Equal(t, 5.0, got.Value("in"))
}

func TestEventToPoint(t *testing.T) {
	ev := NewAtMillis(1000, map[string]interface{}{"a": 1.0, "c": 3.0})
	assert.Equal(t, []interface{}{1.0, nil, 3.0}, ev.ToPoint([]string{"a", "b", "c"}))
}

func TestEventMarshalJSON(t *testing.T) {
	ev := NewAtMillis(1000, map[string]interface{}{"value": 1.0})
	assert.JSONEq(t, `{"time":1000,"data":{"value":1}}`, ev.String())

	rev := NewRangeEvent(mustRange(t, 1000, 2000), map[string]interface{}{"value": 1.0})
	assert.JSONEq(t, `{"timerange":[1000,2000],"data":{"value":1}}`, rev.String())

	idx, _ := NewIndex("2014-09")
	iev := NewIndexedEvent(idx, map[string]interface{}{"value": 1.0})
	assert.JSONEq(t, `{"index":"2014-09","data":{"value":1}}`, iev.String())
}

func TestSame(t *testing.T) {
	a := NewAtMillis(1000, map[string]interface{}{"value": 3.0})
	b := NewAtMillis(1000, map[string]interface{}{"value": 3.0})
	c := NewAtMillis(1000, map[string]interface{}{"value": 4.0})
	d := NewAtMillis(2000, map[string]interface{}{"value": 3.0})
	assert.True(t, Same(a, b))
	assert.False(t, Same(a, c))
	assert.False(t, Same(a, d))
}

func TestMergeEvents(t *testing.T) {
	a := NewAtMillis(1000, map[string]interface{}{"in": 5.0})
	b := NewAtMillis(1000, map[string]interface{}{"out": 7.0})
	c := NewAtMillis(2000, map[string]interface{}{"in": 6.0})

	got := Merge([]Event{a, b, c})
	assert.Len(t, got, 2)
	assert.Equal(t, map[string]interface{}{"in": 5.0, "out": 7.0}, got[0].Data())
	assert.Equal(t, map[string]interface{}{"in": 6.0}, got[1].Data())

	// later events win field conflicts
	d := NewAtMillis(1000, map[string]interface{}{"in": 9.0})
	got = Merge([]Event{a, d})
	assert.Equal(t, 9.0, got[0].Value("in"))
}

func TestCombineEvents(t *testing.T) {
	events := []Event{
		NewAtMillis(1000, map[string]interface{}{"value": 1.0}),
		NewAtMillis(1000, map[string]interface{}{"value": 2.0}),
		NewAtMillis(2000, map[string]interface{}{"value": 5.0}),
	}

	got, err := SumEvents(events)
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 3.0, got[0].Value("value"))
	assert.Equal(t, 5.0, got[1].Value("value"))

	got, err = AvgEvents(events, "value")
	assert.NoError(t, err)
	assert.Equal(t, 1.5, got[0].Value("value"))
}
