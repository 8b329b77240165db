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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pondtools/gopond/pkg/event"
)

func TestAlignLinear(t *testing.T) {
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignLinear}, nil)
	assert.NoError(t, err)

	events := []event.Event{
		event.NewAtMillis(30_000, map[string]interface{}{"value": 1.0}),
		event.NewAtMillis(90_000, map[string]interface{}{"value": 3.0}),
	}
	out := runAll(t, a, events)
	assert.Len(t, out, 1)
	assert.Equal(t, int64(60_000), out[0].Key().BeginMillis())
	assert.Equal(t, 2.0, out[0].Value("value"))
}

func TestAlignHold(t *testing.T) {
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignHold}, nil)
	assert.NoError(t, err)

	events := []event.Event{
		event.NewAtMillis(30_000, map[string]interface{}{"value": 1.0}),
		event.NewAtMillis(90_000, map[string]interface{}{"value": 3.0}),
	}
	out := runAll(t, a, events)
	assert.Len(t, out, 1)
	assert.Equal(t, 1.0, out[0].Value("value"))
}

func TestAlignSpansSeveralBoundaries(t *testing.T) {
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignLinear}, nil)
	assert.NoError(t, err)

	events := []event.Event{
		event.NewAtMillis(30_000, map[string]interface{}{"value": 0.0}),
		event.NewAtMillis(210_000, map[string]interface{}{"value": 6.0}),
	}
	out := runAll(t, a, events)
	assert.Len(t, out, 3)
	assert.Equal(t, int64(60_000), out[0].Key().BeginMillis())
	assert.Equal(t, int64(120_000), out[1].Key().BeginMillis())
	assert.Equal(t, int64(180_000), out[2].Key().BeginMillis())
	assert.Equal(t, 1.0, out[0].Value("value"))
	assert.Equal(t, 3.0, out[1].Value("value"))
	assert.Equal(t, 5.0, out[2].Value("value"))
}

func TestAlignOnBoundary(t *testing.T) {
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignLinear}, nil)
	assert.NoError(t, err)

	// an event sitting exactly on a boundary closes it with its own value
	events := []event.Event{
		event.NewAtMillis(30_000, map[string]interface{}{"value": 1.0}),
		event.NewAtMillis(60_000, map[string]interface{}{"value": 5.0}),
	}
	out := runAll(t, a, events)
	assert.Len(t, out, 1)
	assert.Equal(t, int64(60_000), out[0].Key().BeginMillis())
	assert.Equal(t, 5.0, out[0].Value("value"))
}

func TestAlignLimit(t *testing.T) {
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignHold, Limit: 2}, nil)
	assert.NoError(t, err)

	events := []event.Event{
		event.NewAtMillis(30_000, map[string]interface{}{"value": 1.0}),
		event.NewAtMillis(270_000, map[string]interface{}{"value": 9.0}),
	}
	out := runAll(t, a, events)
	assert.Len(t, out, 4)
	assert.Equal(t, 1.0, out[0].Value("value"))
	assert.Equal(t, 1.0, out[1].Value("value"))
	// boundaries beyond the limit carry the missing marker
	assert.Nil(t, out[2].Value("value"))
	assert.Nil(t, out[3].Value("value"))
}

func TestAlignOnlyKeepsAlignedFields(t *testing.T) {
	a, err := NewAligner(AlignerConfig{FieldSpec: []string{"in"}, Window: "1m", Method: AlignHold}, nil)
	assert.NoError(t, err)

	events := []event.Event{
		event.NewAtMillis(30_000, map[string]interface{}{"in": 1.0, "other": "x"}),
		event.NewAtMillis(90_000, map[string]interface{}{"in": 3.0, "other": "y"}),
	}
	out := runAll(t, a, events)
	assert.Len(t, out, 1)
	assert.Equal(t, map[string]interface{}{"in": 1.0}, out[0].Data())
}

func TestAlignInvalidValues(t *testing.T) {
	w := NewWarnings(nil)
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignLinear}, w)
	assert.NoError(t, err)

	events := []event.Event{
		event.NewAtMillis(30_000, map[string]interface{}{"value": nil}),
		event.NewAtMillis(90_000, map[string]interface{}{"value": 3.0}),
	}
	out := runAll(t, a, events)
	assert.Len(t, out, 1)
	assert.Nil(t, out[0].Value("value"))
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, WarnInvalidValue, w.List()[0].Kind)
}

func TestAlignNonNumeric(t *testing.T) {
	w := NewWarnings(nil)
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignHold}, w)
	assert.NoError(t, err)

	events := []event.Event{
		event.NewAtMillis(30_000, map[string]interface{}{"value": "up"}),
		event.NewAtMillis(90_000, map[string]interface{}{"value": "down"}),
	}
	out := runAll(t, a, events)
	assert.Len(t, out, 1)
	assert.Nil(t, out[0].Value("value"))
	assert.Equal(t, WarnNonNumeric, w.List()[0].Kind)
}

func TestAlignRejectsNonInstant(t *testing.T) {
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignHold}, nil)
	assert.NoError(t, err)

	idx, _ := event.NewIndex("1m-1")
	_, err = a.ProcessEvent(event.NewIndexedEvent(idx, map[string]interface{}{"value": 1.0}))
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestAlignConfigErrors(t *testing.T) {
	_, err := NewAligner(AlignerConfig{Window: "bogus", Method: AlignHold}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewAligner(AlignerConfig{Window: "1m", Method: AlignMethod(7)}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewAligner(AlignerConfig{Window: "1m", Method: AlignHold, Limit: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

// gapEvents is an irregular traffic trace starting Mon, 22 Aug 2016
// 00:00:30 GMT, with gaps of one, two and three minutes. The final
// point lands in the same window as the one before it and produces no
// boundary.
func gapEvents() []event.Event {
	points := []struct {
		ms int64
		v  float64
	}{
		{1471824030000, 0.75}, // 00:00:30
		{1471824105000, 2},    // 00:01:45
		{1471824210000, 1},    // 00:03:30
		{1471824390000, 1},    // 00:06:30
		{1471824510000, 3},    // 00:08:30
		{1471824525000, 5},    // 00:08:45
	}
	out := make([]event.Event, 0, len(points))
	for _, p := range points {
		out = append(out, event.NewAtMillis(p.ms, map[string]interface{}{"value": p.v}))
	}
	return out
}

func TestAlignGapSeriesLinear(t *testing.T) {
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignLinear}, nil)
	assert.NoError(t, err)

	out := runAll(t, a, gapEvents())
	assert.Len(t, out, 8)
	assert.Equal(t, int64(1471824060000), out[0].Key().BeginMillis())

	want := []float64{
		1.25,
		1.8571428571428572,
		1.2857142857142856,
		1.0, 1.0, 1.0,
		1.5,
		2.5,
	}
	for i, w := range want {
		assert.InDelta(t, w, out[i].Value("value").(float64), 1e-12, "boundary %d", i)
	}
}

func TestAlignGapSeriesHold(t *testing.T) {
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignHold}, nil)
	assert.NoError(t, err)

	out := runAll(t, a, gapEvents())
	assert.Len(t, out, 8)
	assert.Equal(t, []interface{}{0.75, 2.0, 2.0, 1.0, 1.0, 1.0, 1.0, 1.0}, values(out))
}

func TestAlignGapSeriesLimit(t *testing.T) {
	// the three-boundary gap exceeds the limit: the first two
	// boundaries still get values, only the excess carries the marker
	a, err := NewAligner(AlignerConfig{Window: "1m", Method: AlignHold, Limit: 2}, nil)
	assert.NoError(t, err)

	out := runAll(t, a, gapEvents())
	assert.Len(t, out, 8)
	assert.Equal(t, []interface{}{0.75, 2.0, 2.0, 1.0, 1.0, nil, 1.0, 1.0}, values(out))

	a, err = NewAligner(AlignerConfig{Window: "1m", Method: AlignLinear, Limit: 2}, nil)
	assert.NoError(t, err)

	out = runAll(t, a, gapEvents())
	assert.Len(t, out, 8)
	assert.InDelta(t, 1.25, out[0].Value("value").(float64), 1e-12)
	assert.Equal(t, 1.0, out[3].Value("value"))
	assert.Equal(t, 1.0, out[4].Value("value"))
	assert.Nil(t, out[5].Value("value"))
	assert.InDelta(t, 1.5, out[6].Value("value").(float64), 1e-12)
}

func TestParseAlignMethod(t *testing.T) {
	m, err := ParseAlignMethod("hold")
	assert.NoError(t, err)
	assert.Equal(t, AlignHold, m)

	_, err = ParseAlignMethod("bogus")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
