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

// runAll pushes events through a processor and flushes, collecting
// everything emitted.
func runAll(t *testing.T, p Processor, events []event.Event) []event.Event {
	t.Helper()
	var out []event.Event
	for _, ev := range events {
		got, err := p.ProcessEvent(ev)
		assert.NoError(t, err)
		out = append(out, got...)
	}
	got, err := p.Flush()
	assert.NoError(t, err)
	return append(out, got...)
}

func valueEvents(values ...interface{}) []event.Event {
	out := make([]event.Event, 0, len(values))
	for i, v := range values {
		out = append(out, event.NewAtMillis(int64(i+1)*1000, map[string]interface{}{"value": v}))
	}
	return out
}

func values(events []event.Event) []interface{} {
	out := make([]interface{}, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Value("value"))
	}
	return out
}

func TestFillZero(t *testing.T) {
	f, err := NewFiller(FillerConfig{Method: FillZero}, nil)
	assert.NoError(t, err)

	out := runAll(t, f, valueEvents(1.0, nil, nil, 4.0))
	assert.Equal(t, []interface{}{1.0, 0.0, 0.0, 4.0}, values(out))
}

func TestFillPad(t *testing.T) {
	f, err := NewFiller(FillerConfig{Method: FillPad}, nil)
	assert.NoError(t, err)

	out := runAll(t, f, valueEvents(1.0, nil, nil, 4.0))
	assert.Equal(t, []interface{}{1.0, 1.0, 1.0, 4.0}, values(out))
}

func TestFillPadLeadingGap(t *testing.T) {
	f, err := NewFiller(FillerConfig{Method: FillPad}, nil)
	assert.NoError(t, err)

	// nothing to pad from, the leading gap stays
	out := runAll(t, f, valueEvents(nil, 2.0, nil))
	assert.Equal(t, []interface{}{nil, 2.0, 2.0}, values(out))
}

func TestFillNestedPaths(t *testing.T) {
	f, err := NewFiller(FillerConfig{Method: FillZero}, nil)
	assert.NoError(t, err)

	events := []event.Event{
		event.NewAtMillis(1000, map[string]interface{}{
			"direction": map[string]interface{}{"in": 5.0, "out": nil},
		}),
		event.NewAtMillis(2000, map[string]interface{}{
			"direction": map[string]interface{}{"in": nil, "out": 7.0},
		}),
	}
	out := runAll(t, f, events)
	assert.Equal(t, 5.0, out[0].Value("direction.in"))
	assert.Equal(t, 0.0, out[0].Value("direction.out"))
	assert.Equal(t, 0.0, out[1].Value("direction.in"))
	assert.Equal(t, 7.0, out[1].Value("direction.out"))
}

func TestFillBadPathWarnsOnce(t *testing.T) {
	w := NewWarnings(nil)
	f, err := NewFiller(FillerConfig{FieldSpec: []string{"bad.path"}, Method: FillZero}, w)
	assert.NoError(t, err)

	runAll(t, f, valueEvents(1.0, 2.0, 3.0))
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, WarnBadPath, w.List()[0].Kind)
}

func TestFillLimit(t *testing.T) {
	f, err := NewFiller(FillerConfig{Method: FillZero, Limit: 2}, nil)
	assert.NoError(t, err)

	out := runAll(t, f, valueEvents(1.0, nil, nil, nil, nil, 6.0, nil))
	assert.Equal(t, []interface{}{1.0, 0.0, 0.0, nil, nil, 6.0, 0.0}, values(out))
}

func TestFillLinear(t *testing.T) {
	f, err := NewFiller(FillerConfig{Method: FillLinear}, nil)
	assert.NoError(t, err)
	assert.True(t, f.BoundedOnly())

	out := runAll(t, f, valueEvents(1.0, nil, nil, 3.0))
	assert.Equal(t, []interface{}{1.0, 2.0, 2.5, 3.0}, values(out))
}

func TestFillLinearTrailingGap(t *testing.T) {
	f, err := NewFiller(FillerConfig{Method: FillLinear}, nil)
	assert.NoError(t, err)

	// a gap never closed by a valid value flushes unfilled
	out := runAll(t, f, valueEvents(1.0, nil, nil))
	assert.Equal(t, []interface{}{1.0, nil, nil}, values(out))
}

func TestFillLinearLeadingGap(t *testing.T) {
	f, err := NewFiller(FillerConfig{Method: FillLinear}, nil)
	assert.NoError(t, err)

	// gaps before the first valid value pass through
	out := runAll(t, f, valueEvents(nil, nil, 3.0, nil, 5.0))
	assert.Equal(t, []interface{}{nil, nil, 3.0, 4.0, 5.0}, values(out))
}

func TestFillLinearLimit(t *testing.T) {
	f, err := NewFiller(FillerConfig{Method: FillLinear, Limit: 2}, nil)
	assert.NoError(t, err)

	// the gap exceeds the limit, the run comes back unfilled
	out := runAll(t, f, valueEvents(1.0, nil, nil, nil, 5.0, nil, 7.0))
	assert.Equal(t, []interface{}{1.0, nil, nil, nil, 5.0, 6.0, 7.0}, values(out))
}

func TestFillLinearComposite(t *testing.T) {
	f, err := NewFiller(FillerConfig{FieldSpec: []string{"in", "out"}, Method: FillLinear}, nil)
	assert.NoError(t, err)

	events := []event.Event{
		event.NewAtMillis(1000, map[string]interface{}{"in": 1.0, "out": 10.0}),
		event.NewAtMillis(2000, map[string]interface{}{"in": nil, "out": 20.0}),
		event.NewAtMillis(3000, map[string]interface{}{"in": 3.0, "out": 30.0}),
	}
	out := runAll(t, f, events)
	assert.Len(t, out, 3)
	// only the gap field is interpolated, the valid one keeps its value
	assert.Equal(t, 2.0, out[1].Value("in"))
	assert.Equal(t, 20.0, out[1].Value("out"))
}

func TestFillLinearNonNumeric(t *testing.T) {
	w := NewWarnings(nil)
	f, err := NewFiller(FillerConfig{FieldSpec: []string{"in", "out"}, Method: FillLinear}, w)
	assert.NoError(t, err)

	// a non-numeric value inside a gap abandons interpolation for that
	// path; the other path still fills
	events := []event.Event{
		event.NewAtMillis(1000, map[string]interface{}{"in": 1.0, "out": 10.0}),
		event.NewAtMillis(2000, map[string]interface{}{"in": nil, "out": "bob"}),
		event.NewAtMillis(3000, map[string]interface{}{"in": 3.0, "out": 30.0}),
	}
	out := runAll(t, f, events)
	assert.Len(t, out, 3)
	assert.Equal(t, 2.0, out[1].Value("in"))
	assert.Equal(t, "bob", out[1].Value("out"))
	assert.Equal(t, 1, w.Len())
	assert.Equal(t, WarnNonNumeric, w.List()[0].Kind)
}

func TestFillList(t *testing.T) {
	listEvents := func() []event.Event {
		return []event.Event{event.NewAtMillis(1000, map[string]interface{}{
			"series": []interface{}{1.0, nil, nil, 4.0},
		})}
	}

	t.Run("zero", func(t *testing.T) {
		f, _ := NewFiller(FillerConfig{FieldSpec: []string{"series"}, Method: FillZero}, nil)
		out := runAll(t, f, listEvents())
		assert.Equal(t, []interface{}{1.0, 0.0, 0.0, 4.0}, out[0].Value("series"))
	})

	t.Run("pad", func(t *testing.T) {
		f, _ := NewFiller(FillerConfig{FieldSpec: []string{"series"}, Method: FillPad}, nil)
		out := runAll(t, f, listEvents())
		assert.Equal(t, []interface{}{1.0, 1.0, 1.0, 4.0}, out[0].Value("series"))
	})

	t.Run("linear", func(t *testing.T) {
		f, _ := NewFiller(FillerConfig{FieldSpec: []string{"series"}, Method: FillLinear}, nil)
		out := runAll(t, f, listEvents())
		assert.Equal(t, []interface{}{1.0, 2.5, 3.25, 4.0}, out[0].Value("series"))
	})

	t.Run("linear trailing gap stays", func(t *testing.T) {
		f, _ := NewFiller(FillerConfig{FieldSpec: []string{"series"}, Method: FillLinear}, nil)
		out := runAll(t, f, []event.Event{event.NewAtMillis(1000, map[string]interface{}{
			"series": []interface{}{1.0, nil, 3.0, nil},
		})})
		assert.Equal(t, []interface{}{1.0, 2.0, 3.0, nil}, out[0].Value("series"))
	})
}

func TestFillConfigErrors(t *testing.T) {
	_, err := NewFiller(FillerConfig{Method: FillZero, Limit: -1}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewFiller(FillerConfig{Method: FillMethod(9)}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = NewFiller(FillerConfig{FieldSpec: []string{"a..b"}, Method: FillZero}, nil)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestParseFillMethod(t *testing.T) {
	m, err := ParseFillMethod("linear")
	assert.NoError(t, err)
	assert.Equal(t, FillLinear, m)
	assert.Equal(t, "linear", m.String())

	_, err = ParseFillMethod("bogus")
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
