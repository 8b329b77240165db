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
	"fmt"

	"github.com/pondtools/gopond/pkg/event"
)

// FillMethod selects how missing values are replaced.
type FillMethod int8

const (
	// FillZero writes a literal zero over every missing value.
	FillZero FillMethod = iota
	// FillPad repeats the last valid value seen at the same path.
	FillPad
	// FillLinear interpolates between the valid values bracketing a
	// gap. Needs a bounded stream: a gap can only be filled once the
	// next valid value has arrived.
	FillLinear
)

func (m FillMethod) String() string {
	switch m {
	case FillZero:
		return "zero"
	case FillPad:
		return "pad"
	case FillLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// ParseFillMethod maps the wire names "zero", "pad" and "linear".
func ParseFillMethod(s string) (FillMethod, error) {
	switch s {
	case "zero":
		return FillZero, nil
	case "pad":
		return FillPad, nil
	case "linear":
		return FillLinear, nil
	default:
		return 0, fmt.Errorf("%w: unknown fill method %q", ErrInvalidConfiguration, s)
	}
}

// FillerConfig configures a Filler.
type FillerConfig struct {
	// FieldSpec lists the dotted paths to fill. Empty fills every leaf
	// path of each event.
	FieldSpec []string
	Method    FillMethod
	// Limit caps the number of consecutive missing values filled at a
	// path. Zero means no cap. For linear fill a longer gap is emitted
	// unfilled; limiting is policy, not an error.
	Limit int
}

// Filler replaces missing values in the configured fields. A value is
// missing when it is nil, NaN or the empty string. List-valued fields
// are filled within the list.
type Filler struct {
	method   FillMethod
	limit    int
	spec     [][]string // nil when filling all leaf paths
	names    []string   // joined path per spec slot, resolved once
	warnings *Warnings

	// pad/zero state; run counters live in slots resolved at
	// construction for a declared spec, lazily otherwise
	prev      *event.Event
	slotOf    map[string]int
	fillCount []int
	filled    int

	// linear state
	lastGood *event.Event
	cache    []event.Event

	// paths found to hold lists, excluded from scalar interpolation
	filledLists map[string]struct{}
}

// NewFiller builds a Filler. A nil warnings sink discards diagnostics.
func NewFiller(cfg FillerConfig, warnings *Warnings) (*Filler, error) {
	if cfg.Limit < 0 {
		return nil, fmt.Errorf("%w: negative fill limit %d", ErrInvalidConfiguration, cfg.Limit)
	}
	switch cfg.Method {
	case FillZero, FillPad, FillLinear:
	default:
		return nil, fmt.Errorf("%w: unknown fill method %d", ErrInvalidConfiguration, cfg.Method)
	}
	var spec [][]string
	var names []string
	slotOf := map[string]int{}
	var fillCount []int
	if len(cfg.FieldSpec) > 0 {
		parsed, err := event.ParseFieldSpec(cfg.FieldSpec)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		spec = parsed
		names = make([]string, len(parsed))
		fillCount = make([]int, len(parsed))
		for i, fp := range parsed {
			names[i] = event.JoinFieldPath(fp)
			slotOf[names[i]] = i
		}
	}
	if warnings == nil {
		warnings = NewWarnings(nil)
	}
	return &Filler{
		method:      cfg.Method,
		limit:       cfg.Limit,
		spec:        spec,
		names:       names,
		warnings:    warnings,
		slotOf:      slotOf,
		fillCount:   fillCount,
		filledLists: map[string]struct{}{},
	}, nil
}

func (f *Filler) Name() string { return "filler" }

// BoundedOnly reports whether the filler needs the whole stream.
func (f *Filler) BoundedOnly() bool { return f.method == FillLinear }

// Filled is the number of values replaced so far.
func (f *Filler) Filled() int { return f.filled }

// pathsFor resolves the paths to fill for one event: the declared spec
// when there is one, every leaf path of the event otherwise.
func (f *Filler) pathsFor(ev event.Event) ([][]string, []string) {
	if f.spec != nil {
		return f.spec, f.names
	}
	paths := event.LeafPaths(ev.Data())
	names := make([]string, len(paths))
	for i, fp := range paths {
		names[i] = event.JoinFieldPath(fp)
	}
	return paths, names
}

// slot maps a path discovered at runtime onto a run counter.
func (f *Filler) slot(name string) int {
	i, ok := f.slotOf[name]
	if !ok {
		i = len(f.fillCount)
		f.slotOf[name] = i
		f.fillCount = append(f.fillCount, 0)
	}
	return i
}

func (f *Filler) ProcessEvent(ev event.Event) ([]event.Event, error) {
	paths, names := f.pathsFor(ev)
	if f.method == FillLinear {
		return f.linearFill(ev, names), nil
	}
	data := ev.Data()
	f.padAndZero(data, paths, names)
	out := ev.SetData(data)
	f.prev = &out
	return []event.Event{out}, nil
}

// Flush hands back any pending gap unfilled. A gap still open at the
// end of the stream never saw a closing valid value.
func (f *Filler) Flush() ([]event.Event, error) {
	if f.method != FillLinear || len(f.cache) == 0 {
		return nil, nil
	}
	out := f.cache
	f.cache = nil
	f.lastGood = nil
	return out, nil
}

func (f *Filler) padAndZero(data map[string]interface{}, paths [][]string, names []string) {
	for i, fp := range paths {
		name := names[i]
		slot := i
		if f.spec == nil {
			slot = f.slot(name)
		}
		val, ok := event.GetPath(data, fp)
		if !ok {
			f.warnings.Add(WarnBadPath, name, "path does not exist: "+name)
			continue
		}
		if list, isList := val.([]interface{}); isList {
			f.filledLists[name] = struct{}{}
			f.fillList(list)
			continue
		}
		if event.IsValid(val) {
			f.fillCount[slot] = 0
			continue
		}
		if f.limit > 0 && f.fillCount[slot] >= f.limit {
			continue
		}
		switch f.method {
		case FillZero:
			event.SetPath(data, fp, 0.0)
			f.fillCount[slot]++
			f.filled++
		case FillPad:
			if f.prev == nil {
				continue
			}
			if pv, ok := f.prev.Get(name); ok && event.IsValid(pv) {
				event.SetPath(data, fp, pv)
				f.fillCount[slot]++
				f.filled++
			}
		}
	}
}

// fillList fills missing positions inside a list value in place. Fill
// limits do not apply within lists.
func (f *Filler) fillList(list []interface{}) {
	for i, v := range list {
		if f.method == FillLinear && event.IsValid(v) {
			if _, numeric := event.Float(v); !numeric {
				f.warnings.Add(WarnNonNumeric, "list",
					"linear fill requires numeric values, skipping list")
				return
			}
		}
		if event.IsValid(v) {
			continue
		}
		switch f.method {
		case FillZero:
			list[i] = 0.0
			f.filled++
		case FillPad:
			if i > 0 && event.IsValid(list[i-1]) {
				list[i] = list[i-1]
				f.filled++
			}
		case FillLinear:
			var prev, next *float64
			if i > 0 && event.IsValid(list[i-1]) {
				if pf, ok := event.Float(list[i-1]); ok {
					prev = &pf
				}
			}
			for j := i + 1; j < len(list); j++ {
				if event.IsValid(list[j]) {
					if nf, ok := event.Float(list[j]); ok {
						next = &nf
					}
					break
				}
			}
			if prev != nil && next != nil {
				list[i] = (*prev + *next) / 2
				f.filled++
			}
			if next == nil {
				// nothing valid ahead, the rest stays unfilled
				return
			}
		}
	}
}

// isValidLinearEvent checks composite validity: the event is good only
// when every configured path holds a valid value. List paths are noted
// for in-list filling and do not affect validity.
func (f *Filler) isValidLinearEvent(ev event.Event, names []string) bool {
	valid := true
	for _, name := range names {
		val, ok := ev.Get(name)
		if !ok {
			f.warnings.Add(WarnBadPath, name, "path does not exist: "+name)
			continue
		}
		if _, isList := val.([]interface{}); isList {
			f.filledLists[name] = struct{}{}
			continue
		}
		if !event.IsValid(val) {
			valid = false
		}
	}
	return valid
}

func (f *Filler) linearFill(ev event.Event, names []string) []event.Event {
	valid := f.isValidLinearEvent(ev, names)

	// list filling happens on every event regardless of validity
	if len(f.filledLists) > 0 {
		data := ev.Data()
		for name := range f.filledLists {
			fp, err := event.ParseFieldPath(name)
			if err != nil {
				continue
			}
			if v, ok := event.GetPath(data, fp); ok {
				if list, isList := v.([]interface{}); isList {
					f.fillList(list)
				}
			}
		}
		ev = ev.SetData(data)
	}

	switch {
	case valid && len(f.cache) == 0:
		f.lastGood = &ev
		return []event.Event{ev}
	case !valid && f.lastGood == nil:
		// nothing to fill from yet, pass it through
		return []event.Event{ev}
	case !valid:
		if f.limit > 0 && len(f.cache) >= f.limit {
			// the gap exceeded the limit, give up on this run
			out := append(f.cache, ev)
			f.cache = nil
			f.lastGood = nil
			return out
		}
		f.cache = append(f.cache, ev)
		return nil
	default:
		// a valid event closes the pending gap
		run := make([]event.Event, 0, len(f.cache)+2)
		run = append(run, *f.lastGood)
		run = append(run, f.cache...)
		run = append(run, ev)
		filled := f.interpolate(run, names)
		f.cache = nil
		f.lastGood = &ev
		// the first event of the run was already emitted
		return filled[1:]
	}
}

// interpolate fills the interior of a run whose first and last events
// are valid. Each filled value is the average of the value before it,
// filled values included, and the next valid value ahead.
func (f *Filler) interpolate(run []event.Event, names []string) []event.Event {
	base := run
	for _, name := range names {
		if _, isList := f.filledLists[name]; isList {
			continue
		}
		next := make([]event.Event, 0, len(base))
		seekForward := true
		abandon := false
		for i, ev := range base {
			if i == 0 || i == len(base)-1 {
				next = append(next, ev)
				continue
			}
			v, _ := ev.Get(name)
			if event.IsValid(v) {
				if _, numeric := event.Float(v); !numeric {
					f.warnings.Add(WarnNonNumeric, name,
						"linear fill requires numeric values, skipping "+name)
					abandon = true
					break
				}
				next = append(next, ev)
				continue
			}
			prevVal, prevOK := event.Float(next[i-1].Value(name))
			var nextVal float64
			nextOK := false
			if seekForward {
				for j := i + 1; j < len(base); j++ {
					cand, _ := base[j].Get(name)
					if event.IsValid(cand) {
						nextVal, nextOK = event.Float(cand)
						break
					}
				}
			}
			if prevOK && nextOK {
				next = append(next, ev.Set(name, (prevVal+nextVal)/2))
				f.filled++
			} else {
				next = append(next, ev)
				if !nextOK {
					seekForward = false
				}
			}
		}
		if !abandon {
			base = next
		}
	}
	return base
}
