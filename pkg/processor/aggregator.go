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

	"github.com/pondtools/gopond/pkg/aggregate"
	"github.com/pondtools/gopond/pkg/event"
)

// Aggregation maps one source field through a reducer into one output
// field of the aggregate event.
type Aggregation struct {
	// Output is the field written on the aggregate event.
	Output string
	// Field is the source path sampled from each event in the bucket.
	// Empty samples the default "value" field.
	Field string
	// Func reduces the sampled values.
	Func aggregate.Func
	// Filter decides how missing samples feed the reducer. Nil ignores
	// them.
	Filter aggregate.Filter
}

// AggregatorConfig configures an Aggregator.
type AggregatorConfig struct {
	Window WindowSpec
	// GroupBy partitions each window bucket by the value at this path.
	GroupBy string
	EmitOn  EmitOn
	// Aggregations must name at least one output.
	Aggregations []Aggregation
}

type windowBucket struct {
	window string
	group  string
	events []event.Event
}

// Aggregator buckets events by window and optional group, reduces each
// bucket's fields, and emits one indexed event per bucket. When the
// emit trigger is eachEvent the running result is re-emitted as the
// bucket grows; downstream keyed sinks collapse the repeats.
type Aggregator struct {
	cfg      AggregatorConfig
	warnings *Warnings

	buckets map[string]*windowBucket
	order   []string
}

// NewAggregator builds an Aggregator. A nil warnings sink discards
// diagnostics.
func NewAggregator(cfg AggregatorConfig, warnings *Warnings) (*Aggregator, error) {
	if err := cfg.Window.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Aggregations) == 0 {
		return nil, fmt.Errorf("%w: no aggregations configured", ErrInvalidConfiguration)
	}
	for i, agg := range cfg.Aggregations {
		if agg.Output == "" {
			return nil, fmt.Errorf("%w: aggregation %d has no output field", ErrInvalidConfiguration, i)
		}
		if agg.Func == nil {
			return nil, fmt.Errorf("%w: aggregation %q has no function", ErrInvalidConfiguration, agg.Output)
		}
	}
	switch cfg.EmitOn {
	case EmitEachEvent, EmitOnDiscard, EmitOnFlush:
	default:
		return nil, fmt.Errorf("%w: unknown emit trigger %d", ErrInvalidConfiguration, cfg.EmitOn)
	}
	if cfg.GroupBy != "" {
		if _, err := event.ParseFieldPath(cfg.GroupBy); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	}
	if warnings == nil {
		warnings = NewWarnings(nil)
	}
	return &Aggregator{
		cfg:      cfg,
		warnings: warnings,
		buckets:  map[string]*windowBucket{},
	}, nil
}

func (a *Aggregator) Name() string { return "aggregator" }

func (a *Aggregator) ProcessEvent(ev event.Event) ([]event.Event, error) {
	window, err := a.cfg.Window.BucketOf(ev.Timestamp())
	if err != nil {
		return nil, err
	}
	group := a.groupOf(ev)
	key := window + "::" + group

	var out []event.Event
	b, ok := a.buckets[key]
	if !ok {
		if a.cfg.EmitOn == EmitOnDiscard {
			closed, err := a.closeOthers(window)
			if err != nil {
				return nil, err
			}
			out = append(out, closed...)
		}
		b = &windowBucket{window: window, group: group}
		a.buckets[key] = b
		a.order = append(a.order, key)
	}
	b.events = append(b.events, ev)

	if a.cfg.EmitOn == EmitEachEvent {
		agg, err := a.aggregateBucket(b)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	return out, nil
}

// Flush emits every bucket still open, in the order they opened.
func (a *Aggregator) Flush() ([]event.Event, error) {
	out := make([]event.Event, 0, len(a.order))
	for _, key := range a.order {
		agg, err := a.aggregateBucket(a.buckets[key])
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
	}
	a.buckets = map[string]*windowBucket{}
	a.order = nil
	return out, nil
}

// closeOthers emits and drops every bucket not in the given window.
func (a *Aggregator) closeOthers(window string) ([]event.Event, error) {
	var out []event.Event
	var keep []string
	for _, key := range a.order {
		b := a.buckets[key]
		if b.window == window {
			keep = append(keep, key)
			continue
		}
		agg, err := a.aggregateBucket(b)
		if err != nil {
			return nil, err
		}
		out = append(out, agg)
		delete(a.buckets, key)
	}
	a.order = keep
	return out, nil
}

func (a *Aggregator) groupOf(ev event.Event) string {
	if a.cfg.GroupBy == "" {
		return "all"
	}
	v, ok := ev.Get(a.cfg.GroupBy)
	if !ok || !event.IsValid(v) {
		return "all"
	}
	return fmt.Sprintf("%v", v)
}

func (a *Aggregator) aggregateBucket(b *windowBucket) (event.Event, error) {
	data := map[string]interface{}{}
	for _, agg := range a.cfg.Aggregations {
		field := agg.Field
		if field == "" {
			field = event.DefaultField
		}
		outPath, err := event.ParseFieldPath(agg.Output)
		if err != nil {
			return event.Event{}, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
		samples := make([]aggregate.Sample, 0, len(b.events))
		for _, ev := range b.events {
			v, ok := ev.Get(field)
			if !ok || !event.IsValid(v) {
				samples = append(samples, aggregate.Sample{})
				continue
			}
			f, numeric := event.Float(v)
			if !numeric {
				a.warnings.Add(WarnNonNumeric, field, "aggregation requires numeric values at "+field)
				samples = append(samples, aggregate.Sample{})
				continue
			}
			samples = append(samples, aggregate.Sample{V: f, OK: true})
		}
		if v, ok := aggregate.Apply(agg.Func, agg.Filter, samples); ok {
			event.SetPath(data, outPath, v)
		} else {
			event.SetPath(data, outPath, nil)
		}
	}

	if a.cfg.GroupBy != "" && len(b.events) > 0 {
		if gp, err := event.ParseFieldPath(a.cfg.GroupBy); err == nil {
			if v, ok := b.events[0].Get(a.cfg.GroupBy); ok {
				event.SetPath(data, gp, v)
			}
		}
	}

	if b.window == "global" {
		coll := event.NewCollection(b.events...)
		tr, ok := coll.Range()
		if !ok {
			return event.Event{}, fmt.Errorf("%w: empty global bucket", event.ErrUnresolvedBucket)
		}
		return event.NewRangeEvent(tr, data), nil
	}

	utc := true
	if a.cfg.Window.Kind != WindowFixed {
		utc = a.cfg.Window.UTC
	}
	idx, err := event.ParseIndex(b.window, utc)
	if err != nil {
		return event.Event{}, err
	}
	return event.NewIndexedEvent(idx, data), nil
}
