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

package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/pondtools/gopond/pkg/event"
	"github.com/pondtools/gopond/pkg/processor"
	"github.com/pondtools/gopond/pkg/shared/logging"
)

// stageDef is an immutable stage descriptor. The processor itself is
// only constructed at Build time, so a Builder can be reused and every
// Build gets fresh stage state.
type stageDef struct {
	kind  string
	build func(w *processor.Warnings) (processor.Processor, error)
}

// Builder assembles a pipeline. Builders are values: every method
// returns a new Builder and the receiver is never changed, so partial
// chains can be shared and extended independently.
//
// WindowBy, GroupBy and EmitOn set the windowing context picked up by
// the Aggregate and Take stages that follow them.
type Builder struct {
	name    string
	stages  []stageDef
	window  processor.WindowSpec
	groupBy string
	emitOn  processor.EmitOn
	sink    Sink
}

// New starts a named pipeline. The initial windowing context is a
// global window emitting on each event.
func New(name string) Builder {
	return Builder{name: name, window: processor.GlobalWindow()}
}

func (b Builder) clone() Builder {
	out := b
	out.stages = make([]stageDef, len(b.stages), len(b.stages)+1)
	copy(out.stages, b.stages)
	return out
}

func (b Builder) addStage(kind string, build func(w *processor.Warnings) (processor.Processor, error)) Builder {
	out := b.clone()
	out.stages = append(out.stages, stageDef{kind: kind, build: build})
	return out
}

// Filter keeps only events the predicate accepts.
func (b Builder) Filter(fn func(event.Event) bool) Builder {
	return b.addStage("filter", func(*processor.Warnings) (processor.Processor, error) {
		return processor.NewFilter(fn)
	})
}

// Map transforms every event.
func (b Builder) Map(fn func(event.Event) event.Event) Builder {
	return b.addStage("map", func(*processor.Warnings) (processor.Processor, error) {
		return processor.NewMapper(fn)
	})
}

// Fill replaces missing values.
func (b Builder) Fill(cfg processor.FillerConfig) Builder {
	return b.addStage("fill", func(w *processor.Warnings) (processor.Processor, error) {
		return processor.NewFiller(cfg, w)
	})
}

// Align snaps events onto regular window boundaries.
func (b Builder) Align(cfg processor.AlignerConfig) Builder {
	return b.addStage("align", func(w *processor.Warnings) (processor.Processor, error) {
		return processor.NewAligner(cfg, w)
	})
}

// Rate derives per-second rates between consecutive events.
func (b Builder) Rate(cfg processor.RateConfig) Builder {
	return b.addStage("rate", func(w *processor.Warnings) (processor.Processor, error) {
		return processor.NewRate(cfg, w)
	})
}

// Offset adds a constant to the listed fields.
func (b Builder) Offset(by float64, paths ...string) Builder {
	return b.addStage("offset", func(w *processor.Warnings) (processor.Processor, error) {
		return processor.NewOffset(by, paths, w)
	})
}

// Select keeps only the listed fields.
func (b Builder) Select(paths ...string) Builder {
	return b.addStage("select", func(*processor.Warnings) (processor.Processor, error) {
		return processor.NewSelector(paths...)
	})
}

// Collapse folds several fields into one.
func (b Builder) Collapse(cfg processor.CollapserConfig) Builder {
	return b.addStage("collapse", func(*processor.Warnings) (processor.Processor, error) {
		return processor.NewCollapser(cfg)
	})
}

// Dedup collapses consecutive same-key events.
func (b Builder) Dedup(policy processor.DedupPolicy, opts ...processor.DedupOption) Builder {
	return b.addStage("dedup", func(*processor.Warnings) (processor.Processor, error) {
		return processor.NewDeduper(policy, opts...)
	})
}

// Take caps events per bucket of the current windowing context.
func (b Builder) Take(limit int) Builder {
	cfg := processor.TakerConfig{Limit: limit, Window: b.window, GroupBy: b.groupBy}
	return b.addStage("take", func(*processor.Warnings) (processor.Processor, error) {
		return processor.NewTaker(cfg)
	})
}

// WindowBy sets the windowing context for later stages.
func (b Builder) WindowBy(w processor.WindowSpec) Builder {
	out := b.clone()
	out.window = w
	return out
}

// GroupBy sets the grouping field for later stages.
func (b Builder) GroupBy(path string) Builder {
	out := b.clone()
	out.groupBy = path
	return out
}

// EmitOn sets the emission trigger for later stages.
func (b Builder) EmitOn(e processor.EmitOn) Builder {
	out := b.clone()
	out.emitOn = e
	return out
}

// Aggregate reduces the buckets of the current windowing context.
func (b Builder) Aggregate(aggs ...processor.Aggregation) Builder {
	cfg := processor.AggregatorConfig{
		Window:       b.window,
		GroupBy:      b.groupBy,
		EmitOn:       b.emitOn,
		Aggregations: aggs,
	}
	return b.addStage("aggregate", func(w *processor.Warnings) (processor.Processor, error) {
		return processor.NewAggregator(cfg, w)
	})
}

// To terminates the chain with a sink.
func (b Builder) To(sink Sink) Builder {
	out := b.clone()
	out.sink = sink
	return out
}

// Build compiles the chain. Configuration problems surface here, all
// fatal, before any event is processed.
func (b Builder) Build() (*Pipeline, error) {
	if b.sink == nil {
		return nil, fmt.Errorf("%w: pipeline %q has no sink", processor.ErrInvalidConfiguration, b.name)
	}
	id := uuid.NewString()
	logger := logging.NewLogger().Named("pipeline").With("pipeline", b.name, "id", id)
	warnings := processor.NewWarnings(logger)

	stages := make([]processor.Processor, 0, len(b.stages))
	boundedOnly := false
	for _, def := range b.stages {
		stage, err := def.build(warnings)
		if err != nil {
			return nil, fmt.Errorf("building %s stage: %w", def.kind, err)
		}
		if bo, ok := stage.(processor.BoundedOnly); ok && bo.BoundedOnly() {
			boundedOnly = true
		}
		stages = append(stages, stage)
	}
	return &Pipeline{
		id:          id,
		name:        b.name,
		stages:      stages,
		sink:        b.sink,
		state:       Idle,
		boundedOnly: boundedOnly,
		warnings:    warnings,
		eventsIn:    atomic.NewInt64(0),
		eventsOut:   atomic.NewInt64(0),
		logger:      logger,
	}, nil
}
