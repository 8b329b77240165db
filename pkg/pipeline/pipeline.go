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

// Package pipeline runs chains of processors over event streams. A
// pipeline is compiled once from an immutable builder, pushed events
// synchronously, and flushed exactly once at end of stream.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/pondtools/gopond/pkg/event"
	"github.com/pondtools/gopond/pkg/processor"
)

// ErrStopped is returned when events are pushed into a pipeline that
// has already flushed.
var ErrStopped = errors.New("pipeline is stopped")

// State is the lifecycle phase of a pipeline.
type State int8

const (
	// Idle pipelines have not seen an event yet.
	Idle State = iota
	// Streaming pipelines are accepting events.
	Streaming
	// Flushing pipelines are draining held state downstream.
	Flushing
	// Stopped pipelines are done and reject further events.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Streaming:
		return "Streaming"
	case Flushing:
		return "Flushing"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Pipeline is a compiled chain of processors ending in a sink. Events
// propagate depth first: everything a stage emits runs through the
// rest of the chain before the stage sees its next input. A pipeline
// is single-streamed; it is not safe for concurrent Process calls.
type Pipeline struct {
	id     string
	name   string
	stages []processor.Processor
	sink   Sink

	state       State
	boundedOnly bool
	warnings    *processor.Warnings
	eventsIn    *atomic.Int64
	eventsOut   *atomic.Int64
	logger      *zap.SugaredLogger
}

// ID is the unique id of this pipeline instance.
func (p *Pipeline) ID() string { return p.id }

// Name is the configured pipeline name.
func (p *Pipeline) Name() string { return p.name }

// State returns the lifecycle phase.
func (p *Pipeline) State() State { return p.state }

// EventsIn is the number of events pushed so far.
func (p *Pipeline) EventsIn() int64 { return p.eventsIn.Load() }

// EventsOut is the number of events the sink has received so far.
func (p *Pipeline) EventsOut() int64 { return p.eventsOut.Load() }

// Warnings returns the diagnostics recorded so far.
func (p *Pipeline) Warnings() []processor.Warning { return p.warnings.List() }

// Process pushes one event through the chain.
func (p *Pipeline) Process(ctx context.Context, ev event.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch p.state {
	case Stopped, Flushing:
		return fmt.Errorf("%w: cannot process in state %s", ErrStopped, p.state)
	case Idle:
		p.state = Streaming
		p.logger.Debugw("pipeline streaming")
	}
	p.eventsIn.Inc()
	eventsRead.WithLabelValues(p.name).Inc()
	return p.push(0, ev)
}

// Flush drains every stage in order and stops the pipeline. What a
// stage emits during its flush still runs through the stages after it.
// Errors from later stages do not stop earlier ones from draining;
// they are collected and returned together.
func (p *Pipeline) Flush(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.state == Stopped {
		return fmt.Errorf("%w: already flushed", ErrStopped)
	}
	p.state = Flushing
	var errs error
	for i, stage := range p.stages {
		outs, err := stage.Flush()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("flushing %s: %w", stage.Name(), err))
			continue
		}
		for _, out := range outs {
			if err := p.push(i+1, out); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	p.state = Stopped
	warningsTotal.WithLabelValues(p.name).Add(float64(p.warnings.Len()))
	for _, stage := range p.stages {
		if d, ok := stage.(interface{ Dropped() int }); ok {
			eventsDropped.WithLabelValues(p.name).Add(float64(d.Dropped()))
		}
		if f, ok := stage.(interface{ Filled() int }); ok {
			valuesFilled.WithLabelValues(p.name).Add(float64(f.Filled()))
		}
	}
	p.logger.Debugw("pipeline stopped",
		"eventsIn", p.eventsIn.Load(), "eventsOut", p.eventsOut.Load(),
		"warnings", p.warnings.Len())
	return errs
}

// Run streams a source through the pipeline and flushes at end of
// stream.
func (p *Pipeline) Run(ctx context.Context, src Source) error {
	if !src.Bounded() && p.boundedOnly {
		return fmt.Errorf("%w: a stage requires a bounded source", processor.ErrInvalidConfiguration)
	}
	if err := src.Stream(ctx, func(ev event.Event) error {
		return p.Process(ctx, ev)
	}); err != nil {
		return err
	}
	return p.Flush(ctx)
}

func (p *Pipeline) push(i int, ev event.Event) error {
	if i == len(p.stages) {
		p.eventsOut.Inc()
		eventsEmitted.WithLabelValues(p.name).Inc()
		return p.sink.Collect(ev)
	}
	outs, err := p.stages[i].ProcessEvent(ev)
	if err != nil {
		return fmt.Errorf("%s: %w", p.stages[i].Name(), err)
	}
	for _, out := range outs {
		if err := p.push(i+1, out); err != nil {
			return err
		}
	}
	return nil
}
