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
	"context"

	"github.com/pondtools/gopond/pkg/pipeline"
	"github.com/pondtools/gopond/pkg/processor"
)

// run streams the series through a built pipeline and wraps the result.
func (ts *TimeSeries) run(b pipeline.Builder) (*TimeSeries, error) {
	sink := pipeline.NewCollectionSink()
	p, err := b.To(sink).Build()
	if err != nil {
		return nil, err
	}
	if err := p.Run(context.Background(), pipeline.NewCollectionSource(ts.coll)); err != nil {
		return nil, err
	}
	out := ts.withCollection(sink.Result())
	out.warnings = p.Warnings()
	return out, nil
}

// Fill returns the series with missing values replaced. Linear fills
// over several fields run one filler per field, chained, so a gap in
// one field does not hold up the others.
func (ts *TimeSeries) Fill(cfg processor.FillerConfig) (*TimeSeries, error) {
	b := pipeline.New(ts.name)
	if cfg.Method == processor.FillLinear && len(cfg.FieldSpec) > 1 {
		for _, path := range cfg.FieldSpec {
			single := cfg
			single.FieldSpec = []string{path}
			b = b.Fill(single)
		}
	} else {
		b = b.Fill(cfg)
	}
	return ts.run(b)
}

// Align returns the series snapped onto regular window boundaries.
func (ts *TimeSeries) Align(cfg processor.AlignerConfig) (*TimeSeries, error) {
	return ts.run(pipeline.New(ts.name).Align(cfg))
}

// Rate returns the per-second differences between consecutive events.
func (ts *TimeSeries) Rate(cfg processor.RateConfig) (*TimeSeries, error) {
	return ts.run(pipeline.New(ts.name).Rate(cfg))
}

// Collapse folds several columns of every event into one.
func (ts *TimeSeries) Collapse(cfg processor.CollapserConfig) (*TimeSeries, error) {
	return ts.run(pipeline.New(ts.name).Collapse(cfg))
}

// Select keeps only the listed columns of every event.
func (ts *TimeSeries) Select(paths ...string) (*TimeSeries, error) {
	return ts.run(pipeline.New(ts.name).Select(paths...))
}

func (ts *TimeSeries) rollup(w processor.WindowSpec, aggs []processor.Aggregation) (*TimeSeries, error) {
	b := pipeline.New(ts.name).
		WindowBy(w).
		EmitOn(processor.EmitOnFlush).
		Aggregate(aggs...)
	return ts.run(b)
}

// FixedWindowRollup reduces the series into indexed events, one per
// fixed-duration bucket such as "5m" or "1d". Bucket boundaries are
// always UTC.
func (ts *TimeSeries) FixedWindowRollup(window string, aggs ...processor.Aggregation) (*TimeSeries, error) {
	w := processor.FixedWindow(window)
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return ts.rollup(w, aggs)
}

// DailyRollup reduces the series into one indexed event per calendar
// day.
func (ts *TimeSeries) DailyRollup(utc bool, aggs ...processor.Aggregation) (*TimeSeries, error) {
	return ts.rollup(processor.DailyWindow(utc), aggs)
}

// MonthlyRollup reduces the series into one indexed event per calendar
// month.
func (ts *TimeSeries) MonthlyRollup(utc bool, aggs ...processor.Aggregation) (*TimeSeries, error) {
	return ts.rollup(processor.MonthlyWindow(utc), aggs)
}

// YearlyRollup reduces the series into one indexed event per calendar
// year.
func (ts *TimeSeries) YearlyRollup(utc bool, aggs ...processor.Aggregation) (*TimeSeries, error) {
	return ts.rollup(processor.YearlyWindow(utc), aggs)
}
