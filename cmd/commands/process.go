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

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/araddon/dateparse"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"github.com/pondtools/gopond/pkg/aggregate"
	"github.com/pondtools/gopond/pkg/event"
	"github.com/pondtools/gopond/pkg/pipeline"
	"github.com/pondtools/gopond/pkg/processor"
	"github.com/pondtools/gopond/pkg/shared/logging"
	"github.com/pondtools/gopond/pkg/timeseries"
)

// stageSpec is one stage of a declarative pipeline file. Type selects
// the stage; the remaining fields apply to the types that use them.
type stageSpec struct {
	Type string `json:"type"`

	FieldSpec []string `json:"fieldSpec,omitempty"`
	Method    string   `json:"method,omitempty"`
	Limit     int      `json:"limit,omitempty"`

	Window        string  `json:"window,omitempty"`
	AllowNegative bool    `json:"allowNegative,omitempty"`
	By            float64 `json:"by,omitempty"`

	Output string `json:"output,omitempty"`
	Func   string `json:"func,omitempty"`
	Keep   bool   `json:"keep,omitempty"`

	Policy         string `json:"policy,omitempty"`
	ComparePayload bool   `json:"comparePayload,omitempty"`
}

type aggregationSpec struct {
	Output string `json:"output"`
	Field  string `json:"field,omitempty"`
	Func   string `json:"func"`
}

// rollupSpec reduces the stream into window buckets at the end of the
// stage chain.
type rollupSpec struct {
	Window       string            `json:"window"`
	UTC          *bool             `json:"utc,omitempty"`
	GroupBy      string            `json:"groupBy,omitempty"`
	EmitOn       string            `json:"emitOn,omitempty"`
	Aggregations []aggregationSpec `json:"aggregations"`
}

type pipelineSpec struct {
	Name   string      `json:"name"`
	Stages []stageSpec `json:"stages,omitempty"`
	Rollup *rollupSpec `json:"rollup,omitempty"`
}

func NewProcessCommand() *cobra.Command {
	var (
		file     string
		specFile string
		from     string
		to       string
	)

	command := &cobra.Command{
		Use:   "process",
		Short: "Run a timeseries through a pipeline spec",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.NewLogger().Named("process")

			specBytes, err := os.ReadFile(specFile)
			if err != nil {
				return fmt.Errorf("failed to read pipeline spec, %w", err)
			}
			spec := &pipelineSpec{}
			if err := yaml.Unmarshal(specBytes, spec); err != nil {
				return fmt.Errorf("failed to unmarshal pipeline spec, %w", err)
			}

			var wireBytes []byte
			if file == "-" || file == "" {
				wireBytes, err = io.ReadAll(cmd.InOrStdin())
			} else {
				wireBytes, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("failed to read input, %w", err)
			}
			ts, err := timeseries.FromJSON(wireBytes)
			if err != nil {
				return fmt.Errorf("failed to parse input, %w", err)
			}
			log.Infow("Processing timeseries", "name", ts.Name(), "events", ts.Size(), "pipeline", spec.Name)

			b, err := buildPipeline(spec)
			if err != nil {
				return err
			}
			b, err = clipStage(b, from, to)
			if err != nil {
				return err
			}

			var sink *pipeline.CollectionSink
			if spec.Rollup != nil && spec.Rollup.GroupBy != "" {
				sink = pipeline.NewCollectionSink(spec.Rollup.GroupBy)
			} else {
				sink = pipeline.NewCollectionSink()
			}
			p, err := b.To(sink).Build()
			if err != nil {
				return err
			}
			if err := p.Run(context.Background(), pipeline.NewCollectionSource(ts.Collection())); err != nil {
				return err
			}
			for _, w := range p.Warnings() {
				log.Warnw("Pipeline warning", "kind", w.Kind.String(), "subject", w.Subject, "detail", w.Detail)
			}

			name := spec.Name
			if name == "" {
				name = ts.Name()
			}
			out, err := timeseries.New(name, sink.Result()).MarshalJSON()
			if err != nil {
				return err
			}
			cmd.Println(string(out))
			return nil
		},
	}
	command.Flags().StringVar(&file, "file", "-", "Input timeseries JSON file, '-' for stdin")
	command.Flags().StringVar(&specFile, "spec", "", "Pipeline spec YAML file")
	command.Flags().StringVar(&from, "from", "", "Drop events before this time")
	command.Flags().StringVar(&to, "to", "", "Drop events after this time")
	_ = command.MarkFlagRequired("spec")
	return command
}

// clipStage prepends a filter keeping events inside [from, to]. The
// bounds accept most common time formats.
func clipStage(b pipeline.Builder, from, to string) (pipeline.Builder, error) {
	if from == "" && to == "" {
		return b, nil
	}
	var fromMS, toMS int64
	hasFrom, hasTo := from != "", to != ""
	if hasFrom {
		t, err := dateparse.ParseAny(from)
		if err != nil {
			return b, fmt.Errorf("bad --from time %q, %w", from, err)
		}
		fromMS = event.Millis(t)
	}
	if hasTo {
		t, err := dateparse.ParseAny(to)
		if err != nil {
			return b, fmt.Errorf("bad --to time %q, %w", to, err)
		}
		toMS = event.Millis(t)
	}
	return b.Filter(func(ev event.Event) bool {
		ms := ev.Key().BeginMillis()
		if hasFrom && ms < fromMS {
			return false
		}
		if hasTo && ms > toMS {
			return false
		}
		return true
	}), nil
}

func buildPipeline(spec *pipelineSpec) (pipeline.Builder, error) {
	b := pipeline.New(spec.Name)
	for i, st := range spec.Stages {
		var err error
		b, err = addStage(b, st)
		if err != nil {
			return b, fmt.Errorf("stage %d (%s): %w", i, st.Type, err)
		}
	}
	if spec.Rollup != nil {
		var err error
		b, err = addRollup(b, spec.Rollup)
		if err != nil {
			return b, fmt.Errorf("rollup: %w", err)
		}
	}
	return b, nil
}

func addStage(b pipeline.Builder, st stageSpec) (pipeline.Builder, error) {
	switch st.Type {
	case "fill":
		method, err := processor.ParseFillMethod(st.Method)
		if err != nil {
			return b, err
		}
		return b.Fill(processor.FillerConfig{
			FieldSpec: st.FieldSpec,
			Method:    method,
			Limit:     st.Limit,
		}), nil
	case "align":
		method, err := processor.ParseAlignMethod(st.Method)
		if err != nil {
			return b, err
		}
		return b.Align(processor.AlignerConfig{
			FieldSpec: st.FieldSpec,
			Window:    st.Window,
			Method:    method,
			Limit:     st.Limit,
		}), nil
	case "rate":
		return b.Rate(processor.RateConfig{
			FieldSpec:     st.FieldSpec,
			AllowNegative: st.AllowNegative,
		}), nil
	case "offset":
		return b.Offset(st.By, st.FieldSpec...), nil
	case "select":
		return b.Select(st.FieldSpec...), nil
	case "collapse":
		fn, ok := aggregate.Named(st.Func)
		if !ok {
			return b, fmt.Errorf("%w: unknown function %q", processor.ErrInvalidConfiguration, st.Func)
		}
		return b.Collapse(processor.CollapserConfig{
			FieldSpec: st.FieldSpec,
			Output:    st.Output,
			Func:      fn,
			Keep:      st.Keep,
		}), nil
	case "dedup":
		var opts []processor.DedupOption
		if st.ComparePayload {
			opts = append(opts, processor.WithPayloadComparison())
		}
		switch st.Policy {
		case "", "keepLast":
			return b.Dedup(processor.KeepLast, opts...), nil
		case "keepFirst":
			return b.Dedup(processor.KeepFirst, opts...), nil
		case "merge":
			return b.Dedup(processor.MergeFields, opts...), nil
		default:
			return b, fmt.Errorf("%w: unknown dedup policy %q", processor.ErrInvalidConfiguration, st.Policy)
		}
	case "take":
		return b.Take(st.Limit), nil
	default:
		return b, fmt.Errorf("%w: unknown stage type %q", processor.ErrInvalidConfiguration, st.Type)
	}
}

func addRollup(b pipeline.Builder, r *rollupSpec) (pipeline.Builder, error) {
	utc := true
	if r.UTC != nil {
		utc = *r.UTC
	}
	var w processor.WindowSpec
	switch r.Window {
	case "", "global":
		w = processor.GlobalWindow()
	case "daily":
		w = processor.DailyWindow(utc)
	case "monthly":
		w = processor.MonthlyWindow(utc)
	case "yearly":
		w = processor.YearlyWindow(utc)
	default:
		w = processor.FixedWindow(r.Window)
	}
	if err := w.Validate(); err != nil {
		return b, err
	}
	b = b.WindowBy(w)
	if r.GroupBy != "" {
		b = b.GroupBy(r.GroupBy)
	}
	emitOn := processor.EmitOnFlush
	if r.EmitOn != "" {
		var err error
		emitOn, err = processor.ParseEmitOn(r.EmitOn)
		if err != nil {
			return b, err
		}
	}
	b = b.EmitOn(emitOn)

	aggs := make([]processor.Aggregation, 0, len(r.Aggregations))
	for _, a := range r.Aggregations {
		fn, ok := aggregate.Named(a.Func)
		if !ok {
			return b, fmt.Errorf("%w: unknown function %q", processor.ErrInvalidConfiguration, a.Func)
		}
		aggs = append(aggs, processor.Aggregation{
			Output: a.Output,
			Field:  a.Field,
			Func:   fn,
		})
	}
	return b.Aggregate(aggs...), nil
}
