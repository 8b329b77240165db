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

// Offset adds a constant to the configured numeric fields. Handy as a
// trivial stage when exercising pipelines.
type Offset struct {
	by       float64
	spec     [][]string
	warnings *Warnings
}

// NewOffset builds an Offset over the given dotted paths. Empty paths
// offset the default "value" field. A nil warnings sink discards
// diagnostics.
func NewOffset(by float64, paths []string, warnings *Warnings) (*Offset, error) {
	spec, err := event.ParseFieldSpec(paths)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if warnings == nil {
		warnings = NewWarnings(nil)
	}
	return &Offset{by: by, spec: spec, warnings: warnings}, nil
}

func (o *Offset) Name() string { return "offset" }

func (o *Offset) ProcessEvent(ev event.Event) ([]event.Event, error) {
	out := ev
	for _, fp := range o.spec {
		name := event.JoinFieldPath(fp)
		v, ok := out.Get(name)
		if !ok || !event.IsValid(v) {
			continue
		}
		f, numeric := event.Float(v)
		if !numeric {
			o.warnings.Add(WarnNonNumeric, name, "offset requires numeric values at "+name)
			continue
		}
		out = out.Set(name, f+o.by)
	}
	return []event.Event{out}, nil
}

func (o *Offset) Flush() ([]event.Event, error) {
	return nil, nil
}
