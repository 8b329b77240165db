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

// CollapserConfig configures a Collapser.
type CollapserConfig struct {
	// FieldSpec lists the dotted paths feeding the reduction.
	FieldSpec []string
	// Output is the field the reduced value is written to.
	Output string
	// Func reduces the values, e.g. aggregate.Sum.
	Func aggregate.Func
	// Keep retains the source fields alongside the output.
	Keep bool
}

// Collapser folds several fields of each event into one output field.
type Collapser struct {
	cfg CollapserConfig
}

// NewCollapser builds a Collapser.
func NewCollapser(cfg CollapserConfig) (*Collapser, error) {
	if len(cfg.FieldSpec) == 0 {
		return nil, fmt.Errorf("%w: collapser needs at least one field", ErrInvalidConfiguration)
	}
	if _, err := event.ParseFieldSpec(cfg.FieldSpec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	if cfg.Output == "" {
		return nil, fmt.Errorf("%w: collapser needs an output field", ErrInvalidConfiguration)
	}
	if cfg.Func == nil {
		return nil, fmt.Errorf("%w: collapser needs a function", ErrInvalidConfiguration)
	}
	return &Collapser{cfg: cfg}, nil
}

func (c *Collapser) Name() string { return "collapser" }

func (c *Collapser) ProcessEvent(ev event.Event) ([]event.Event, error) {
	out, err := ev.Collapse(c.cfg.FieldSpec, c.cfg.Output, c.cfg.Func, c.cfg.Keep)
	if err != nil {
		return nil, err
	}
	return []event.Event{out}, nil
}

func (c *Collapser) Flush() ([]event.Event, error) {
	return nil, nil
}
