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

// Filter drops events the predicate rejects.
type Filter struct {
	fn func(event.Event) bool
}

// NewFilter builds a Filter from a predicate.
func NewFilter(fn func(event.Event) bool) (*Filter, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: filter needs a predicate", ErrInvalidConfiguration)
	}
	return &Filter{fn: fn}, nil
}

func (f *Filter) Name() string { return "filter" }

func (f *Filter) ProcessEvent(ev event.Event) ([]event.Event, error) {
	if !f.fn(ev) {
		return nil, nil
	}
	return []event.Event{ev}, nil
}

func (f *Filter) Flush() ([]event.Event, error) {
	return nil, nil
}

// Mapper applies a pure transformation to every event.
type Mapper struct {
	fn func(event.Event) event.Event
}

// NewMapper builds a Mapper from a transformation.
func NewMapper(fn func(event.Event) event.Event) (*Mapper, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: mapper needs a function", ErrInvalidConfiguration)
	}
	return &Mapper{fn: fn}, nil
}

func (m *Mapper) Name() string { return "mapper" }

func (m *Mapper) ProcessEvent(ev event.Event) ([]event.Event, error) {
	return []event.Event{m.fn(ev)}, nil
}

func (m *Mapper) Flush() ([]event.Event, error) {
	return nil, nil
}
