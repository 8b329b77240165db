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

// Selector keeps only the configured field paths of each event.
type Selector struct {
	paths []string
}

// NewSelector builds a Selector over the given dotted paths.
func NewSelector(paths ...string) (*Selector, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: selector needs at least one field", ErrInvalidConfiguration)
	}
	if _, err := event.ParseFieldSpec(paths); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	return &Selector{paths: paths}, nil
}

func (s *Selector) Name() string { return "selector" }

func (s *Selector) ProcessEvent(ev event.Event) ([]event.Event, error) {
	return []event.Event{ev.Select(s.paths...)}, nil
}

func (s *Selector) Flush() ([]event.Event, error) {
	return nil, nil
}
