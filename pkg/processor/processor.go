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

// Package processor implements the event transformations a pipeline
// chains together: filling, aligning, rates, windowed aggregation and
// the smaller structural stages.
package processor

import (
	"errors"

	"github.com/pondtools/gopond/pkg/event"
)

// ErrInvalidConfiguration is returned when a processor is constructed
// with options it cannot run with. It is always fatal.
var ErrInvalidConfiguration = errors.New("invalid processor configuration")

// Processor transforms a stream of events. ProcessEvent may emit zero,
// one or many events for each input. Flush emits whatever the
// processor is still holding when the stream ends.
type Processor interface {
	Name() string
	ProcessEvent(ev event.Event) ([]event.Event, error)
	Flush() ([]event.Event, error)
}

// BoundedOnly is implemented by processors that must see the whole
// stream to be correct, and so cannot run on an unbounded source.
type BoundedOnly interface {
	BoundedOnly() bool
}
