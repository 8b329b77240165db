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
	"context"
	"fmt"

	"github.com/pondtools/gopond/pkg/event"
	"github.com/pondtools/gopond/pkg/processor"
)

// Source feeds events into a pipeline. Bounded sources end on their
// own; unbounded ones end when their feed closes or the context is
// canceled.
type Source interface {
	Bounded() bool
	Stream(ctx context.Context, emit func(event.Event) error) error
}

// CollectionSource streams an in-memory collection. The stream must be
// homogeneous: every event carries the same key kind.
type CollectionSource struct {
	coll event.Collection
}

// NewCollectionSource builds a bounded source over coll.
func NewCollectionSource(coll event.Collection) *CollectionSource {
	return &CollectionSource{coll: coll}
}

func (s *CollectionSource) Bounded() bool { return true }

func (s *CollectionSource) Stream(ctx context.Context, emit func(event.Event) error) error {
	var kind event.KeyKind
	for i, ev := range s.coll.Events() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i == 0 {
			kind = ev.Key().Kind()
		} else if ev.Key().Kind() != kind {
			return fmt.Errorf("%w: mixed key kinds in source, %s then %s",
				processor.ErrInvalidConfiguration, kind, ev.Key().Kind())
		}
		if err := emit(ev); err != nil {
			return err
		}
	}
	return nil
}

// ChannelSource streams events from a channel until it closes or the
// context is canceled.
type ChannelSource struct {
	ch <-chan event.Event
}

// NewChannelSource builds an unbounded source over ch.
func NewChannelSource(ch <-chan event.Event) *ChannelSource {
	return &ChannelSource{ch: ch}
}

func (s *ChannelSource) Bounded() bool { return false }

func (s *ChannelSource) Stream(ctx context.Context, emit func(event.Event) error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-s.ch:
			if !ok {
				return nil
			}
			if err := emit(ev); err != nil {
				return err
			}
		}
	}
}
