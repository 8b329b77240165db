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

	"github.com/pondtools/gopond/pkg/event"
)

// Sink receives the events that fall out of the end of a pipeline.
type Sink interface {
	Collect(ev event.Event) error
}

// CollectionSink gathers everything into one collection, in arrival
// order. A re-emitted aggregate supersedes its previous version even
// when other buckets arrived in between.
type CollectionSink struct {
	groupBy string
	events  []event.Event
	byKey   map[string]int
}

// NewCollectionSink builds an empty collection sink. A group path
// keeps re-emitted aggregates of different groups apart even though
// they share a bucket key; grouped pipelines must pass the same path
// here or their groups overwrite each other.
func NewCollectionSink(groupBy ...string) *CollectionSink {
	s := &CollectionSink{byKey: map[string]int{}}
	if len(groupBy) > 0 {
		s.groupBy = groupBy[0]
	}
	return s
}

func (s *CollectionSink) Collect(ev event.Event) error {
	if ev.Key().Kind() == event.Indexed {
		key := ev.Key().IndexString()
		if s.groupBy != "" {
			group := "all"
			if v, ok := ev.Get(s.groupBy); ok && event.IsValid(v) {
				group = fmt.Sprintf("%v", v)
			}
			key = key + "--" + group
		}
		if i, ok := s.byKey[key]; ok {
			s.events[i] = ev
			return nil
		}
		s.byKey[key] = len(s.events)
	}
	s.events = append(s.events, ev)
	return nil
}

// Result returns the collected events.
func (s *CollectionSink) Result() event.Collection {
	return event.NewCollection(s.events...)
}

// KeyedSink partitions arrivals into collections keyed by bucket and
// optional group, the way windowed results are usually consumed. Keys
// look like "1d-16314" or "1d-16314--a" with grouping.
type KeyedSink struct {
	groupBy string
	byKey   map[string][]event.Event
	order   []string
}

// NewKeyedSink builds a keyed sink grouping by the value at the given
// path; an empty path keys by bucket alone.
func NewKeyedSink(groupBy string) *KeyedSink {
	return &KeyedSink{groupBy: groupBy, byKey: map[string][]event.Event{}}
}

func (s *KeyedSink) Collect(ev event.Event) error {
	key := ev.Key().String()
	if ev.Key().Kind() == event.Indexed {
		key = ev.Key().IndexString()
	}
	if s.groupBy != "" {
		group := "all"
		if v, ok := ev.Get(s.groupBy); ok && event.IsValid(v) {
			group = fmt.Sprintf("%v", v)
		}
		key = key + "--" + group
	}
	list := s.byKey[key]
	if n := len(list); n > 0 && list[n-1].Key() == ev.Key() {
		// a re-emitted aggregate supersedes its previous version
		list[n-1] = ev
		return nil
	}
	if list == nil {
		s.order = append(s.order, key)
	}
	s.byKey[key] = append(list, ev)
	return nil
}

// Keys returns the sink keys in first-seen order.
func (s *KeyedSink) Keys() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Result returns the collection gathered under key.
func (s *KeyedSink) Result(key string) (event.Collection, bool) {
	list, ok := s.byKey[key]
	if !ok {
		return event.Collection{}, false
	}
	return event.NewCollection(list...), true
}

// FuncSink adapts a callback into a Sink.
type FuncSink func(ev event.Event) error

func (f FuncSink) Collect(ev event.Event) error { return f(ev) }

// EventSink gathers raw events in arrival order.
type EventSink struct {
	events []event.Event
}

// NewEventSink builds an empty event sink.
func NewEventSink() *EventSink {
	return &EventSink{}
}

func (s *EventSink) Collect(ev event.Event) error {
	s.events = append(s.events, ev)
	return nil
}

// Events returns the collected events.
func (s *EventSink) Events() []event.Event {
	out := make([]event.Event, len(s.events))
	copy(out, s.events)
	return out
}
