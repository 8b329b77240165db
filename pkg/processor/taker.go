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

// TakerConfig configures a Taker.
type TakerConfig struct {
	// Limit is the number of events passed per bucket and group.
	Limit int
	// Window buckets the count. The zero value counts globally.
	Window WindowSpec
	// GroupBy partitions each bucket by the value at this path.
	GroupBy string
}

// Taker passes at most Limit events per window bucket and group and
// silently drops the rest. Exceeding the limit is policy, never an
// error.
type Taker struct {
	cfg     TakerConfig
	counts  map[string]int
	dropped int
}

// NewTaker builds a Taker.
func NewTaker(cfg TakerConfig) (*Taker, error) {
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("%w: take limit must be positive, got %d", ErrInvalidConfiguration, cfg.Limit)
	}
	if err := cfg.Window.Validate(); err != nil {
		return nil, err
	}
	if cfg.GroupBy != "" {
		if _, err := event.ParseFieldPath(cfg.GroupBy); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
		}
	}
	return &Taker{cfg: cfg, counts: map[string]int{}}, nil
}

func (t *Taker) Name() string { return "taker" }

// Dropped is the number of events dropped so far.
func (t *Taker) Dropped() int { return t.dropped }

func (t *Taker) ProcessEvent(ev event.Event) ([]event.Event, error) {
	window, err := t.cfg.Window.BucketOf(ev.Timestamp())
	if err != nil {
		return nil, err
	}
	group := "all"
	if t.cfg.GroupBy != "" {
		if v, ok := ev.Get(t.cfg.GroupBy); ok && event.IsValid(v) {
			group = fmt.Sprintf("%v", v)
		}
	}
	key := window + "::" + group
	if t.counts[key] >= t.cfg.Limit {
		t.dropped++
		return nil, nil
	}
	t.counts[key]++
	return []event.Event{ev}, nil
}

func (t *Taker) Flush() ([]event.Event, error) {
	return nil, nil
}
