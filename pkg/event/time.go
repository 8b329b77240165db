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

package event

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pondtools/gopond/pkg/shared/logging"
)

// ErrNaiveTimestamp is returned when a timestamp carries no usable
// location information, which in Go surfaces as the zero time.Time.
var ErrNaiveTimestamp = errors.New("timestamp has no time information")

var nonUTCWarning sync.Once

// SanitizeTime validates t and normalizes it to UTC with millisecond
// precision. All event timestamps pass through here exactly once, at
// construction. Sub-millisecond precision truncates; rounding up could
// move an event across a window boundary.
func SanitizeTime(t time.Time) (time.Time, error) {
	if t.IsZero() {
		return time.Time{}, fmt.Errorf("%w: zero time", ErrNaiveTimestamp)
	}
	if t.Location() != time.UTC {
		nonUTCWarning.Do(func() {
			logging.NewLogger().Named("event").Warnw("non-UTC timestamp normalized to UTC",
				"location", t.Location().String())
		})
	}
	return t.Truncate(time.Millisecond).UTC(), nil
}

// Millis returns t as milliseconds since the Unix epoch, truncated to
// millisecond granularity.
func Millis(t time.Time) int64 {
	return t.Truncate(time.Millisecond).UnixMilli()
}

// FromMillis converts milliseconds since the Unix epoch to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
