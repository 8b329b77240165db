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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeTime(t *testing.T) {
	_, err := SanitizeTime(time.Time{})
	assert.ErrorIs(t, err, ErrNaiveTimestamp)

	loc := time.FixedZone("EST", -5*3600)
	got, err := SanitizeTime(time.Date(2014, 9, 17, 3, 0, 0, 0, loc))
	assert.NoError(t, err)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 8, got.Hour())

	// sub-millisecond precision truncates, it never rounds up
	got, err = SanitizeTime(time.Date(2014, 9, 17, 3, 0, 0, 600_000, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, time.Duration(0), time.Duration(got.Nanosecond()))

	got, err = SanitizeTime(time.Date(2014, 9, 17, 3, 0, 0, 1_500_000, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, 1*time.Millisecond, time.Duration(got.Nanosecond()))
}

func TestMillisTruncates(t *testing.T) {
	// 1.5ms past the second stays in the earlier millisecond; rounding
	// up could move an event into the next window bucket
	at := time.Date(2014, 9, 17, 8, 0, 0, 1_500_000, time.UTC)
	assert.Equal(t, int64(1410940800001), Millis(at))

	at = time.Date(2014, 9, 17, 8, 0, 0, 999_999, time.UTC)
	assert.Equal(t, int64(1410940800000), Millis(at))
}

func TestMillisRoundTrip(t *testing.T) {
	at := time.Date(2014, 9, 17, 8, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(1410940800000), Millis(at))
	assert.True(t, at.Equal(FromMillis(1410940800000)))
	assert.Equal(t, time.UTC, FromMillis(0).Location())
}

func TestIsValidValue(t *testing.T) {
	assert.True(t, IsValid(3.0))
	assert.True(t, IsValid(0.0))
	assert.True(t, IsValid("up"))
	assert.True(t, IsValid(false))
	assert.False(t, IsValid(nil))
	assert.False(t, IsValid(""))
}

func TestFloatCoercion(t *testing.T) {
	cases := []struct {
		in   interface{}
		want float64
		ok   bool
	}{
		{3.5, 3.5, true},
		{float32(2), 2, true},
		{int(7), 7, true},
		{int64(-4), -4, true},
		{uint32(9), 9, true},
		{"3.5", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := Float(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, tc.in)
		}
	}
}

func TestPathHelpers(t *testing.T) {
	data := map[string]interface{}{
		"direction": map[string]interface{}{"in": 5.0, "out": 7.0},
		"status":    "ok",
	}

	v, ok := GetPath(data, []string{"direction", "in"})
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	_, ok = GetPath(data, []string{"direction", "sideways"})
	assert.False(t, ok)

	SetPath(data, []string{"direction", "in"}, 9.0)
	v, _ = GetPath(data, []string{"direction", "in"})
	assert.Equal(t, 9.0, v)

	paths := LeafPaths(data)
	assert.Equal(t, [][]string{{"direction", "in"}, {"direction", "out"}, {"status"}}, paths)
}
