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

func TestDurationIndex(t *testing.T) {
	idx, err := NewIndex("1d-12355")
	assert.NoError(t, err)
	assert.Equal(t, "1d-12355", idx.String())
	tr := idx.AsRange()
	assert.Equal(t, "2003-10-30T00:00:00Z", tr.Begin().Format(time.RFC3339))
	assert.Equal(t, "2003-10-31T00:00:00Z", tr.End().Format(time.RFC3339))

	idx, err = NewIndex("1d-625")
	assert.NoError(t, err)
	assert.Equal(t, int64(54000000000), idx.AsRange().BeginMillis())
	assert.Equal(t, int64(54086400000), idx.AsRange().EndMillis())
}

func TestYearIndex(t *testing.T) {
	idx, err := NewIndex("2014")
	assert.NoError(t, err)
	tr := idx.AsRange()
	assert.Equal(t, "2014-01-01T00:00:00Z", tr.Begin().Format(time.RFC3339))
	assert.Equal(t, "2014-12-31T23:59:59Z", tr.End().Format(time.RFC3339))
}

func TestMonthIndex(t *testing.T) {
	idx, err := NewIndex("2014-09")
	assert.NoError(t, err)
	tr := idx.AsRange()
	assert.Equal(t, "2014-09-01T00:00:00Z", tr.Begin().Format(time.RFC3339))
	assert.Equal(t, "2014-09-30T23:59:59Z", tr.End().Format(time.RFC3339))
}

func TestDayIndex(t *testing.T) {
	idx, err := NewIndex("2014-09-17")
	assert.NoError(t, err)
	tr := idx.AsRange()
	assert.Equal(t, "2014-09-17T00:00:00Z", tr.Begin().Format(time.RFC3339))
	assert.Equal(t, "2014-09-17T23:59:59Z", tr.End().Format(time.RFC3339))
}

func TestBadIndexStrings(t *testing.T) {
	for _, s := range []string{"12-34-56-78", "12-34-5a", "1d-234a", "198o", "2015-9@", ""} {
		_, err := NewIndex(s)
		assert.ErrorIs(t, err, ErrUnresolvedBucket, s)
	}
}

func TestNiceString(t *testing.T) {
	year, _ := NewIndex("2014")
	assert.Equal(t, "2014", year.NiceString())

	month, _ := NewIndex("2014-09")
	assert.Equal(t, "September", month.NiceString())

	day, _ := NewIndex("2014-09-17")
	assert.Equal(t, "September 17 2014", day.NiceString())
	assert.Equal(t, "17 Sep 2014", day.NiceString("2 Jan 2006"))

	dur, _ := NewIndex("30s-41135541")
	assert.Equal(t, "30s-41135541", dur.NiceString())
}

func TestWindowDuration(t *testing.T) {
	d, ok := WindowDuration("30s")
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	d, ok = WindowDuration("30s-41135541")
	assert.True(t, ok)
	assert.Equal(t, 30*time.Second, d)

	_, ok = WindowDuration("2014")
	assert.False(t, ok)
}

func TestIndexString(t *testing.T) {
	at := time.Date(2003, 10, 30, 12, 0, 0, 0, time.UTC)
	s, err := IndexString("1d", at)
	assert.NoError(t, err)
	assert.Equal(t, "1d-12355", s)

	_, err = IndexString("bogus", at)
	assert.ErrorIs(t, err, ErrUnresolvedBucket)

	// pre-epoch times floor into the earlier bucket
	s, err = IndexString("1d", time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC))
	assert.NoError(t, err)
	assert.Equal(t, "1d--1", s)
}

func TestCalendarIndexStrings(t *testing.T) {
	at := time.Date(2014, 9, 17, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "2014-09-17", DailyIndexString(at, true))
	assert.Equal(t, "2014-09", MonthlyIndexString(at, true))
	assert.Equal(t, "2014", YearlyIndexString(at, true))
}
