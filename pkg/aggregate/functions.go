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

// Package aggregate provides the reduction functions used by collection
// aggregations and windowed aggregators, plus the missing-value policies
// that decide how gaps in the input feed into them.
package aggregate

import (
	"errors"

	"github.com/montanaflynn/stats"
)

// ErrEmptyInput is returned by reducers handed an empty value list.
var ErrEmptyInput = errors.New("empty input to aggregation function")

// Func reduces a list of values to a single value.
type Func func(values []float64) (float64, error)

// Sample is a single observation. OK is false when the underlying
// field was missing or invalid.
type Sample struct {
	V  float64
	OK bool
}

// Filter decides how missing samples feed into a reduction. It returns
// the values to reduce and false when the whole result should be
// treated as missing.
type Filter func(samples []Sample) ([]float64, bool)

// IgnoreMissing drops missing samples. The result is missing only when
// nothing valid remains.
func IgnoreMissing(samples []Sample) ([]float64, bool) {
	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.OK {
			values = append(values, s.V)
		}
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// ZeroMissing substitutes zero for missing samples.
func ZeroMissing(samples []Sample) ([]float64, bool) {
	if len(samples) == 0 {
		return nil, false
	}
	values := make([]float64, len(samples))
	for i, s := range samples {
		if s.OK {
			values[i] = s.V
		}
	}
	return values, true
}

// PropagateMissing marks the whole result missing if any sample is.
func PropagateMissing(samples []Sample) ([]float64, bool) {
	values := make([]float64, 0, len(samples))
	for _, s := range samples {
		if !s.OK {
			return nil, false
		}
		values = append(values, s.V)
	}
	if len(values) == 0 {
		return nil, false
	}
	return values, true
}

// Apply filters the samples and reduces what remains. The boolean is
// false when the result is missing, either by filter policy or because
// the reducer failed.
func Apply(fn Func, filter Filter, samples []Sample) (float64, bool) {
	if filter == nil {
		filter = IgnoreMissing
	}
	values, ok := filter(samples)
	if !ok {
		return 0, false
	}
	v, err := fn(values)
	if err != nil {
		return 0, false
	}
	return v, true
}

func Sum(values []float64) (float64, error) {
	return stats.Sum(stats.Float64Data(values))
}

func Avg(values []float64) (float64, error) {
	return stats.Mean(stats.Float64Data(values))
}

func Max(values []float64) (float64, error) {
	return stats.Max(stats.Float64Data(values))
}

func Min(values []float64) (float64, error) {
	return stats.Min(stats.Float64Data(values))
}

func Median(values []float64) (float64, error) {
	return stats.Median(stats.Float64Data(values))
}

// Stdev is the population standard deviation.
func Stdev(values []float64) (float64, error) {
	return stats.StandardDeviationPopulation(stats.Float64Data(values))
}

// Percentile returns a reducer for the q-th percentile, q in (0, 100].
func Percentile(q float64) Func {
	return func(values []float64) (float64, error) {
		return stats.Percentile(stats.Float64Data(values), q)
	}
}

func Count(values []float64) (float64, error) {
	return float64(len(values)), nil
}

func First(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	return values[0], nil
}

func Last(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptyInput
	}
	return values[len(values)-1], nil
}

// Difference is the spread between the largest and smallest value.
func Difference(values []float64) (float64, error) {
	max, err := stats.Max(stats.Float64Data(values))
	if err != nil {
		return 0, err
	}
	min, err := stats.Min(stats.Float64Data(values))
	if err != nil {
		return 0, err
	}
	return max - min, nil
}

// Named looks up a reducer by its wire name, as used in pipeline specs.
func Named(name string) (Func, bool) {
	switch name {
	case "sum":
		return Sum, true
	case "avg", "mean":
		return Avg, true
	case "max":
		return Max, true
	case "min":
		return Min, true
	case "median":
		return Median, true
	case "stdev":
		return Stdev, true
	case "count":
		return Count, true
	case "first":
		return First, true
	case "last":
		return Last, true
	case "difference":
		return Difference, true
	default:
		return nil, false
	}
}
