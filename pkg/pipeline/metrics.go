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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// LabelPipeline is the pipeline name label.
	LabelPipeline = "pipeline"
)

var (
	eventsRead = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gopond",
		Subsystem: "pipeline",
		Name:      "events_read_total",
		Help:      "Total number of events pushed into the pipeline",
	}, []string{LabelPipeline})

	eventsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gopond",
		Subsystem: "pipeline",
		Name:      "events_emitted_total",
		Help:      "Total number of events delivered to the pipeline sink",
	}, []string{LabelPipeline})

	warningsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gopond",
		Subsystem: "pipeline",
		Name:      "warnings_total",
		Help:      "Total number of distinct warnings raised over a pipeline run",
	}, []string{LabelPipeline})

	eventsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gopond",
		Subsystem: "pipeline",
		Name:      "events_dropped_total",
		Help:      "Total number of events dropped by limiting stages",
	}, []string{LabelPipeline})

	valuesFilled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gopond",
		Subsystem: "pipeline",
		Name:      "values_filled_total",
		Help:      "Total number of missing values replaced by fill stages",
	}, []string{LabelPipeline})
)
