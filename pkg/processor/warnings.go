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
	"sync"

	"go.uber.org/zap"
)

// WarningKind classifies a diagnostic.
type WarningKind int8

const (
	// WarnInvalidValue flags a value that could not be used and was
	// skipped or nulled out.
	WarnInvalidValue WarningKind = iota
	// WarnNonNumeric flags a field that needed to be numeric and wasn't.
	WarnNonNumeric
	// WarnBadPath flags a field path that does not exist in the data.
	WarnBadPath
)

func (k WarningKind) String() string {
	switch k {
	case WarnInvalidValue:
		return "InvalidValue"
	case WarnNonNumeric:
		return "NonNumeric"
	case WarnBadPath:
		return "BadPath"
	default:
		return "Unknown"
	}
}

// Warning is a non-fatal diagnostic raised while processing events.
type Warning struct {
	Kind    WarningKind
	Subject string
	Detail  string
}

// Warnings collects diagnostics from the processors of one pipeline
// run. A given (kind, subject) pair is recorded once; repeats on an
// unbounded stream would otherwise accumulate without limit. Safe for
// concurrent use.
type Warnings struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	list   []Warning
	logger *zap.SugaredLogger
}

// NewWarnings builds a sink that mirrors each new warning to logger.
// A nil logger disables mirroring.
func NewWarnings(logger *zap.SugaredLogger) *Warnings {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Warnings{
		seen:   map[string]struct{}{},
		logger: logger,
	}
}

// Add records a warning unless the same kind and subject was already
// seen.
func (w *Warnings) Add(kind WarningKind, subject, detail string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	key := kind.String() + "|" + subject
	if _, ok := w.seen[key]; ok {
		return
	}
	w.seen[key] = struct{}{}
	w.list = append(w.list, Warning{Kind: kind, Subject: subject, Detail: detail})
	w.logger.Warnw(detail, "kind", kind.String(), "subject", subject)
}

// List returns the warnings recorded so far.
func (w *Warnings) List() []Warning {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]Warning, len(w.list))
	copy(out, w.list)
	return out
}

// Len is the number of distinct warnings recorded.
func (w *Warnings) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.list)
}
