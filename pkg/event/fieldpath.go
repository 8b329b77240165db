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
	"strings"
)

// ErrBadFieldSpec is returned for malformed field paths and specs.
var ErrBadFieldSpec = errors.New("bad field spec")

// DefaultField is the path addressed when none is given.
const DefaultField = "value"

// ParseFieldPath splits a dotted field path like "direction.in" into
// its segments. The empty path addresses the default "value" field.
func ParseFieldPath(path string) ([]string, error) {
	if path == "" {
		return []string{DefaultField}, nil
	}
	parts := strings.Split(path, ".")
	for _, p := range parts {
		if p == "" {
			return nil, fmt.Errorf("%w: empty segment in path %q", ErrBadFieldSpec, path)
		}
	}
	return parts, nil
}

// ParseFieldSpec normalizes a field spec, one or more dotted paths,
// into parsed path segments. An empty spec addresses the default
// "value" field.
func ParseFieldSpec(spec []string) ([][]string, error) {
	if len(spec) == 0 {
		return [][]string{{DefaultField}}, nil
	}
	out := make([][]string, 0, len(spec))
	for _, s := range spec {
		parts, err := ParseFieldPath(s)
		if err != nil {
			return nil, err
		}
		out = append(out, parts)
	}
	return out, nil
}

// JoinFieldPath is the inverse of ParseFieldPath.
func JoinFieldPath(parts []string) string {
	return strings.Join(parts, ".")
}
