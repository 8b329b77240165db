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
	"encoding/json"
	"math"
	"sort"
)

// IsValid reports whether v is a usable value. Nil, NaN and the empty
// string all count as missing.
func IsValid(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case float64:
		return !math.IsNaN(t)
	case float32:
		return !math.IsNaN(float64(t))
	case string:
		return t != ""
	default:
		return true
	}
}

// Float coerces the numeric types a payload may carry into a float64.
func Float(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) {
			return 0, false
		}
		return t, true
	case float32:
		return Float(float64(t))
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint32:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// deepCopyValue copies the JSON-shaped value graphs payloads are made
// of: maps, slices and scalars.
func deepCopyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		return deepCopyMap(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = deepCopyValue(e)
		}
		return out
	default:
		return v
	}
}

func deepCopyMap(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

// nestedGet walks a dotted path into the data map. The boolean is
// false when the path does not exist.
func nestedGet(data map[string]interface{}, path []string) (interface{}, bool) {
	var cur interface{} = data
	for _, seg := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// nestedSet writes v at the dotted path, creating intermediate maps as
// needed. It mutates data, so callers own the map.
func nestedSet(data map[string]interface{}, path []string, v interface{}) {
	m := data
	for _, seg := range path[:len(path)-1] {
		next, ok := m[seg].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[seg] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}

// GetPath reads a parsed field path from a working copy of a payload,
// as obtained from Event.Data. The boolean is false when the path does
// not exist.
func GetPath(data map[string]interface{}, path []string) (interface{}, bool) {
	return nestedGet(data, path)
}

// SetPath writes v at a parsed field path in a working copy of a
// payload, creating intermediate maps as needed.
func SetPath(data map[string]interface{}, path []string, v interface{}) {
	nestedSet(data, path, v)
}

// LeafPaths returns every non-map leaf path in the payload, sorted for
// determinism.
func LeafPaths(data map[string]interface{}) [][]string {
	var out [][]string
	var walk func(prefix []string, v interface{})
	walk = func(prefix []string, v interface{}) {
		m, ok := v.(map[string]interface{})
		if !ok {
			p := make([]string, len(prefix))
			copy(p, prefix)
			out = append(out, p)
			return
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			walk(append(prefix, k), m[k])
		}
	}
	for _, k := range sortedKeys(data) {
		walk([]string{k}, data[k])
	}
	return out
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// valueEqual compares payload value graphs structurally.
func valueEqual(a, b interface{}) bool {
	switch ta := a.(type) {
	case map[string]interface{}:
		tb, ok := b.(map[string]interface{})
		if !ok || len(ta) != len(tb) {
			return false
		}
		for k, va := range ta {
			vb, ok := tb[k]
			if !ok || !valueEqual(va, vb) {
				return false
			}
		}
		return true
	case []interface{}:
		tb, ok := b.([]interface{})
		if !ok || len(ta) != len(tb) {
			return false
		}
		for i := range ta {
			if !valueEqual(ta[i], tb[i]) {
				return false
			}
		}
		return true
	default:
		if fa, ok := Float(a); ok {
			if fb, ok := Float(b); ok {
				return fa == fb
			}
			return false
		}
		return a == b
	}
}
