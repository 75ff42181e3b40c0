// Package jsonpath extracts a scalar from decoded JSON using a dot path with
// bracket indexes, e.g. "result[0]" or "data.items[1].value".
package jsonpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Extract decodes body and returns the scalar at path as a string.
// It reports false when the body is not JSON, the path does not resolve
// (missing key, index out of range, empty array) or the value is not a scalar.
func Extract(body []byte, path string) (string, bool) {
	var root any
	if err := json.Unmarshal(body, &root); err != nil {
		return "", false
	}
	return Text(root, path)
}

// Text returns the scalar at path in an already decoded value.
func Text(root any, path string) (string, bool) {
	v, ok := Lookup(root, path)
	if !ok {
		return "", false
	}
	return scalar(v)
}

// Lookup walks a decoded JSON value along path.
func Lookup(root any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	cur := root
	for _, part := range strings.Split(path, ".") {
		key, idxs, err := ParseSegment(part)
		if err != nil {
			return nil, false
		}
		if key != "" {
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			if cur, ok = m[key]; !ok {
				return nil, false
			}
		}
		for _, idx := range idxs {
			arr, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, false
			}
			cur = arr[idx]
		}
	}
	return cur, true
}

// ParseSegment splits "foo[0][1]", "[0]" or "bar" into a key and indexes.
func ParseSegment(seg string) (string, []int, error) {
	if seg == "" {
		return "", nil, fmt.Errorf("empty path segment")
	}
	br := strings.IndexByte(seg, '[')
	if br == -1 {
		return seg, nil, nil
	}
	key, rest := seg[:br], seg[br:]
	var idxs []int
	for rest != "" {
		if rest[0] != '[' {
			return "", nil, fmt.Errorf("invalid index syntax in %s", seg)
		}
		end := strings.IndexByte(rest, ']')
		if end == -1 {
			return "", nil, fmt.Errorf("missing closing ] in %s", seg)
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, fmt.Errorf("invalid index %q in %s", rest[1:end], seg)
		}
		idxs = append(idxs, n)
		rest = rest[end+1:]
	}
	return key, idxs, nil
}

func scalar(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10), true
		}
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}
