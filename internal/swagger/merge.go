package swagger

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"

	"github.com/adrianplavka/typeswag/internal/config"
	"github.com/go-openapi/spec"
)

// merge applies a raw fragment to doc. Immediate mode replaces top-level keys;
// recursive mode merges mappings and concatenates sequences.
func merge(doc *spec.Swagger, fragment map[string]any, mode string) (*spec.Swagger, error) {
	base, err := toMap(doc)
	if err != nil {
		return nil, err
	}
	frag, err := toMap(stringKeys(fragment))
	if err != nil {
		return nil, err
	}
	if mode == config.MergeRecursive {
		base = mergeRecursive(base, frag)
	} else {
		maps.Copy(base, frag)
	}
	raw, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	out := &spec.Swagger{}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, err
	}
	return out, nil
}

// toMap round-trips v through JSON so both sides of a merge share one
// representation for numbers and nested values.
func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	m := map[string]any{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// stringKeys copies v, turning mappings with non-string keys (yaml.v3 decodes
// `200:` as an int key) into map[string]any.
func stringKeys(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = stringKeys(e)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = stringKeys(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = stringKeys(e)
		}
		return out
	}
	return v
}

func mergeRecursive(dst, src map[string]any) map[string]any {
	for k, sv := range src {
		dv, ok := dst[k]
		if !ok {
			dst[k] = sv
			continue
		}
		switch s := sv.(type) {
		case map[string]any:
			if d, ok := dv.(map[string]any); ok {
				dst[k] = mergeRecursive(d, s)
				continue
			}
		case []any:
			if d, ok := dv.([]any); ok {
				dst[k] = mergeSequences(d, s)
				continue
			}
		}
		dst[k] = sv
	}
	return dst
}

func mergeSequences(dst, src []any) []any {
	out := append([]any(nil), dst...)
	for _, item := range src {
		present := false
		for _, have := range out {
			if reflect.DeepEqual(have, item) {
				present = true
				break
			}
		}
		if !present {
			out = append(out, item)
		}
	}
	return out
}
