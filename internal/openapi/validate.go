// Package openapi checks generated Swagger 2.0 documents with kin-openapi.
package openapi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Validate parses a Swagger 2.0 JSON document, converts it to OpenAPI 3 and
// validates the result. The converted document is returned.
func Validate(ctx context.Context, raw []byte) (*openapi3.T, error) {
	var doc2 openapi2.T
	if err := json.Unmarshal(raw, &doc2); err != nil {
		return nil, fmt.Errorf("failed to parse swagger document: %w", err)
	}
	if doc2.Swagger != "2.0" {
		return nil, fmt.Errorf("swagger version %q is not 2.0", doc2.Swagger)
	}
	doc3, err := openapi2conv.ToV3(&doc2)
	if err != nil {
		return nil, fmt.Errorf("failed to convert swagger document: %w", err)
	}
	if err := doc3.Validate(ctx); err != nil {
		return nil, fmt.Errorf("OpenAPI validation error: %w", err)
	}
	return doc3, nil
}

// ValidateFile reads a JSON or YAML Swagger 2.0 file and validates it.
func ValidateFile(ctx context.Context, path string) (*openapi3.T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load swagger document: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if raw, err = yamlToJSON(raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return Validate(ctx, raw)
}

func yamlToJSON(raw []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return json.Marshal(stringKeys(v))
}

// stringKeys rewrites mappings with non-string keys, such as unquoted status
// codes, so they can be encoded as JSON.
func stringKeys(v any) any {
	switch v := v.(type) {
	case map[string]any:
		for k, e := range v {
			v[k] = stringKeys(e)
		}
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[fmt.Sprint(k)] = stringKeys(e)
		}
		return out
	case []any:
		for i, e := range v {
			v[i] = stringKeys(e)
		}
		return v
	}
	return v
}
