// Package emit writes an assembled document to disk.
package emit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/adrianplavka/typeswag/internal/emit/gosrc"
	"github.com/go-openapi/spec"
	"gopkg.in/yaml.v3"
	"pkt.systems/pslog"
)

const (
	TargetJSON = "json"
	TargetYAML = "yaml"
	TargetGo   = "go"
)

type Options struct {
	OutDir string
	// Filename names the document file; the extension follows the target.
	Filename string
	Targets  []string
	// Package is the package clause of the Go target.
	Package string
	Check   bool
	Logger  pslog.Logger
}

// Dispatch renders doc for every target and writes the results under
// OutDir. It returns the files that were written.
func Dispatch(ctx context.Context, doc *spec.Swagger, opt Options) ([]string, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil swagger document")
	}
	if len(opt.Targets) == 0 {
		opt.Targets = []string{TargetJSON}
	}
	if opt.Logger == nil {
		opt.Logger = pslog.NoopLogger()
	}
	raw, err := MarshalJSON(doc)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, t := range opt.Targets {
		if err := ctx.Err(); err != nil {
			return files, err
		}
		var (
			name string
			data []byte
		)
		switch t {
		case TargetJSON:
			name, data = withExt(opt.Filename, "swagger", ".json"), raw
		case TargetYAML:
			name = withExt(opt.Filename, "swagger", ".yaml")
			if data, err = MarshalYAML(doc); err != nil {
				return files, err
			}
		case TargetGo:
			name = "docs.go"
			if data, err = gosrc.Render(doc, raw, opt.Package); err != nil {
				return files, err
			}
		default:
			return files, fmt.Errorf("unknown target: %s", t)
		}
		path := filepath.Join(opt.OutDir, name)
		wrote, err := WriteFile(path, data, WriteOptions{Check: opt.Check})
		if err != nil {
			return files, err
		}
		if wrote {
			opt.Logger.Info("emit.file.written", "path", path, "target", t, "bytes", len(data))
			files = append(files, path)
		} else {
			opt.Logger.Debug("emit.file.unchanged", "path", path, "target", t)
		}
	}
	return files, nil
}

// withExt swaps the extension of name for ext, falling back to base.
func withExt(name, base, ext string) string {
	if name == "" {
		return base + ext
	}
	return strings.TrimSuffix(name, filepath.Ext(name)) + ext
}

// MarshalJSON renders doc as tab-indented JSON with a trailing newline.
func MarshalJSON(doc *spec.Swagger) ([]byte, error) {
	raw, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	return append(raw, '\n'), nil
}

// MarshalYAML renders doc as block-style YAML, keeping the key order of the
// JSON form.
func MarshalYAML(doc *spec.Swagger) ([]byte, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal json: %w", err)
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("decode json as yaml: %w", err)
	}
	plain(&node)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// plain drops the flow and quoting styles inherited from JSON. The encoder
// still quotes strings that would otherwise read as another type.
func plain(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		plain(c)
	}
}
