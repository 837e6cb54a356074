package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	MergeImmediate = "immediate"
	MergeRecursive = "recursive"
)

type Config struct {
	EntryFile string   `yaml:"entryFile"`
	Ignore    []string `yaml:"ignore"`
	BuildTags []string `yaml:"buildTags"`
	Swagger   Swagger  `yaml:"swagger"`
}

type Swagger struct {
	Name                string                        `yaml:"name"`
	Version             string                        `yaml:"version"`
	Description         string                        `yaml:"description"`
	License             string                        `yaml:"license"`
	Host                string                        `yaml:"host"`
	BasePath            string                        `yaml:"basePath"`
	Schemes             []string                      `yaml:"schemes"`
	SecurityDefinitions map[string]SecurityDefinition `yaml:"securityDefinitions"`
	Tags                []Tag                         `yaml:"tags"`
	Spec                map[string]any                `yaml:"spec"`        // raw fragment merged into the output
	SpecMerging         string                        `yaml:"specMerging"` // "immediate" or "recursive"
	Validate            bool                          `yaml:"validate"`
	Output              Output                        `yaml:"output"`
}

type SecurityDefinition struct {
	Type             string            `yaml:"type"` // "basic", "apiKey", "oauth2"
	Description      string            `yaml:"description"`
	Name             string            `yaml:"name"`
	In               string            `yaml:"in"`
	Flow             string            `yaml:"flow"`
	AuthorizationURL string            `yaml:"authorizationUrl"`
	TokenURL         string            `yaml:"tokenUrl"`
	Scopes           map[string]string `yaml:"scopes"`
}

type Tag struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Output struct {
	Path     string `yaml:"path"`
	Filename string `yaml:"filename"`
	YAML     bool   `yaml:"yaml"`
	Go       bool   `yaml:"go"`      // also write a Go source file embedding the document
	Package  string `yaml:"package"` // package name of the Go source file
}

// Load reads a YAML configuration file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration and applies defaults. Unknown keys are
// rejected.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	s := &c.Swagger
	if s.SpecMerging == "" {
		s.SpecMerging = MergeImmediate
	}
	if s.BasePath == "" {
		s.BasePath = "/"
	}
	if s.Output.Path == "" {
		s.Output.Path = "."
	}
	if s.Output.Filename == "" {
		s.Output.Filename = "swagger.json"
		if s.Output.YAML {
			s.Output.Filename = "swagger.yaml"
		}
	}
	if s.Output.Package == "" {
		s.Output.Package = "docs"
	}
}

func (c *Config) Validate() error {
	if c.EntryFile == "" {
		return fmt.Errorf("entryFile is required")
	}
	switch c.Swagger.SpecMerging {
	case MergeImmediate, MergeRecursive:
	default:
		return fmt.Errorf("specMerging %q: must be %q or %q", c.Swagger.SpecMerging, MergeImmediate, MergeRecursive)
	}
	for name, def := range c.Swagger.SecurityDefinitions {
		switch def.Type {
		case "basic", "apiKey", "oauth2":
		default:
			return fmt.Errorf("securityDefinitions.%s: unknown type %q", name, def.Type)
		}
	}
	return nil
}
