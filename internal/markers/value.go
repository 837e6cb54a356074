package markers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adrianplavka/typeswag/internal/ir"
	"gopkg.in/yaml.v3"
)

// ParseValue decodes hint text written as YAML or JSON into a plain value.
// Empty text decodes to nil.
func ParseValue(text string) (any, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(text), &v); err != nil {
		return nil, fmt.Errorf("parse %q: %w", text, err)
	}
	return normalize(v), nil
}

// normalize converts yaml's map[any]any into map[string]any so values
// marshal as JSON.
func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	}
	return v
}

// LiteralKind classifies one member of a literal union.
type LiteralKind string

const (
	LiteralString  LiteralKind = "string"
	LiteralNumber  LiteralKind = "number"
	LiteralBoolean LiteralKind = "boolean"
)

// ParseLiteral classifies a union member: quoted text is a string, true and
// false are booleans, anything numeric is a number, other bare text is a string.
func ParseLiteral(s string) (any, LiteralKind) {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		if s[0] == '"' {
			if u, err := strconv.Unquote(s); err == nil {
				return u, LiteralString
			}
		}
		return s[1 : len(s)-1], LiteralString
	}
	switch s {
	case "true":
		return true, LiteralBoolean
	case "false":
		return false, LiteralBoolean
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, LiteralNumber
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, LiteralNumber
	}
	return s, LiteralString
}

// SplitList splits a comma separated hint or tag value, honoring quotes.
func SplitList(s string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	for _, r := range s {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
			cur.WriteRune(r)
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == ',':
			out = append(out, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if last := strings.TrimSpace(cur.String()); last != "" || len(out) > 0 {
		out = append(out, last)
	}
	return out
}

// Validators collects the validation hints. The is* hints are flags; pattern
// and the date bounds keep their text; the rest are decoded as values.
func (hs Hints) Validators() (ir.Validators, error) {
	var out ir.Validators
	for _, name := range ValidatorHints {
		text, ok := hs.Get(name)
		if !ok {
			continue
		}
		if out == nil {
			out = ir.Validators{}
		}
		switch {
		case strings.HasPrefix(name, "is"):
			out[name] = true
		case name == HintPattern || name == HintMinDate || name == HintMaxDate:
			out[name] = text
		case name == HintUniqueItems && text == "":
			out[name] = true
		default:
			v, err := ParseValue(text)
			if err != nil {
				return nil, fmt.Errorf("@%s: %w", name, err)
			}
			out[name] = v
		}
	}
	return out, nil
}
