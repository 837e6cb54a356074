// Package markers parses the annotations carried by Go doc comments.
//
// A doc line that starts with '@' is either a marker or a hint. Markers use Go
// call syntax and attach structure to a declaration:
//
//	// @Route("users")
//	// @Response[models.Error]("404", "Not Found")
//
// Hints are a name followed by free text:
//
//	// @isInt limit
//	// @example {"id": 1}
//
// Both sets are closed. Lines naming anything else are dropped.
package markers

import (
	"go/ast"
	"strings"
)

type Kind string

const (
	Route           Kind = "Route"
	Get             Kind = "Get"
	Post            Kind = "Post"
	Put             Kind = "Put"
	Patch           Kind = "Patch"
	Delete          Kind = "Delete"
	Head            Kind = "Head"
	Options         Kind = "Options"
	Tags            Kind = "Tags"
	Security        Kind = "Security"
	Response        Kind = "Response"
	SuccessResponse Kind = "SuccessResponse"
	Hidden          Kind = "Hidden"
	Deprecated      Kind = "Deprecated"
	Body            Kind = "Body"
	BodyProp        Kind = "BodyProp"
	Request         Kind = "Request"
	Path            Kind = "Path"
	Query           Kind = "Query"
	Header          Kind = "Header"
)

var builtinKinds = map[string]Kind{
	"Get": Get, "Post": Post, "Put": Put, "Patch": Patch, "Delete": Delete, "Head": Head, "Options": Options,
	"Tags": Tags, "Security": Security, "Response": Response, "SuccessResponse": SuccessResponse,
	"Hidden": Hidden, "Deprecated": Deprecated,
	"Body": Body, "BodyProp": BodyProp, "Request": Request, "Path": Path, "Query": Query, "Header": Header,
}

// Verbs lists the operation markers.
var Verbs = []Kind{Get, Post, Put, Patch, Delete, Head, Options}

// Roles lists the parameter markers.
var Roles = []Kind{Body, BodyProp, Request, Path, Query, Header}

func (k Kind) IsVerb() bool {
	for _, v := range Verbs {
		if k == v {
			return true
		}
	}
	return false
}

func (k Kind) IsRole() bool {
	for _, v := range Roles {
		if k == v {
			return true
		}
	}
	return false
}

// Hint names.
const (
	HintIsInt       = "isInt"
	HintIsLong      = "isLong"
	HintIsFloat     = "isFloat"
	HintIsDouble    = "isDouble"
	HintIsDate      = "isDate"
	HintIsDateTime  = "isDateTime"
	HintFormat      = "format"
	HintDefault     = "default"
	HintExample     = "example"
	HintEnum        = "enum"
	HintIgnore      = "ignore"
	HintModel       = "typeswagModel"
	HintSummary     = "summary"
	HintOperationID = "operationId"
	HintDeprecated  = "deprecated"
	HintParam       = "param"
	HintMinimum     = "minimum"
	HintMaximum     = "maximum"
	HintMinLength   = "minLength"
	HintMaxLength   = "maxLength"
	HintPattern     = "pattern"
	HintMinItems    = "minItems"
	HintMaxItems    = "maxItems"
	HintUniqueItems = "uniqueItems"
	HintMinDate     = "minDate"
	HintMaxDate     = "maxDate"
)

var hintNames = map[string]bool{
	HintIsInt: true, HintIsLong: true, HintIsFloat: true, HintIsDouble: true, HintIsDate: true, HintIsDateTime: true,
	HintFormat: true, HintDefault: true, HintExample: true, HintEnum: true, HintIgnore: true, HintModel: true,
	HintSummary: true, HintOperationID: true, HintDeprecated: true, HintParam: true,
	HintMinimum: true, HintMaximum: true, HintMinLength: true, HintMaxLength: true, HintPattern: true,
	HintMinItems: true, HintMaxItems: true, HintUniqueItems: true, HintMinDate: true, HintMaxDate: true,
}

// ValidatorHints are the hints copied into a property's or parameter's validators.
var ValidatorHints = []string{
	HintMinimum, HintMaximum, HintMinLength, HintMaxLength, HintPattern,
	HintMinItems, HintMaxItems, HintUniqueItems, HintMinDate, HintMaxDate,
	HintIsInt, HintIsLong, HintIsFloat, HintIsDouble, HintIsDate, HintIsDateTime,
}

func IsHint(name string) bool { return hintNames[name] }

// Marker is one parsed marker line.
type Marker struct {
	Kind Kind
	// Name is the marker name as written, which differs from Kind for custom route markers.
	Name     string
	TypeArgs []ast.Expr
	Args     []ast.Expr
	Text     string
}

type Hint struct {
	Name string
	Text string
}

type Hints []Hint

// Get returns the text of the first hint called name.
func (hs Hints) Get(name string) (string, bool) {
	for _, h := range hs {
		if h.Name == name {
			return h.Text, true
		}
	}
	return "", false
}

func (hs Hints) Has(name string) bool {
	_, ok := hs.Get(name)
	return ok
}

// ForParam returns the hints whose text starts with param, with that word removed.
func (hs Hints) ForParam(param string) Hints {
	var out Hints
	for _, h := range hs {
		first, rest, _ := strings.Cut(h.Text, " ")
		if first == param {
			out = append(out, Hint{Name: h.Name, Text: strings.TrimSpace(rest)})
		}
	}
	return out
}

// Annotations is everything parsed from one doc comment.
type Annotations struct {
	Markers     []Marker
	Hints       Hints
	Description string
	// Deprecated is set by a "Deprecated:" paragraph.
	Deprecated bool
}

// Find returns the markers of kind k.
func (a *Annotations) Find(k Kind) []Marker {
	if a == nil {
		return nil
	}
	var out []Marker
	for _, m := range a.Markers {
		if m.Kind == k {
			out = append(out, m)
		}
	}
	return out
}

func (a *Annotations) Has(k Kind) bool {
	return len(a.Find(k)) > 0
}
