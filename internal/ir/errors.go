package ir

import "errors"

// All of these abort generation. Callers match them with errors.Is.
var (
	ErrAmbiguous          = errors.New("ambiguous declaration")
	ErrMissingType        = errors.New("missing declaration")
	ErrUnsupportedType    = errors.New("unsupported type")
	ErrScopeResolution    = errors.New("unresolved scope")
	ErrMultiBody          = errors.New("only one body parameter allowed per operation")
	ErrIndexKey           = errors.New("map keys must resolve to string")
	ErrUnionHeterogeneity = errors.New("union literals must share one kind")
	ErrInvalidMarker      = errors.New("invalid marker")
)
