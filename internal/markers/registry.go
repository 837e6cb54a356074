package markers

import "strings"

// PathTransform rewrites the base path taken from a route marker.
type PathTransform func(path string) string

// Registry holds the route markers that make a struct a controller. Names
// match case-insensitively. The built-in Route marker is always registered.
type Registry struct {
	routes map[string]PathTransform
}

func NewRegistry() *Registry {
	return &Registry{routes: map[string]PathTransform{"route": nil}}
}

// Register adds a route marker. transform may be nil.
func (r *Registry) Register(name string, transform PathTransform) {
	r.routes[strings.ToLower(name)] = transform
}

// Lookup reports whether name is a route marker and returns its transform.
func (r *Registry) Lookup(name string) (PathTransform, bool) {
	if r == nil {
		return nil, strings.EqualFold(name, string(Route))
	}
	t, ok := r.routes[strings.ToLower(name)]
	return t, ok
}
