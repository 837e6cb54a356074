package ir

// Metadata is everything extracted from one pass over the declarations.
type Metadata struct {
	Controllers    []Controller
	ReferenceTypes *ReferenceTypeMap
}

type Controller struct {
	Name       string
	Path       string
	Tags       []string
	Security   []Security
	Operations []Operation
	Location   string
}

type Verb string

const (
	VerbGet     Verb = "get"
	VerbPost    Verb = "post"
	VerbPut     Verb = "put"
	VerbPatch   Verb = "patch"
	VerbDelete  Verb = "delete"
	VerbHead    Verb = "head"
	VerbOptions Verb = "options"
)

type Operation struct {
	Name        string
	Verb        Verb
	Path        string
	Parameters  []Parameter
	Responses   []Response
	Security    []Security
	Tags        []string
	Hidden      bool
	Deprecated  bool
	OperationID string
	Summary     string
	Description string
}

type ParamRole string

const (
	RolePath     ParamRole = "path"
	RoleQuery    ParamRole = "query"
	RoleHeader   ParamRole = "header"
	RoleBody     ParamRole = "body"
	RoleBodyProp ParamRole = "body-prop"
	RoleRequest  ParamRole = "request"
)

type Parameter struct {
	// Name is the external name; ParamName is the Go identifier it binds.
	Name        string
	ParamName   string
	Role        ParamRole
	Type        Type // nil for RoleRequest
	Required    bool
	Default     any
	Description string
	Format      string
	Validators  Validators
}

// Response is keyed by status code or "default". A nil Schema means no content.
type Response struct {
	Name        string
	Description string
	Schema      Type
	Examples    any
}

// Security maps a scheme name to its scopes. Entries of a []Security are
// alternatives; schemes within one entry are all required.
type Security map[string][]string

// Validators holds validation hints keyed by hint name (minimum, pattern, ...).
type Validators map[string]any

type Property struct {
	Name        string
	Type        Type
	Required    bool
	Default     any
	Description string
	Format      string
	Example     any
	Validators  Validators
}

func (p *Property) clone() *Property {
	cp := *p
	if p.Validators != nil {
		cp.Validators = make(Validators, len(p.Validators))
		for k, v := range p.Validators {
			cp.Validators[k] = v
		}
	}
	return &cp
}

// CloneProperties deep copies a property list. Types are shared, since
// descriptors are immutable once constructed.
func CloneProperties(props []*Property) []*Property {
	out := make([]*Property, 0, len(props))
	for _, p := range props {
		out = append(out, p.clone())
	}
	return out
}
