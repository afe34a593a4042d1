package templates

// Vars is the closed set of render contexts. Only types in this package
// implement it.
type Vars interface {
	bindings() map[string]string
}

// NoVars binds no variables.
type NoVars struct{}

func (NoVars) bindings() map[string]string { return nil }

// NameVars binds the plugin name as {{ name }}.
type NameVars struct {
	Name string
}

func (v NameVars) bindings() map[string]string {
	return map[string]string{"name": v.Name}
}
