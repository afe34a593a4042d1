package templates

// Template is a logical template name whose variables are fixed by V.
type Template[V Vars] struct {
	name string
}

// Name returns the file name the template is addressed by in the store.
func (t Template[V]) Name() string {
	return t.name
}

// Render compiles text as this template and substitutes vars.
func (t Template[V]) Render(text string, vars V) (string, error) {
	return Render(t.name, text, vars)
}

// Templates published in the remote store.
var (
	CargoManifest = Template[NameVars]{name: "Cargo.toml"}
	Podspec       = Template[NameVars]{name: "plugin.podspec"}
	CMakeLists    = Template[NameVars]{name: "cmake.txt"}
	Gradle        = Template[NameVars]{name: "build.gradle"}
	Pubspec       = Template[NameVars]{name: "pubspec.yaml"}
	BridgeConfig  = Template[NoVars]{name: "flutter_rust_bridge.yaml"}
)
