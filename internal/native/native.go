package native

import (
	"context"
	"fmt"
	"path"

	"github.com/frbtool/frbtool/internal/logging"
	"github.com/frbtool/frbtool/internal/materialize"
	"github.com/frbtool/frbtool/internal/project"
	"github.com/frbtool/frbtool/internal/scaffold"
	"github.com/frbtool/frbtool/internal/templates"
	"github.com/frbtool/frbtool/internal/toolchain"
)

// CrateDir is the crate directory relative to the project root.
const CrateDir = "rust"

// Sample module contents.
const (
	ModRS   = "pub mod hello;"
	LibRS   = "pub mod api;"
	HelloRS = `
pub fn hello(hello: &str) {
    println!("hello world!");
}
`
)

// Project-relative paths the initializer writes.
var (
	ManifestPath = path.Join(CrateDir, "Cargo.toml")
	APIDir       = path.Join(CrateDir, "src", "api")
	ModPath      = path.Join(APIDir, "mod.rs")
	HelloPath    = path.Join(APIDir, "hello.rs")
	LibPath      = path.Join(CrateDir, "src", "lib.rs")
)

// Initializer builds the Rust side of the plugin.
type Initializer struct {
	Runner     toolchain.Runner
	Scaffolder *scaffold.Scaffolder
	Writer     *materialize.Writer
	Log        *logging.Logger
}

// CargoCommand returns the cargo invocation that creates the crate.
func CargoCommand(root project.Root) toolchain.Command {
	return toolchain.Command{
		Name:  "cargo",
		Args:  []string{"new", CrateDir, "--lib", "--name", root.Name().String()},
		Dir:   root.Dir(),
		Quiet: true,
	}
}

// ManifestStep returns the step that replaces the generated Cargo.toml.
func ManifestStep(root project.Root) scaffold.Step {
	vars := templates.NameVars{Name: root.Name().String()}
	return scaffold.NewStep("rust manifest", templates.CargoManifest, vars, ManifestPath)
}

// Init runs cargo new and then overwrites the crate manifest from the
// template store.
func (n *Initializer) Init(ctx context.Context, root project.Root) error {
	log := n.log()

	log.Info("creating rust crate", "dir", CrateDir, "name", root.Name())
	if err := n.Runner.Run(ctx, CargoCommand(root)); err != nil {
		return fmt.Errorf("creating rust crate: %w", err)
	}

	if err := n.Scaffolder.Run(ctx, ManifestStep(root)); err != nil {
		return err
	}
	log.Success("rust crate ready", "dir", CrateDir)
	return nil
}

// SampleModule creates rust/src/api with a hello module and points lib.rs at
// it. It must only run after Init has succeeded.
func (n *Initializer) SampleModule(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log := n.log()

	log.Info("adding sample api module", "dir", APIDir)
	if err := n.Writer.Mkdir(APIDir); err != nil {
		return fmt.Errorf("creating api module: %w", err)
	}
	files := []struct {
		path     string
		contents string
		mode     materialize.Mode
	}{
		{ModPath, ModRS, materialize.ModeRequireParent},
		{HelloPath, HelloRS, materialize.ModeRequireParent},
		{LibPath, LibRS, materialize.ModeTruncate},
	}
	for _, f := range files {
		if err := n.Writer.Write(f.path, f.contents, f.mode); err != nil {
			return fmt.Errorf("writing sample module: %w", err)
		}
	}
	log.Success("sample api module ready", "module", "api::hello")
	return nil
}

func (n *Initializer) log() *logging.Logger {
	if n.Log == nil {
		return logging.Discard()
	}
	return n.Log
}
