package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/frbtool/frbtool/internal/toolchain"
)

// Requirement is one external tool and the version range a run needs.
type Requirement struct {
	Tool       string
	Constraint string
	Purpose    string
}

// Requirements lists the tools a create run invokes.
var Requirements = []Requirement{
	{Tool: "flutter", Constraint: ">= 3.0.0", Purpose: "creates the plugin project"},
	{Tool: "git", Constraint: ">= 1.7.11", Purpose: "repository setup and subtree merge"},
	{Tool: "cargo", Constraint: ">= 1.70.0", Purpose: "creates the rust crate"},
}

// Status is the outcome of one check.
type Status string

const (
	StatusOK      Status = "ok"
	StatusMissing Status = "missing"
	StatusOld     Status = "old"
	StatusUnknown Status = "unknown"
)

// Result is the outcome of checking one requirement.
type Result struct {
	Requirement
	Status  Status
	Version string
	Detail  string
}

// Prober runs a command and returns its standard output.
// *toolchain.ExecRunner satisfies it.
type Prober interface {
	Output(ctx context.Context, c toolchain.Command) (string, error)
}

// Check runs "<tool> --version" for every requirement.
func Check(ctx context.Context, p Prober, reqs []Requirement) []Result {
	results := make([]Result, 0, len(reqs))
	for _, req := range reqs {
		results = append(results, check(ctx, p, req))
	}
	return results
}

func check(ctx context.Context, p Prober, req Requirement) Result {
	res := Result{Requirement: req}

	out, err := p.Output(ctx, toolchain.Command{Name: req.Tool, Args: []string{"--version"}})
	if errors.Is(err, toolchain.ErrToolNotFound) {
		res.Status = StatusMissing
		res.Detail = "not found in PATH"
		return res
	}
	if err != nil {
		res.Status = StatusUnknown
		res.Detail = err.Error()
		return res
	}

	v, err := toolchain.ParseVersion(out)
	if err != nil {
		res.Status = StatusUnknown
		res.Detail = err.Error()
		return res
	}
	res.Version = v.String()

	ok, err := toolchain.Satisfies(v, req.Constraint)
	if err != nil {
		res.Status = StatusUnknown
		res.Detail = err.Error()
		return res
	}
	if !ok {
		res.Status = StatusOld
		res.Detail = "need " + req.Constraint
		return res
	}
	res.Status = StatusOK
	return res
}

// Print writes one line per result and returns the number of failing checks.
func Print(w io.Writer, results []Result) int {
	fmt.Fprintln(w, "Toolchain check:")
	failing := 0
	for _, r := range results {
		switch r.Status {
		case StatusOK:
			fmt.Fprintf(w, "  [ OK ] %s %s (%s)\n", r.Tool, r.Version, r.Purpose)
		case StatusOld:
			failing++
			fmt.Fprintf(w, "  [OLD ] %s %s, %s\n", r.Tool, r.Version, r.Detail)
		case StatusMissing:
			failing++
			fmt.Fprintf(w, "  [MISS] %s %s\n", r.Tool, r.Detail)
		default:
			failing++
			fmt.Fprintf(w, "  [WARN] %s: %s\n", r.Tool, r.Detail)
		}
	}

	if failing > 0 {
		fmt.Fprintf(w, "\n  %d tool(s) need attention.\n", failing)
	} else {
		fmt.Fprintf(w, "  [ OK ] All %d tools found\n", len(results))
	}
	return failing
}
