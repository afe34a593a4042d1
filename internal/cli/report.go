package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/frbtool/frbtool/internal/orchestrator"
	"github.com/frbtool/frbtool/internal/verify"
)

type reportStyles struct {
	title   lipgloss.Style
	ok      lipgloss.Style
	failed  lipgloss.Style
	skipped lipgloss.Style
	dim     lipgloss.Style
}

// newReportStyles builds styles bound to w. Without colour the renderer uses
// the ASCII profile, which drops every escape sequence.
func newReportStyles(w io.Writer, color bool) reportStyles {
	var opts []termenv.OutputOption
	if !color {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	r := lipgloss.NewRenderer(w, opts...)
	return reportStyles{
		title:   r.NewStyle().Bold(true),
		ok:      r.NewStyle().Foreground(lipgloss.Color("#44C25B")),
		failed:  r.NewStyle().Foreground(lipgloss.Color("#F25F5C")).Bold(true),
		skipped: r.NewStyle().Foreground(lipgloss.Color("#E5C07B")),
		dim:     r.NewStyle().Faint(true),
	}
}

// printReport writes the per-step summary of a run.
func printReport(w io.Writer, report *orchestrator.Report, color bool) {
	if report == nil || len(report.Steps) == 0 {
		return
	}
	s := newReportStyles(w, color)

	fmt.Fprintln(w)
	fmt.Fprintln(w, s.title.Render(fmt.Sprintf("%s (%s)", report.Name, report.Root.Dir())))

	width := 0
	for _, step := range report.Steps {
		width = max(width, len(step.Name))
	}
	for _, step := range report.Steps {
		var tag string
		switch step.Status {
		case orchestrator.StatusOK:
			tag = s.ok.Render("[ OK ]")
		case orchestrator.StatusFailed:
			tag = s.failed.Render("[FAIL]")
		default:
			tag = s.skipped.Render("[SKIP]")
		}

		line := fmt.Sprintf("  %s %-*s  %s", tag, width, step.Name, step.Target)
		if step.Status == orchestrator.StatusOK {
			line += "  " + s.dim.Render(step.Duration.Round(time.Millisecond).String())
		}
		fmt.Fprintln(w, line)
		if step.Err != nil {
			fmt.Fprintf(w, "         %s\n", step.Err)
		}
	}

	if len(report.Warnings) > 0 {
		fmt.Fprintf(w, "\n  %s:\n", verify.Summary(report.Warnings))
		for _, warn := range report.Warnings {
			fmt.Fprintf(w, "    - %s\n", warn)
		}
	}

	if failed := len(report.Failed()); failed > 0 {
		fmt.Fprintf(w, "\n  %d of %d steps failed.\n", failed, len(report.Steps))
	} else {
		fmt.Fprintf(w, "\n  %s\n", s.ok.Render("Plugin ready. Next: cd "+report.Name.String()+" && flutter_rust_bridge_codegen generate"))
	}
}
