// Package prompt asks the user for the plugin name when it was not given on
// the command line. Terminals get an editable text input; anything else is
// read as a single line.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/frbtool/frbtool/internal/project"
)

// Question is shown before reading the name.
const Question = "Enter a valid Dart plugin name (e.g. hello_dart, hi_ldd_plugin)"

// ErrCancelled is returned when the user leaves the prompt without a name.
var ErrCancelled = errors.New("prompt cancelled")

var (
	questionStyle = lipgloss.NewStyle().Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

// Ask reads a plugin name from in. It uses the interactive input when in and
// out are both terminals.
func Ask(in io.Reader, out io.Writer) (project.Name, error) {
	if isTerminal(in) && isTerminal(out) {
		return Interactive(in, out)
	}
	return ReadLine(in, out)
}

// ReadLine prints the question and reads one line.
func ReadLine(in io.Reader, out io.Writer) (project.Name, error) {
	fmt.Fprintf(out, "%s: ", Question)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading plugin name: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		return "", ErrCancelled
	}
	return project.ParseName(line)
}

// Interactive runs a one-field text input until the user submits a
// non-empty name or cancels.
func Interactive(in io.Reader, out io.Writer) (project.Name, error) {
	p := tea.NewProgram(newModel(), tea.WithInput(in), tea.WithOutput(out))
	final, err := p.Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}

	m := final.(model)
	if m.cancelled || !m.done {
		return "", ErrCancelled
	}
	return project.ParseName(m.input.Value())
}

type model struct {
	input     textinput.Model
	err       error
	done      bool
	cancelled bool
}

func newModel() model {
	ti := textinput.New()
	ti.Placeholder = "hello_dart"
	ti.Prompt = "> "
	ti.CharLimit = 0
	ti.Focus()
	return model{input: ti}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			if _, err := project.ParseName(m.input.Value()); err != nil {
				m.err = err
				return m, nil
			}
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.cancelled = true
			return m, tea.Quit
		}
		m.err = nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.done || m.cancelled {
		return ""
	}
	view := questionStyle.Render(Question) + "\n" + m.input.View() + "\n"
	if m.err != nil {
		view += errorStyle.Render(m.err.Error()) + "\n"
	}
	return view
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
