// Package output renders run reports for terminals and machines.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"

	"github.com/quench-dev/quench/internal/runner"
)

// Mode selects the rendering format.
type Mode string

// Rendering modes.
const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Renderer writes a run report to the user.
type Renderer interface {
	// Report renders the full run outcome.
	Report(rep *runner.Report) error

	// Errorf reports a run-level error (config failures and the like).
	Errorf(format string, args ...any)
}

// NewRenderer builds a renderer for the mode. Auto picks text; color is
// resolved per terminal capabilities with NO_COLOR honored.
func NewRenderer(stdout, stderr io.Writer, mode Mode) Renderer {
	switch mode {
	case ModeJSON:
		return &jsonRenderer{out: stdout, err: stderr}
	default:
		return &textRenderer{
			out:  stdout,
			err:  stderr,
			term: termenv.NewOutput(stdout, termenv.WithProfile(colorProfile())),
		}
	}
}

// colorProfile detects terminal color support, honoring NO_COLOR.
func colorProfile() termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
