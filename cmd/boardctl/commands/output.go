package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	bold   = color.New(color.Bold)
)

func success(w io.Writer, format string, a ...any) {
	green.Fprintf(w, "✓ "+format+"\n", a...)
}

func warning(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, "! "+format+"\n", a...)
}

func step(w io.Writer, format string, a ...any) {
	cyan.Fprintf(w, "→ "+format+"\n", a...)
}

// failure prints title and hint in red to w and returns an error carrying
// the title for the exit status.
func failure(w io.Writer, title string, err error, hint string) error {
	red.Fprintf(w, "%s\n", title)
	if err != nil {
		fmt.Fprintf(w, "  %v\n", err)
	}
	if hint != "" {
		fmt.Fprintf(w, "\n%s\n", hint)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", title, err)
	}
	return fmt.Errorf("%s", title)
}
