package logger

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ForCLI returns the logger used by semsearch commands: colorized when w is a
// terminal, plain slog text otherwise so piped output stays greppable.
func ForCLI(w io.Writer, debug bool) *slog.Logger {
	return New(
		WithWriter(w),
		WithDebug(debug),
		WithPretty(IsTerminal(w)),
	)
}
