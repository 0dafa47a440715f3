// Package ui prints run summaries for the imagereport CLI.
package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize/english"
	"golang.org/x/term"
)

// ANSI color codes.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// Writer prints status lines. Everything goes to one stream, stderr by
// default, so stdout stays free for workflow and list output.
type Writer struct {
	out     io.Writer
	noColor bool
}

// NewWriter creates a Writer on stderr. Color is disabled when noColor is
// true, NO_COLOR is set or stderr is not a terminal.
func NewWriter(noColor bool) *Writer {
	return &Writer{
		out:     os.Stderr,
		noColor: noColor || os.Getenv("NO_COLOR") != "" || !term.IsTerminal(int(os.Stderr.Fd())),
	}
}

// NewWriterWithOutput creates a Writer on out.
func NewWriterWithOutput(out io.Writer, noColor bool) *Writer {
	return &Writer{out: out, noColor: noColor}
}

// Generated reports a written workflow.
func (w *Writer) Generated(path string, images int) {
	w.line(colorGreen, "✓", fmt.Sprintf("wrote %s with %s", path, english.Plural(images, "image", "")))
}

// UpToDate reports a check run that found no drift.
func (w *Writer) UpToDate(path string) {
	w.line(colorGreen, "✓", path+" is up to date")
}

// Outdated reports a check run that found drift.
func (w *Writer) Outdated(path string) {
	w.line(colorYellow, "warning:", path+" is out of date, run imagereport generate")
}

// Error prints err with a red prefix.
func (w *Writer) Error(err error) {
	w.line(colorRed, "error:", err.Error())
}

func (w *Writer) line(color, prefix, msg string) {
	if !w.noColor {
		prefix = color + prefix + colorReset
	}

	// Best-effort output; if stderr fails there's nothing useful to do.
	_, _ = fmt.Fprintf(w.out, "%s %s\n", prefix, msg)
}
