// Package output writes CLI results for humans and scripts.
//
// A Writer prints either styled text (status marks, key/value blocks,
// tables, spinners) or, in JSON mode, the raw payload so commands can be
// piped into other tools. Colors and spinners are only used on a TTY.
package output

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/fatih/color"

	"github.com/musher-dev/clawdash/internal/terminal"
)

type contextKey struct{}

// Writer handles CLI output with multiple modes.
type Writer struct {
	Out     io.Writer
	Err     io.Writer
	JSON    bool
	Quiet   bool
	Verbose bool

	terminal *terminal.Info

	successColor *color.Color
	errorColor   *color.Color
	warningColor *color.Color
	infoColor    *color.Color
	mutedColor   *color.Color
	labelColor   *color.Color
}

// Default returns a Writer configured for stdout/stderr.
func Default() *Writer {
	return NewWriter(os.Stdout, os.Stderr, terminal.Detect())
}

// NewWriter creates a Writer with custom writers and terminal info.
func NewWriter(out, err io.Writer, term *terminal.Info) *Writer {
	w := &Writer{
		Out:          out,
		Err:          err,
		terminal:     term,
		successColor: color.New(color.FgGreen),
		errorColor:   color.New(color.FgRed),
		warningColor: color.New(color.FgYellow),
		infoColor:    color.New(color.FgCyan),
		mutedColor:   color.New(color.FgHiBlack),
		labelColor:   color.New(color.Bold),
	}

	if !term.ColorEnabled() {
		color.NoColor = true
	}

	return w
}

// WithContext stores the Writer in the context.
func (w *Writer) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, w)
}

// FromContext retrieves the Writer from context, or returns Default().
func FromContext(ctx context.Context) *Writer {
	if w, ok := ctx.Value(contextKey{}).(*Writer); ok {
		return w
	}

	return Default()
}

// Terminal returns the terminal info.
func (w *Writer) Terminal() *terminal.Info {
	return w.terminal
}

// SetNoColor disables colored output.
func (w *Writer) SetNoColor(disabled bool) {
	w.terminal.ForceFlag = disabled
	if disabled {
		color.NoColor = true
	}
}

// Print writes to stdout (respects quiet mode).
func (w *Writer) Print(format string, args ...any) {
	if !w.Quiet {
		fmt.Fprintf(w.Out, format, args...)
	}
}

// Println writes a line to stdout (respects quiet mode).
func (w *Writer) Println(args ...any) {
	if !w.Quiet {
		fmt.Fprintln(w.Out, args...)
	}
}

// PrintJSON outputs structured data as indented JSON. Quiet mode does not
// apply: JSON is the command's result.
func (w *Writer) PrintJSON(v any) error {
	enc := json.NewEncoder(w.Out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

// Emit prints v as JSON in JSON mode and calls human otherwise.
func (w *Writer) Emit(v any, human func()) error {
	if w.JSON {
		return w.PrintJSON(v)
	}

	human()

	return nil
}

// Error writes to stderr.
func (w *Writer) Error(format string, args ...any) {
	fmt.Fprintf(w.Err, format, args...)
}

// Write implements io.Writer, writing to Out.
func (w *Writer) Write(p []byte) (n int, err error) {
	if w.Quiet {
		return len(p), nil
	}

	return w.Out.Write(p)
}

// Debug writes to stderr only in verbose mode.
func (w *Writer) Debug(format string, args ...any) {
	if w.Verbose {
		w.mutedColor.Fprintf(w.Err, "[debug] "+format+"\n", args...)
	}
}

func (w *Writer) writeStatus(writer io.Writer, tone *color.Color, prefix, message string) {
	if w.terminal.ColorEnabled() {
		tone.Fprint(writer, prefix+" ")
		fmt.Fprintln(writer, message)

		return
	}

	fmt.Fprintln(writer, prefix+" "+message)
}

// Success writes a success message with a checkmark.
func (w *Writer) Success(format string, args ...any) {
	if w.Quiet {
		return
	}

	w.writeStatus(w.Out, w.successColor, CheckMark, fmt.Sprintf(format, args...))
}

// Failure writes an error message with an X mark to stderr.
func (w *Writer) Failure(format string, args ...any) {
	w.writeStatus(w.Err, w.errorColor, XMark, fmt.Sprintf(format, args...))
}

// Warning writes a warning message.
func (w *Writer) Warning(format string, args ...any) {
	if w.Quiet {
		return
	}

	w.writeStatus(w.Out, w.warningColor, WarningMark, fmt.Sprintf(format, args...))
}

// Info writes an info message.
func (w *Writer) Info(format string, args ...any) {
	if w.Quiet {
		return
	}

	w.writeStatus(w.Out, w.infoColor, InfoMark, fmt.Sprintf(format, args...))
}

// Muted writes muted/gray text.
func (w *Writer) Muted(format string, args ...any) {
	if w.Quiet {
		return
	}

	msg := fmt.Sprintf(format, args...)
	if w.terminal.ColorEnabled() {
		w.mutedColor.Fprintln(w.Out, msg)
	} else {
		fmt.Fprintln(w.Out, msg)
	}
}

// Field is one labeled value in a KeyValues block.
type Field struct {
	Label string
	Value string
}

// KeyValues prints aligned "label  value" lines. Empty values print as "-".
func (w *Writer) KeyValues(fields ...Field) {
	if w.Quiet {
		return
	}

	width := 0
	for _, f := range fields {
		width = max(width, len(f.Label))
	}

	for _, f := range fields {
		value := f.Value
		if value == "" {
			value = "-"
		}

		label := fmt.Sprintf("%-*s", width, f.Label)
		if w.terminal.ColorEnabled() {
			label = w.labelColor.Sprint(label)
		}

		fmt.Fprintf(w.Out, "%s  %s\n", label, value)
	}
}

// Table prints rows under headers as borderless aligned columns. Cells wider
// than the terminal allows are truncated.
func (w *Writer) Table(headers []string, rows [][]string) {
	if w.Quiet {
		return
	}

	if len(rows) == 0 {
		w.Muted("(none)")
		return
	}

	headerStyle := lipgloss.NewStyle().PaddingRight(2)
	if w.terminal.ColorEnabled() {
		headerStyle = headerStyle.Bold(true)
	}

	cellStyle := lipgloss.NewStyle().PaddingRight(2)

	t := table.New().
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(false).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}

			return cellStyle
		})

	if w.terminal.IsTTY && w.terminal.Width > 0 {
		t = t.Width(w.terminal.Width)
	}

	out := t.String()

	lines := strings.Split(out, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}

	fmt.Fprintln(w.Out, strings.Join(lines, "\n"))
}

// Status symbols
const (
	CheckMark   = "\u2713" // ✓
	XMark       = "\u2717" // ✗
	WarningMark = "\u26A0" // ⚠
	InfoMark    = "\u2139" // ℹ
)

// Spinner creates a new spinner for long operations. Without a TTY, or in
// quiet or JSON mode, the returned spinner prints plain progress text or
// nothing.
func (w *Writer) Spinner(message string) *Spinner {
	if w.Quiet || w.JSON || !w.terminal.SpinnersEnabled() {
		return &Spinner{disabled: true, silent: w.JSON, message: message, writer: w}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Writer = w.Err
	s.Suffix = " " + message

	return &Spinner{
		spinner: s,
		message: message,
		writer:  w,
	}
}

// Spinner wraps briandowns/spinner with graceful fallback.
type Spinner struct {
	spinner  *spinner.Spinner
	message  string
	writer   *Writer
	disabled bool
	silent   bool
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if s.disabled {
		if !s.silent {
			s.writer.Print("%s... ", s.message)
		}

		return
	}

	s.spinner.Start()
}

// Stop stops the spinner animation.
func (s *Spinner) Stop() {
	if s.disabled {
		if !s.silent {
			s.writer.Println()
		}

		return
	}

	s.spinner.Stop()
}

// StopWithSuccess stops spinner and shows success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.stop("done")

	if message != "" {
		s.writer.Success("%s", message)
	}
}

// StopWithFailure stops spinner and shows failure message.
func (s *Spinner) StopWithFailure(message string) {
	s.stop("failed")

	if message != "" {
		s.writer.Failure("%s", message)
	}
}

func (s *Spinner) stop(plain string) {
	if s.disabled {
		if !s.silent {
			s.writer.Println(plain)
		}

		return
	}

	s.spinner.Stop()
}

// UpdateMessage changes the spinner message.
func (s *Spinner) UpdateMessage(message string) {
	s.message = message
	if !s.disabled {
		s.spinner.Suffix = " " + message
	}
}
