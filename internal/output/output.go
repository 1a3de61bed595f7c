package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Format selects how command results are rendered.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// String returns the format name.
func (f Format) String() string {
	return string(f)
}

// UnmarshalText implements encoding.TextUnmarshaler. Empty means text.
func (f *Format) UnmarshalText(text []byte) error {
	switch Format(strings.ToLower(string(text))) {
	case "", FormatText:
		*f = FormatText
	case FormatJSON:
		*f = FormatJSON
	case FormatYAML:
		*f = FormatYAML
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", string(text))
	}
	return nil
}

// Printer renders command results as styled text, JSON or YAML.
type Printer struct {
	w      io.Writer
	errW   io.Writer
	format Format
	styles *Styles
}

// NewPrinter creates a new Printer.
// If isTTY is true, colors will be enabled for text output.
func NewPrinter(w io.Writer, format Format, isTTY bool) *Printer {
	styles := PlainStyles()
	if isTTY && format == FormatText {
		styles = DefaultStyles()
	}
	if format == "" {
		format = FormatText
	}
	return &Printer{
		w:      w,
		errW:   w,
		format: format,
		styles: styles,
	}
}

// WithStderr sets a separate writer for errors and warnings.
// Returns the printer for chaining.
func (p *Printer) WithStderr(w io.Writer) *Printer {
	p.errW = w
	return p
}

// Format returns the output format.
func (p *Printer) Format() Format {
	return p.format
}

// Styles returns the active styles.
func (p *Printer) Styles() *Styles {
	return p.styles
}

// Result writes data as JSON or YAML, or calls text to render it for humans.
func (p *Printer) Result(data any, text func(p *Printer)) error {
	switch p.format {
	case FormatJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return fmt.Errorf("encoding YAML: %w", err)
		}
		return enc.Close()
	default:
		text(p)
		return nil
	}
}

// Title writes a section title.
func (p *Printer) Title(title string) {
	fmt.Fprintln(p.w, p.styles.Title.Render(title))
}

// KeyValue writes an aligned "key value" line.
func (p *Printer) KeyValue(key, value string) {
	fmt.Fprintf(p.w, "%s %s\n", p.styles.Label.Render(key+":"), p.styles.Value.Render(value))
}

// Line writes a line of plain output.
func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Success writes a success message.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintln(p.w, p.styles.Success.Render(fmt.Sprintf(format, args...)))
}

// Warn writes a warning to the error writer.
func (p *Printer) Warn(format string, args ...any) {
	fmt.Fprintf(p.errW, "%s: %s\n", p.styles.Warning.Render("Warning"), fmt.Sprintf(format, args...))
}

// Error writes err to the error writer.
func (p *Printer) Error(err error) {
	message := err.Error()
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		message = exitErr.Message
	}
	fmt.Fprintf(p.errW, "%s: %s\n", p.styles.Error.Render("Error"), message)
}

// Table renders rows under bold headers with auto-sized columns.
func (p *Printer) Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	header := make([]string, len(headers))
	for i, h := range headers {
		header[i] = p.styles.Title.Render(padRight(h, widths[i]))
	}
	fmt.Fprintln(p.w, strings.TrimRight(strings.Join(header, "  "), " "))

	for _, row := range rows {
		cells := make([]string, 0, len(widths))
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			cells = append(cells, padRight(cell, widths[i]))
		}
		fmt.Fprintln(p.w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

// padRight pads s to width visible cells; ANSI styling does not count.
func padRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}

// IsTTY reports whether writer is a terminal.
func IsTTY(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	stat, err := file.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
