package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Output handles formatted output for the CLI.
type Output struct {
	writer       io.Writer
	jsonMode     bool
	colorEnabled bool
}

// NewOutput creates a new Output instance.
func NewOutput(cmd *cobra.Command) *Output {
	jsonMode, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")
	return &Output{
		writer:       cmd.OutOrStdout(),
		jsonMode:     jsonMode,
		colorEnabled: !jsonMode && !noColor && !color.NoColor && isTerminal(),
	}
}

// redirect returns an Output writing to w without colour, for status lines
// that must stay off stdout.
func (o *Output) redirect(w io.Writer) *Output {
	return &Output{writer: w, jsonMode: o.jsonMode}
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// IsJSON returns true if JSON output mode is enabled.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// JSON outputs data as JSON.
func (o *Output) JSON(data interface{}) error {
	encoder := json.NewEncoder(o.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

// Println prints a message with newline.
func (o *Output) Println(args ...interface{}) {
	fmt.Fprintln(o.writer, args...)
}

// Printf prints a formatted message.
func (o *Output) Printf(format string, args ...interface{}) {
	fmt.Fprintf(o.writer, format, args...)
}

// Success prints a success message in green.
func (o *Output) Success(format string, args ...interface{}) {
	o.line(color.New(color.FgGreen), format, args...)
}

// Error prints an error message in red.
func (o *Output) Error(format string, args ...interface{}) {
	o.line(color.New(color.FgRed), format, args...)
}

// Warning prints a warning message in yellow.
func (o *Output) Warning(format string, args ...interface{}) {
	o.line(color.New(color.FgYellow), format, args...)
}

// Info prints an info message in cyan.
func (o *Output) Info(format string, args ...interface{}) {
	o.line(color.New(color.FgCyan), format, args...)
}

// Bold prints a bold message.
func (o *Output) Bold(format string, args ...interface{}) {
	o.line(color.New(color.Bold), format, args...)
}

// Dim prints a dimmed message.
func (o *Output) Dim(format string, args ...interface{}) {
	o.line(color.New(color.Faint), format, args...)
}

func (o *Output) line(c *color.Color, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(o.writer, o.paint(c, msg))
}

// paint applies c when colour output is on.
func (o *Output) paint(c *color.Color, text string) string {
	if !o.colorEnabled {
		return text
	}
	c.EnableColor()
	return c.Sprint(text)
}

// Green returns green colored text.
func (o *Output) Green(text string) string {
	return o.paint(color.New(color.FgGreen), text)
}

// Red returns red colored text.
func (o *Output) Red(text string) string {
	return o.paint(color.New(color.FgRed), text)
}

// Magenta returns magenta colored text.
func (o *Output) Magenta(text string) string {
	return o.paint(color.New(color.FgMagenta), text)
}

// Status prints the data loading status line.
func (o *Output) Status(status string) {
	switch {
	case strings.HasSuffix(status, "done!"):
		o.Success("%s", status)
	case strings.HasSuffix(status, "Failed!"):
		o.Error("%s", status)
	default:
		o.Dim("%s", status)
	}
}

// Change formats a price move with its sign and colour.
func (o *Output) Change(from, to float64) string {
	if from == 0 {
		return "n/a"
	}
	pct := (to - from) / from * 100
	text := fmt.Sprintf("%+.2f%%", pct)
	switch {
	case pct > 0:
		return o.Green(text)
	case pct < 0:
		return o.Red(text)
	}
	return text
}

// Table represents a simple table for output.
type Table struct {
	headers []string
	rows    [][]string
	output  *Output
}

// NewTable creates a new table.
func NewTable(output *Output, headers ...string) *Table {
	return &Table{
		headers: headers,
		output:  output,
	}
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table. Columns are padded to the widest cell and
// right-aligned except the first.
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = displayWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && displayWidth(cell) > widths[i] {
				widths[i] = displayWidth(cell)
			}
		}
	}

	t.printRow(t.headers, widths, true)
	parts := make([]string, len(widths))
	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	t.output.Println(t.output.paint(color.New(color.Faint), strings.Join(parts, "──")))

	for _, row := range t.rows {
		t.printRow(row, widths, false)
	}
}

func (t *Table) printRow(cells []string, widths []int, isHeader bool) {
	parts := make([]string, 0, len(cells))
	for i, cell := range cells {
		if i >= len(widths) {
			break
		}
		pad := strings.Repeat(" ", widths[i]-displayWidth(cell))
		padded := pad + cell
		if i == 0 {
			padded = cell + pad
		}
		if isHeader {
			padded = t.output.paint(color.New(color.Bold), padded)
		}
		parts = append(parts, padded)
	}
	t.output.Println(strings.Join(parts, "  "))
}

// displayWidth counts runes, which is close enough for the ₹ sign.
func displayWidth(s string) int {
	return len([]rune(s))
}

// Box draws a box around content.
func (o *Output) Box(title string, content []string) {
	width := displayWidth(title)
	for _, line := range content {
		if w := displayWidth(stripColor(line)); w > width {
			width = w
		}
	}
	border := strings.Repeat("─", width+2)
	dim := color.New(color.Faint)

	o.Println(o.paint(dim, "┌" + border + "┐"))
	o.Printf("%s %s%s %s\n", o.paint(dim, "│"), o.paint(color.New(color.Bold), title),
		strings.Repeat(" ", width-displayWidth(title)), o.paint(dim, "│"))
	o.Println(o.paint(dim, "├" + border + "┤"))
	for _, line := range content {
		o.Printf("%s %s%s %s\n", o.paint(dim, "│"), line,
			strings.Repeat(" ", width-displayWidth(stripColor(line))), o.paint(dim, "│"))
	}
	o.Println(o.paint(dim, "└" + border + "┘"))
}

// stripColor removes SGR escape sequences.
func stripColor(s string) string {
	var b strings.Builder
	inEscape := false
	for _, r := range s {
		switch {
		case r == '\x1b':
			inEscape = true
		case inEscape && r == 'm':
			inEscape = false
		case !inEscape:
			b.WriteRune(r)
		}
	}
	return b.String()
}
