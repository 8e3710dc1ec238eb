package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ANSI styles
const (
	reset   = "\033[0m"
	bold    = "\033[1m"
	red     = "\033[31;1m"
	green   = "\033[32;1m"
	yellow  = "\033[33m"
	cyan    = "\033[36m"
	noColor = "NO_COLOR"
)

// Stdout and Stderr are swapped out by tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

func paint(style, s string) string {
	if os.Getenv(noColor) != "" {
		return s
	}
	return style + s + reset
}

func Success(format string, a ...interface{}) {
	fmt.Fprintln(Stdout, paint(green, "✓ "+fmt.Sprintf(format, a...)))
}

func Error(format string, a ...interface{}) {
	fmt.Fprintln(Stderr, paint(red, "✗ "+fmt.Sprintf(format, a...)))
}

func Info(format string, a ...interface{}) {
	fmt.Fprintln(Stdout, paint(cyan, fmt.Sprintf(format, a...)))
}

func Warn(format string, a ...interface{}) {
	fmt.Fprintln(Stdout, paint(yellow, "⚠ "+fmt.Sprintf(format, a...)))
}

func JSON(v interface{}) error {
	enc := json.NewEncoder(Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func YAML(v interface{}) error {
	enc := yaml.NewEncoder(Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// Print writes v as JSON or YAML, or calls table for the table format.
func Print(format string, v interface{}, table func() *Table) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		return JSON(v)
	case FormatYAML:
		return YAML(v)
	case FormatTable, "":
		if table == nil {
			return JSON(v)
		}
		table().Render()
		return nil
	default:
		return fmt.Errorf("unknown output format %q (supported: table, json, yaml)", format)
	}
}

type Table struct {
	headers []string
	rows    [][]string
}

func NewTable(headers []string) *Table {
	return &Table{
		headers: headers,
		rows:    [][]string{},
	}
}

func (t *Table) AddRow(row []string) {
	t.rows = append(t.rows, row)
}

func (t *Table) Render() {
	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = len(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var header strings.Builder
	for i, h := range t.headers {
		fmt.Fprintf(&header, "%-*s  ", widths[i], h)
	}
	fmt.Fprintln(Stdout, paint(bold, strings.TrimRight(header.String(), " ")))

	sep := make([]string, len(widths))
	for i, w := range widths {
		sep[i] = strings.Repeat("-", w)
	}
	fmt.Fprintln(Stdout, strings.Join(sep, "  "))

	for _, row := range t.rows {
		var line strings.Builder
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			fmt.Fprintf(&line, "%-*s  ", widths[i], cell)
		}
		fmt.Fprintln(Stdout, strings.TrimRight(line.String(), " "))
	}
}
