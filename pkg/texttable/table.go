// Package texttable renders small ASCII tables for monospace chat output.
package texttable

import (
	"fmt"
	"strings"
)

// Table accumulates rows and renders them with +---+ separators and
// centered cells. Column widths grow to fit the widest value.
type Table struct {
	labels []string
	widths []int
	rows   [][]string
}

// New creates a table with the given column labels.
func New(labels ...string) *Table {
	t := &Table{labels: append([]string(nil), labels...)}
	t.widths = make([]int, len(labels))
	for i, l := range labels {
		t.widths[i] = len(l) + 2
	}
	return t
}

// AddRow appends a row. Values are stringified with fmt.Sprint.
// The number of values must match the number of columns.
func (t *Table) AddRow(values ...any) {
	if len(values) != len(t.labels) {
		panic(fmt.Sprintf("texttable: row has %d values, table has %d columns", len(values), len(t.labels)))
	}
	row := make([]string, len(values))
	for i, v := range values {
		row[i] = fmt.Sprint(v)
		if w := len(row[i]) + 2; w > t.widths[i] {
			t.widths[i] = w
		}
	}
	t.rows = append(t.rows, row)
}

// String renders the table.
func (t *Table) String() string {
	var b strings.Builder
	sep := t.separator()

	b.WriteString(sep)
	b.WriteByte('\n')
	t.writeRow(&b, t.labels)
	b.WriteString(sep)
	b.WriteByte('\n')
	for _, row := range t.rows {
		t.writeRow(&b, row)
	}
	b.WriteString(sep)
	return b.String()
}

func (t *Table) separator() string {
	var b strings.Builder
	for _, w := range t.widths {
		b.WriteByte('+')
		b.WriteString(strings.Repeat("-", w))
	}
	b.WriteByte('+')
	return b.String()
}

func (t *Table) writeRow(b *strings.Builder, row []string) {
	for i, val := range row {
		b.WriteByte('|')
		b.WriteString(center(val, t.widths[i]))
	}
	b.WriteString("|\n")
}

func center(s string, width int) string {
	pad := width - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", pad-left)
}
