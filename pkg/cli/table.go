package cli

import (
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ansiRe matches the SGR escape sequences written by the colour helpers.
var ansiRe = regexp.MustCompile("\033\\[[0-9;]*m")

// visualLen is the number of terminal columns s occupies.
func visualLen(s string) int {
	return utf8.RuneCountInString(ansiRe.ReplaceAllString(s, ""))
}

// Table buffers rows and writes them column-aligned on Flush, under a bold
// header and a dash divider. Coloured cells are aligned by their visible
// width. A table with no rows prints nothing.
type Table struct {
	out     io.Writer
	headers []string
	rows    [][]string
}

// NewTable creates a table on stdout with the given column headers.
func NewTable(headers ...string) *Table {
	return NewTableTo(os.Stdout, headers...)
}

// NewTableTo creates a table writing to out.
func NewTableTo(out io.Writer, headers ...string) *Table {
	return &Table{out: out, headers: headers}
}

// Row adds a row. Missing cells are blank; extra cells are dropped.
func (t *Table) Row(values ...string) {
	row := make([]string, len(t.headers))
	copy(row, values)
	t.rows = append(t.rows, row)
}

// Len returns the number of rows added so far.
func (t *Table) Len() int { return len(t.rows) }

// Flush writes the table and resets it.
func (t *Table) Flush() {
	if len(t.rows) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = len(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if n := visualLen(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	dividers := make([]string, len(t.headers))
	headers := make([]string, len(t.headers))
	for i, h := range t.headers {
		dividers[i] = strings.Repeat("-", len(h))
		headers[i] = Bold(h)
	}

	var b strings.Builder
	t.line(&b, headers, widths)
	t.line(&b, dividers, widths)
	for _, row := range t.rows {
		t.line(&b, row, widths)
	}
	io.WriteString(t.out, b.String())
	t.rows = nil
}

func (t *Table) line(b *strings.Builder, cells []string, widths []int) {
	var l strings.Builder
	for i, cell := range cells {
		l.WriteString(cell)
		if i < len(cells)-1 {
			l.WriteString(strings.Repeat(" ", widths[i]-visualLen(cell)+2))
		}
	}
	b.WriteString(strings.TrimRight(l.String(), " "))
	b.WriteByte('\n')
}
