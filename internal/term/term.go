// Package term renders CLI reports with ANSI styling when the output
// supports it.
package term

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-isatty"
)

// Printer writes styled text to one destination. Styling is disabled when
// the destination is not a terminal, NO_COLOR is set, or TERM is dumb.
type Printer struct {
	out   io.Writer
	level int
}

func NewPrinter(w io.Writer) *Printer {
	return &Printer{out: w, level: detectColorLevel(w)}
}

// detectColorLevel reports color support for w: 0 none, 1 basic (16),
// 256, or 16777216 for truecolor.
func detectColorLevel(w io.Writer) int {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return 0
	}

	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		return 0
	}

	term := os.Getenv("TERM")
	if term == "dumb" {
		return 0
	}

	colorTerm := os.Getenv("COLORTERM")
	if colorTerm == "truecolor" || colorTerm == "24bit" {
		return 16777216
	}
	if strings.Contains(term, "256color") {
		return 256
	}
	return 1
}

func (p *Printer) wrap(code, reset, s string) string {
	if p.level == 0 {
		return s
	}
	return code + s + reset
}

func (p *Printer) fg(colorCode int, s string) string {
	return p.wrap(fmt.Sprintf("\033[%dm", colorCode), "\033[39m", s)
}

func (p *Printer) Red(s string) string { return p.fg(31, s) }

func (p *Printer) Green(s string) string { return p.fg(32, s) }

func (p *Printer) Yellow(s string) string { return p.fg(33, s) }

func (p *Printer) Cyan(s string) string { return p.fg(36, s) }

func (p *Printer) Bold(s string) string { return p.wrap("\033[1m", "\033[22m", s) }

func (p *Printer) Dim(s string) string { return p.wrap("\033[2m", "\033[22m", s) }

func (p *Printer) Printf(format string, args ...interface{}) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *Printer) Println(args ...interface{}) {
	fmt.Fprintln(p.out, args...)
}

// Table renders headers and rows in a box-drawn grid. Header cells are
// bold when styling is on. Column widths follow the widest visible cell,
// so styled cells align.
func (p *Printer) Table(headers []string, rows [][]string) {
	numCols := len(headers)
	widths := make([]int, numCols)
	for i, h := range headers {
		if w := visibleLen(h); w > widths[i] {
			widths[i] = w
		}
	}
	for _, row := range rows {
		for i := 0; i < numCols && i < len(row); i++ {
			if w := visibleLen(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	const (
		topLeft     = "┌"
		topRight    = "┐"
		bottomLeft  = "└"
		bottomRight = "┘"
		horizontal  = "─"
		vertical    = "│"
		teeDown     = "┬"
		teeUp       = "┴"
		teeRight    = "├"
		teeLeft     = "┤"
		cross       = "┼"
	)

	buildSep := func(left, mid, right string) string {
		parts := make([]string, numCols)
		for i, w := range widths {
			parts[i] = strings.Repeat(horizontal, w+2)
		}
		return left + strings.Join(parts, mid) + right
	}

	buildRow := func(cells []string) string {
		parts := make([]string, numCols)
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			padding := widths[i] - visibleLen(cell)
			if padding < 0 {
				padding = 0
			}
			parts[i] = " " + cell + strings.Repeat(" ", padding) + " "
		}
		return vertical + strings.Join(parts, vertical) + vertical
	}

	var sb strings.Builder
	sb.WriteString(buildSep(topLeft, teeDown, topRight))
	sb.WriteByte('\n')

	headerCells := headers
	if p.level > 0 {
		headerCells = make([]string, len(headers))
		for i, h := range headers {
			headerCells[i] = "\033[1m" + h + "\033[22m"
		}
	}
	sb.WriteString(buildRow(headerCells))
	sb.WriteByte('\n')

	sb.WriteString(buildSep(teeRight, cross, teeLeft))
	sb.WriteByte('\n')

	for _, row := range rows {
		sb.WriteString(buildRow(row))
		sb.WriteByte('\n')
	}

	sb.WriteString(buildSep(bottomLeft, teeUp, bottomRight))
	fmt.Fprintln(p.out, sb.String())
}

var ansiRegex = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// visibleLen is the display width of s, ignoring ANSI escape codes.
func visibleLen(s string) int {
	return utf8.RuneCountInString(ansiRegex.ReplaceAllString(s, ""))
}
