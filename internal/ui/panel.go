package ui

import (
	"fmt"
	"io"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Makepad-fr/tada-remote/internal/model"
)

var ansiRegexp = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func stripANSI(s string) string { return ansiRegexp.ReplaceAllString(s, "") }

func visibleWidth(s string) int { return utf8.RuneCountInString(stripANSI(s)) }

// Panel draws a framed box using the current theme.
func Panel(w io.Writer, lines []string) {
	t := Current()
	// compute visible width
	maxw := 0
	for _, ln := range lines {
		if vw := visibleWidth(ln); vw > maxw {
			maxw = vw
		}
	}
	pad := func(s string) string {
		if vis := visibleWidth(s); vis < maxw {
			s = s + strings.Repeat(" ", maxw-vis)
		}
		return s
	}
	fmt.Fprintln(w, t.CornerTL+strings.Repeat(t.H, maxw+2)+t.CornerTR)
	for _, ln := range lines {
		fmt.Fprintln(w, t.V+" "+pad(ln)+" "+t.V)
	}
	fmt.Fprintln(w, t.CornerBL+strings.Repeat(t.H, maxw+2)+t.CornerBR)
}

// TodoLines renders a header plus one line per todo, ids right-aligned.
func TodoLines(username string, todos []model.Todo) []string {
	t := Current()
	header := C(t.Title, "Todos")
	if username != "" {
		header += C(t.Muted, " · "+username)
	}
	header += "  " + C(t.Accent, fmt.Sprintf("Total %d", len(todos)))

	lines := []string{header}
	if len(todos) == 0 {
		return append(lines, C(t.Muted, "nothing to do"))
	}
	idw := 1
	for _, td := range todos {
		if n := len(fmt.Sprint(td.ID)); n > idw {
			idw = n
		}
	}
	for _, td := range todos {
		id := fmt.Sprintf("#%-*d", idw, td.ID)
		lines = append(lines, fmt.Sprintf("%s %s %s", C(t.Pending, t.Bullet), C(t.Muted, id), td.Content))
	}
	return lines
}
