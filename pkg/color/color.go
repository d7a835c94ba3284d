package color

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const reset = "\033[0m"

// SGR parameters.
const (
	FgRed    = 31
	FgGreen  = 32
	FgYellow = 33
	FgCyan   = 36
	FgWhite  = 37

	Bold = 1
	Dim  = 2
)

// enabled honors the NO_COLOR convention.
var enabled = os.Getenv("NO_COLOR") == ""

// Color is a reusable set of SGR attributes.
type Color struct {
	seq string
}

// New builds a Color from SGR parameters.
func New(attrs ...int) *Color {
	if len(attrs) == 0 {
		return &Color{}
	}
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = strconv.Itoa(a)
	}
	return &Color{seq: "\033[" + strings.Join(parts, ";") + "m"}
}

func (c *Color) wrap(s string) string {
	if !enabled || c.seq == "" {
		return s
	}
	return c.seq + s + reset
}

// Printf writes colored formatted output to stdout.
func (c *Color) Printf(format string, a ...any) {
	fmt.Print(c.wrap(fmt.Sprintf(format, a...)))
}

// Fprintf writes colored formatted output to w.
func (c *Color) Fprintf(w io.Writer, format string, a ...any) {
	fmt.Fprint(w, c.wrap(fmt.Sprintf(format, a...)))
}

// Sprintf returns a colored formatted string.
func (c *Color) Sprintf(format string, a ...any) string {
	return c.wrap(fmt.Sprintf(format, a...))
}

// Sprint returns a colored string.
func (c *Color) Sprint(a ...any) string {
	return c.wrap(fmt.Sprint(a...))
}
