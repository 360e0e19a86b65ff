package cli

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the service banner. Colors follow the terminal profile of w.
func PrintBanner(w io.Writer, version, addr, model string) {
	out := termenv.NewOutput(w)
	title := out.String("treetagger").Foreground(out.Color("#818cf8")).Bold()
	ver := out.String(version).Foreground(out.Color("#c084fc"))
	dim := func(s string) termenv.Style { return out.String(s).Faint() }

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s %s\n", title, ver)
	fmt.Fprintf(w, "  %s %s\n", dim("model "), model)
	fmt.Fprintf(w, "  %s %s\n", dim("listen"), addr)
	fmt.Fprintln(w)
}
