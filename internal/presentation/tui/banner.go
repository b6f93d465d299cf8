package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the fieldwork ASCII art banner to w.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{`   __ _      _     _                      _    `, "#34d399"},
		{`  / _(_) ___| | __| |_      _____  _ __| | __`, "#2dd4bf"},
		{` | |_| |/ _ \ |/ _' \ \ /\ / / _ \| '__| |/ /`, "#22d3ee"},
		{` |  _| |  __/ | (_| |\ V  V / (_) | |  |   < `, "#38bdf8"},
		{` |_| |_|\___|_|\__,_| \_/\_/ \___/|_|  |_|\_\`, "#60a5fa"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w)
}
