package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"   __                        _ ", "#f59e0b"},
	{"  / _|_  _ _ _  _ _  ___| |", "#f97316"},
	{" |  _| || | ' \\| ' \\/ -_) |", "#ef4444"},
	{" |_|  \\_,_|_||_|_||_\\___|_|", "#ec4899"},
}

// PrintBanner writes the funnel banner, colored when the terminal allows it.
func PrintBanner(w io.Writer) {
	out := termenv.NewOutput(w)
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, out.String(line.text).Foreground(out.Color(line.color)))
	}
	fmt.Fprintln(w)
}

// Notice styles a one-line system message.
func Notice(w io.Writer, msg string) string {
	out := termenv.NewOutput(w)
	return out.String(">>> " + msg).Faint().String()
}
