package cmd

import "io"

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
)

// paint wraps s in color when w is a terminal.
func paint(w io.Writer, color, s string) string {
	if !isTTY(w) {
		return s
	}
	return color + s + colorReset
}
