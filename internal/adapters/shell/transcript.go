package shell

import (
	"fmt"
	"io"

	"github.com/corey/gourmand/internal/ports"
)

// WriteTranscript prints the history, one block per line, tool traffic
// summarized in brackets.
func WriteTranscript(w io.Writer, msgs []ports.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages yet.")
		return
	}
	for _, m := range msgs {
		for _, b := range m.Content {
			switch b.Kind {
			case ports.BlockText:
				fmt.Fprintf(w, "%s: %s\n", m.Role, b.Text)
			case ports.BlockToolUse:
				fmt.Fprintf(w, "%s: [called %s (%s)]\n", m.Role, b.ToolUse.Name, b.ToolUse.ID)
			case ports.BlockToolResult:
				fmt.Fprintf(w, "%s: [%s result for %s] %s\n", m.Role, b.ToolResult.Status, b.ToolResult.ToolUseID, b.ToolResult.Text)
			default:
				fmt.Fprintf(w, "%s: [%s]\n", m.Role, b.Kind)
			}
		}
	}
}
