package gateway

import (
	"net/http"
	"strings"
)

const contentTypeEventStream = "text/event-stream"

// writeEventFrame writes a single SSE frame: "event: <event>\ndata: <data>\n\n".
// Multi-line payloads are split across data lines per the SSE format.
func writeEventFrame(w http.ResponseWriter, event, data string) error {
	var b strings.Builder

	b.WriteString("event: ")
	b.WriteString(event)
	b.WriteString("\n")

	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")

	if _, err := w.Write([]byte(b.String())); err != nil {
		return err
	}

	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}

	return nil
}
