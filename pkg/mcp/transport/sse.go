package transport

import (
	"bufio"
	"io"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// sseEvent is one decoded Server-Sent Events record. Only the name, id and
// accumulated data are meaningful to MCP; any other field line is ignored.
type sseEvent struct {
	Name string
	ID   string
	Data string
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// decodeSSE reads r as an SSE stream per spec §4.1's framing rules: events
// are delimited by a blank line, "field: value" lines accumulate within an
// event, only "data:" is semantically meaningful here (repeats concatenate
// with "\n"), and lines starting with ":" are comments. onEvent is called
// once per assembled event; returning an error from onEvent stops the
// scan and is returned to the caller (used by the background reader to
// unwind on context cancellation).
func decodeSSE(r io.Reader, onEvent func(sseEvent) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var cur sseEvent
	var dataLines []string
	flush := func() error {
		if len(dataLines) == 0 && cur.Name == "" && cur.ID == "" {
			return nil
		}
		cur.Data = strings.Join(dataLines, "\n")
		err := onEvent(cur)
		cur = sseEvent{}
		dataLines = nil
		return err
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == "" {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue // comment
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			cur.Name = value
		case "id":
			cur.ID = value
		case "data":
			dataLines = append(dataLines, value)
		default:
			// retry, or unknown field: not semantically meaningful for MCP
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}
	return flush()
}
