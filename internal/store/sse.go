package store

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// readEventStream parses a text/event-stream body and calls handle with the
// data payload of each event. Comment lines and event names are ignored;
// multi-line data is joined with newlines per the SSE wire format. Returns
// nil when the stream ends cleanly.
func readEventStream(body io.Reader, handle func(data []byte) error) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	var data bytes.Buffer
	flush := func() error {
		if data.Len() == 0 {
			return nil
		}
		payload := make([]byte, data.Len())
		copy(payload, data.Bytes())
		data.Reset()
		return handle(payload)
	}

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case line == "":
			if err := flush(); err != nil {
				return err
			}
		case strings.HasPrefix(line, ":"):
			// keep-alive comment
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return flush()
}
