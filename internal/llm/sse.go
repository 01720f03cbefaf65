package llm

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// serverSentEventScanner reads the data payloads of a Server-Sent Events
// stream, one event per Scan.
type serverSentEventScanner struct {
	scanner *bufio.Scanner
	data    string
	done    bool
}

// newServerSentEventScanner creates a new SSE scanner.
func newServerSentEventScanner(r io.Reader) *serverSentEventScanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &serverSentEventScanner{scanner: sc}
}

// Scan advances to the next data payload. It returns false at the end of
// the stream or once the [DONE] sentinel is read.
func (s *serverSentEventScanner) Scan() bool {
	if s.done {
		return false
	}
	for s.scanner.Scan() {
		line := s.scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			s.done = true
			return false
		}
		s.data = data
		return true
	}
	return false
}

// Data returns the last scanned payload.
func (s *serverSentEventScanner) Data() string {
	return s.data
}

// Err returns the first read error, if any.
func (s *serverSentEventScanner) Err() error {
	return s.scanner.Err()
}

// parseJSONSchema converts a JSON schema string to a map.
func parseJSONSchema(schemaStr string) map[string]any {
	if schemaStr == "" {
		return nil
	}

	var schema map[string]any
	if err := json.Unmarshal([]byte(schemaStr), &schema); err != nil {
		// If parsing fails, return nil - the API will handle the error
		return nil
	}

	return schema
}
