package webchat

import "strings"

// Event is one decoded server-sent event payload.
type Event struct {
	Name string
	Data string
}

// scanState is the per-stream SSE parser state: the pending event name
// set by "event:" lines and reset by blank lines.
type scanState struct {
	pendingEvent string
}

// Feed consumes one line of the stream and returns a decoded event
// when the line carries a data payload.
func (s *scanState) Feed(line string) (Event, bool) {
	line = strings.TrimRight(line, "\r")

	if line == "" {
		s.pendingEvent = ""
		return Event{}, false
	}

	if name, ok := strings.CutPrefix(line, "event:"); ok {
		s.pendingEvent = strings.TrimSpace(name)
		return Event{}, false
	}

	if data, ok := strings.CutPrefix(line, "data:"); ok {
		return Event{Name: s.pendingEvent, Data: strings.TrimSpace(data)}, true
	}

	// Comment lines and unknown fields are ignored.
	return Event{}, false
}
