package activity

import (
	"context"
	"sync"
)

// CaptureHook keeps every event it is handed, normalized. When Err is set
// it is returned from each Notify after the event is kept.
type CaptureHook struct {
	mu     sync.Mutex
	Events []Event
	Err    error
}

func (h *CaptureHook) Notify(_ context.Context, event Event) error {
	event = NormalizeEvent(event)
	h.mu.Lock()
	h.Events = append(h.Events, event)
	h.mu.Unlock()
	return h.Err
}

// Verbs lists the verbs received so far, oldest first.
func (h *CaptureHook) Verbs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.Events))
	for _, event := range h.Events {
		out = append(out, event.Verb)
	}
	return out
}

// ByVerb returns the received events carrying verb.
func (h *CaptureHook) ByVerb(verb string) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []Event
	for _, event := range h.Events {
		if event.Verb == verb {
			out = append(out, event)
		}
	}
	return out
}
