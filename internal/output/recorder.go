package output

import "sync"

type Entry struct {
	Type    LogType
	Message string
}

// Recorder keeps every message it receives. It is used by tests and by
// callers that want to inspect script output after the fact.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Log(logType LogType, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, Entry{Type: logType, Message: message})
}

func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Messages returns the messages logged with the given type.
func (r *Recorder) Messages(logType LogType) []string {
	var msgs []string
	for _, e := range r.Entries() {
		if e.Type == logType {
			msgs = append(msgs, e.Message)
		}
	}
	return msgs
}
