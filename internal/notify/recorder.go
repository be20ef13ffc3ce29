package notify

import "sync"

// Recorder is a Notifier that remembers every message, used by tests and the CLI
type Recorder struct {
	mu        sync.Mutex
	successes []string
	errors    []string
}

var _ Notifier = (*Recorder)(nil)

func (r *Recorder) Success(msg string) {
	r.mu.Lock()
	r.successes = append(r.successes, msg)
	r.mu.Unlock()
}

func (r *Recorder) Error(msg string) {
	r.mu.Lock()
	r.errors = append(r.errors, msg)
	r.mu.Unlock()
}

func (r *Recorder) Successes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.successes...)
}

func (r *Recorder) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

// Count returns the total number of messages
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.successes) + len(r.errors)
}
