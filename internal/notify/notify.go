// Package notify delivers transient success and error messages to the admin user.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vitrine/storefront/pkg/common"
)

const (
	KindSuccess = "success"
	KindError   = "error"

	SuccessLifetime = 2 * time.Second
	ErrorLifetime   = 4 * time.Second
)

// Notifier shows a short-lived message to the user
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Toast is one queued notification
type Toast struct {
	ID        int64     `json:"id,string"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the toast is no longer displayed at now
func (t Toast) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Feed keeps toasts in memory until they expire or are drained by the client
type Feed struct {
	mu     sync.Mutex
	toasts []Toast
	now    func() time.Time
}

var _ Notifier = (*Feed)(nil)

func NewFeed() *Feed {
	return &Feed{now: time.Now}
}

func (f *Feed) Success(msg string) {
	f.push(KindSuccess, msg, SuccessLifetime)
	zap.L().Info(msg, zap.String("namespace", "notify"), zap.String("kind", KindSuccess))
}

func (f *Feed) Error(msg string) {
	f.push(KindError, msg, ErrorLifetime)
	zap.L().Warn(msg, zap.String("namespace", "notify"), zap.String("kind", KindError))
}

func (f *Feed) push(kind, msg string, lifetime time.Duration) {
	now := f.now()
	f.mu.Lock()
	f.toasts = append(f.toasts, Toast{
		ID:        common.UUIDint64(),
		Kind:      kind,
		Message:   msg,
		CreatedAt: now,
		ExpiresAt: now.Add(lifetime),
	})
	f.mu.Unlock()
}

// Active returns the toasts still displayed at now, oldest first
func (f *Feed) Active(now time.Time) []Toast {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Toast, 0, len(f.toasts))
	for _, t := range f.toasts {
		if !t.Expired(now) {
			out = append(out, t)
		}
	}
	return out
}

// Drain hands the unexpired toasts over once and empties the feed
func (f *Feed) Drain() []Toast {
	now := f.now()
	f.mu.Lock()
	pending := f.toasts
	f.toasts = nil
	f.mu.Unlock()

	out := make([]Toast, 0, len(pending))
	for _, t := range pending {
		if !t.Expired(now) {
			out = append(out, t)
		}
	}
	return out
}

// Sweep drops expired toasts and returns how many were removed
func (f *Feed) Sweep() int {
	now := f.now()
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.toasts[:0]
	for _, t := range f.toasts {
		if !t.Expired(now) {
			kept = append(kept, t)
		}
	}
	removed := len(f.toasts) - len(kept)
	f.toasts = kept
	return removed
}

// Len returns the number of queued toasts, expired ones included
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.toasts)
}
