package admin

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/vitrine/storefront/internal/domain"
)

// Mode is fixed when the form is opened
type Mode int

const (
	ModeNew Mode = iota
	ModeEditing
)

func (m Mode) String() string {
	if m == ModeEditing {
		return "editing"
	}
	return "new"
}

// Status is the result of a submit attempt
type Status int

const (
	StatusInvalid Status = iota
	StatusBusy
	StatusSaved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusBusy:
		return "busy"
	case StatusSaved:
		return "saved"
	case StatusFailed:
		return "failed"
	}
	return "invalid"
}

// Submission reports what a submit did. Redirect is set only when saved.
type Submission[T any] struct {
	Status   Status
	Redirect string
	Record   T
	Errors   FieldErrors
	Err      error
}

// Form edits one record of a resource
type Form[T domain.Record] struct {
	wf       *Workflow[T]
	mode     Mode
	original *T

	mu     sync.Mutex
	values Values
	errors FieldErrors

	inflight atomic.Bool
}

// NewForm opens the form. A navigation carrying a record opens it in
// editing mode with the record's values, otherwise it starts empty.
func (w *Workflow[T]) NewForm(nav *Navigation[T]) *Form[T] {
	f := &Form[T]{wf: w, mode: ModeNew, values: w.Resource.emptyValues(), errors: FieldErrors{}}
	if nav != nil && nav.State != nil {
		rec := *nav.State
		f.mode = ModeEditing
		f.original = &rec
		for k, v := range w.Resource.Values(rec) {
			f.values[k] = v
		}
	}
	return f
}

func (f *Form[T]) Mode() Mode {
	return f.mode
}

// Original returns the record being edited, nil for a new record
func (f *Form[T]) Original() *T {
	return f.original
}

// Set changes a field value and clears its error
func (f *Form[T]) Set(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[name] = value
	delete(f.errors, name)
}

// SetAll applies several values at once
func (f *Form[T]) SetAll(values Values) {
	for k, v := range values {
		f.Set(k, v)
	}
}

func (f *Form[T]) Get(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

func (f *Form[T]) Values() Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(Values, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

func (f *Form[T]) Errors() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(FieldErrors, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Submitting reports whether a save is in flight; the submit control is disabled meanwhile
func (f *Form[T]) Submitting() bool {
	return f.inflight.Load()
}

// Cancel leaves the form without saving
func (f *Form[T]) Cancel() Navigation[T] {
	return Navigation[T]{Path: f.wf.Resource.ListPath()}
}

// Submit validates the values and saves them through the resource gateway.
// Editing always updates the original record's id.
func (f *Form[T]) Submit(ctx context.Context) Submission[T] {
	if !f.inflight.CompareAndSwap(false, true) {
		return Submission[T]{Status: StatusBusy}
	}
	defer f.inflight.Store(false)

	res := f.wf.Resource
	values := f.Values()
	if errs := res.validate(values); len(errs) > 0 {
		f.mu.Lock()
		f.errors = errs
		f.mu.Unlock()
		return Submission[T]{Status: StatusInvalid, Errors: errs}
	}
	f.mu.Lock()
	f.errors = FieldErrors{}
	f.mu.Unlock()

	fields := res.payload(values)
	var (
		rec  T
		err  error
		verb string
	)
	if f.mode == ModeEditing {
		verb = "update"
		rec, err = res.Gateway.Update(ctx, (*f.original).RecordID(), fields)
	} else {
		verb = "create"
		rec, err = res.Gateway.Create(ctx, fields)
	}
	if err != nil {
		zap.L().Error("save record failed",
			zap.String("namespace", "admin"),
			zap.String("resource", res.Name),
			zap.String("op", verb),
			zap.Error(err))
		f.wf.notifier.Error(fmt.Sprintf("Failed to %s %s: %s", verb, res.label(), err.Error()))
		return Submission[T]{Status: StatusFailed, Err: err}
	}

	// the save went through, the redirect happens even if the list refresh fails
	_ = f.wf.invalidate(ctx)
	f.wf.notifier.Success(res.Title + " " + verb + "d")
	zap.L().Info("record saved",
		zap.String("namespace", "admin"),
		zap.String("resource", res.Name),
		zap.String("op", verb),
		zap.Int64("id", rec.RecordID()))
	return Submission[T]{Status: StatusSaved, Redirect: res.ListPath(), Record: rec}
}
