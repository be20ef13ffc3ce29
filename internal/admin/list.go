package admin

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/gateway"
	"github.com/vitrine/storefront/internal/querycache"
)

// EmptyPlaceholder is the single row shown for an empty list
const EmptyPlaceholder = "No records found."

// ListView reads and renders all rows of a resource
type ListView[T domain.Record] struct {
	wf *Workflow[T]
}

// ListState is the outcome of one list read
type ListState[T domain.Record] struct {
	Rows       []T
	Page       int
	Total      int64
	TotalPages int
	// Err replaces the list body with a banner, the read is not retried
	Err error

	res *Resource[T]
}

// Load issues one read through the query cache. Resources with a PageLimit
// are read one page at a time, others in a single ordered read-all.
func (v *ListView[T]) Load(ctx context.Context, page int) ListState[T] {
	res := v.wf.Resource
	opts := gateway.ListOptions{OrderBy: res.OrderBy}
	state := ListState[T]{res: res}

	if res.PageLimit <= 0 {
		rows, err := querycache.Fetch(ctx, v.wf.cache, res.Name, func(ctx context.Context) ([]T, error) {
			return res.Gateway.List(ctx, opts)
		})
		if err != nil {
			return v.failed(state, err)
		}
		state.Rows = rows
		state.Page = 1
		state.Total = int64(len(rows))
		if len(rows) > 0 {
			state.TotalPages = 1
		}
		return state
	}

	req := gateway.PageRequest{Page: page, Limit: res.PageLimit}.Normalize()
	key := querycache.SubKey(res.Name, "page="+strconv.Itoa(req.Page), "limit="+strconv.Itoa(req.Limit))
	p, err := querycache.Fetch(ctx, v.wf.cache, key, func(ctx context.Context) (gateway.Page[T], error) {
		return res.Gateway.ListPage(ctx, req, opts)
	})
	if err != nil {
		return v.failed(state, err)
	}
	state.Rows = p.Items
	state.Page = req.Page
	state.Total = p.Total
	state.TotalPages = p.TotalPages
	return state
}

func (v *ListView[T]) failed(state ListState[T], err error) ListState[T] {
	zap.L().Error("load resource list failed",
		zap.String("namespace", "admin"),
		zap.String("resource", v.wf.Resource.Name),
		zap.Error(err))
	state.Err = err
	return state
}

// Edit navigates to the form with the record as state, without re-reading it
func (v *ListView[T]) Edit(rec T) Navigation[T] {
	return Navigation[T]{Path: v.wf.Resource.EditPath(rec.RecordID()), State: &rec}
}

// New navigates to an empty form
func (v *ListView[T]) New() Navigation[T] {
	return Navigation[T]{Path: v.wf.Resource.NewPath()}
}

// Row is one rendered table row
type Row struct {
	ID          int64    `json:"id,omitempty"`
	Cells       []string `json:"cells"`
	Actions     []string `json:"actions,omitempty"`
	Placeholder bool     `json:"placeholder,omitempty"`
}

// Table is the rendered list body
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	Banner  string   `json:"banner,omitempty"`
}

// Table renders the state. A failed read yields only the banner, an empty
// result exactly one placeholder row.
func (s ListState[T]) Table() Table {
	t := Table{Columns: s.res.Columns, Rows: []Row{}}
	if s.Err != nil {
		t.Banner = s.Err.Error()
		return t
	}
	if len(s.Rows) == 0 {
		t.Rows = append(t.Rows, Row{Cells: []string{EmptyPlaceholder}, Placeholder: true})
		return t
	}
	for _, rec := range s.Rows {
		t.Rows = append(t.Rows, Row{
			ID:      rec.RecordID(),
			Cells:   s.res.Cells(rec),
			Actions: []string{"edit", "delete"},
		})
	}
	return t
}

// DeleteOutcome is the result of a delete action
type DeleteOutcome int

const (
	DeleteDeclined DeleteOutcome = iota
	DeleteSucceeded
	DeleteFailed
)

func (o DeleteOutcome) String() string {
	switch o {
	case DeleteSucceeded:
		return "deleted"
	case DeleteFailed:
		return "failed"
	}
	return "declined"
}

// Confirmer asks the user a blocking yes/no question
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Confirmed is a Confirmer that always agrees
var Confirmed = ConfirmFunc(func(string) bool { return true })

// Delete removes the record after confirmation. Declining issues no request
// and no notification. A failed delete leaves the cached list untouched.
func (v *ListView[T]) Delete(ctx context.Context, id int64, confirm Confirmer) (DeleteOutcome, error) {
	res := v.wf.Resource
	if confirm == nil || !confirm.Confirm(fmt.Sprintf("Delete this %s?", res.label())) {
		return DeleteDeclined, nil
	}
	if err := res.Gateway.Delete(ctx, id); err != nil {
		zap.L().Error("delete record failed",
			zap.String("namespace", "admin"),
			zap.String("resource", res.Name),
			zap.Int64("id", id),
			zap.Error(err))
		v.wf.notifier.Error(fmt.Sprintf("Failed to delete %s: %s", res.label(), err.Error()))
		return DeleteFailed, err
	}
	v.wf.notifier.Success(res.Title + " deleted")
	_ = v.wf.invalidate(ctx)
	return DeleteSucceeded, nil
}
