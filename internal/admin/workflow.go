package admin

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/notify"
	"github.com/vitrine/storefront/internal/querycache"
)

// Workflow binds a resource to the shared query cache and notifier
type Workflow[T domain.Record] struct {
	Resource *Resource[T]
	cache    *querycache.Client
	notifier notify.Notifier
}

func NewWorkflow[T domain.Record](res *Resource[T], cache *querycache.Client, notifier notify.Notifier) *Workflow[T] {
	return &Workflow[T]{Resource: res, cache: cache, notifier: notifier}
}

// Navigation is a route change; State carries the record to edit, if any
type Navigation[T any] struct {
	Path  string `json:"path"`
	State *T     `json:"state,omitempty"`
}

// List returns the list view of the resource
func (w *Workflow[T]) List() *ListView[T] {
	return &ListView[T]{wf: w}
}

// invalidate marks the resource lists stale after a successful mutation.
// A failure is reported to the user on its own and does not undo the mutation.
func (w *Workflow[T]) invalidate(ctx context.Context) error {
	err := w.cache.Invalidate(ctx, w.Resource.Name)
	if err != nil {
		zap.L().Error("invalidate resource list failed",
			zap.String("namespace", "admin"),
			zap.String("resource", w.Resource.Name),
			zap.Error(err))
		w.notifier.Error(fmt.Sprintf("Failed to refresh %s list: %s", w.Resource.label(), err.Error()))
	}
	return err
}
