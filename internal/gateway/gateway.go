// Package gateway is the single point of contact with persistent storage.
// Every resource is read and written through a Gateway; the backend behind it
// (hosted PostgREST endpoint or a direct gorm connection) is opaque to callers.
package gateway

import "context"

// Fields carries record values keyed by their json/column name
type Fields map[string]interface{}

// Clone returns a shallow copy without the primary key, so writes never
// retarget a record through the payload.
func (f Fields) Clone() Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}

// ListOptions controls ordering of read-all requests
type ListOptions struct {
	OrderBy string
	Desc    bool
}

// Gateway exposes the CRUD operations of one resource.
// All failures are returned as *RemoteOperationError.
type Gateway[T any] interface {
	List(ctx context.Context, opts ListOptions) ([]T, error)
	ListPage(ctx context.Context, req PageRequest, opts ListOptions) (Page[T], error)
	GetByID(ctx context.Context, id int64) (T, error)
	Create(ctx context.Context, fields Fields) (T, error)
	Update(ctx context.Context, id int64, fields Fields) (T, error)
	Delete(ctx context.Context, id int64) error
}
