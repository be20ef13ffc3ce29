package gateway

import (
	"context"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOptions configures a gorm backed gateway
type GormOptions struct {
	Resource string   // resource name used in error messages
	Preloads []string // associations joined on every read, e.g. "Category"
}

// GormGateway reads and writes a resource table through gorm
type GormGateway[T any] struct {
	db   *gorm.DB
	opts GormOptions
}

var _ Gateway[struct{}] = (*GormGateway[struct{}])(nil)

func NewGormGateway[T any](db *gorm.DB, opts GormOptions) *GormGateway[T] {
	return &GormGateway[T]{db: db, opts: opts}
}

func (g *GormGateway[T]) query(ctx context.Context) *gorm.DB {
	q := g.db.WithContext(ctx).Model(new(T))
	for _, p := range g.opts.Preloads {
		q = q.Preload(p)
	}
	return q
}

func ordered(q *gorm.DB, opts ListOptions) *gorm.DB {
	if opts.OrderBy == "" {
		return q.Order("id")
	}
	return q.Order(clause.OrderByColumn{Column: clause.Column{Name: opts.OrderBy}, Desc: opts.Desc})
}

func (g *GormGateway[T]) List(ctx context.Context, opts ListOptions) ([]T, error) {
	rows := make([]T, 0)
	if err := ordered(g.query(ctx), opts).Find(&rows).Error; err != nil {
		return nil, remoteError(g.opts.Resource, "list", err)
	}
	return rows, nil
}

func (g *GormGateway[T]) ListPage(ctx context.Context, req PageRequest, opts ListOptions) (Page[T], error) {
	req = req.Normalize()
	var total int64
	if err := g.db.WithContext(ctx).Model(new(T)).Count(&total).Error; err != nil {
		return Page[T]{}, remoteError(g.opts.Resource, "count", err)
	}

	offset, _ := req.Bounds()
	rows := make([]T, 0, req.Limit)
	if err := ordered(g.query(ctx), opts).Offset(offset).Limit(req.Limit).Find(&rows).Error; err != nil {
		return Page[T]{}, remoteError(g.opts.Resource, "list", err)
	}
	return newPage(rows, total, req), nil
}

func (g *GormGateway[T]) GetByID(ctx context.Context, id int64) (T, error) {
	var rec T
	err := g.query(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rec, notFound(g.opts.Resource, "get", id)
	} else if err != nil {
		return rec, remoteError(g.opts.Resource, "get", err)
	}
	return rec, nil
}

func (g *GormGateway[T]) Create(ctx context.Context, fields Fields) (T, error) {
	rec, err := decodeFields[T](fields.Clone())
	if err != nil {
		return rec, remoteError(g.opts.Resource, "create", errors.Wrap(err, "invalid fields"))
	}
	if err := g.db.WithContext(ctx).Omit(clause.Associations).Create(&rec).Error; err != nil {
		return rec, remoteError(g.opts.Resource, "create", err)
	}
	if len(g.opts.Preloads) == 0 {
		return rec, nil
	}
	// reload so joined associations are present
	identified, ok := any(rec).(interface{ RecordID() int64 })
	if !ok {
		return rec, nil
	}
	return g.GetByID(ctx, identified.RecordID())
}

func (g *GormGateway[T]) Update(ctx context.Context, id int64, fields Fields) (T, error) {
	var zero T
	updates := fields.Clone()
	if len(updates) > 0 {
		res := g.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(map[string]interface{}(updates))
		if res.Error != nil {
			return zero, remoteError(g.opts.Resource, "update", res.Error)
		}
		if res.RowsAffected == 0 {
			return zero, notFound(g.opts.Resource, "update", id)
		}
	}
	return g.GetByID(ctx, id)
}

func (g *GormGateway[T]) Delete(ctx context.Context, id int64) error {
	if err := g.db.WithContext(ctx).Where("id = ?", id).Delete(new(T)).Error; err != nil {
		return remoteError(g.opts.Resource, "delete", err)
	}
	return nil
}

// decodeFields maps a loosely typed payload onto a record using its json tags
func decodeFields[T any](fields Fields) (T, error) {
	var rec T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           &rec,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return rec, err
	}
	if err := dec.Decode(map[string]interface{}(fields)); err != nil {
		return rec, err
	}
	return rec, nil
}
