// Package admin implements the resource administration workflow shared by every
// catalog entity: a list view with edit and delete actions, and a create/edit
// form that validates, saves through the gateway and invalidates cached lists.
package admin

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
	"golang.org/x/text/unicode/norm"

	"github.com/vitrine/storefront/internal/domain"
	"github.com/vitrine/storefront/internal/gateway"
)

// Kind is the value type of a form field
type Kind string

const (
	KindString Kind = "string"
	KindInt    Kind = "int"
)

// Field describes one editable attribute of a resource
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Kind     Kind   `json:"kind"`
	Required bool   `json:"required"`
}

// Values holds raw form input keyed by field name
type Values map[string]string

// FieldErrors maps a field name to its validation message
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for k, v := range e {
		parts = append(parts, k+": "+v)
	}
	return strings.Join(parts, "; ")
}

// Resource describes how one entity type is listed, edited and persisted
type Resource[T domain.Record] struct {
	// Name is the cache key and the route segment, e.g. "carriers"
	Name string
	// Title is the singular display name used in notifications
	Title     string
	Fields    []Field
	OrderBy   string
	PageLimit int // 0 lists everything in one read

	Columns []string
	Cells   func(T) []string
	Values  func(T) Values

	// Validate overrides RequiredFields when set
	Validate func(Values) FieldErrors

	Gateway gateway.Gateway[T]
}

func (r *Resource[T]) ListPath() string {
	return "/admin/" + r.Name
}

func (r *Resource[T]) NewPath() string {
	return "/admin/" + r.Name + "/new"
}

func (r *Resource[T]) EditPath(id int64) string {
	return fmt.Sprintf("/admin/%s/edit/%d", r.Name, id)
}

func (r *Resource[T]) label() string {
	return strings.ToLower(r.Title)
}

// RequiredFields rejects required fields that are empty after trimming
func RequiredFields(fields []Field) func(Values) FieldErrors {
	return func(v Values) FieldErrors {
		errs := FieldErrors{}
		for _, f := range fields {
			if f.Required && strings.TrimSpace(v[f.Name]) == "" {
				errs[f.Name] = f.Label + " is required"
			}
		}
		return errs
	}
}

func (r *Resource[T]) validate(v Values) FieldErrors {
	check := r.Validate
	if check == nil {
		check = RequiredFields(r.Fields)
	}
	errs := check(v)
	if errs == nil {
		errs = FieldErrors{}
	}
	for _, f := range r.Fields {
		if _, failed := errs[f.Name]; failed || f.Kind != KindInt {
			continue
		}
		if s := strings.TrimSpace(v[f.Name]); s != "" {
			if _, err := cast.ToInt64E(s); err != nil {
				errs[f.Name] = f.Label + " must be a number"
			}
		}
	}
	return errs
}

// payload converts validated form values into gateway fields.
// Text is stored in NFC so composed and decomposed accents compare equal.
func (r *Resource[T]) payload(v Values) gateway.Fields {
	out := gateway.Fields{}
	for _, f := range r.Fields {
		s := norm.NFC.String(strings.TrimSpace(v[f.Name]))
		switch f.Kind {
		case KindInt:
			if s == "" {
				out[f.Name] = nil
				continue
			}
			out[f.Name] = cast.ToInt64(s)
		default:
			out[f.Name] = s
		}
	}
	return out
}

func (r *Resource[T]) emptyValues() Values {
	v := make(Values, len(r.Fields))
	for _, f := range r.Fields {
		v[f.Name] = ""
	}
	return v
}
