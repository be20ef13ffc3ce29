// Package storage keeps product images in an object bucket.
package storage

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStore uploads binary objects and returns the name they were stored under
type ObjectStore interface {
	Upload(ctx context.Context, originalName string, r io.Reader) (string, error)
	PublicURL(name string) string
}

// ObjectName generates a unique name keeping the extension of the original file
func ObjectName(originalName string) string {
	name := uuid.NewString()
	ext := strings.TrimPrefix(filepath.Ext(originalName), ".")
	if ext == "" {
		return name
	}
	return name + "." + ext
}
