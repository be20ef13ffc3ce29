package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LocalStore writes objects into a directory, used for development deployments
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create upload dir %s", dir)
	}
	return &LocalStore{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Upload(ctx context.Context, originalName string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := ObjectName(originalName)
	target := filepath.Join(s.dir, name)
	f, err := os.Create(target)
	if err != nil {
		return "", errors.Wrap(err, "create object")
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(target)
		return "", errors.Wrap(err, "write object")
	}
	return name, nil
}

func (s *LocalStore) PublicURL(name string) string {
	return s.baseURL + "/" + name
}
