package filestore

import (
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
)

// Store keeps uploads on the local filesystem, laid out as
// <root>/<module>/<kind>/<name>.
type Store struct {
	root string
}

var _ core.FileStore = (*Store)(nil)

func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Path(module, kind, name string) string {
	return filepath.Join(s.root, module, kind, name)
}

func (s *Store) Save(module, kind, name string, src io.Reader) error {
	dir := filepath.Join(s.root, module, kind)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating upload dir")
	}

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return errors.Wrap(err, "creating upload file")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer dst.Close()

	if _, err = io.Copy(dst, src); err != nil {
		return errors.Wrap(err, "writing upload file")
	}
	return nil
}

func (s *Store) Open(module, kind, name string) (io.ReadCloser, error) {
	return os.Open(s.Path(module, kind, name))
}

func (s *Store) Remove(module, kind, name string) error {
	return os.Remove(s.Path(module, kind, name))
}
