package core

import "io"

// Upload kinds: resources handed out by mentors vs deliverables received from mentees.
const (
	FileKindResources   = "baixar"
	FileKindSubmissions = "recebido"
)

// FileStore abstracts where uploaded files live. Paths are structured as
// <module>/<kind>/<name>.
type FileStore interface {
	// Save writes src under <module>/<kind>/<name>, creating directories as needed.
	Save(module, kind, name string, src io.Reader) error
	Open(module, kind, name string) (io.ReadCloser, error)
	Remove(module, kind, name string) error
	// Path returns the absolute path of a stored file.
	Path(module, kind, name string) string
}
