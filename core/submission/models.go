package submission

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Submission statuses. User-facing, kept in Portuguese.
const (
	StatusPending = "Pendente"
	StatusDone    = "Concluído"
)

// allowedExts is the deliverable extension allow-list.
var allowedExts = map[string]bool{
	".pdf":  true,
	".pptx": true,
}

// UserTask tracks one mentee's progress on one task.
type UserTask struct {
	ID          int        `json:"id" db:"id"`
	UserID      int        `json:"user_id" db:"user_id"`
	TaskID      *int       `json:"task_id" db:"task_id"`
	ModuleName  string     `json:"module_name" db:"module_name"`
	TaskName    string     `json:"task_name" db:"task_name"`
	Status      string     `json:"status" db:"status"`
	FilePath    string     `json:"file_path" db:"file_path"` // stored file name, empty when pending
	SubmittedAt *time.Time `json:"submitted_at" db:"submitted_at"`
}

func (ut *UserTask) IsDone() bool {
	return ut.Status == StatusDone
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// cleanFilename reduces an uploaded name to a safe single path component.
func cleanFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}
