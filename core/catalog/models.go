package catalog

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stlconsulting/mentoria/core"
)

// Task is a module activity definition, shared by all mentors.
type Task struct {
	ID           int       `json:"id" db:"id"`
	ModuleName   string    `json:"module_name" db:"module_name"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	ResourceID   *int      `json:"resource_id" db:"resource_id"`
	ExternalLink string    `json:"external_link" db:"external_link"`
	AllowUpload  bool      `json:"allow_upload" db:"allow_upload"`
	OrderIndex   int       `json:"order_index" db:"order_index"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

// Resource is a mentor-uploaded support file for a module.
type Resource struct {
	ID         int       `json:"id" db:"id"`
	MentorID   int       `json:"mentor_id" db:"mentor_id"`
	ModuleName string    `json:"module_name" db:"module_name"`
	Title      string    `json:"title" db:"title"`
	Filename   string    `json:"filename" db:"filename"`       // original upload name
	StoredName string    `json:"stored_name" db:"stored_name"` // uuid-based on-disk name
	UploadedAt time.Time `json:"uploaded_at" db:"uploaded_at"` // UTC
}

// NewTask contains information needed to create or edit a Task.
type NewTask struct {
	ModuleName   string `form:"module_name" validate:"required"`
	Title        string `form:"title" validate:"required"`
	Description  string `form:"description"`
	ResourceID   *int   `form:"resource_id"`
	ExternalLink string `form:"external_link" validate:"omitempty,url"`
	AllowUpload  bool   `form:"allow_upload"`
	OrderIndex   int    `form:"order_index"`
}

func (nt *NewTask) Validate(validate *validator.Validate) error {
	nt.ModuleName = core.CleanString(nt.ModuleName)
	nt.Title = core.CleanString(nt.Title)
	nt.Description = core.CleanString(nt.Description)
	nt.ExternalLink = core.CleanString(nt.ExternalLink)
	return validate.Struct(nt)
}

// NewResource contains the metadata of a resource upload.
type NewResource struct {
	ModuleName string `form:"module_name" validate:"required"`
	Title      string `form:"title" validate:"required"`
}

func (nr *NewResource) Validate(validate *validator.Validate) error {
	nr.ModuleName = core.CleanString(nr.ModuleName)
	nr.Title = core.CleanString(nr.Title)
	return validate.Struct(nr)
}
