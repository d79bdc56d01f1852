package submission

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/catalog"
)

var (
	// errors
	ErrNotFound         = errors.New("submission not found")
	ErrUploadNotAllowed = errors.New("this task does not accept uploads")
)

type (
	Repository interface {
		CreateUserTask(ctx context.Context, ut UserTask, exec ...core.DBExecutor) (UserTask, error)
		GetUserTask(ctx context.Context, id int, exec ...core.DBExecutor) (UserTask, error)
		// GetForUserAndTask locates the single row keyed on (user_id, task_id).
		GetForUserAndTask(ctx context.Context, userID, taskID int, exec ...core.DBExecutor) (UserTask, error)
		QueryUserTasks(ctx context.Context, userID int, exec ...core.DBExecutor) ([]UserTask, error)
		UpdateUserTask(ctx context.Context, ut UserTask, exec ...core.DBExecutor) (UserTask, error)
	}

	// TaskGetter resolves task definitions; satisfied by catalog.Service.
	TaskGetter interface {
		GetTask(id int) (catalog.Task, error)
	}

	Service interface {
		// Upload stores the deliverable and marks the task "Concluído",
		// replacing any previous submission for (user, task).
		Upload(userID, taskID int, filename string, src io.Reader) (UserTask, error)
		// Delete removes the stored file and resets the row to "Pendente".
		Delete(userID, taskID int) error
		// Download opens a submission by row id; the caller closes it.
		Download(id int) (UserTask, io.ReadCloser, error)
		// ForUser returns the user's submission rows keyed by task id.
		ForUser(userID int) (map[int]UserTask, error)
	}

	service struct {
		repo   Repository
		tasks  TaskGetter
		files  core.FileStore
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, tasks TaskGetter, files core.FileStore, logger core.Logger) Service {
	return &service{repo: repo, tasks: tasks, files: files, logger: logger}
}

func (svc *service) Upload(userID, taskID int, filename string, src io.Reader) (UserTask, error) {
	ctx := context.Background()

	task, err := svc.tasks.GetTask(taskID)
	if err != nil {
		return UserTask{}, err
	}
	if !task.AllowUpload {
		return UserTask{}, ErrUploadNotAllowed
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExts[ext] {
		return UserTask{}, core.NewValidationError(
			errors.New("unsupported file type"),
			core.FieldError{Field: "file", Error: "only .pdf and .pptx files are accepted"},
		)
	}

	storedName := fmt.Sprintf("user_%d_task_%d_%s", userID, taskID, cleanFilename(filename))
	module := core.Slugify(task.ModuleName)
	if err = svc.files.Save(module, core.FileKindSubmissions, storedName, src); err != nil {
		return UserTask{}, errors.Wrap(err, "saving submission file")
	}

	now := time.Now().UTC()
	ut, err := svc.repo.GetForUserAndTask(ctx, userID, taskID)
	switch err {
	case nil:
		if ut.FilePath != "" && ut.FilePath != storedName {
			// a previous deliverable with a different name is replaced
			if rmErr := svc.files.Remove(module, core.FileKindSubmissions, ut.FilePath); rmErr != nil {
				svc.logger.Warn(fmt.Sprintf("submission: removing previous file: %v", rmErr))
			}
		}
		ut.Status = StatusDone
		ut.FilePath = storedName
		ut.SubmittedAt = &now
		return svc.repo.UpdateUserTask(ctx, ut)
	case ErrNotFound:
		tID := task.ID
		return svc.repo.CreateUserTask(ctx, UserTask{
			UserID:      userID,
			TaskID:      &tID,
			ModuleName:  task.ModuleName,
			TaskName:    task.Title,
			Status:      StatusDone,
			FilePath:    storedName,
			SubmittedAt: &now,
		})
	default:
		return UserTask{}, err
	}
}

func (svc *service) Delete(userID, taskID int) error {
	ctx := context.Background()

	ut, err := svc.repo.GetForUserAndTask(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if ut.FilePath != "" {
		if err = svc.files.Remove(core.Slugify(ut.ModuleName), core.FileKindSubmissions, ut.FilePath); err != nil {
			svc.logger.Warn(fmt.Sprintf("submission: removing file: %v", err))
		}
	}
	ut.Status = StatusPending
	ut.FilePath = ""
	ut.SubmittedAt = nil
	_, err = svc.repo.UpdateUserTask(ctx, ut)
	return err
}

func (svc *service) Download(id int) (UserTask, io.ReadCloser, error) {
	ut, err := svc.repo.GetUserTask(context.Background(), id)
	if err != nil {
		return UserTask{}, nil, err
	}
	if ut.FilePath == "" {
		return UserTask{}, nil, ErrNotFound
	}
	file, err := svc.files.Open(core.Slugify(ut.ModuleName), core.FileKindSubmissions, ut.FilePath)
	if err != nil {
		return UserTask{}, nil, errors.Wrap(err, "opening submission file")
	}
	return ut, file, nil
}

func (svc *service) ForUser(userID int) (map[int]UserTask, error) {
	uts, err := svc.repo.QueryUserTasks(context.Background(), userID)
	if err != nil {
		return nil, err
	}
	byTask := make(map[int]UserTask, len(uts))
	for _, ut := range uts {
		if ut.TaskID != nil {
			byTask[*ut.TaskID] = ut
		}
	}
	return byTask, nil
}
