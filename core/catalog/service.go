package catalog

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
)

var ErrNotFound = errors.New("not found")

type (
	Repository interface {
		CreateTask(ctx context.Context, task Task, exec ...core.DBExecutor) (Task, error)
		GetTask(ctx context.Context, id int, exec ...core.DBExecutor) (Task, error)
		// QueryTasks returns the module's tasks ordered by (order_index, title).
		QueryTasks(ctx context.Context, module string, exec ...core.DBExecutor) ([]Task, error)
		UpdateTask(ctx context.Context, task Task, exec ...core.DBExecutor) (Task, error)
		DeleteTask(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateResource(ctx context.Context, res Resource, exec ...core.DBExecutor) (Resource, error)
		GetResource(ctx context.Context, id int, exec ...core.DBExecutor) (Resource, error)
		QueryResources(ctx context.Context, module string, exec ...core.DBExecutor) ([]Resource, error)
		DeleteResource(ctx context.Context, id int, exec ...core.DBExecutor) error
	}

	Service interface {
		CreateTask(nt NewTask) (Task, error)
		GetTask(id int) (Task, error)
		Tasks(module string) ([]Task, error)
		UpdateTask(id int, nt NewTask) (Task, error)
		DeleteTask(id int) error

		UploadResource(mentorID int, nr NewResource, filename string, src io.Reader) (Resource, error)
		// DownloadResource opens the stored file; the caller closes it.
		DownloadResource(id int) (Resource, io.ReadCloser, error)
		Resources(module string) ([]Resource, error)
		DeleteResource(id int) error
	}

	service struct {
		repo   Repository
		files  core.FileStore
		logger core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, files core.FileStore, logger core.Logger) Service {
	return &service{repo: repo, files: files, logger: logger}
}

// Tasks

func (svc *service) CreateTask(nt NewTask) (Task, error) {
	return svc.repo.CreateTask(context.Background(), Task{
		ModuleName:   nt.ModuleName,
		Title:        nt.Title,
		Description:  nt.Description,
		ResourceID:   nt.ResourceID,
		ExternalLink: nt.ExternalLink,
		AllowUpload:  nt.AllowUpload,
		OrderIndex:   nt.OrderIndex,
		CreatedAt:    time.Now().UTC(),
	})
}

func (svc *service) GetTask(id int) (Task, error) {
	return svc.repo.GetTask(context.Background(), id)
}

func (svc *service) Tasks(module string) ([]Task, error) {
	return svc.repo.QueryTasks(context.Background(), module)
}

func (svc *service) UpdateTask(id int, nt NewTask) (Task, error) {
	ctx := context.Background()
	task, err := svc.repo.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	task.ModuleName = nt.ModuleName
	task.Title = nt.Title
	task.Description = nt.Description
	task.ResourceID = nt.ResourceID
	task.ExternalLink = nt.ExternalLink
	task.AllowUpload = nt.AllowUpload
	task.OrderIndex = nt.OrderIndex
	return svc.repo.UpdateTask(ctx, task)
}

func (svc *service) DeleteTask(id int) error {
	return svc.repo.DeleteTask(context.Background(), id)
}

// Resources

func (svc *service) UploadResource(mentorID int, nr NewResource, filename string, src io.Reader) (Resource, error) {
	storedName := uuid.New().String() + filepath.Ext(filename)
	module := core.Slugify(nr.ModuleName)
	if err := svc.files.Save(module, core.FileKindResources, storedName, src); err != nil {
		return Resource{}, errors.Wrap(err, "saving resource file")
	}

	res, err := svc.repo.CreateResource(context.Background(), Resource{
		MentorID:   mentorID,
		ModuleName: nr.ModuleName,
		Title:      nr.Title,
		Filename:   filename,
		StoredName: storedName,
		UploadedAt: time.Now().UTC(),
	})
	if err != nil {
		// best effort cleanup of the orphaned file
		if rmErr := svc.files.Remove(module, core.FileKindResources, storedName); rmErr != nil {
			svc.logger.Warn(fmt.Sprintf("catalog: removing orphaned resource file: %v", rmErr))
		}
		return Resource{}, err
	}
	return res, nil
}

func (svc *service) DownloadResource(id int) (Resource, io.ReadCloser, error) {
	res, err := svc.repo.GetResource(context.Background(), id)
	if err != nil {
		return Resource{}, nil, err
	}
	file, err := svc.files.Open(core.Slugify(res.ModuleName), core.FileKindResources, res.StoredName)
	if err != nil {
		return Resource{}, nil, errors.Wrap(err, "opening resource file")
	}
	return res, file, nil
}

func (svc *service) Resources(module string) ([]Resource, error) {
	return svc.repo.QueryResources(context.Background(), module)
}

func (svc *service) DeleteResource(id int) error {
	ctx := context.Background()
	res, err := svc.repo.GetResource(ctx, id)
	if err != nil {
		return err
	}
	if err = svc.files.Remove(core.Slugify(res.ModuleName), core.FileKindResources, res.StoredName); err != nil {
		// the row still goes; a missing file is not worth failing the request
		svc.logger.Warn(fmt.Sprintf("catalog: removing resource file: %v", err))
	}
	return svc.repo.DeleteResource(ctx, id)
}
