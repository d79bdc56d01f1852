package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/catalog"
)

const (
	taskColumns     = `id, module_name, title, description, resource_id, external_link, allow_upload, order_index, created_at`
	resourceColumns = `id, mentor_id, module_name, title, filename, stored_name, uploaded_at`
)

type catalogRepository struct {
	exec core.DBExecutor
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(exec core.DBExecutor) *catalogRepository {
	return &catalogRepository{exec: exec}
}

func (repo catalogRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return catalog.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// Tasks

func (repo catalogRepository) CreateTask(ctx context.Context, task catalog.Task, exec ...core.DBExecutor) (catalog.Task, error) {
	const query = `
INSERT INTO module_tasks (module_name, title, description, resource_id, external_link, allow_upload, order_index, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &task.ID, query,
		task.ModuleName, task.Title, task.Description, task.ResourceID,
		task.ExternalLink, task.AllowUpload, task.OrderIndex, task.CreatedAt)
	if err != nil {
		return catalog.Task{}, errors.Wrap(err, "inserting task")
	}
	return task, nil
}

func (repo catalogRepository) GetTask(ctx context.Context, id int, exec ...core.DBExecutor) (catalog.Task, error) {
	var task catalog.Task
	err := getExec(repo.exec, exec).GetContext(ctx, &task,
		`SELECT `+taskColumns+` FROM module_tasks WHERE id = $1`, id)
	if err != nil {
		return catalog.Task{}, repo.trapNoRowsErr(err, "getting task")
	}
	return task, nil
}

func (repo catalogRepository) QueryTasks(ctx context.Context, module string, exec ...core.DBExecutor) ([]catalog.Task, error) {
	const query = `SELECT ` + taskColumns + ` FROM module_tasks WHERE module_name = $1 ORDER BY order_index, title`
	tasks := make([]catalog.Task, 0)
	if err := getExec(repo.exec, exec).SelectContext(ctx, &tasks, query, module); err != nil {
		return nil, errors.Wrap(err, "querying tasks")
	}
	return tasks, nil
}

func (repo catalogRepository) UpdateTask(ctx context.Context, task catalog.Task, exec ...core.DBExecutor) (catalog.Task, error) {
	const query = `
UPDATE module_tasks
SET module_name = $2, title = $3, description = $4, resource_id = $5, external_link = $6, allow_upload = $7, order_index = $8
WHERE id = $1`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		task.ID, task.ModuleName, task.Title, task.Description, task.ResourceID,
		task.ExternalLink, task.AllowUpload, task.OrderIndex)
	if err != nil {
		return catalog.Task{}, errors.Wrap(err, "updating task")
	}
	return task, nil
}

func (repo catalogRepository) DeleteTask(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM module_tasks WHERE id = $1`, id)
	return errors.Wrap(err, "deleting task")
}

// Resources

func (repo catalogRepository) CreateResource(ctx context.Context, res catalog.Resource, exec ...core.DBExecutor) (catalog.Resource, error) {
	const query = `
INSERT INTO module_resources (mentor_id, module_name, title, filename, stored_name, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &res.ID, query,
		res.MentorID, res.ModuleName, res.Title, res.Filename, res.StoredName, res.UploadedAt)
	if err != nil {
		return catalog.Resource{}, errors.Wrap(err, "inserting resource")
	}
	return res, nil
}

func (repo catalogRepository) GetResource(ctx context.Context, id int, exec ...core.DBExecutor) (catalog.Resource, error) {
	var res catalog.Resource
	err := getExec(repo.exec, exec).GetContext(ctx, &res,
		`SELECT `+resourceColumns+` FROM module_resources WHERE id = $1`, id)
	if err != nil {
		return catalog.Resource{}, repo.trapNoRowsErr(err, "getting resource")
	}
	return res, nil
}

func (repo catalogRepository) QueryResources(ctx context.Context, module string, exec ...core.DBExecutor) ([]catalog.Resource, error) {
	query := `SELECT ` + resourceColumns + ` FROM module_resources`
	args := make([]interface{}, 0, 1)
	if module != "" {
		query += ` WHERE module_name = $1`
		args = append(args, module)
	}
	query += ` ORDER BY uploaded_at DESC`

	res := make([]catalog.Resource, 0)
	if err := getExec(repo.exec, exec).SelectContext(ctx, &res, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying resources")
	}
	return res, nil
}

func (repo catalogRepository) DeleteResource(ctx context.Context, id int, exec ...core.DBExecutor) error {
	ex := getExec(repo.exec, exec)
	// tasks pointing at the resource fall back to no attachment
	if _, err := ex.ExecContext(ctx, `UPDATE module_tasks SET resource_id = NULL WHERE resource_id = $1`, id); err != nil {
		return errors.Wrap(err, "unlinking resource from tasks")
	}
	_, err := ex.ExecContext(ctx, `DELETE FROM module_resources WHERE id = $1`, id)
	return errors.Wrap(err, "deleting resource")
}
