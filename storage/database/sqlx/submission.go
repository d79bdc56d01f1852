package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/submission"
)

// file_path predates NOT NULL enforcement; coalesce for clean scanning.
const userTaskColumns = `id, user_id, task_id, module_name, task_name, status, COALESCE(file_path, '') AS file_path, submitted_at`

type submissionRepository struct {
	exec core.DBExecutor
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(exec core.DBExecutor) *submissionRepository {
	return &submissionRepository{exec: exec}
}

func (repo submissionRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return submission.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo submissionRepository) CreateUserTask(ctx context.Context, ut submission.UserTask, exec ...core.DBExecutor) (submission.UserTask, error) {
	const query = `
INSERT INTO user_tasks (user_id, task_id, module_name, task_name, status, file_path, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &ut.ID, query,
		ut.UserID, ut.TaskID, ut.ModuleName, ut.TaskName, ut.Status, ut.FilePath, ut.SubmittedAt)
	if err != nil {
		return submission.UserTask{}, errors.Wrap(err, "inserting user task")
	}
	return ut, nil
}

func (repo submissionRepository) GetUserTask(ctx context.Context, id int, exec ...core.DBExecutor) (submission.UserTask, error) {
	var ut submission.UserTask
	err := getExec(repo.exec, exec).GetContext(ctx, &ut,
		`SELECT `+userTaskColumns+` FROM user_tasks WHERE id = $1`, id)
	if err != nil {
		return submission.UserTask{}, repo.trapNoRowsErr(err, "getting user task")
	}
	return ut, nil
}

func (repo submissionRepository) GetForUserAndTask(ctx context.Context, userID, taskID int, exec ...core.DBExecutor) (submission.UserTask, error) {
	var ut submission.UserTask
	err := getExec(repo.exec, exec).GetContext(ctx, &ut,
		`SELECT `+userTaskColumns+` FROM user_tasks WHERE user_id = $1 AND task_id = $2`, userID, taskID)
	if err != nil {
		return submission.UserTask{}, repo.trapNoRowsErr(err, "getting user task")
	}
	return ut, nil
}

func (repo submissionRepository) QueryUserTasks(ctx context.Context, userID int, exec ...core.DBExecutor) ([]submission.UserTask, error) {
	uts := make([]submission.UserTask, 0)
	err := getExec(repo.exec, exec).SelectContext(ctx, &uts,
		`SELECT `+userTaskColumns+` FROM user_tasks WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying user tasks")
	}
	return uts, nil
}

func (repo submissionRepository) UpdateUserTask(ctx context.Context, ut submission.UserTask, exec ...core.DBExecutor) (submission.UserTask, error) {
	const query = `
UPDATE user_tasks
SET status = $2, file_path = $3, submitted_at = $4
WHERE id = $1`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query, ut.ID, ut.Status, ut.FilePath, ut.SubmittedAt)
	if err != nil {
		return submission.UserTask{}, errors.Wrap(err, "updating user task")
	}
	return ut, nil
}
