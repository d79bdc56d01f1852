package inmemdb

import (
	"context"
	"sort"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) CreateUserTask(_ context.Context, ut submission.UserTask, _ ...core.DBExecutor) (submission.UserTask, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	ut.ID = repo.db.nextID()
	repo.db.userTasks[ut.ID] = &ut
	return ut, nil
}

func (repo *submissionRepository) GetUserTask(_ context.Context, id int, _ ...core.DBExecutor) (submission.UserTask, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ut, ok := repo.db.userTasks[id]; ok {
		return *ut, nil
	}
	return submission.UserTask{}, submission.ErrNotFound
}

func (repo *submissionRepository) GetForUserAndTask(_ context.Context, userID, taskID int, _ ...core.DBExecutor) (submission.UserTask, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, ut := range repo.db.userTasks {
		if ut.UserID == userID && ut.TaskID != nil && *ut.TaskID == taskID {
			return *ut, nil
		}
	}
	return submission.UserTask{}, submission.ErrNotFound
}

func (repo *submissionRepository) QueryUserTasks(_ context.Context, userID int, _ ...core.DBExecutor) ([]submission.UserTask, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	uts := make([]submission.UserTask, 0)
	for _, ut := range repo.db.userTasks {
		if ut.UserID == userID {
			uts = append(uts, *ut)
		}
	}
	sort.Slice(uts, func(i, j int) bool { return uts[i].ID < uts[j].ID })
	return uts, nil
}

func (repo *submissionRepository) UpdateUserTask(_ context.Context, ut submission.UserTask, _ ...core.DBExecutor) (submission.UserTask, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.userTasks[ut.ID]
	if !ok {
		return submission.UserTask{}, submission.ErrNotFound
	}
	orig.Status = ut.Status
	orig.FilePath = ut.FilePath
	orig.SubmittedAt = ut.SubmittedAt
	return *orig, nil
}
