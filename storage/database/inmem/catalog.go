package inmemdb

import (
	"context"
	"sort"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/catalog"
)

type catalogRepository struct {
	db *DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB) *catalogRepository {
	return &catalogRepository{db: db}
}

// Tasks

func (repo *catalogRepository) CreateTask(_ context.Context, task catalog.Task, _ ...core.DBExecutor) (catalog.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	task.ID = repo.db.nextID()
	repo.db.tasks[task.ID] = &task
	return task, nil
}

func (repo *catalogRepository) GetTask(_ context.Context, id int, _ ...core.DBExecutor) (catalog.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if task, ok := repo.db.tasks[id]; ok {
		return *task, nil
	}
	return catalog.Task{}, catalog.ErrNotFound
}

func (repo *catalogRepository) QueryTasks(_ context.Context, module string, _ ...core.DBExecutor) ([]catalog.Task, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	tasks := make([]catalog.Task, 0)
	for _, task := range repo.db.tasks {
		if task.ModuleName == module {
			tasks = append(tasks, *task)
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].OrderIndex != tasks[j].OrderIndex {
			return tasks[i].OrderIndex < tasks[j].OrderIndex
		}
		return tasks[i].Title < tasks[j].Title
	})
	return tasks, nil
}

func (repo *catalogRepository) UpdateTask(_ context.Context, task catalog.Task, _ ...core.DBExecutor) (catalog.Task, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.tasks[task.ID]
	if !ok {
		return catalog.Task{}, catalog.ErrNotFound
	}
	*orig = task
	return task, nil
}

func (repo *catalogRepository) DeleteTask(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.tasks, id)
	return nil
}

// Resources

func (repo *catalogRepository) CreateResource(_ context.Context, res catalog.Resource, _ ...core.DBExecutor) (catalog.Resource, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	res.ID = repo.db.nextID()
	repo.db.resources[res.ID] = &res
	return res, nil
}

func (repo *catalogRepository) GetResource(_ context.Context, id int, _ ...core.DBExecutor) (catalog.Resource, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if res, ok := repo.db.resources[id]; ok {
		return *res, nil
	}
	return catalog.Resource{}, catalog.ErrNotFound
}

func (repo *catalogRepository) QueryResources(_ context.Context, module string, _ ...core.DBExecutor) ([]catalog.Resource, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make([]catalog.Resource, 0)
	for _, r := range repo.db.resources {
		if module == "" || r.ModuleName == module {
			res = append(res, *r)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].UploadedAt.After(res[j].UploadedAt) })
	return res, nil
}

func (repo *catalogRepository) DeleteResource(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, task := range repo.db.tasks {
		if task.ResourceID != nil && *task.ResourceID == id {
			task.ResourceID = nil
		}
	}
	delete(repo.db.resources, id)
	return nil
}
