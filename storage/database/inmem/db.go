// Package inmemdb provides map-backed repositories for hermetic tests.
package inmemdb

import (
	"context"
	"sync"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/catalog"
	"github.com/stlconsulting/mentoria/core/schedule"
	"github.com/stlconsulting/mentoria/core/submission"
	"github.com/stlconsulting/mentoria/core/user"
)

type DB struct {
	mutex sync.RWMutex
	seq   int

	users        map[int]*user.User
	locations    map[int]*schedule.Location
	slots        map[int]*schedule.Slot
	appointments map[int]*schedule.Appointment
	tasks        map[int]*catalog.Task
	resources    map[int]*catalog.Resource
	userTasks    map[int]*submission.UserTask
	newsletter   map[string]bool
}

func NewDB() *DB {
	return &DB{
		users:        make(map[int]*user.User),
		locations:    make(map[int]*schedule.Location),
		slots:        make(map[int]*schedule.Slot),
		appointments: make(map[int]*schedule.Appointment),
		tasks:        make(map[int]*catalog.Task),
		resources:    make(map[int]*catalog.Resource),
		userTasks:    make(map[int]*submission.UserTask),
		newsletter:   make(map[string]bool),
	}
}

func (db *DB) nextID() int {
	db.seq++
	return db.seq
}

// txRunner runs fn directly; the in-memory store has no transactions.
type txRunner struct{}

var _ core.TxRunner = txRunner{}

func NewTxRunner() core.TxRunner {
	return txRunner{}
}

func (txRunner) RunInTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}
