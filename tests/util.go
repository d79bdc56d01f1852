package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stlconsulting/mentoria/core/catalog"
	"github.com/stlconsulting/mentoria/core/schedule"
	"github.com/stlconsulting/mentoria/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	uname, email, pwd, role string,
	mentorID *int,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Username:  uname,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		MentorID:  mentorID,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateMentor(t *testing.T, repo user.Repository, uname, email string) user.User {
	return CreateUser(t, repo, uname, email, "", user.RoleMentor, nil, true)
}

func CreateMentee(t *testing.T, repo user.Repository, uname, email string, mentorID *int) user.User {
	return CreateUser(t, repo, uname, email, "", user.RoleMentee, mentorID, true)
}

func CreateLocation(t *testing.T, repo schedule.Repository, mentorID int, name, typ string) schedule.Location {
	loc, err := repo.CreateLocation(context.Background(), schedule.Location{
		MentorID:  mentorID,
		Name:      name,
		Type:      typ,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateLocation() failed: %v", err)
	}
	return loc
}

func CreateSlot(t *testing.T, repo schedule.Repository, mentorID int, loc schedule.Location, at time.Time, link string) schedule.Slot {
	locID := loc.ID
	slot, err := repo.CreateSlot(context.Background(), schedule.Slot{
		MentorID:     mentorID,
		LocationID:   &locID,
		DatetimeSlot: at,
		Location:     loc.Name,
		MeetingLink:  link,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateSlot() failed: %v", err)
	}
	return slot
}

func CreateTask(t *testing.T, repo catalog.Repository, module, title string, allowUpload bool) catalog.Task {
	task, err := repo.CreateTask(context.Background(), catalog.Task{
		ModuleName:  module,
		Title:       title,
		AllowUpload: allowUpload,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTask() failed: %v", err)
	}
	return task
}
