package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/schedule"
)

type scheduleRepository struct {
	db *DB
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(db *DB) *scheduleRepository {
	return &scheduleRepository{db: db}
}

// Locations

func (repo *scheduleRepository) CreateLocation(_ context.Context, loc schedule.Location, _ ...core.DBExecutor) (schedule.Location, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	loc.ID = repo.db.nextID()
	repo.db.locations[loc.ID] = &loc
	return loc, nil
}

func (repo *scheduleRepository) GetLocation(_ context.Context, id int, _ ...core.DBExecutor) (schedule.Location, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if loc, ok := repo.db.locations[id]; ok {
		return *loc, nil
	}
	return schedule.Location{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) QueryLocations(_ context.Context, mentorID int, _ ...core.DBExecutor) ([]schedule.Location, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	locs := make([]schedule.Location, 0)
	for _, loc := range repo.db.locations {
		if loc.MentorID == mentorID {
			locs = append(locs, *loc)
		}
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].Name < locs[j].Name })
	return locs, nil
}

func (repo *scheduleRepository) UpdateLocation(_ context.Context, loc schedule.Location, _ ...core.DBExecutor) (schedule.Location, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.locations[loc.ID]
	if !ok {
		return schedule.Location{}, schedule.ErrNotFound
	}
	orig.Name = loc.Name
	orig.Address = loc.Address
	orig.Type = loc.Type
	return *orig, nil
}

func (repo *scheduleRepository) DeleteLocation(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.locations, id)
	return nil
}

// Slots

func (repo *scheduleRepository) CreateSlot(_ context.Context, slot schedule.Slot, _ ...core.DBExecutor) (schedule.Slot, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	slot.ID = repo.db.nextID()
	repo.db.slots[slot.ID] = &slot
	return slot, nil
}

func (repo *scheduleRepository) GetSlot(_ context.Context, id int, _ ...core.DBExecutor) (schedule.Slot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if slot, ok := repo.db.slots[id]; ok {
		return *slot, nil
	}
	return schedule.Slot{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) OpenSlots(_ context.Context, mentorID int, from time.Time, _ ...core.DBExecutor) ([]schedule.Slot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	slots := make([]schedule.Slot, 0)
	for _, slot := range repo.db.slots {
		if slot.MentorID == mentorID && !slot.IsBooked && !slot.DatetimeSlot.Before(from) {
			slots = append(slots, *slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].DatetimeSlot.Before(slots[j].DatetimeSlot) })
	return slots, nil
}

func (repo *scheduleRepository) DeleteSlot(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	delete(repo.db.slots, id)
	return nil
}

func (repo *scheduleRepository) ClaimSlot(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	slot, ok := repo.db.slots[id]
	if !ok || slot.IsBooked {
		return schedule.ErrSlotTaken
	}
	slot.IsBooked = true
	return nil
}

func (repo *scheduleRepository) ReleaseSlot(_ context.Context, id int, _ ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if slot, ok := repo.db.slots[id]; ok {
		slot.IsBooked = false
	}
	return nil
}

// Appointments

func (repo *scheduleRepository) CreateAppointment(_ context.Context, appt schedule.Appointment, _ ...core.DBExecutor) (schedule.Appointment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	appt.ID = repo.db.nextID()
	repo.db.appointments[appt.ID] = &appt
	return appt, nil
}

func (repo *scheduleRepository) GetAppointment(_ context.Context, id int, _ ...core.DBExecutor) (schedule.Appointment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if appt, ok := repo.db.appointments[id]; ok {
		return *appt, nil
	}
	return schedule.Appointment{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) GetUserAppointment(_ context.Context, userID int, module string, _ ...core.DBExecutor) (schedule.Appointment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, appt := range repo.db.appointments {
		if appt.UserID == userID && appt.ModuleName == module {
			return *appt, nil
		}
	}
	return schedule.Appointment{}, schedule.ErrNotFound
}

func (repo *scheduleRepository) UpdateAppointment(_ context.Context, appt schedule.Appointment, _ ...core.DBExecutor) (schedule.Appointment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.appointments[appt.ID]
	if !ok {
		return schedule.Appointment{}, schedule.ErrNotFound
	}
	orig.ScheduleDate = appt.ScheduleDate
	orig.AvailabilityID = appt.AvailabilityID
	orig.Location = appt.Location
	orig.Status = appt.Status
	orig.Notes = appt.Notes
	orig.UpdatedAt = appt.UpdatedAt
	return *orig, nil
}

func (repo *scheduleRepository) forMentor(mentorID int, statuses ...string) []schedule.Appointment {
	wantStatus := func(s string) bool {
		if len(statuses) == 0 {
			return true
		}
		for _, st := range statuses {
			if s == st {
				return true
			}
		}
		return false
	}
	isMentors := func(appt *schedule.Appointment) bool {
		if usr, ok := repo.db.users[appt.UserID]; ok && usr.MentorID != nil && *usr.MentorID == mentorID {
			return true
		}
		if appt.AvailabilityID != nil {
			if slot, ok := repo.db.slots[*appt.AvailabilityID]; ok && slot.MentorID == mentorID {
				return true
			}
		}
		return false
	}

	appts := make([]schedule.Appointment, 0)
	for _, appt := range repo.db.appointments {
		if wantStatus(appt.Status) && isMentors(appt) {
			appts = append(appts, *appt)
		}
	}
	sort.Slice(appts, func(i, j int) bool { return appts[i].UpdatedAt.After(appts[j].UpdatedAt) })
	return appts
}

func (repo *scheduleRepository) PendingForMentor(_ context.Context, mentorID int, _ ...core.DBExecutor) ([]schedule.Appointment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.forMentor(mentorID, schedule.StatusPending, schedule.StatusRescheduled), nil
}

func (repo *scheduleRepository) AllForMentor(_ context.Context, mentorID int, _ ...core.DBExecutor) ([]schedule.Appointment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return repo.forMentor(mentorID), nil
}
