package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/schedule"
)

const (
	locationColumns = `id, mentor_id, name, address, type, created_at`
	slotColumns     = `id, mentor_id, location_id, datetime_slot, location, meeting_link, is_booked, created_at`
	apptColumns     = `id, user_id, module_name, schedule_date, availability_id, location, status, notes, created_at, updated_at`
)

type scheduleRepository struct {
	exec core.DBExecutor
}

var _ schedule.Repository = (*scheduleRepository)(nil) // interface compliance check

func NewScheduleRepository(exec core.DBExecutor) *scheduleRepository {
	return &scheduleRepository{exec: exec}
}

func (repo scheduleRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return schedule.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// Locations

func (repo scheduleRepository) CreateLocation(ctx context.Context, loc schedule.Location, exec ...core.DBExecutor) (schedule.Location, error) {
	const query = `
INSERT INTO mentor_locations (mentor_id, name, address, type, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &loc.ID, query,
		loc.MentorID, loc.Name, loc.Address, loc.Type, loc.CreatedAt)
	if err != nil {
		return schedule.Location{}, errors.Wrap(err, "inserting location")
	}
	return loc, nil
}

func (repo scheduleRepository) GetLocation(ctx context.Context, id int, exec ...core.DBExecutor) (schedule.Location, error) {
	var loc schedule.Location
	err := getExec(repo.exec, exec).GetContext(ctx, &loc,
		`SELECT `+locationColumns+` FROM mentor_locations WHERE id = $1`, id)
	if err != nil {
		return schedule.Location{}, repo.trapNoRowsErr(err, "getting location")
	}
	return loc, nil
}

func (repo scheduleRepository) QueryLocations(ctx context.Context, mentorID int, exec ...core.DBExecutor) ([]schedule.Location, error) {
	locs := make([]schedule.Location, 0)
	err := getExec(repo.exec, exec).SelectContext(ctx, &locs,
		`SELECT `+locationColumns+` FROM mentor_locations WHERE mentor_id = $1 ORDER BY name`, mentorID)
	if err != nil {
		return nil, errors.Wrap(err, "querying locations")
	}
	return locs, nil
}

func (repo scheduleRepository) UpdateLocation(ctx context.Context, loc schedule.Location, exec ...core.DBExecutor) (schedule.Location, error) {
	const query = `UPDATE mentor_locations SET name = $2, address = $3, type = $4 WHERE id = $1`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query, loc.ID, loc.Name, loc.Address, loc.Type)
	if err != nil {
		return schedule.Location{}, errors.Wrap(err, "updating location")
	}
	return loc, nil
}

func (repo scheduleRepository) DeleteLocation(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM mentor_locations WHERE id = $1`, id)
	return errors.Wrap(err, "deleting location")
}

// Slots

func (repo scheduleRepository) CreateSlot(ctx context.Context, slot schedule.Slot, exec ...core.DBExecutor) (schedule.Slot, error) {
	const query = `
INSERT INTO mentor_availability (mentor_id, location_id, datetime_slot, location, meeting_link, is_booked, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &slot.ID, query,
		slot.MentorID, slot.LocationID, slot.DatetimeSlot, slot.Location,
		slot.MeetingLink, slot.IsBooked, slot.CreatedAt)
	if err != nil {
		return schedule.Slot{}, errors.Wrap(err, "inserting slot")
	}
	return slot, nil
}

func (repo scheduleRepository) GetSlot(ctx context.Context, id int, exec ...core.DBExecutor) (schedule.Slot, error) {
	var slot schedule.Slot
	err := getExec(repo.exec, exec).GetContext(ctx, &slot,
		`SELECT `+slotColumns+` FROM mentor_availability WHERE id = $1`, id)
	if err != nil {
		return schedule.Slot{}, repo.trapNoRowsErr(err, "getting slot")
	}
	return slot, nil
}

func (repo scheduleRepository) OpenSlots(ctx context.Context, mentorID int, from time.Time, exec ...core.DBExecutor) ([]schedule.Slot, error) {
	const query = `
SELECT ` + slotColumns + `
FROM mentor_availability
WHERE mentor_id = $1 AND NOT is_booked AND datetime_slot >= $2
ORDER BY datetime_slot`
	slots := make([]schedule.Slot, 0)
	if err := getExec(repo.exec, exec).SelectContext(ctx, &slots, query, mentorID, from); err != nil {
		return nil, errors.Wrap(err, "querying open slots")
	}
	return slots, nil
}

func (repo scheduleRepository) DeleteSlot(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx, `DELETE FROM mentor_availability WHERE id = $1`, id)
	return errors.Wrap(err, "deleting slot")
}

// ClaimSlot marks the slot booked; the conditional update makes concurrent
// claims of one slot mutually exclusive.
func (repo scheduleRepository) ClaimSlot(ctx context.Context, id int, exec ...core.DBExecutor) error {
	res, err := getExec(repo.exec, exec).ExecContext(ctx,
		`UPDATE mentor_availability SET is_booked = true WHERE id = $1 AND NOT is_booked`, id)
	if err != nil {
		return errors.Wrap(err, "claiming slot")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "claiming slot")
	}
	if n == 0 {
		return schedule.ErrSlotTaken
	}
	return nil
}

func (repo scheduleRepository) ReleaseSlot(ctx context.Context, id int, exec ...core.DBExecutor) error {
	_, err := getExec(repo.exec, exec).ExecContext(ctx,
		`UPDATE mentor_availability SET is_booked = false WHERE id = $1`, id)
	return errors.Wrap(err, "releasing slot")
}

// Appointments

func (repo scheduleRepository) CreateAppointment(ctx context.Context, appt schedule.Appointment, exec ...core.DBExecutor) (schedule.Appointment, error) {
	const query = `
INSERT INTO appointments (user_id, module_name, schedule_date, availability_id, location, status, notes, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`
	err := getExec(repo.exec, exec).GetContext(ctx, &appt.ID, query,
		appt.UserID, appt.ModuleName, appt.ScheduleDate, appt.AvailabilityID,
		appt.Location, appt.Status, appt.Notes, appt.CreatedAt, appt.UpdatedAt)
	if err != nil {
		return schedule.Appointment{}, errors.Wrap(err, "inserting appointment")
	}
	return appt, nil
}

func (repo scheduleRepository) GetAppointment(ctx context.Context, id int, exec ...core.DBExecutor) (schedule.Appointment, error) {
	var appt schedule.Appointment
	err := getExec(repo.exec, exec).GetContext(ctx, &appt,
		`SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id)
	if err != nil {
		return schedule.Appointment{}, repo.trapNoRowsErr(err, "getting appointment")
	}
	return appt, nil
}

func (repo scheduleRepository) GetUserAppointment(ctx context.Context, userID int, module string, exec ...core.DBExecutor) (schedule.Appointment, error) {
	var appt schedule.Appointment
	err := getExec(repo.exec, exec).GetContext(ctx, &appt,
		`SELECT `+apptColumns+` FROM appointments WHERE user_id = $1 AND module_name = $2`, userID, module)
	if err != nil {
		return schedule.Appointment{}, repo.trapNoRowsErr(err, "getting user appointment")
	}
	return appt, nil
}

func (repo scheduleRepository) UpdateAppointment(ctx context.Context, appt schedule.Appointment, exec ...core.DBExecutor) (schedule.Appointment, error) {
	const query = `
UPDATE appointments
SET schedule_date = $2, availability_id = $3, location = $4, status = $5, notes = $6, updated_at = $7
WHERE id = $1`
	_, err := getExec(repo.exec, exec).ExecContext(ctx, query,
		appt.ID, appt.ScheduleDate, appt.AvailabilityID, appt.Location,
		appt.Status, appt.Notes, appt.UpdatedAt)
	if err != nil {
		return schedule.Appointment{}, errors.Wrap(err, "updating appointment")
	}
	return appt, nil
}

// forMentorQuery matches appointments of the mentor's assigned mentees as well
// as appointments holding one of the mentor's slots (fallback-mentor bookings).
const forMentorQuery = `
SELECT a.id, a.user_id, a.module_name, a.schedule_date, a.availability_id, a.location, a.status, a.notes, a.created_at, a.updated_at
FROM appointments a
JOIN users u ON u.id = a.user_id
LEFT JOIN mentor_availability s ON s.id = a.availability_id
WHERE (u.mentor_id = $1 OR s.mentor_id = $1)`

func (repo scheduleRepository) PendingForMentor(ctx context.Context, mentorID int, exec ...core.DBExecutor) ([]schedule.Appointment, error) {
	query := forMentorQuery + ` AND a.status IN ($2, $3) ORDER BY a.updated_at DESC`
	appts := make([]schedule.Appointment, 0)
	err := getExec(repo.exec, exec).SelectContext(ctx, &appts, query,
		mentorID, schedule.StatusPending, schedule.StatusRescheduled)
	if err != nil {
		return nil, errors.Wrap(err, "querying pending appointments")
	}
	return appts, nil
}

func (repo scheduleRepository) AllForMentor(ctx context.Context, mentorID int, exec ...core.DBExecutor) ([]schedule.Appointment, error) {
	query := forMentorQuery + ` ORDER BY a.updated_at DESC`
	appts := make([]schedule.Appointment, 0)
	if err := getExec(repo.exec, exec).SelectContext(ctx, &appts, query, mentorID); err != nil {
		return nil, errors.Wrap(err, "querying appointments")
	}
	return appts, nil
}
