package schedule

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
)

var (
	// errors
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("operation not allowed")
	ErrSlotTaken  = errors.New("this slot is no longer available")
	ErrSlotBooked = errors.New("cannot remove a booked slot")
)

type (
	Repository interface {
		CreateLocation(ctx context.Context, loc Location, exec ...core.DBExecutor) (Location, error)
		GetLocation(ctx context.Context, id int, exec ...core.DBExecutor) (Location, error)
		// QueryLocations returns the mentor's locations ordered by name.
		QueryLocations(ctx context.Context, mentorID int, exec ...core.DBExecutor) ([]Location, error)
		UpdateLocation(ctx context.Context, loc Location, exec ...core.DBExecutor) (Location, error)
		DeleteLocation(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateSlot(ctx context.Context, slot Slot, exec ...core.DBExecutor) (Slot, error)
		GetSlot(ctx context.Context, id int, exec ...core.DBExecutor) (Slot, error)
		// OpenSlots returns the mentor's unbooked slots from `from` on, ordered by time.
		OpenSlots(ctx context.Context, mentorID int, from time.Time, exec ...core.DBExecutor) ([]Slot, error)
		DeleteSlot(ctx context.Context, id int, exec ...core.DBExecutor) error
		// ClaimSlot conditionally marks the slot booked; ErrSlotTaken when it already is.
		ClaimSlot(ctx context.Context, id int, exec ...core.DBExecutor) error
		ReleaseSlot(ctx context.Context, id int, exec ...core.DBExecutor) error

		CreateAppointment(ctx context.Context, appt Appointment, exec ...core.DBExecutor) (Appointment, error)
		GetAppointment(ctx context.Context, id int, exec ...core.DBExecutor) (Appointment, error)
		GetUserAppointment(ctx context.Context, userID int, module string, exec ...core.DBExecutor) (Appointment, error)
		UpdateAppointment(ctx context.Context, appt Appointment, exec ...core.DBExecutor) (Appointment, error)
		// PendingForMentor returns pending appointments of the mentor's mentees.
		PendingForMentor(ctx context.Context, mentorID int, exec ...core.DBExecutor) ([]Appointment, error)
		AllForMentor(ctx context.Context, mentorID int, exec ...core.DBExecutor) ([]Appointment, error)
	}

	Service interface {
		CreateLocation(mentorID int, nl NewLocation) (Location, error)
		UpdateLocation(mentorID, id int, nl NewLocation) (Location, error)
		DeleteLocation(mentorID, id int) error
		Locations(mentorID int) ([]Location, error)

		CreateSlot(mentorID int, ns NewSlot) (Slot, error)
		DeleteSlot(mentorID, id int) error
		OpenSlots(mentorID int) ([]Slot, error)

		// Book books the slot for the mentee, or reschedules the existing
		// appointment of (user, module) onto it.
		Book(userID int, ba BookAppointment) (Appointment, error)
		Confirm(apptID int) (Appointment, error)
		Reject(apptID int) (Appointment, error)
		AppointmentFor(userID int, module string) (Appointment, error)
		PendingForMentor(mentorID int) ([]Appointment, error)
		AllForMentor(mentorID int) ([]Appointment, error)
	}

	service struct {
		repo Repository
		txr  core.TxRunner
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, txr core.TxRunner) Service {
	return &service{repo: repo, txr: txr}
}

// Locations

func (svc *service) CreateLocation(mentorID int, nl NewLocation) (Location, error) {
	return svc.repo.CreateLocation(context.Background(), Location{
		MentorID:  mentorID,
		Name:      nl.Name,
		Address:   nl.Address,
		Type:      nl.Type,
		CreatedAt: time.Now().UTC(),
	})
}

func (svc *service) UpdateLocation(mentorID, id int, nl NewLocation) (Location, error) {
	ctx := context.Background()
	loc, err := svc.repo.GetLocation(ctx, id)
	if err != nil {
		return Location{}, err
	}
	if loc.MentorID != mentorID {
		return Location{}, ErrForbidden
	}
	loc.Name = nl.Name
	loc.Address = nl.Address
	loc.Type = nl.Type
	return svc.repo.UpdateLocation(ctx, loc)
}

func (svc *service) DeleteLocation(mentorID, id int) error {
	ctx := context.Background()
	loc, err := svc.repo.GetLocation(ctx, id)
	if err != nil {
		return err
	}
	if loc.MentorID != mentorID {
		return ErrForbidden
	}
	return svc.repo.DeleteLocation(ctx, id)
}

func (svc *service) Locations(mentorID int) ([]Location, error) {
	return svc.repo.QueryLocations(context.Background(), mentorID)
}

// Slots

func (svc *service) CreateSlot(mentorID int, ns NewSlot) (Slot, error) {
	ctx := context.Background()

	at, err := time.Parse(slotTimeLayout, ns.Datetime)
	if err != nil {
		return Slot{}, core.NewValidationError(
			err, core.FieldError{Field: "datetime_slot", Error: "invalid date/time"})
	}

	loc, err := svc.repo.GetLocation(ctx, ns.LocationID)
	if err != nil {
		return Slot{}, err
	}
	if loc.MentorID != mentorID {
		return Slot{}, ErrForbidden
	}

	link := ns.MeetingLink
	if !loc.IsOnline() {
		link = ""
	}
	locID := loc.ID
	return svc.repo.CreateSlot(ctx, Slot{
		MentorID:     mentorID,
		LocationID:   &locID,
		DatetimeSlot: at,
		Location:     loc.Name,
		MeetingLink:  link,
		CreatedAt:    time.Now().UTC(),
	})
}

func (svc *service) DeleteSlot(mentorID, id int) error {
	ctx := context.Background()
	slot, err := svc.repo.GetSlot(ctx, id)
	if err != nil {
		return err
	}
	if slot.MentorID != mentorID {
		return ErrForbidden
	}
	if slot.IsBooked {
		return ErrSlotBooked
	}
	return svc.repo.DeleteSlot(ctx, id)
}

func (svc *service) OpenSlots(mentorID int) ([]Slot, error) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	return svc.repo.OpenSlots(context.Background(), mentorID, today)
}

// Appointments

func (svc *service) Book(userID int, ba BookAppointment) (Appointment, error) {
	ctx := context.Background()

	var appt Appointment
	err := svc.txr.RunInTx(ctx, func(exec core.DBExecutor) error {
		slot, err := svc.repo.GetSlot(ctx, ba.SlotID, exec)
		if err != nil {
			return err
		}
		if err = svc.repo.ClaimSlot(ctx, slot.ID, exec); err != nil {
			return err
		}

		now := time.Now().UTC()
		slotID := slot.ID
		prev, err := svc.repo.GetUserAppointment(ctx, userID, ba.ModuleName, exec)
		switch err {
		case nil:
			// reschedule: free the previously held slot and rebind.
			// After a rejection the appointment still points at the released
			// slot; rebooking that same slot must keep the claim just made.
			if prev.AvailabilityID != nil && *prev.AvailabilityID != slot.ID {
				if err = svc.repo.ReleaseSlot(ctx, *prev.AvailabilityID, exec); err != nil {
					return err
				}
			}
			prev.ScheduleDate = slot.DisplayDate()
			prev.AvailabilityID = &slotID
			prev.Location = slot.DisplayLocation()
			prev.Status = StatusRescheduled
			prev.Notes = ba.Notes
			prev.UpdatedAt = now
			appt, err = svc.repo.UpdateAppointment(ctx, prev, exec)
			return err
		case ErrNotFound:
			appt, err = svc.repo.CreateAppointment(ctx, Appointment{
				UserID:         userID,
				ModuleName:     ba.ModuleName,
				ScheduleDate:   slot.DisplayDate(),
				AvailabilityID: &slotID,
				Location:       slot.DisplayLocation(),
				Status:         StatusPending,
				Notes:          ba.Notes,
				CreatedAt:      now,
				UpdatedAt:      now,
			}, exec)
			return err
		default:
			return err
		}
	})
	if err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

func (svc *service) Confirm(apptID int) (Appointment, error) {
	ctx := context.Background()
	appt, err := svc.repo.GetAppointment(ctx, apptID)
	if err != nil {
		return Appointment{}, err
	}
	appt.Status = StatusConfirmed
	appt.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateAppointment(ctx, appt)
}

func (svc *service) Reject(apptID int) (Appointment, error) {
	ctx := context.Background()

	var appt Appointment
	err := svc.txr.RunInTx(ctx, func(exec core.DBExecutor) error {
		var err error
		appt, err = svc.repo.GetAppointment(ctx, apptID, exec)
		if err != nil {
			return err
		}
		if appt.AvailabilityID != nil {
			if err = svc.repo.ReleaseSlot(ctx, *appt.AvailabilityID, exec); err != nil {
				return err
			}
		}
		appt.Status = StatusRejected
		appt.UpdatedAt = time.Now().UTC()
		appt, err = svc.repo.UpdateAppointment(ctx, appt, exec)
		return err
	})
	if err != nil {
		return Appointment{}, err
	}
	return appt, nil
}

func (svc *service) AppointmentFor(userID int, module string) (Appointment, error) {
	return svc.repo.GetUserAppointment(context.Background(), userID, module)
}

func (svc *service) PendingForMentor(mentorID int) ([]Appointment, error) {
	return svc.repo.PendingForMentor(context.Background(), mentorID)
}

func (svc *service) AllForMentor(mentorID int) ([]Appointment, error) {
	return svc.repo.AllForMentor(context.Background(), mentorID)
}
