package schedule_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/schedule"
	"github.com/stlconsulting/mentoria/core/user"
	inmemdb "github.com/stlconsulting/mentoria/storage/database/inmem"
	testutil "github.com/stlconsulting/mentoria/tests"
)

func setup(t *testing.T) (schedule.Repository, user.Repository, schedule.Service) {
	t.Helper()

	db := inmemdb.NewDB()
	repo := inmemdb.NewScheduleRepository(db)
	usrRepo := inmemdb.NewUserRepository(db)
	return repo, usrRepo, schedule.NewService(repo, inmemdb.NewTxRunner())
}

func tomorrow() time.Time {
	return time.Now().UTC().Add(24 * time.Hour).Truncate(time.Minute)
}

func Test_service_CreateSlot(t *testing.T) {
	repo, _, svc := setup(t)

	office := testutil.CreateLocation(t, repo, 1, "Escritório", schedule.LocationPresencial)
	meet := testutil.CreateLocation(t, repo, 1, "Google Meet", schedule.LocationOnline)

	t.Run("invalid datetime", func(t *testing.T) {
		_, err := svc.CreateSlot(1, schedule.NewSlot{Datetime: "lol", LocationID: office.ID})
		var vErr *core.ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("CreateSlot() error = %v, want ValidationError", err)
		}
	})

	t.Run("unknown location", func(t *testing.T) {
		_, err := svc.CreateSlot(1, schedule.NewSlot{Datetime: "2026-09-10T14:00", LocationID: 666})
		if errors.Cause(err) != schedule.ErrNotFound {
			t.Fatalf("CreateSlot() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("another mentor's location", func(t *testing.T) {
		_, err := svc.CreateSlot(2, schedule.NewSlot{Datetime: "2026-09-10T14:00", LocationID: office.ID})
		if errors.Cause(err) != schedule.ErrForbidden {
			t.Fatalf("CreateSlot() error = %v, want ErrForbidden", err)
		}
	})

	t.Run("link dropped for in-person locations", func(t *testing.T) {
		slot, err := svc.CreateSlot(1, schedule.NewSlot{
			Datetime: "2026-09-10T14:00", LocationID: office.ID, MeetingLink: "https://meet.google.com/abc",
		})
		if err != nil {
			t.Fatalf("CreateSlot() failed: %v", err)
		}
		if slot.MeetingLink != "" {
			t.Errorf("MeetingLink = %q, want empty", slot.MeetingLink)
		}
		if slot.Location != office.Name {
			t.Errorf("Location = %q, want %q", slot.Location, office.Name)
		}
	})

	t.Run("link kept for online locations", func(t *testing.T) {
		slot, err := svc.CreateSlot(1, schedule.NewSlot{
			Datetime: "2026-09-11T14:00", LocationID: meet.ID, MeetingLink: "https://meet.google.com/abc",
		})
		if err != nil {
			t.Fatalf("CreateSlot() failed: %v", err)
		}
		if slot.MeetingLink == "" {
			t.Error("MeetingLink should be kept for online locations")
		}
		if got, want := (&slot).DisplayLocation(), "Google Meet (Link após confirmação)"; got != want {
			t.Errorf("DisplayLocation() = %q, want %q", got, want)
		}
	})
}

func Test_service_Book(t *testing.T) {
	repo, _, svc := setup(t)
	ctx := context.Background()

	loc := testutil.CreateLocation(t, repo, 1, "Escritório", schedule.LocationPresencial)
	slot := testutil.CreateSlot(t, repo, 1, loc, tomorrow(), "")

	appt, err := svc.Book(10, schedule.BookAppointment{SlotID: slot.ID, ModuleName: "Módulo 1", Notes: "oi"})
	if err != nil {
		t.Fatalf("Book() failed: %v", err)
	}
	if appt.Status != schedule.StatusPending {
		t.Errorf("Status = %q, want %q", appt.Status, schedule.StatusPending)
	}
	if appt.AvailabilityID == nil || *appt.AvailabilityID != slot.ID {
		t.Errorf("AvailabilityID = %v, want %d", appt.AvailabilityID, slot.ID)
	}
	if appt.ScheduleDate != slot.DisplayDate() {
		t.Errorf("ScheduleDate = %q, want %q", appt.ScheduleDate, slot.DisplayDate())
	}

	if got, _ := repo.GetSlot(ctx, slot.ID); !got.IsBooked {
		t.Error("slot should be booked")
	}

	t.Run("slot already taken", func(t *testing.T) {
		_, err := svc.Book(11, schedule.BookAppointment{SlotID: slot.ID, ModuleName: "Módulo 1"})
		if errors.Cause(err) != schedule.ErrSlotTaken {
			t.Fatalf("Book() error = %v, want ErrSlotTaken", err)
		}
	})

	t.Run("reschedule frees the previous slot", func(t *testing.T) {
		slot2 := testutil.CreateSlot(t, repo, 1, loc, tomorrow().Add(2*time.Hour), "")

		appt2, err := svc.Book(10, schedule.BookAppointment{SlotID: slot2.ID, ModuleName: "Módulo 1"})
		if err != nil {
			t.Fatalf("Book() failed: %v", err)
		}
		if appt2.ID != appt.ID {
			t.Errorf("expected one appointment per (user, module); got a new one: %d != %d", appt2.ID, appt.ID)
		}
		if appt2.Status != schedule.StatusRescheduled {
			t.Errorf("Status = %q, want %q", appt2.Status, schedule.StatusRescheduled)
		}
		if got, _ := repo.GetSlot(ctx, slot.ID); got.IsBooked {
			t.Error("previous slot should be released")
		}
		if got, _ := repo.GetSlot(ctx, slot2.ID); !got.IsBooked {
			t.Error("new slot should be booked")
		}
	})

	t.Run("concurrent booking claims the slot exactly once", func(t *testing.T) {
		slot3 := testutil.CreateSlot(t, repo, 1, loc, tomorrow().Add(4*time.Hour), "")

		var wg sync.WaitGroup
		errs := make([]error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, errs[i] = svc.Book(100+i, schedule.BookAppointment{SlotID: slot3.ID, ModuleName: "Módulo 1"})
			}(i)
		}
		wg.Wait()

		var won int
		for _, err := range errs {
			if err == nil {
				won++
			} else if errors.Cause(err) != schedule.ErrSlotTaken {
				t.Errorf("Book() error = %v, want ErrSlotTaken", err)
			}
		}
		if won != 1 {
			t.Errorf("winners = %d, want exactly 1", won)
		}
	})
}

func Test_service_ConfirmReject(t *testing.T) {
	repo, _, svc := setup(t)
	ctx := context.Background()

	loc := testutil.CreateLocation(t, repo, 1, "Escritório", schedule.LocationPresencial)
	slot := testutil.CreateSlot(t, repo, 1, loc, tomorrow(), "")

	appt, err := svc.Book(10, schedule.BookAppointment{SlotID: slot.ID, ModuleName: "Módulo 1"})
	if err != nil {
		t.Fatalf("Book() failed: %v", err)
	}

	appt, err = svc.Confirm(appt.ID)
	if err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}
	if appt.Status != schedule.StatusConfirmed {
		t.Errorf("Status = %q, want %q", appt.Status, schedule.StatusConfirmed)
	}
	if got, _ := repo.GetSlot(ctx, slot.ID); !got.IsBooked {
		t.Error("confirming must not release the slot")
	}

	appt, err = svc.Reject(appt.ID)
	if err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}
	if appt.Status != schedule.StatusRejected {
		t.Errorf("Status = %q, want %q", appt.Status, schedule.StatusRejected)
	}
	if got, _ := repo.GetSlot(ctx, slot.ID); got.IsBooked {
		t.Error("rejecting must release the slot")
	}

	t.Run("rejected slot can be booked again", func(t *testing.T) {
		if _, err := svc.Book(11, schedule.BookAppointment{SlotID: slot.ID, ModuleName: "Módulo 1"}); err != nil {
			t.Fatalf("Book() failed: %v", err)
		}
	})

	t.Run("unknown appointment", func(t *testing.T) {
		if _, err := svc.Confirm(666); errors.Cause(err) != schedule.ErrNotFound {
			t.Errorf("Confirm() error = %v, want ErrNotFound", err)
		}
		if _, err := svc.Reject(666); errors.Cause(err) != schedule.ErrNotFound {
			t.Errorf("Reject() error = %v, want ErrNotFound", err)
		}
	})
}

func Test_service_RebookSameSlotAfterReject(t *testing.T) {
	repo, _, svc := setup(t)
	ctx := context.Background()

	loc := testutil.CreateLocation(t, repo, 1, "Escritório", schedule.LocationPresencial)
	slot := testutil.CreateSlot(t, repo, 1, loc, tomorrow(), "")

	appt, err := svc.Book(10, schedule.BookAppointment{SlotID: slot.ID, ModuleName: "Módulo 1"})
	if err != nil {
		t.Fatalf("Book() failed: %v", err)
	}
	if _, err = svc.Reject(appt.ID); err != nil {
		t.Fatalf("Reject() failed: %v", err)
	}

	// the rejected appointment still references the released slot; booking
	// that same slot again must leave it claimed
	appt2, err := svc.Book(10, schedule.BookAppointment{SlotID: slot.ID, ModuleName: "Módulo 1"})
	if err != nil {
		t.Fatalf("Book() failed: %v", err)
	}
	if appt2.ID != appt.ID {
		t.Errorf("expected one appointment per (user, module); got a new one: %d != %d", appt2.ID, appt.ID)
	}
	if appt2.Status != schedule.StatusRescheduled {
		t.Errorf("Status = %q, want %q", appt2.Status, schedule.StatusRescheduled)
	}
	if appt2.AvailabilityID == nil || *appt2.AvailabilityID != slot.ID {
		t.Errorf("AvailabilityID = %v, want %d", appt2.AvailabilityID, slot.ID)
	}
	if got, _ := repo.GetSlot(ctx, slot.ID); !got.IsBooked {
		t.Error("slot must stay booked after the rebook")
	}

	t.Run("no one else can claim it", func(t *testing.T) {
		_, err := svc.Book(11, schedule.BookAppointment{SlotID: slot.ID, ModuleName: "Módulo 1"})
		if errors.Cause(err) != schedule.ErrSlotTaken {
			t.Fatalf("Book() error = %v, want ErrSlotTaken", err)
		}
	})
}

func Test_service_DeleteSlot(t *testing.T) {
	repo, _, svc := setup(t)

	loc := testutil.CreateLocation(t, repo, 1, "Escritório", schedule.LocationPresencial)
	free := testutil.CreateSlot(t, repo, 1, loc, tomorrow(), "")
	booked := testutil.CreateSlot(t, repo, 1, loc, tomorrow().Add(time.Hour), "")

	if _, err := svc.Book(10, schedule.BookAppointment{SlotID: booked.ID, ModuleName: "Módulo 1"}); err != nil {
		t.Fatalf("Book() failed: %v", err)
	}

	if err := svc.DeleteSlot(2, free.ID); errors.Cause(err) != schedule.ErrForbidden {
		t.Errorf("DeleteSlot() error = %v, want ErrForbidden", err)
	}
	if err := svc.DeleteSlot(1, booked.ID); errors.Cause(err) != schedule.ErrSlotBooked {
		t.Errorf("DeleteSlot() error = %v, want ErrSlotBooked", err)
	}
	if err := svc.DeleteSlot(1, free.ID); err != nil {
		t.Errorf("DeleteSlot() failed: %v", err)
	}
}

func Test_service_mentorQueries(t *testing.T) {
	repo, usrRepo, svc := setup(t)

	mentor := testutil.CreateMentor(t, usrRepo, "boss", "boss@test.br")
	mentee := testutil.CreateMentee(t, usrRepo, "awe", "awe@test.br", &mentor.ID)
	orphan := testutil.CreateMentee(t, usrRepo, "solo", "solo@test.br", nil)

	loc := testutil.CreateLocation(t, repo, mentor.ID, "Escritório", schedule.LocationPresencial)
	slot1 := testutil.CreateSlot(t, repo, mentor.ID, loc, tomorrow(), "")
	slot2 := testutil.CreateSlot(t, repo, mentor.ID, loc, tomorrow().Add(time.Hour), "")

	if _, err := svc.Book(mentee.ID, schedule.BookAppointment{SlotID: slot1.ID, ModuleName: "Módulo 1"}); err != nil {
		t.Fatalf("Book() failed: %v", err)
	}
	// unassigned mentee booking one of the mentor's slots still shows up
	appt2, err := svc.Book(orphan.ID, schedule.BookAppointment{SlotID: slot2.ID, ModuleName: "Módulo 1"})
	if err != nil {
		t.Fatalf("Book() failed: %v", err)
	}

	pending, err := svc.PendingForMentor(mentor.ID)
	if err != nil {
		t.Fatalf("PendingForMentor() failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("len(pending) = %d, want 2", len(pending))
	}

	if _, err = svc.Confirm(appt2.ID); err != nil {
		t.Fatalf("Confirm() failed: %v", err)
	}

	pending, _ = svc.PendingForMentor(mentor.ID)
	if len(pending) != 1 {
		t.Errorf("len(pending) = %d, want 1", len(pending))
	}
	all, _ := svc.AllForMentor(mentor.ID)
	if len(all) != 2 {
		t.Errorf("len(all) = %d, want 2", len(all))
	}
}
