package schedule

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stlconsulting/mentoria/core"
)

// Location types
const (
	LocationPresencial = "presencial"
	LocationOnline     = "online"
)

// Appointment statuses. User-facing, kept in Portuguese.
const (
	StatusPending     = "Aguardando confirmação"
	StatusRescheduled = "Atualizado - Aguardando confirmação"
	StatusConfirmed   = "Confirmado"
	StatusRejected    = "Recusado"
)

const (
	// slotTimeLayout is the <input type="datetime-local"> wire format.
	slotTimeLayout = "2006-01-02T15:04"
	// displayTimeLayout is the denormalized schedule_date shown to users.
	displayTimeLayout = "02/01/2006 às 15:04"
	// onlineLocationSuffix decorates the location of slots carrying a meeting link.
	onlineLocationSuffix = " (Link após confirmação)"
)

type Location struct {
	ID        int       `json:"id" db:"id"`
	MentorID  int       `json:"mentor_id" db:"mentor_id"`
	Name      string    `json:"name" db:"name"`
	Address   string    `json:"address" db:"address"`
	Type      string    `json:"type" db:"type"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

func (l *Location) IsOnline() bool {
	return l.Type == LocationOnline
}

type Slot struct {
	ID           int       `json:"id" db:"id"`
	MentorID     int       `json:"mentor_id" db:"mentor_id"`
	LocationID   *int      `json:"location_id" db:"location_id"`
	DatetimeSlot time.Time `json:"datetime_slot" db:"datetime_slot"`
	Location     string    `json:"location" db:"location"` // denormalized location name
	MeetingLink  string    `json:"meeting_link" db:"meeting_link"`
	IsBooked     bool      `json:"is_booked" db:"is_booked"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

// DisplayDate formats the slot time the way it is denormalized into appointments.
func (s *Slot) DisplayDate() string {
	return s.DatetimeSlot.Format(displayTimeLayout)
}

// DisplayLocation is the location as shown to the mentee; online slots advertise
// that the link follows confirmation.
func (s *Slot) DisplayLocation() string {
	if s.MeetingLink != "" {
		return s.Location + onlineLocationSuffix
	}
	return s.Location
}

type Appointment struct {
	ID             int       `json:"id" db:"id"`
	UserID         int       `json:"user_id" db:"user_id"`
	ModuleName     string    `json:"module_name" db:"module_name"`
	ScheduleDate   string    `json:"schedule_date" db:"schedule_date"` // denormalized display string
	AvailabilityID *int      `json:"availability_id" db:"availability_id"`
	Location       string    `json:"location" db:"location"`
	Status         string    `json:"status" db:"status"`
	Notes          string    `json:"notes" db:"notes"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (a *Appointment) IsPending() bool {
	return a.Status == StatusPending || a.Status == StatusRescheduled
}

// NewLocation contains information needed to create or edit a Location.
type NewLocation struct {
	Name    string `form:"name" validate:"required"`
	Address string `form:"address"`
	Type    string `form:"type" validate:"required,oneof=presencial online"`
}

func (nl *NewLocation) Validate(validate *validator.Validate) error {
	nl.Name = core.CleanString(nl.Name)
	nl.Address = core.CleanString(nl.Address)
	// address only makes sense for in-person locations
	if nl.Type == LocationOnline {
		nl.Address = ""
	}
	return validate.Struct(nl)
}

// NewSlot contains information needed to open an availability slot.
type NewSlot struct {
	Datetime    string `form:"datetime_slot" validate:"required"`
	LocationID  int    `form:"location_id" validate:"required"`
	MeetingLink string `form:"meeting_link"`
}

func (ns *NewSlot) Validate(validate *validator.Validate) error {
	ns.MeetingLink = core.CleanString(ns.MeetingLink)
	return validate.Struct(ns)
}

// BookAppointment is a mentee's booking (or rescheduling) request.
type BookAppointment struct {
	SlotID     int    `form:"availability_id" validate:"required"`
	ModuleName string `form:"module_name" validate:"required"`
	Notes      string `form:"notes"`
}

func (ba *BookAppointment) Validate(validate *validator.Validate) error {
	ba.Notes = core.CleanString(ba.Notes)
	return validate.Struct(ba)
}
