package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/stlconsulting/mentoria/core"
)

// Roles
const (
	RoleMentor = "mentor"
	RoleMentee = "mentee"
)

var AllRoles = []string{RoleMentor, RoleMentee}

type User struct {
	ID           int       `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	Role         string    `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	MentorID     *int      `json:"mentor_id" db:"mentor_id"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    time.Time `json:"last_login" db:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsMentor() bool {
	return u.Role == RoleMentor
}

func (u *User) IsMentee() bool {
	return u.Role == RoleMentee
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username        string `form:"username" validate:"required,min=3,alphanum_"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required"`
	PasswordConfirm string `form:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `form:"-" validate:"omitempty,oneof=mentor mentee"`
	MentorID        *int   `form:"-"`
}

func (nu *NewUser) Validate(validate *validator.Validate, svc Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Username        string `form:"username" validate:"omitempty,min=3,alphanum_"`
	Email           string `form:"email" validate:"omitempty,email"`
	IsActive        *bool  `form:"is_active"`
	MentorID        *int   `form:"mentor_id"`
	Password        string `form:"password" validate:"omitempty"`
	PasswordConfirm string `form:"confirm_password" validate:"required_with=Password,eqfield=Password"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc Service) error {
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}

	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

// ResetUserPassword carries a password-reset confirmation.
type ResetUserPassword struct {
	Token           string `form:"token" validate:"required"`
	Password        string `form:"password" validate:"required"`
	PasswordConfirm string `form:"confirm_password" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

// QueryFilter narrows user queries. Fields are ANDed.
type QueryFilter struct {
	Role     string
	MentorID *int
	IsActive *bool
}

// GetFilter locates a single user. The first non-zero field wins.
type GetFilter struct {
	ID              int
	Username        string
	Email           string
	UsernameOrEmail string
}
