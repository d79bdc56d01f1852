package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrNoMentor       = errors.New("no mentor available")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers []User, exec ...core.DBExecutor) error
		CreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		GetUser(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (User, error)
		// QueryUsers applies AND on the available QueryFilter fields; nil filter returns all,
		// ordered by id.
		QueryUsers(ctx context.Context, filter *QueryFilter, exec ...core.DBExecutor) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool, exec ...core.DBExecutor) (User, error)
		UpdateOrCreateUser(ctx context.Context, usr User, exec ...core.DBExecutor) (User, error)
		// FirstMentor returns the active mentor with the lowest id.
		FirstMentor(ctx context.Context, exec ...core.DBExecutor) (User, error)
		// SubscribeNewsletter stores the email; duplicates are a no-op.
		SubscribeNewsletter(ctx context.Context, email string, exec ...core.DBExecutor) error
	}

	Service interface {
		CheckUniqueness(uname, email string, exclUsers ...User) error
		Create(nu NewUser) (User, error)
		GetByID(id int) (User, error)
		GetByEmail(email string) (User, error)
		GetByUsernameOrEmail(uname string) (User, error)
		Query(filter *QueryFilter) ([]User, error)
		MenteesOf(mentorID int) ([]User, error)
		// MentorFor resolves the mentor serving `usr`: the assigned one when set,
		// otherwise the active mentor with the lowest id. ErrNoMentor when none exists.
		MentorFor(usr User) (User, error)
		Update(id int, uu UpdateUser) (User, error)
		AssignMentor(menteeID int, mentorID *int) (User, error)
		ToggleActive(id int) (User, error)
		SetLastLogin(usr User) (User, error)
		RequestPasswordReset(email string) error
		ResetPassword(rp ResetUserPassword) error
		SubscribeNewsletter(email string) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
		conf    *core.Config
		logger  core.Logger
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config, logger core.Logger) Service {
	return &service{
		repo:    repo,
		mailSvc: mailSvc,
		conf:    conf,
		logger:  logger,
	}
}

func (svc *service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	role := nu.Role
	if role == "" {
		role = RoleMentee
	}
	usr := User{
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      role,
		IsActive:  true,
		MentorID:  nu.MentorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(context.Background(), usr)
}

func (svc *service) GetByID(id int) (User, error) {
	return svc.repo.GetUser(context.Background(), GetFilter{ID: id})
}

func (svc *service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUser(context.Background(), GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUser(context.Background(), GetFilter{UsernameOrEmail: core.CleanString(uname, true /* lower */)})
}

func (svc *service) Query(filter *QueryFilter) ([]User, error) {
	return svc.repo.QueryUsers(context.Background(), filter)
}

func (svc *service) MenteesOf(mentorID int) ([]User, error) {
	return svc.repo.QueryUsers(context.Background(), &QueryFilter{Role: RoleMentee, MentorID: &mentorID})
}

func (svc *service) MentorFor(usr User) (User, error) {
	if usr.MentorID != nil {
		mentor, err := svc.GetByID(*usr.MentorID)
		if err == nil {
			return mentor, nil
		}
		if err != ErrNotFound {
			return User{}, err
		}
		// dangling mentor_id: fall through to the pool
	}
	mentor, err := svc.repo.FirstMentor(context.Background())
	if err == ErrNotFound {
		return User{}, ErrNoMentor
	}
	return mentor, err
}

func (svc *service) Update(id int, uu UpdateUser) (User, error) {
	usr := User{
		ID:        id,
		Username:  uu.Username,
		Email:     uu.Email,
		MentorID:  uu.MentorID,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(context.Background(), usr, uu.IsActive)
}

func (svc *service) AssignMentor(menteeID int, mentorID *int) (User, error) {
	ctx := context.Background()
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: menteeID})
	if err != nil {
		return User{}, err
	}
	if mentorID != nil {
		mentor, err := svc.repo.GetUser(ctx, GetFilter{ID: *mentorID})
		if err != nil {
			return User{}, err
		}
		if !mentor.IsMentor() {
			return User{}, core.NewValidationError(
				errors.New("assigned user is not a mentor"),
				core.FieldError{Field: "mentor_id", Error: "assigned user is not a mentor"},
			)
		}
	}
	usr.MentorID = mentorID
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, nil)
}

func (svc *service) ToggleActive(id int) (User, error) {
	ctx := context.Background()
	usr, err := svc.repo.GetUser(ctx, GetFilter{ID: id})
	if err != nil {
		return User{}, err
	}
	active := !usr.IsActive
	usr.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateUser(ctx, usr, &active)
}

func (svc *service) SetLastLogin(usr User) (User, error) {
	usr.LastLogin = time.Now().UTC()
	return svc.repo.UpdateUser(context.Background(), usr, nil)
}

func (svc *service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	go func() {
		if err := svc.sendPasswordResetMail(usr); err != nil {
			svc.logger.Error(fmt.Sprintf("sending password reset mail: %v", err), err)
		}
	}()
	return nil
}

func (svc *service) sendPasswordResetMail(usr User) error {
	token, err := makeResetToken(usr, svc.conf)
	if err != nil {
		return errors.Wrap(err, "making reset token")
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      "Redefinição de Senha",
		TemplateName: "password-reset",
		TemplateData: struct {
			Username string
			ResetURL string
		}{
			Username: usr.Username,
			ResetURL: svc.conf.BaseURL + "/reset-password/" + token,
		},
	}
	svc.mailSvc.SendMessages(msg)
	return nil
}

func (svc *service) ResetPassword(rp ResetUserPassword) error {
	email, err := resetTokenEmail(rp.Token)
	if err != nil {
		return core.NewValidationError(err)
	}
	usr, err := svc.GetByEmail(email)
	if err != nil {
		if err == ErrNotFound {
			return core.NewValidationError(errInvalidToken)
		}
		return err
	}
	if err = verifyResetToken(usr, rp.Token, svc.conf); err != nil {
		return core.NewValidationError(err)
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(context.Background(), usr, nil)
	return err
}

func (svc *service) SubscribeNewsletter(email string) error {
	return svc.repo.SubscribeNewsletter(context.Background(), core.CleanString(email, true /* lower */))
}
