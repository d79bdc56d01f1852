package echoweb

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/user"
)

type loginRequest struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `form:"email" validate:"required,email"`
}

type newsletterRequest struct {
	Email string `json:"email" form:"email" validate:"required,email"`
}

// flashValidationErrs turns a validation error into flash messages.
// Returns false when err is not a validation error.
func (s *server) flashValidationErrs(ctx echo.Context, err error) bool {
	switch e := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range e {
			s.flash(ctx, fe.Translate(s.deps.Translator))
		}
		return true
	case *core.ValidationError:
		for _, msg := range e.Messages() {
			s.flash(ctx, msg)
		}
		return true
	}
	return false
}

// homeFor is where a user lands after login.
func homeFor(usr user.User) string {
	if usr.IsMentor() {
		return "/admin/dashboard"
	}
	return "/mentor_area"
}

func (s *server) loginForm(ctx echo.Context) error {
	if _, ok := s.sessionUserID(ctx); ok {
		return ctx.Redirect(http.StatusFound, "/mentor_area")
	}
	return s.render(ctx, http.StatusOK, "login", echo.Map{})
}

func (s *server) login(ctx echo.Context) error {
	var data loginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to loginRequest")
	}
	if err := s.deps.Validate.Struct(&data); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, "/login")
	}

	usr, err := s.deps.UserSvc.GetByEmail(data.Email)
	if err != nil {
		if err == user.ErrNotFound {
			s.flash(ctx, "Email ou senha incorretos.")
			return ctx.Redirect(http.StatusFound, "/login")
		}
		return errors.Wrap(err, "getting user")
	}
	if err = usr.CheckPassword(data.Password); err != nil {
		s.flash(ctx, "Email ou senha incorretos.")
		return ctx.Redirect(http.StatusFound, "/login")
	}
	if !usr.IsActive {
		s.flash(ctx, "Conta desativada. Entre em contato com seu mentor.")
		return ctx.Redirect(http.StatusFound, "/login")
	}

	if _, err = s.deps.UserSvc.SetLastLogin(usr); err != nil {
		return errors.Wrap(err, "setting last login")
	}
	if err = s.signIn(ctx, usr); err != nil {
		return errors.Wrap(err, "saving session")
	}
	return ctx.Redirect(http.StatusFound, homeFor(usr))
}

func (s *server) registerForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "register", echo.Map{})
}

func (s *server) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(s.deps.Validate, s.deps.UserSvc); err != nil {
		if s.flashValidationErrs(ctx, err) {
			return ctx.Redirect(http.StatusFound, "/register")
		}
		return err
	}

	if _, err := s.deps.UserSvc.Create(data); err != nil {
		return errors.Wrap(err, "creating user")
	}
	s.flash(ctx, "Cadastro realizado com sucesso. Faça login para continuar.")
	return ctx.Redirect(http.StatusFound, "/login")
}

func (s *server) logout(ctx echo.Context) error {
	_ = s.signOut(ctx)
	return ctx.Redirect(http.StatusFound, "/login")
}

func (s *server) forgotPasswordForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "forgot_password", echo.Map{})
}

func (s *server) forgotPassword(ctx echo.Context) error {
	var data forgotPasswordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to forgotPasswordRequest")
	}
	if err := s.deps.Validate.Struct(&data); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, "/forgot-password")
	}

	// same outcome whether or not the account exists
	if err := s.deps.UserSvc.RequestPasswordReset(data.Email); err != nil && err != user.ErrNotFound {
		return errors.Wrap(err, "requesting password reset")
	}
	s.flash(ctx, "Se o email estiver cadastrado, você receberá as instruções de redefinição.")
	return ctx.Redirect(http.StatusFound, "/login")
}

func (s *server) resetPasswordForm(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "reset_password", echo.Map{"Token": ctx.Param("token")})
}

func (s *server) resetPassword(ctx echo.Context) error {
	data := user.ResetUserPassword{Token: ctx.Param("token")}
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetUserPassword")
	}
	data.Token = ctx.Param("token")

	if err := data.Validate(s.deps.Validate); err != nil {
		s.flashValidationErrs(ctx, err)
		return ctx.Redirect(http.StatusFound, "/reset-password/"+data.Token)
	}
	if err := s.deps.UserSvc.ResetPassword(data); err != nil {
		if s.flashValidationErrs(ctx, err) {
			return ctx.Redirect(http.StatusFound, "/forgot-password")
		}
		return errors.Wrap(err, "resetting password")
	}

	s.flash(ctx, "Senha redefinida com sucesso. Faça login com a nova senha.")
	return ctx.Redirect(http.StatusFound, "/login")
}

func (s *server) subscribeNewsletter(ctx echo.Context) error {
	var data newsletterRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to newsletterRequest")
	}
	if err := s.deps.Validate.Struct(&data); err != nil {
		return ctx.JSON(http.StatusBadRequest, echo.Map{"error": "email inválido"})
	}
	if err := s.deps.UserSvc.SubscribeNewsletter(data.Email); err != nil {
		return errors.Wrap(err, "subscribing to newsletter")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "inscrição realizada"})
}
