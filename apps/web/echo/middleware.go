package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core/user"
)

func (s *server) loginRequired() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, ok := s.sessionUserID(ctx)
			if !ok {
				s.flash(ctx, "Faça login para acessar esta página.")
				return ctx.Redirect(http.StatusFound, "/login")
			}

			usr, err := s.deps.UserSvc.GetByID(id)
			if err != nil || !usr.IsActive {
				if err != nil && err != user.ErrNotFound {
					return errors.Wrap(err, "loading session user")
				}
				_ = s.signOut(ctx)
				s.flash(ctx, "Sua sessão expirou. Faça login novamente.")
				return ctx.Redirect(http.StatusFound, "/login")
			}

			ctx.Set(ctxUserKey, usr)
			return next(ctx)
		}
	}
}

func (s *server) mentorRequired() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if usr, ok := ctx.Get(ctxUserKey).(user.User); ok && usr.IsMentor() {
				return next(ctx)
			}
			return errHTTPForbidden
		}
	}
}

// contextUser returns the user loaded by loginRequired.
func contextUser(ctx echo.Context) user.User {
	usr, _ := ctx.Get(ctxUserKey).(user.User)
	return usr
}
