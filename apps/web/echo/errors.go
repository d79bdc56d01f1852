package echoweb

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/stlconsulting/mentoria/core"
)

var (
	errHTTPForbidden = echo.NewHTTPError(http.StatusForbidden, "Acesso negado.")
	errHTTPNotFound  = echo.NewHTTPError(http.StatusNotFound, "Página não encontrada.")
)

// newHTTPErrorHandler renders errors as pages. Validation errors are not
// expected here; handlers turn those into flash messages before redirecting.
func (s *server) newHTTPErrorHandler() echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message string

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			if msg, ok := origErr.Message.(string); ok {
				message = msg
			} else {
				message = http.StatusText(code)
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			message = "Dados inválidos."
		case *core.ValidationError:
			code = http.StatusBadRequest
			message = origErr.Error()
		default: // any other error is a server error
			code = http.StatusInternalServerError
			message = "Algo deu errado. Tente novamente mais tarde."
			s.deps.Logger.Error(message, errors.Wrap(err, "internal server error"), contextUser(ctx))

			// shutting down...
			if core.IsShutdown(err) {
				s.signalShutdown()
			}
		}

		if ctx.Response().Committed {
			return
		}
		if ctx.Request().Method == http.MethodHead {
			_ = ctx.NoContent(code)
			return
		}
		if rErr := s.render(ctx, code, "error", echo.Map{"Code": code, "Message": message}); rErr != nil {
			// last resort
			_ = ctx.String(code, message)
		}
	}
}
