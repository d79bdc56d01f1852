package echoweb

import (
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/user"
)

const (
	ctxUserKey       = "user"
	sessionUserIDKey = "user_id"
)

func newSessionStore(conf *core.Config) sessions.Store {
	store := sessions.NewCookieStore([]byte(conf.SecretKey))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   conf.Session.MaxAge,
		HttpOnly: true,
		Secure:   !(conf.Debug || conf.TestMode),
	}
	return store
}

func (s *server) session(ctx echo.Context) *sessions.Session {
	// an invalid cookie yields a fresh session; the decode error is irrelevant
	sess, _ := s.store.Get(ctx.Request(), s.deps.Conf.Session.CookieName)
	return sess
}

func (s *server) signIn(ctx echo.Context, usr user.User) error {
	sess := s.session(ctx)
	sess.Values[sessionUserIDKey] = usr.ID
	return sess.Save(ctx.Request(), ctx.Response())
}

func (s *server) signOut(ctx echo.Context) error {
	sess := s.session(ctx)
	delete(sess.Values, sessionUserIDKey)
	sess.Options.MaxAge = -1
	return sess.Save(ctx.Request(), ctx.Response())
}

func (s *server) sessionUserID(ctx echo.Context) (int, bool) {
	id, ok := s.session(ctx).Values[sessionUserIDKey].(int)
	return id, ok
}

// flash queues a message for the next rendered page.
func (s *server) flash(ctx echo.Context, msg string) {
	sess := s.session(ctx)
	sess.AddFlash(msg)
	_ = sess.Save(ctx.Request(), ctx.Response())
}

func (s *server) popFlashes(ctx echo.Context) []string {
	sess := s.session(ctx)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	_ = sess.Save(ctx.Request(), ctx.Response())

	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}
