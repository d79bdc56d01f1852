package echoweb

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/stlconsulting/mentoria/core"
	"github.com/stlconsulting/mentoria/core/catalog"
	"github.com/stlconsulting/mentoria/core/schedule"
	"github.com/stlconsulting/mentoria/core/submission"
	"github.com/stlconsulting/mentoria/core/user"
)

type (
	ServerDeps struct {
		Conf          *core.Config
		Logger        core.Logger
		UserSvc       user.Service
		ScheduleSvc   schedule.Service
		CatalogSvc    catalog.Service
		SubmissionSvc submission.Service
		Validate      *validator.Validate
		Translator    ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps       ServerDeps
		app        *echo.Echo
		store      sessions.Store
		errCh      chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:       deps,
		app:        echo.New(),
		store:      newSessionStore(deps.Conf),
		errCh:      make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.Renderer = newRenderer(conf, s.deps.Logger)
	s.app.HTTPErrorHandler = s.newHTTPErrorHandler()
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.registerRoutes()
}

func (s *server) registerRoutes() {
	// public pages
	s.app.GET("/about", s.about)
	s.app.POST("/api/newsletter/subscribe", s.subscribeNewsletter)

	// auth
	s.app.GET("/login", s.loginForm)
	s.app.POST("/login", s.login)
	s.app.GET("/register", s.registerForm)
	s.app.POST("/register", s.register)
	s.app.GET("/logout", s.logout)
	s.app.GET("/forgot-password", s.forgotPasswordForm)
	s.app.POST("/forgot-password", s.forgotPassword)
	s.app.GET("/reset-password/:token", s.resetPasswordForm)
	s.app.POST("/reset-password/:token", s.resetPassword)

	// mentee portal
	pg := s.app.Group("", s.loginRequired())
	pg.GET("/mentor_area", s.mentorArea)
	pg.GET("/profile", s.profile)
	pg.GET("/modulo_01", s.moduleOne)
	pg.POST("/agendar", s.bookAppointment)
	pg.GET("/resource/download/:id", s.downloadResource)
	pg.POST("/upload/atividade", s.uploadSubmission)
	pg.POST("/delete/atividade", s.deleteSubmission)

	// mentor admin
	ag := s.app.Group("/admin", s.loginRequired(), s.mentorRequired())
	ag.GET("/dashboard", s.dashboard)
	ag.GET("/agenda/confirm/:id", s.confirmAppointment)
	ag.GET("/agenda/reject/:id", s.rejectAppointment)
	ag.POST("/agenda/add", s.addSlot)
	ag.GET("/agenda/delete/:id", s.deleteSlot)
	ag.POST("/location/add", s.addLocation)
	ag.POST("/location/edit/:id", s.editLocation)
	ag.GET("/location/delete/:id", s.deleteLocation)
	ag.POST("/task/create", s.createTask)
	ag.POST("/task/edit/:id", s.editTask)
	ag.GET("/task/delete_def/:id", s.deleteTask)
	ag.GET("/task/download/:id", s.downloadSubmission)
	ag.GET("/user/toggle_status/:id", s.toggleUserStatus)
	ag.POST("/resource/upload", s.uploadResource)
	ag.GET("/resource/download/:id", s.downloadResourceAdmin)
	ag.GET("/resource/delete/:id", s.deleteResource)

	// registered last: the empty-prefix group above adds a catch-all for the
	// exact path "/", which would otherwise shadow the public index route
	s.app.GET("/", s.index)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errCh <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error { return s.app.Shutdown(ctx) }
func (s *server) Close() error                       { return s.app.Close() }
func (s *server) Errors() <-chan error               { return s.errCh }
func (s *server) ShutdownSignal() <-chan os.Signal   { return s.shutdownCh }

// signalShutdown triggers a graceful shutdown from within a request.
func (s *server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// Public pages

func (s *server) index(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "index", echo.Map{})
}

func (s *server) about(ctx echo.Context) error {
	return s.render(ctx, http.StatusOK, "about", echo.Map{})
}
