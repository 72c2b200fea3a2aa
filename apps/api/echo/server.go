package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/report"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
	"github.com/mwalimu/alama/core/user"
	notifsvc "github.com/mwalimu/alama/services/notifier"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Logger         core.Logger
		SignalShutdown func()

		UserSvc    user.Service
		StudentSvc student.Service
		SubjectSvc subject.Service
		MarkSvc    mark.Service
		ReportSvc  report.Service
		Notifier   notifsvc.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.opts.UserSvc)
	registerStudentAPI(v1, jwt, s.opts.StudentSvc)
	registerSubjectAPI(v1, jwt, s.opts.SubjectSvc)
	registerMarkAPI(v1, jwt, s.opts.MarkSvc, s.opts.Notifier)
	registerReportAPI(v1, jwt, s.opts.ReportSvc, s.opts.Notifier)
}

func (s *server) Start() error {
	return s.app.Start(s.opts.Address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Alama API!")
}
