package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/analytics"
	"github.com/somahq/soma/core/course"
	"github.com/somahq/soma/core/layout"
	"github.com/somahq/soma/core/notification"
	"github.com/somahq/soma/core/order"
	"github.com/somahq/soma/core/user"
)

type (
	// ServerDeps carries everything the server needs; main wires it up.
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		UserSvc         *user.Service
		CourseSvc       *course.Service
		OrderSvc        *order.Service
		NotificationSvc *notification.Service
		LayoutSvc       *layout.Service
		AnalyticsSvc    *analytics.Service
		MailSvc         core.EmailService
		DisableReqLogs  bool
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
		validate   *validator.Validate
		translator ut.Translator
		errs       chan error
		shutdown   chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)

	s.validate = validator.New()
	s.translator = newTranslator()
	core.InitValidators(s.validate, s.translator)
	user.InitValidators(s.validate, s.translator)

	s.setup()
	return s
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     conf.Server.CORSOrigins,
		AllowCredentials: true,
	}))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/api/v1")
	authed := sessionMiddleware(s.deps.UserSvc)
	admin := requireRoles(user.RoleAdmin)

	registerUserAPI(v1, authed, admin, s.deps.UserSvc, s.deps.Conf, s.validate)
	registerCourseAPI(v1, authed, admin, s.deps.CourseSvc, s.deps.UserSvc, s.deps.NotificationSvc, s.deps.MailSvc, s.deps.Logger, s.deps.Conf, s.validate)
	registerOrderAPI(v1, authed, admin, s.deps.OrderSvc, s.validate)
	registerNotificationAPI(v1, authed, admin, s.deps.NotificationSvc)
	registerLayoutAPI(v1, authed, admin, s.deps.LayoutSvc, s.validate)
	registerAnalyticsAPI(v1, authed, admin, s.deps.AnalyticsSvc)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Addr()); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

// signalShutdown initiates a graceful shutdown; called on core.shutdown errors.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "Welcome to Soma API!"})
}
