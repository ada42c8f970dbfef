package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	"github.com/robfig/cron/v3"

	echoapi "github.com/somahq/soma/apps/api/echo"
	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/analytics"
	"github.com/somahq/soma/core/course"
	"github.com/somahq/soma/core/layout"
	"github.com/somahq/soma/core/notification"
	"github.com/somahq/soma/core/order"
	"github.com/somahq/soma/core/user"
	emailsvc "github.com/somahq/soma/services/email"
	logsvc "github.com/somahq/soma/services/logger"
	mediasvc "github.com/somahq/soma/services/media"
	rediscache "github.com/somahq/soma/storage/cache/redis"
	mongodb "github.com/somahq/soma/storage/database/mongo"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()
	ctx := context.Background()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage
	db, err := mongodb.Open(ctx, conf.Database)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = mongodb.Close(ctx, db); err != nil {
			logger.Error(fmt.Sprintf("closing database: %v", err), err)
		}
	}()

	cache, err := rediscache.Open(ctx, conf.Redis)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up cache: %v", err), err)
	}
	defer func() {
		if err = cache.Close(); err != nil {
			logger.Error(fmt.Sprintf("closing cache: %v", err), err)
		}
	}()

	mediaSvc, err := mediasvc.NewMinioService(ctx, conf.Media)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up media host: %v", err), err)
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrRepo := mongodb.NewUserRepository(db)
	crsRepo := mongodb.NewCourseRepository(db)
	ordRepo := mongodb.NewOrderRepository(db)
	notifRepo := mongodb.NewNotificationRepository(db)
	layoutRepo := mongodb.NewLayoutRepository(db)

	sessions := user.NewSessionStore(cache)
	tokens := user.NewTokenIssuer(conf)

	usrSvc := user.NewService(usrRepo, sessions, tokens, mailSvc, mediaSvc, logger, conf)
	crsSvc := course.NewService(crsRepo, cache, mediaSvc, logger, conf)
	notifSvc := notification.NewService(notifRepo)
	ordSvc := order.NewService(ordRepo, usrSvc, crsSvc, orderNotifier{notifSvc}, mailSvc, logger)
	layoutSvc := layout.NewService(layoutRepo, mediaSvc)
	statsSvc := analytics.NewService(
		usrRepo.CountUsersCreatedBetween,
		crsRepo.CountCoursesCreatedBetween,
		ordRepo.CountOrdersCreatedBetween,
	)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	core.ParseEmailTemplates(conf, logger)

	// =========================================================================
	// Start Scheduler

	scheduler := cron.New()
	if _, err = scheduler.AddFunc("@daily", func() {
		n, err := notifSvc.CleanupRead(context.Background())
		if err != nil {
			logger.Error(fmt.Sprintf("cleaning up notifications: %v", err), err)
			return
		}
		logger.Info(fmt.Sprintf("cleaned up %d read notifications", n))
	}); err != nil {
		logger.Fatal(fmt.Sprintf("scheduling notification cleanup: %v", err), err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		CourseSvc:       crsSvc,
		OrderSvc:        ordSvc,
		NotificationSvc: notifSvc,
		LayoutSvc:       layoutSvc,
		AnalyticsSvc:    statsSvc,
		MailSvc:         mailSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		sdCtx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(sdCtx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

// orderNotifier adapts the notification service to the narrow interface the
// order service depends on.
type orderNotifier struct {
	svc *notification.Service
}

func (n orderNotifier) Create(ctx context.Context, userID, title, message string) error {
	_, err := n.svc.Create(ctx, userID, title, message)
	return err
}
