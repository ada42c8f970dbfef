package order_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/course"
	"github.com/somahq/soma/core/notification"
	"github.com/somahq/soma/core/order"
	"github.com/somahq/soma/core/user"
	emailsvc "github.com/somahq/soma/services/email"
	logsvc "github.com/somahq/soma/services/logger"
	mediasvc "github.com/somahq/soma/services/media"
	inmemcache "github.com/somahq/soma/storage/cache/inmem"
	inmemdb "github.com/somahq/soma/storage/database/inmem"
)

// notifier adapts the notification service and optionally fails on demand.
type notifier struct {
	svc  *notification.Service
	fail bool
}

func (n *notifier) Create(ctx context.Context, userID, title, message string) error {
	if n.fail {
		return errors.New("notification backend down")
	}
	_, err := n.svc.Create(ctx, userID, title, message)
	return err
}

type orderFixture struct {
	svc       *order.Service
	repo      *inmemdb.OrderRepository
	usrRepo   *inmemdb.UserRepository
	crsRepo   *inmemdb.CourseRepository
	notifRepo *inmemdb.NotificationRepository
	notifier  *notifier
	mailSvc   interface{ SentMessages() []core.EmailMessage }
	sessions  *user.SessionStore
}

func newOrderFixture(t *testing.T, usr user.User, crs course.Course) *orderFixture {
	t.Helper()
	conf := &core.Config{
		TestMode:                   true,
		AppName:                    "Soma",
		CourseCacheExpirationDelta: 7 * 24 * time.Hour,
		Auth: core.AuthConfig{
			AccessTokenSecret:           "access-test-secret",
			RefreshTokenSecret:          "refresh-test-secret",
			AccessTokenExpirationDelta:  5 * time.Minute,
			RefreshTokenExpirationDelta: 3 * 24 * time.Hour,
		},
	}
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	mailSvc := emailsvc.NewConsoleService(conf)
	mediaSvc := mediasvc.NewDummyService()
	cache := inmemcache.New()

	repo := inmemdb.NewOrderRepository()
	usrRepo := inmemdb.NewUserRepository(usr)
	crsRepo := inmemdb.NewCourseRepository(crs)
	notifRepo := inmemdb.NewNotificationRepository()

	sessions := user.NewSessionStore(cache)
	tokens := user.NewTokenIssuer(conf)
	usrSvc := user.NewService(usrRepo, sessions, tokens, mailSvc, mediaSvc, logger, conf)
	crsSvc := course.NewService(crsRepo, cache, mediaSvc, logger, conf)
	ntf := &notifier{svc: notification.NewService(notifRepo)}

	return &orderFixture{
		svc:       order.NewService(repo, usrSvc, crsSvc, ntf, mailSvc, logger),
		repo:      repo,
		usrRepo:   usrRepo,
		crsRepo:   crsRepo,
		notifRepo: notifRepo,
		notifier:  ntf,
		mailSvc:   mailSvc,
		sessions:  sessions,
	}
}

func Test_Service_Create(t *testing.T) {
	usr := user.User{ID: "usr-1", Name: "Jane", Email: "a@x.com", Courses: []string{}}
	crs := course.Course{ID: "crs-1", Name: "Go from scratch", Price: 49}
	fix := newOrderFixture(t, usr, crs)
	ctx := context.Background()
	require.NoError(t, fix.sessions.Save(ctx, usr))

	ord, err := fix.svc.Create(ctx, usr, order.NewOrder{CourseID: "crs-1"})
	require.NoError(t, err)
	assert.Equal(t, "crs-1", ord.CourseID)
	assert.Equal(t, "usr-1", ord.UserID)

	// durable effects: order persisted, course granted, counter bumped
	orders, err := fix.repo.QueryAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	gotUsr, err := fix.usrRepo.GetUserByID(ctx, "usr-1")
	require.NoError(t, err)
	assert.True(t, gotUsr.OwnsCourse("crs-1"))

	gotCrs, err := fix.crsRepo.GetCourseByID(ctx, "crs-1")
	require.NoError(t, err)
	assert.Equal(t, 1, gotCrs.Purchased)

	// side effects: notification and confirmation email
	notifs, err := fix.notifRepo.QueryAllNotifications(ctx)
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, "New order", notifs[0].Title)

	sent := fix.mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "order-confirmation", sent[0].TemplateName)

	// buying the same course again is rejected
	_, err = fix.svc.Create(ctx, gotUsr, order.NewOrder{CourseID: "crs-1"})
	assert.Equal(t, order.ErrAlreadyPurchased, err)
}

func Test_Service_Create_unknownCourse(t *testing.T) {
	usr := user.User{ID: "usr-1", Name: "Jane", Email: "a@x.com"}
	fix := newOrderFixture(t, usr, course.Course{ID: "crs-1"})
	ctx := context.Background()

	_, err := fix.svc.Create(ctx, usr, order.NewOrder{CourseID: "nope"})
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	orders, err := fix.repo.QueryAllOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func Test_Service_Create_notificationFailureDoesNotRollBack(t *testing.T) {
	usr := user.User{ID: "usr-1", Name: "Jane", Email: "a@x.com"}
	crs := course.Course{ID: "crs-1", Name: "Go from scratch", Price: 49}
	fix := newOrderFixture(t, usr, crs)
	fix.notifier.fail = true
	ctx := context.Background()
	require.NoError(t, fix.sessions.Save(ctx, usr))

	// the sale goes through even though the notification insert fails
	_, err := fix.svc.Create(ctx, usr, order.NewOrder{CourseID: "crs-1"})
	require.NoError(t, err)

	orders, err := fix.repo.QueryAllOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)

	gotUsr, err := fix.usrRepo.GetUserByID(ctx, "usr-1")
	require.NoError(t, err)
	assert.True(t, gotUsr.OwnsCourse("crs-1"))
}
