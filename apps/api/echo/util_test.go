package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

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
	inmemcache "github.com/somahq/soma/storage/cache/inmem"
	inmemdb "github.com/somahq/soma/storage/database/inmem"
)

type fixture struct {
	app  echoapi.Server
	conf *core.Config

	usrRepo   *inmemdb.UserRepository
	crsRepo   *inmemdb.CourseRepository
	ordRepo   *inmemdb.OrderRepository
	notifRepo *inmemdb.NotificationRepository
	cache     *inmemcache.Cache

	sessions *user.SessionStore
	tokens   *user.TokenIssuer
	mailSvc  interface{ SentMessages() []core.EmailMessage }
}

type orderNotifier struct {
	svc *notification.Service
}

func (n orderNotifier) Create(ctx context.Context, userID, title, message string) error {
	_, err := n.svc.Create(ctx, userID, title, message)
	return err
}

func setup(t *testing.T) *fixture {
	t.Helper()

	conf := &core.Config{
		TestMode:                   true,
		AppName:                    "Soma",
		DefaultFromEmail:           mail.Address{Name: "Soma", Address: "noreply@localhost"},
		FrontendBaseURL:            "http://localhost:3000",
		CourseCacheExpirationDelta: 7 * 24 * time.Hour,
		Server:                     core.ServerConfig{CORSOrigins: []string{"http://localhost:3000"}},
		Auth: core.AuthConfig{
			AccessTokenSecret:              "access-test-secret",
			RefreshTokenSecret:             "refresh-test-secret",
			ActivationTokenSecret:          "activation-test-secret",
			AccessTokenExpirationDelta:     5 * time.Minute,
			RefreshTokenExpirationDelta:    3 * 24 * time.Hour,
			ActivationTokenExpirationDelta: 5 * time.Minute,
		},
	}

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "TEST : ", log.LstdFlags), conf)
	logger.Enable(false)
	mailSvc := emailsvc.NewConsoleService(conf)
	mediaSvc := mediasvc.NewDummyService()

	usrRepo := inmemdb.NewUserRepository()
	crsRepo := inmemdb.NewCourseRepository()
	ordRepo := inmemdb.NewOrderRepository()
	notifRepo := inmemdb.NewNotificationRepository()
	layoutRepo := inmemdb.NewLayoutRepository()
	cache := inmemcache.New()

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

	app := echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		UserSvc:         usrSvc,
		CourseSvc:       crsSvc,
		OrderSvc:        ordSvc,
		NotificationSvc: notifSvc,
		LayoutSvc:       layoutSvc,
		AnalyticsSvc:    statsSvc,
		MailSvc:         mailSvc,
		DisableReqLogs:  true,
	})

	return &fixture{
		app:       app,
		conf:      conf,
		usrRepo:   usrRepo,
		crsRepo:   crsRepo,
		ordRepo:   ordRepo,
		notifRepo: notifRepo,
		cache:     cache,
		sessions:  sessions,
		tokens:    tokens,
		mailSvc:   mailSvc,
	}
}

// createUser persists a verified user and returns it.
func createUser(t *testing.T, fix *fixture, name, email, pwd string, role user.Role) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		ID:         uuid.NewString(),
		Name:       name,
		Email:      email,
		Role:       role,
		IsVerified: true,
		Courses:    []string{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := fix.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// loginUser saves the session and mints a token pair, as a login would.
func loginUser(t *testing.T, fix *fixture, usr user.User) user.TokenPair {
	t.Helper()
	if err := fix.sessions.Save(context.Background(), usr); err != nil {
		t.Fatalf("sessions.Save() failed: %v", err)
	}
	pair, err := fix.tokens.IssuePair(usr)
	if err != nil {
		t.Fatalf("IssuePair() failed: %v", err)
	}
	return pair
}

type httpTest struct {
	name        string
	method      string
	path        string
	body        interface{}
	accessToken string
	wantCode    int
	wantMessage string
}

func (tt httpTest) run(t *testing.T, fix *fixture) *httptest.ResponseRecorder {
	t.Helper()
	rec := doRequest(t, fix, tt.method, tt.path, tt.body, tt.accessToken)
	if rec.Code != tt.wantCode {
		t.Errorf("code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantMessage != "" {
		var resp struct {
			Success bool        `json:"success"`
			Message interface{} `json:"message"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshalling response failed: %v; body %s", err, rec.Body.String())
		}
		if resp.Success {
			t.Errorf("success = true; want false")
		}
		if msg, ok := resp.Message.(string); !ok || msg != tt.wantMessage {
			t.Errorf("message = %v; wantMessage %q", resp.Message, tt.wantMessage)
		}
	}
	return rec
}

func doRequest(t *testing.T, fix *fixture, method, path string, body interface{}, accessToken string) *httptest.ResponseRecorder {
	t.Helper()
	req := newRequest(t, method, path, body)
	if accessToken != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: accessToken})
	}
	return serve(fix, req)
}

func newRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	var buff bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buff).Encode(body); err != nil {
			t.Fatalf("encoding body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buff)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(fix *fixture, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	fix.app.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshalling body failed: %v; body %s", err, rec.Body.String())
	}
	return body
}

func responseCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
