package order

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/course"
	"github.com/somahq/soma/core/user"
)

var ErrAlreadyPurchased = errors.New("you have already purchased this course")

type (
	Repository interface {
		CreateOrder(ctx context.Context, ord Order) (Order, error)
		QueryAllOrders(ctx context.Context) ([]Order, error)
		CountOrdersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	}

	// UserDirectory is the slice of the user service orders depend on.
	UserDirectory interface {
		GetByID(ctx context.Context, id string) (user.User, error)
		GrantCourse(ctx context.Context, id, courseID string) (user.User, error)
	}

	// CourseCatalog is the slice of the course service orders depend on.
	CourseCatalog interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
		IncrementPurchased(ctx context.Context, id string) (course.Course, error)
	}

	Notifier interface {
		Create(ctx context.Context, userID, title, message string) error
	}

	Service struct {
		repo     Repository
		users    UserDirectory
		courses  CourseCatalog
		notifier Notifier
		mailSvc  core.EmailService
		logger   core.Logger
	}
)

func NewService(
	repo Repository,
	users UserDirectory,
	courses CourseCatalog,
	notifier Notifier,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		courses:  courses,
		notifier: notifier,
		mailSvc:  mailSvc,
		logger:   logger,
	}
}

// Create places an order. Durable effects happen first, in a fixed order:
// the order document, the user's course grant, the purchase counter. Only
// then are the notification and confirmation email attempted; their failures
// are logged, never returned, so a flaky mail relay cannot roll back a sale.
func (svc *Service) Create(ctx context.Context, usr user.User, no NewOrder) (Order, error) {
	if usr.OwnsCourse(no.CourseID) {
		return Order{}, ErrAlreadyPurchased
	}
	crs, err := svc.courses.GetByID(ctx, no.CourseID)
	if err != nil {
		return Order{}, errors.Wrap(err, "finding course by ID")
	}

	now := time.Now().UTC()
	ord := Order{
		ID:          uuid.NewString(),
		CourseID:    crs.ID,
		UserID:      usr.ID,
		PaymentInfo: no.PaymentInfo,
		CreatedAt:   now,
	}
	if ord, err = svc.repo.CreateOrder(ctx, ord); err != nil {
		return Order{}, errors.Wrap(err, "creating order")
	}
	if usr, err = svc.users.GrantCourse(ctx, usr.ID, crs.ID); err != nil {
		return Order{}, errors.Wrap(err, "granting course")
	}
	if _, err = svc.courses.IncrementPurchased(ctx, crs.ID); err != nil {
		return Order{}, errors.Wrap(err, "incrementing purchase count")
	}

	if err := svc.notifier.Create(ctx, usr.ID,
		"New order",
		fmt.Sprintf("%s purchased %s", usr.Name, crs.Name),
	); err != nil {
		svc.logger.Error(fmt.Sprintf("creating order notification: %v", err), err)
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Order confirmation",
		TemplateName: "order-confirmation",
		TemplateData: struct {
			ID    string
			Name  string
			Price float64
			Date  string
		}{shortID(ord.ID), crs.Name, crs.Price, now.Format("January 2, 2006")},
	})

	return ord, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Order, error) {
	return svc.repo.QueryAllOrders(ctx)
}

func shortID(id string) string {
	if len(id) > 6 {
		return id[:6]
	}
	return id
}
