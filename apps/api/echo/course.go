package echoapi

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/course"
	"github.com/somahq/soma/core/notification"
	"github.com/somahq/soma/core/user"
)

type courseApi struct {
	svc      *course.Service
	userSvc  *user.Service
	notifSvc *notification.Service
	mailSvc  core.EmailService
	logger   core.Logger
	conf     *core.Config
	validate *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	authed, admin echo.MiddlewareFunc,
	svc *course.Service,
	userSvc *user.Service,
	notifSvc *notification.Service,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := courseApi{
		svc:      svc,
		userSvc:  userSvc,
		notifSvc: notifSvc,
		mailSvc:  mailSvc,
		logger:   logger,
		conf:     conf,
		validate: validate,
	}

	// public catalog
	g.GET("/get-course/:id", api.getPublic)
	g.GET("/get-courses", api.queryAllPublic)

	// authed endpoints
	g.GET("/get-course-content/:id", api.getContent, authed)
	g.PUT("/add-question", api.addQuestion, authed)
	g.PUT("/add-answer", api.addAnswer, authed)
	g.PUT("/add-review/:id", api.addReview, authed)

	// admin endpoints
	g.POST("/create-course", api.create, authed, admin)
	g.PUT("/edit-course/:id", api.edit, authed, admin)
	g.PUT("/add-reply-to-review", api.addReviewReply, authed, admin)
	g.GET("/get-all-courses", api.queryAll, authed, admin)
	g.DELETE("/delete-course-by-admin/:id", api.destroy, authed, admin)
}

// Handlers

func (api *courseApi) getPublic(ctx echo.Context) error {
	crs, err := api.svc.GetPublic(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "course": crs})
}

func (api *courseApi) queryAllPublic(ctx echo.Context) error {
	courses, err := api.svc.QueryAllPublic(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "courses": courses})
}

func (api *courseApi) getContent(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	contents, err := api.svc.GetContent(ctx.Request().Context(), usr, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course content")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "content": contents})
}

func (api *courseApi) addQuestion(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data course.AddQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, _, err := api.svc.AddQuestion(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}

	api.notify(ctx, usr.ID, "New Question Received",
		fmt.Sprintf("%s asked a question in %s", usr.Name, crs.Name))

	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "course": crs})
}

// addAnswer appends a reply to a question. The question author is told about
// it: via an in-app notification when answering themselves, via email
// otherwise.
func (api *courseApi) addAnswer(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data course.AddAnswer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddAnswer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, question, err := api.svc.AddAnswer(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding answer")
	}

	if question.User.ID == usr.ID {
		api.notify(ctx, usr.ID, "New Question Reply Received",
			fmt.Sprintf("You have a new reply in %s", crs.Name))
	} else if author, err := api.userSvc.GetByID(ctx.Request().Context(), question.User.ID); err == nil {
		api.mailSvc.SendMessages(&core.EmailMessage{
			To:           []mail.Address{{Name: author.Name, Address: author.Email}},
			Subject:      "Question Reply",
			TemplateName: "question-reply",
			TemplateData: struct {
				Name  string
				Title string
			}{author.Name, crs.Name},
		})
	} else {
		api.logger.Error(fmt.Sprintf("finding question author %s: %v", question.User.ID, err), err)
	}

	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "course": crs})
}

func (api *courseApi) addReview(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data course.AddReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddReview")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.AddReview(ctx.Request().Context(), usr, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding review")
	}

	api.notify(ctx, usr.ID, "New Review Received",
		fmt.Sprintf("%s has given a review in %s", usr.Name, crs.Name))

	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "course": crs})
}

func (api *courseApi) addReviewReply(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data course.AddReviewReply
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddReviewReply")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.AddReviewReply(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "adding review reply")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "course": crs})
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "course": crs})
}

func (api *courseApi) edit(ctx echo.Context) error {
	var data course.EditCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EditCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Edit(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "editing course")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "course": crs})
}

func (api *courseApi) queryAll(ctx echo.Context) error {
	courses, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "courses": courses})
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "course deleted successfully"})
}

// notify inserts an in-app notification; failures are logged, never returned.
func (api *courseApi) notify(ctx echo.Context, userID, title, message string) {
	if _, err := api.notifSvc.Create(ctx.Request().Context(), userID, title, message); err != nil {
		api.logger.Error(fmt.Sprintf("creating notification: %v", err), err)
	}
}
