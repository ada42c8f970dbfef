package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core/notification"
)

type notificationApi struct {
	svc *notification.Service
}

func registerNotificationAPI(g *echo.Group, authed, admin echo.MiddlewareFunc, svc *notification.Service) {
	api := notificationApi{svc: svc}

	g.GET("/get-all-notifications", api.queryAll, authed, admin)
	g.PUT("/update-notification/:id", api.markRead, authed, admin)
}

func (api *notificationApi) queryAll(ctx echo.Context) error {
	notifs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "notifications": notifs})
}

func (api *notificationApi) markRead(ctx echo.Context) error {
	if _, err := api.svc.MarkRead(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "marking notification read")
	}

	// respond with the fresh list so the admin dashboard can re-render
	notifs, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notifications")
	}
	if notifs == nil {
		notifs = []notification.Notification{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "notifications": notifs})
}
