package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core/analytics"
)

type analyticsApi struct {
	svc *analytics.Service
}

func registerAnalyticsAPI(g *echo.Group, authed, admin echo.MiddlewareFunc, svc *analytics.Service) {
	api := analyticsApi{svc: svc}

	g.GET("/get-12months-users-analytics", api.users, authed, admin)
	g.GET("/get-12months-courses-analytics", api.courses, authed, admin)
	g.GET("/get-12months-orders-analytics", api.orders, authed, admin)
}

func (api *analyticsApi) users(ctx echo.Context) error {
	return api.respond(ctx, api.svc.UsersLast12Months)
}

func (api *analyticsApi) courses(ctx echo.Context) error {
	return api.respond(ctx, api.svc.CoursesLast12Months)
}

func (api *analyticsApi) orders(ctx echo.Context) error {
	return api.respond(ctx, api.svc.OrdersLast12Months)
}

func (api *analyticsApi) respond(ctx echo.Context, gen func(context.Context) ([]analytics.MonthData, error)) error {
	data, err := gen(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "generating analytics")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "analytics": echo.Map{"last12Months": data}})
}
