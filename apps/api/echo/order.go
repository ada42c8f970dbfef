package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core/order"
)

type orderApi struct {
	svc      *order.Service
	validate *validator.Validate
}

func registerOrderAPI(
	g *echo.Group,
	authed, admin echo.MiddlewareFunc,
	svc *order.Service,
	validate *validator.Validate,
) {
	api := orderApi{svc: svc, validate: validate}

	g.POST("/create-order", api.create, authed)
	g.GET("/get-all-orders", api.queryAll, authed, admin)
}

func (api *orderApi) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data order.NewOrder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewOrder")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ord, err := api.svc.Create(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "creating order")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "order": ord})
}

func (api *orderApi) queryAll(ctx echo.Context) error {
	orders, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying orders")
	}
	if orders == nil {
		orders = []order.Order{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "orders": orders})
}
