package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core/layout"
)

type layoutApi struct {
	svc      *layout.Service
	validate *validator.Validate
}

func registerLayoutAPI(
	g *echo.Group,
	authed, admin echo.MiddlewareFunc,
	svc *layout.Service,
	validate *validator.Validate,
) {
	api := layoutApi{svc: svc, validate: validate}

	g.GET("/get-layout/:type", api.getByType)
	g.POST("/create-layout", api.create, authed, admin)
	g.PUT("/edit-layout", api.edit, authed, admin)
}

func (api *layoutApi) getByType(ctx echo.Context) error {
	lay, err := api.svc.GetByType(ctx.Request().Context(), layout.Type(ctx.Param("type")))
	if err != nil {
		return errors.Wrap(err, "getting layout")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "layout": lay})
}

func (api *layoutApi) create(ctx echo.Context) error {
	var data layout.NewLayout
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLayout")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lay, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating layout")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "layout": lay})
}

func (api *layoutApi) edit(ctx echo.Context) error {
	var data layout.NewLayout
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLayout")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	lay, err := api.svc.Edit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "editing layout")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "layout": lay})
}
