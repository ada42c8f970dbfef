package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/user"
)

type userApi struct {
	svc      *user.Service
	conf     *core.Config
	validate *validator.Validate
}

func registerUserAPI(
	g *echo.Group,
	authed, admin echo.MiddlewareFunc,
	svc *user.Service,
	conf *core.Config,
	validate *validator.Validate,
) {
	api := userApi{svc: svc, conf: conf, validate: validate}

	// un-authed endpoints
	g.POST("/register", api.register)
	g.POST("/activate-user", api.activate)
	g.POST("/login-user", api.login)
	g.POST("/social-auth", api.socialAuth)
	g.GET("/refreshtoken", api.refreshToken)

	// authed endpoints
	g.GET("/logout", api.logout, authed)
	g.GET("/me", api.me, authed)
	g.PUT("/update-user-info", api.updateInfo, authed)
	g.PUT("/update-user-password", api.updatePassword, authed)
	g.PUT("/update-user-avatar", api.updateAvatar, authed)

	// admin endpoints
	g.GET("/get-all-users", api.queryAll, authed, admin)
	g.PUT("/update-user-role", api.updateRole, authed, admin)
	g.DELETE("/delete-user-by-admin/:id", api.destroy, authed, admin)
}

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	activation, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}

	return ctx.JSON(http.StatusCreated, echo.Map{
		"success":          true,
		"message":          "Please check your email " + data.Email + " to activate your account",
		"activation_token": activation.Token,
	})
}

func (api *userApi) activate(ctx echo.Context) error {
	var data user.ActivateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ActivateUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.Activate(ctx.Request().Context(), data.ActivationToken, data.ActivationCode)
	if err != nil {
		return errors.Wrap(err, "activating user")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "user": usr})
}

func (api *userApi) login(ctx echo.Context) error {
	var data user.LoginUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, pair, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "logging in")
	}
	setAuthCookies(ctx, api.conf, pair)
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "user": usr, "access_token": pair.Access})
}

func (api *userApi) socialAuth(ctx echo.Context) error {
	var data user.SocialUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SocialUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, pair, err := api.svc.SocialLogin(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "social login")
	}
	setAuthCookies(ctx, api.conf, pair)
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "user": usr, "access_token": pair.Access})
}

func (api *userApi) logout(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Logout(ctx.Request().Context(), usr.ID); err != nil {
		return errors.Wrap(err, "logging out")
	}
	clearAuthCookies(ctx, api.conf)
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "logged out successfully"})
}

// refreshToken mints a fresh token pair from the refresh cookie. Any failure
// reads the same to the client.
func (api *userApi) refreshToken(ctx echo.Context) error {
	cookie, err := ctx.Cookie(refreshTokenCookie)
	if err != nil || cookie.Value == "" {
		return user.ErrRefreshFailed
	}

	usr, pair, err := api.svc.Refresh(ctx.Request().Context(), cookie.Value)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	setAuthCookies(ctx, api.conf, pair)
	ctx.Set(contextUserKey, usr)
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "access_token": pair.Access})
}

func (api *userApi) me(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "user": usr})
}

func (api *userApi) updateInfo(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateUserInfo
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUserInfo")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err = api.svc.UpdateInfo(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating user info")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "user": usr})
}

func (api *userApi) updatePassword(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateUserPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUserPassword")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err = api.svc.UpdatePassword(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"success": true, "user": usr})
}

func (api *userApi) updateAvatar(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}

	var data user.UpdateUserAvatar
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUserAvatar")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err = api.svc.UpdateAvatar(ctx.Request().Context(), usr.ID, data.Avatar)
	if err != nil {
		return errors.Wrap(err, "updating avatar")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "user": usr})
}

func (api *userApi) queryAll(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "users": users})
}

func (api *userApi) updateRole(ctx echo.Context) error {
	var data user.UpdateUserRole
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUserRole")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.svc.UpdateRole(ctx.Request().Context(), data.ID, data.Role)
	if err != nil {
		return errors.Wrap(err, "updating role")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "user": usr})
}

func (api *userApi) destroy(ctx echo.Context) error {
	// Say No to Suicide! ctxUser cannot delete themselves
	ctxUsr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	id := ctx.Param("id")
	if id == ctxUsr.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you cannot delete your own account")
	}

	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true, "message": "user deleted successfully"})
}
