package echoapi

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/user"
)

const (
	accessTokenCookie  = "access_token"
	refreshTokenCookie = "refresh_token"

	contextUserKey = "user"
)

var (
	errLoginRequired      = echo.NewHTTPError(http.StatusBadRequest, "please login to access this resource")
	errInvalidAccessToken = echo.NewHTTPError(http.StatusBadRequest, "access token is not valid")
	errUsrNotFoundInCtx   = errors.New("user object not found in echo.Context")
)

// sessionMiddleware authenticates the request from the access token cookie.
// The token proves identity; the session entry decides whether the holder is
// still logged in. Checks run in a fixed order and each failure short-circuits.
func sessionMiddleware(svc *user.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			cookie, err := ctx.Cookie(accessTokenCookie)
			if err != nil || cookie.Value == "" {
				return errLoginRequired
			}
			id, err := svc.Tokens().VerifyAccess(cookie.Value)
			if err != nil {
				return errInvalidAccessToken
			}
			usr, err := svc.Sessions().Get(ctx.Request().Context(), id)
			if err != nil {
				if errors.Cause(err) == user.ErrSessionNotFound {
					return errLoginRequired
				}
				return errors.Wrap(err, "getting session")
			}
			ctx.Set(contextUserKey, usr)
			return next(ctx)
		}
	}
}

// requireRoles authorizes the already-authenticated context user.
func requireRoles(allowed ...user.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return err
			}
			if !usr.Role.In(allowed...) {
				return echo.NewHTTPError(
					http.StatusForbidden,
					fmt.Sprintf("role %s is not allowed to access this resource", usr.Role),
				)
			}
			return next(ctx)
		}
	}
}

func getContextUser(ctx echo.Context) (user.User, error) {
	usr, ok := ctx.Get(contextUserKey).(user.User)
	if !ok {
		return user.User{}, errors.Wrap(errUsrNotFoundInCtx, "getting context user")
	}
	return usr, nil
}

// setAuthCookies attaches both token cookies to the response.
func setAuthCookies(ctx echo.Context, conf *core.Config, pair user.TokenPair) {
	ctx.SetCookie(authCookie(conf, accessTokenCookie, pair.Access, int(conf.Auth.AccessTokenExpirationDelta.Seconds())))
	ctx.SetCookie(authCookie(conf, refreshTokenCookie, pair.Refresh, int(conf.Auth.RefreshTokenExpirationDelta.Seconds())))
}

func clearAuthCookies(ctx echo.Context, conf *core.Config) {
	ctx.SetCookie(authCookie(conf, accessTokenCookie, "", -1))
	ctx.SetCookie(authCookie(conf, refreshTokenCookie, "", -1))
}

func authCookie(conf *core.Config, name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !conf.Debug,
	}
}
