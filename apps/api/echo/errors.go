package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somahq/soma/core"
	"github.com/somahq/soma/core/course"
	"github.com/somahq/soma/core/layout"
	"github.com/somahq/soma/core/notification"
	"github.com/somahq/soma/core/order"
	"github.com/somahq/soma/core/user"
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if c, known := statusForError(origErr); known {
				code = c
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if ctxUsr, cErr := getContextUser(ctx); cErr == nil {
				usr = ctxUsr
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead {
				err = ctx.NoContent(code)
			} else {
				var body interface{}
				if m, ok := message.(string); ok {
					body = echo.Map{"success": false, "message": m}
				} else {
					body = echo.Map{"success": false, "message": message}
				}
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

// statusForError maps domain sentinel errors to HTTP status codes.
func statusForError(err error) (int, bool) {
	switch err {
	case user.ErrEmailExists,
		user.ErrInvalidCredentials,
		user.ErrInvalidActivationCode,
		user.ErrRefreshFailed,
		user.ErrInvalidToken,
		user.ErrTokenExpired,
		order.ErrAlreadyPurchased,
		layout.ErrInvalidType,
		layout.ErrTypeExists,
		layout.ErrMissingFields:
		return http.StatusBadRequest, true
	case user.ErrNotFound,
		course.ErrNotEligible,
		course.ErrNotFound,
		course.ErrContentNotFound,
		course.ErrQuestionNotFound,
		course.ErrReviewNotFound,
		notification.ErrNotFound,
		layout.ErrNotFound:
		return http.StatusNotFound, true
	}
	return 0, false
}
