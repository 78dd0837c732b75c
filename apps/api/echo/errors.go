package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/noodle/core"
	"github.com/trezcool/noodle/core/school"
)

var (
	errInvalidJWT    = echo.NewHTTPError(http.StatusUnauthorized, "Invalid JWT")
	errHttpForbidden = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound  = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		cause := errors.Cause(err)

		// auth failures keep the exact plain-text bodies clients match on
		switch cause {
		case errInvalidJWT, middleware.ErrJWTMissing:
			sendPlain(ctx, http.StatusUnauthorized, "Invalid JWT")
			return
		case school.ErrAuthenticationFailed:
			sendPlain(ctx, http.StatusForbidden, school.ErrAuthenticationFailed.Error())
			return
		case school.ErrUserExists:
			send(ctx, http.StatusBadRequest, cause.Error(), err)
			return
		case core.ErrNotFound:
			code = http.StatusNotFound
			message = "not found"
			send(ctx, code, message, err)
			return
		}

		switch origErr := cause.(type) {
		case *echo.HTTPError:
			// the JWT middleware reports verification failures as plain 401s
			if origErr.Code == http.StatusUnauthorized {
				sendPlain(ctx, http.StatusUnauthorized, "Invalid JWT")
				return
			}
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
				fldErrs[vErr.Field()] = vErr.Translate(core.Translator)
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
		case *core.PersistError:
			code = http.StatusForbidden
			message = "could not save changes"
		default: // any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			logArgs := []interface{}{errors.Wrap(err, msg)}
			if sess, sErr := contextSession(ctx); sErr == nil {
				logArgs = append(logArgs, sess)
			}
			logger.Error(msg, logArgs...)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		send(ctx, code, message, err)
	}
}

func send(ctx echo.Context, code int, message interface{}, err error) {
	if ctx.Echo().Debug {
		message = err.Error()
	}
	if m, ok := message.(string); ok {
		message = echo.Map{"error": m}
	}

	if !ctx.Response().Committed {
		if ctx.Request().Method == http.MethodHead {
			err = ctx.NoContent(code)
		} else {
			err = ctx.JSON(code, message)
		}
		if err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}

func sendPlain(ctx echo.Context, code int, message string) {
	if !ctx.Response().Committed {
		if err := ctx.String(code, message); err != nil {
			ctx.Echo().Logger.Error(err)
		}
	}
}
