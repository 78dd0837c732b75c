package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/noodle/core/auth"
)

func adminMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := contextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			if auth.AdminOnly(sess) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// adminOrOwnIDMiddleware lets an account through to its own records only,
// unless it is an administrator.
func adminOrOwnIDMiddleware(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := contextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			id, err := intParam(ctx, param)
			if err != nil {
				return err
			}
			if auth.AdminOrOwnID(sess, id) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

// moduleTeacherMiddleware lets administrators and the module's assigned
// teachers through; any resolver failure denies.
func moduleTeacherMiddleware(resolver auth.ModuleTeacherResolver, param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess, err := contextSession(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context session")
			}
			moduleID, err := intParam(ctx, param)
			if err != nil {
				return err
			}
			if auth.AdminOrModuleTeacher(ctx.Request().Context(), resolver, sess, moduleID) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

func intParam(ctx echo.Context, name string) (int, error) {
	val, err := strconv.Atoi(ctx.Param(name))
	if err != nil {
		return 0, errHttpNotFound
	}
	return val, nil
}
