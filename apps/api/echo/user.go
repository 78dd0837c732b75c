package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/noodle/core/auth"
	"github.com/trezcool/noodle/core/school"
)

type userApi struct {
	svc *school.Service
}

func registerUserAPI(e *echo.Echo, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := userApi{svc: svc}

	g := e.Group("/user")

	// the only un-authed endpoint
	g.POST("/login", api.login)

	ag := g.Group("", jwt)
	ag.POST("/register", api.register, adminMiddleware())
	ag.POST("/delete", api.delete)
	ag.POST("/changePassword", api.changePassword)
}

func (api *userApi) login(ctx echo.Context) error {
	var data school.LoginUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginUser")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	token, err := api.svc.Login(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, loginResponse{Token: token})
}

func (api *userApi) register(ctx echo.Context) error {
	var data school.RegisterUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegisterUser")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	usr, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "registering user")
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) delete(ctx echo.Context) error {
	var data school.DeleteUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteUser")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sess, err := contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	if !auth.AdminOrOwnUsername(sess, data.Username) {
		return errHttpForbidden
	}

	if err = api.svc.Delete(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *userApi) changePassword(ctx echo.Context) error {
	var data school.ChangePassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ChangePassword")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sess, err := contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}
	if !auth.AdminOrOwnUsername(sess, data.Username) {
		return errHttpForbidden
	}

	if err = api.svc.ChangePassword(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type loginResponse struct {
	Token string `json:"token"`
}
