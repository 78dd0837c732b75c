package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/noodle/core"
	"github.com/trezcool/noodle/core/school"
)

type moduleApi struct {
	svc *school.Service
}

func registerModuleAPI(e *echo.Echo, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := moduleApi{svc: svc}

	g := e.Group("/module", jwt)
	g.POST("/register", api.create, adminMiddleware())

	dg := g.Group("/:moduleId")
	dg.GET("", api.retrieve)
	dg.POST("/delete", api.delete, adminMiddleware())
	dg.POST("/addTeacher", api.addTeacher, adminMiddleware())
	dg.POST("/item/register", api.createItem, moduleTeacherMiddleware(svc, "moduleId"))
}

func (api *moduleApi) create(ctx echo.Context) error {
	var data school.NewModule
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModule")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	mod, err := api.svc.CreateModule(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, mod)
}

func (api *moduleApi) retrieve(ctx echo.Context) error {
	moduleID, err := intParam(ctx, "moduleId")
	if err != nil {
		return err
	}
	mod, err := api.svc.GetModule(ctx.Request().Context(), moduleID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mod)
}

func (api *moduleApi) delete(ctx echo.Context) error {
	moduleID, err := intParam(ctx, "moduleId")
	if err != nil {
		return err
	}
	if err = api.svc.DeleteModule(ctx.Request().Context(), moduleID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *moduleApi) addTeacher(ctx echo.Context) error {
	moduleID, err := intParam(ctx, "moduleId")
	if err != nil {
		return err
	}

	var data addTeacherRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to addTeacherRequest")
	}
	if err = core.Validate.Struct(&data); err != nil {
		return err
	}

	if err = api.svc.AddModuleTeacher(ctx.Request().Context(), moduleID, data.UserID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *moduleApi) createItem(ctx echo.Context) error {
	moduleID, err := intParam(ctx, "moduleId")
	if err != nil {
		return err
	}

	var data school.NewModuleItem
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewModuleItem")
	}
	if err = checkBodyModuleID(data.ModuleID, moduleID); err != nil {
		return err
	}
	data.ModuleID = moduleID
	if err = data.Validate(); err != nil {
		return err
	}

	sess, err := contextSession(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context session")
	}

	item, err := api.svc.CreateModuleItem(ctx.Request().Context(), sess.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, item)
}

// checkBodyModuleID rejects payloads whose module id contradicts the route;
// the route param is the canonical source.
func checkBodyModuleID(bodyID, paramID int) error {
	if bodyID != 0 && bodyID != paramID {
		return core.NewValidationError(nil,
			core.FieldError{Field: "module_id", Error: "does not match the module id of the route"})
	}
	return nil
}

type addTeacherRequest struct {
	UserID int `json:"user_id" validate:"required"`
}
