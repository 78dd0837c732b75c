package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/noodle/core/school"
)

type gradesApi struct {
	svc *school.Service
}

func registerGradesAPI(e *echo.Echo, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := gradesApi{svc: svc}

	g := e.Group("/grades", jwt)
	g.POST("/insert/:moduleId", api.insert, moduleTeacherMiddleware(svc, "moduleId"))
	g.GET("/module/:moduleId", api.forModule, moduleTeacherMiddleware(svc, "moduleId"))
	g.POST("/delete/:moduleId", api.delete, moduleTeacherMiddleware(svc, "moduleId"))
	g.GET("/:studentId", api.forStudent, adminOrOwnIDMiddleware("studentId"))
}

func (api *gradesApi) insert(ctx echo.Context) error {
	moduleID, err := intParam(ctx, "moduleId")
	if err != nil {
		return err
	}

	var data school.NewGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err = checkBodyModuleID(data.ModuleID, moduleID); err != nil {
		return err
	}
	data.ModuleID = moduleID
	if err = data.Validate(); err != nil {
		return err
	}

	grade, err := api.svc.InsertGrade(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api *gradesApi) forStudent(ctx echo.Context) error {
	studentID, err := intParam(ctx, "studentId")
	if err != nil {
		return err
	}
	grades, err := api.svc.GradesForStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradesApi) forModule(ctx echo.Context) error {
	moduleID, err := intParam(ctx, "moduleId")
	if err != nil {
		return err
	}
	grades, err := api.svc.GradesForModule(ctx.Request().Context(), moduleID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradesApi) delete(ctx echo.Context) error {
	moduleID, err := intParam(ctx, "moduleId")
	if err != nil {
		return err
	}

	var data school.DeleteGrade
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteGrade")
	}
	if err = checkBodyModuleID(data.ModuleID, moduleID); err != nil {
		return err
	}
	data.ModuleID = moduleID
	if err = data.Validate(); err != nil {
		return err
	}

	if err = api.svc.DeleteGrade(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
