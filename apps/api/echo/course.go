package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/noodle/core/school"
)

type courseApi struct {
	svc *school.Service
}

func registerCourseAPI(e *echo.Echo, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := courseApi{svc: svc}

	g := e.Group("/course", jwt)
	g.POST("/register", api.create, adminMiddleware())
	g.POST("/delete", api.delete, adminMiddleware())
	g.GET("/:courseId", api.retrieve)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data school.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	course, err := api.svc.CreateCourse(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, course)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	courseID, err := intParam(ctx, "courseId")
	if err != nil {
		return err
	}
	course, modules, students, err := api.svc.GetCourse(ctx.Request().Context(), courseID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courseResponse{Course: course, Modules: modules, Students: students})
}

func (api *courseApi) delete(ctx echo.Context) error {
	var data school.DeleteCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteCourse")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.DeleteCourse(ctx.Request().Context(), data.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

type courseResponse struct {
	school.Course
	Modules  []school.Module `json:"modules"`
	Students []school.User   `json:"students"`
}
