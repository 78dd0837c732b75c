package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/noodle/core/school"
)

type timetableApi struct {
	svc *school.Service
}

func registerTimetableAPI(e *echo.Echo, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := timetableApi{svc: svc}

	g := e.Group("/timetable", jwt)
	g.GET("", api.query)
	g.POST("/insert", api.insert, adminMiddleware())
	g.POST("/delete", api.delete, adminMiddleware())
}

func (api *timetableApi) query(ctx echo.Context) error {
	entries, err := api.svc.Timetable(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *timetableApi) insert(ctx echo.Context) error {
	var data school.NewTimetableEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTimetableEntry")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	entry, err := api.svc.AddTimetableEntry(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, entry)
}

func (api *timetableApi) delete(ctx echo.Context) error {
	var data school.DeleteTimetableEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to DeleteTimetableEntry")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.DeleteTimetableEntry(ctx.Request().Context(), data.ID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
