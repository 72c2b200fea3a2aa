package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
	notifsvc "github.com/mwalimu/alama/services/notifier"
)

type markApi struct {
	svc      mark.Service
	notifier notifsvc.Service
}

func registerMarkAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc mark.Service, notifier notifsvc.Service) {
	api := markApi{svc: svc, notifier: notifier}

	ag := g.Group("/marks", jwt)
	ag.POST("", api.enter, staffMiddleware())
	ag.POST("/bulk", api.bulkEnter, staffMiddleware())
	ag.GET("", api.query)
	ag.GET("/failed", api.queryFailed)
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update, staffMiddleware())
	ag.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *markApi) enter(ctx echo.Context) error {
	var data mark.NewMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.EnteredBy = claims.UserID()

	m, evt, err := api.svc.Enter(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	if evt != nil {
		api.notifier.Dispatch(ctx.Request().Context(), evt)
	}
	return ctx.JSON(http.StatusCreated, m)
}

func (api *markApi) bulkEnter(ctx echo.Context) error {
	var data mark.BulkNewMarks
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkNewMarks")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.EnteredBy = claims.UserID()

	results, err := api.svc.BulkEnter(ctx.Request().Context(), data)
	if err != nil {
		return err
	}

	events := make([]*mark.NotificationEvent, 0)
	outcomes := make([]BulkEnterOutcome, 0, len(results))
	var created int
	for _, res := range results {
		outcome := BulkEnterOutcome{StudentID: res.Row.StudentID}
		if res.Err != nil {
			outcome.Error = res.Err.Error()
		} else {
			m := res.Mark
			outcome.Mark = &m
			created++
		}
		outcomes = append(outcomes, outcome)
		if res.Event != nil {
			events = append(events, res.Event)
		}
	}
	if len(events) > 0 {
		api.notifier.Dispatch(ctx.Request().Context(), events...)
	}

	code := http.StatusCreated
	if created == 0 {
		code = http.StatusBadRequest
	}
	return ctx.JSON(code, BulkEnterResponse{
		Created:  created,
		Skipped:  len(results) - created,
		Outcomes: outcomes,
	})
}

func (api *markApi) query(ctx echo.Context) error {
	filter := new(mark.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []mark.Mark{})
	}

	marks, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}
	if marks == nil {
		marks = []mark.Mark{}
	}
	return ctx.JSON(http.StatusOK, marks)
}

// queryFailed is the failing-entries shortcut used by class teachers.
func (api *markApi) queryFailed(ctx echo.Context) error {
	filter := new(mark.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []mark.Mark{})
	}
	filter.Clean()
	filter.Status = string(grading.StatusFail)

	marks, err := api.svc.Filter(ctx.Request().Context(), *filter)
	if err != nil {
		return errors.Wrap(err, "querying failed marks")
	}
	if marks == nil {
		marks = []mark.Mark{}
	}
	return ctx.JSON(http.StatusOK, marks)
}

func (api *markApi) retrieve(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	m, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *markApi) update(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	var data mark.UpdateMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMark")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	m, evt, err := api.svc.Update(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	if evt != nil {
		api.notifier.Dispatch(ctx.Request().Context(), evt)
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *markApi) destroy(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	if _, err := api.svc.GetByID(ctx.Request().Context(), id); err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting mark")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	BulkEnterOutcome struct {
		StudentID int        `json:"student_id"`
		Mark      *mark.Mark `json:"mark,omitempty"`
		Error     string     `json:"error,omitempty"`
	}

	BulkEnterResponse struct {
		Created  int                `json:"created"`
		Skipped  int                `json:"skipped"`
		Outcomes []BulkEnterOutcome `json:"outcomes"`
	}
)
