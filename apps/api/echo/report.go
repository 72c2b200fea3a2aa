package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/report"
	notifsvc "github.com/mwalimu/alama/services/notifier"
)

type reportApi struct {
	svc      report.Service
	notifier notifsvc.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc report.Service, notifier notifsvc.Service) {
	api := reportApi{svc: svc, notifier: notifier}

	ag := g.Group("/reports", jwt)
	ag.GET("/students/:id", api.studentReport)
	ag.POST("/students/:id/send", api.sendReportCard, staffMiddleware())
	ag.GET("/classes/:class", api.classReport, staffMiddleware())
}

func (api *reportApi) studentReport(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	examType := core.CleanString(ctx.QueryParam("exam_type"))
	if examType == "" {
		examType = mark.DefaultExamType
	}

	rpt, err := api.svc.StudentReport(ctx.Request().Context(), id, examType)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rpt)
}

func (api *reportApi) sendReportCard(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	examType := core.CleanString(ctx.QueryParam("exam_type"))
	if examType == "" {
		examType = mark.DefaultExamType
	}

	rpt, err := api.svc.StudentReport(ctx.Request().Context(), id, examType)
	if err != nil {
		return err
	}
	if err := api.notifier.SendReportCard(ctx.Request().Context(), rpt); err != nil {
		return errors.Wrap(err, "sending report card")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Report card sent."})
}

func (api *reportApi) classReport(ctx echo.Context) error {
	class := ctx.Param("class")
	section := core.CleanString(ctx.QueryParam("section"))
	examType := core.CleanString(ctx.QueryParam("exam_type"))
	if examType == "" {
		examType = mark.DefaultExamType
	}

	rpt, err := api.svc.ClassReport(ctx.Request().Context(), class, section, examType)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rpt)
}
