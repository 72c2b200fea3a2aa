// Package notifsvc turns mark lifecycle events into parent-facing emails.
package notifsvc

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/report"
)

type (
	Service struct {
		mailSvc  core.EmailService
		students mark.StudentGetter
		subjects mark.SubjectGetter
		logger   core.Logger
	}

	failAlertData struct {
		StudentName string
		ParentName  string
		SubjectName string
		ExamType    string
		Obtained    int
		MaxMarks    int
		PassMarks   int
	}

	reportCardData struct {
		Report report.StudentReport
	}
)

func NewService(mailSvc core.EmailService, students mark.StudentGetter, subjects mark.SubjectGetter, logger core.Logger) Service {
	return Service{mailSvc: mailSvc, students: students, subjects: subjects, logger: logger}
}

// Dispatch sends a fail-alert email to the student's parent for each event.
// Events for students without a parent email on file are logged and skipped;
// one bad event never blocks the rest.
func (svc Service) Dispatch(ctx context.Context, events ...*mark.NotificationEvent) {
	messages := make([]*core.EmailMessage, 0, len(events))
	for _, evt := range events {
		if evt == nil || evt.Kind != mark.EventFailAlert {
			continue
		}

		std, err := svc.students.GetStudentByID(ctx, evt.StudentID)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("fail alert %s: fetching student: %v", evt.ID, err), err)
			continue
		}
		if std.ParentEmail == "" {
			svc.logger.Info(fmt.Sprintf("fail alert %s: student %q has no parent email on file, skipping", evt.ID, std.RollNo))
			continue
		}
		sub, err := svc.subjects.GetSubjectByID(ctx, evt.SubjectID)
		if err != nil {
			svc.logger.Error(fmt.Sprintf("fail alert %s: fetching subject: %v", evt.ID, err), err)
			continue
		}

		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: std.ParentName, Address: std.ParentEmail}},
			Subject:      fmt.Sprintf("%s - %s %s result", std.Name, sub.Name, evt.ExamType),
			TemplateName: "fail_alert",
			TemplateData: failAlertData{
				StudentName: std.Name,
				ParentName:  std.ParentName,
				SubjectName: sub.Name,
				ExamType:    evt.ExamType,
				Obtained:    evt.Obtained,
				MaxMarks:    sub.MaxMarks,
				PassMarks:   sub.PassMarks,
			},
		})
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
}

// SendReportCard emails a generated report card to the student's parent.
func (svc Service) SendReportCard(ctx context.Context, rpt report.StudentReport) error {
	std, err := svc.students.GetStudentByID(ctx, rpt.StudentID)
	if err != nil {
		return err
	}
	if std.ParentEmail == "" {
		return nil
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: std.ParentName, Address: std.ParentEmail}},
		Subject:      fmt.Sprintf("%s - %s report card", std.Name, rpt.ExamType),
		TemplateName: "report_card",
		TemplateData: reportCardData{Report: rpt},
	})
	return nil
}
