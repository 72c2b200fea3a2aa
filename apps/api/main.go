package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/mwalimu/alama/apps/api/echo"
	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/report"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
	"github.com/mwalimu/alama/core/user"
	emailsvc "github.com/mwalimu/alama/services/email"
	logsvc "github.com/mwalimu/alama/services/logger"
	notifsvc "github.com/mwalimu/alama/services/notifier"
	"github.com/mwalimu/alama/storage/database"
	sqlxrepos "github.com/mwalimu/alama/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, core.Conf)
	logger.Enable(!core.Conf.Debug) // keep Rollbar quiet locally

	if err := run(logger); err != nil {
		logger.Fatal("startup failed", err)
	}
}

func run(logger core.Logger) error {
	// set up DB
	db, err := database.Open(core.Conf)
	if err != nil {
		return err
	}
	defer db.Close()

	scale := grading.DefaultScale()
	if core.Conf.GradeScale != "" {
		if scale, err = grading.ParseScale(core.Conf.GradeScale); err != nil {
			return err
		}
	}

	// set up repos
	usrRepo := sqlxrepos.NewUserRepository(db)
	stdRepo := sqlxrepos.NewStudentRepository(db)
	subRepo := sqlxrepos.NewSubjectRepository(db)
	mrkRepo := sqlxrepos.NewMarkRepository(db)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}
	usrSvc := user.NewService(usrRepo)
	stdSvc := student.NewService(stdRepo)
	subSvc := subject.NewService(subRepo)
	mrkSvc := mark.NewService(mrkRepo, stdRepo, subRepo, scale)
	rptSvc := report.NewService(scale, stdRepo, subRepo, mrkRepo)
	notifier := notifsvc.NewService(mailSvc, stdRepo, subRepo, logger)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(
		&echoapi.Options{
			Address:        core.Conf.Server.Address,
			Logger:         logger,
			SignalShutdown: func() { shutdown <- syscall.SIGTERM },
			UserSvc:        usrSvc,
			StudentSvc:     stdSvc,
			SubjectSvc:     subSvc,
			MarkSvc:        mrkSvc,
			ReportSvc:      rptSvc,
			Notifier:       notifier,
		},
	)

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("server listening on " + core.Conf.Server.Address)
		serverErrors <- app.Start()
	}()

	select {
	case err := <-serverErrors:
		return err
	case sig := <-shutdown:
		logger.Info("shutdown started", sig)

		ctx, cancel := context.WithTimeout(context.Background(), core.Conf.Server.ShutdownTimeout)
		defer cancel()

		if err := app.Stop(ctx); err != nil {
			logger.Error("graceful shutdown failed", err)
			return err
		}
		logger.Info("shutdown complete")
	}
	return nil
}
