package main

import (
	"log"
	"os"

	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/report"
	"github.com/mwalimu/alama/storage/database"
	sqlxrepos "github.com/mwalimu/alama/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	scale := grading.DefaultScale()
	if core.Conf.GradeScale != "" {
		scale, err = grading.ParseScale(core.Conf.GradeScale)
		errAndDie(err)
	}

	stdRepo := sqlxrepos.NewStudentRepository(db)
	subRepo := sqlxrepos.NewSubjectRepository(db)
	mrkRepo := sqlxrepos.NewMarkRepository(db)

	// start CLI
	cli := commandLine{
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(db),
		rptSvc:  report.NewService(scale, stdRepo, subRepo, mrkRepo),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
