package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"

	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/report"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
	"github.com/mwalimu/alama/core/user"
	dummydb "github.com/mwalimu/alama/storage/database/dummy"
)

var (
	usrRepo user.Repository
	stdRepo student.Repository
	subRepo subject.Repository
	mrkRepo mark.Repository
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	// set up DB & repos
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	stdRepo = dummydb.NewStudentRepository(db)
	subRepo = dummydb.NewSubjectRepository(db)
	mrkRepo = dummydb.NewMarkRepository(db)

	// start CLI
	return &commandLine{
		db:      &sqlx.DB{},
		usrRepo: usrRepo,
		rptSvc:  report.NewService(grading.DefaultScale(), stdRepo, subRepo, mrkRepo),
	}
}

func createUser(t *testing.T, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()

	usr := user.User{
		Name:     name,
		Username: uname,
		Email:    email,
		IsActive: isActive,
		Roles:    roles,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "exam", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := createUser(t, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUserByID(context.Background(), usr.ID)
				if err != nil {
					t.Fatalf("GetUserByID() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3t"), nil }

	t.Run("missing flags", func(t *testing.T) {
		if err := cli.run([]string{"admin", "adduser", "-username", "boss"}); err != errHelp {
			t.Errorf("cli.run() error = %v, wantErr %v", err, errHelp)
		}
	})

	t.Run("creates an active admin", func(t *testing.T) {
		if err := cli.run([]string{"admin", "adduser", "-name", "Boss", "-username", "boss", "-email", "boss@test.cd", "-admin"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		usr, err := usrRepo.GetUserByUsernameOrEmail(context.Background(), "boss")
		if err != nil {
			t.Fatalf("GetUserByUsernameOrEmail() failed, %v", err)
		}
		if !usr.IsActive {
			t.Error("expected user to be active")
		}
		if !usr.IsAdmin() {
			t.Error("expected user to be admin")
		}
		if err := usr.CheckPassword("s3cr3t"); err != nil {
			t.Errorf("CheckPassword() failed, %v", err)
		}
	})

	t.Run("updates an existing user", func(t *testing.T) {
		orig := createUser(t, "Plain", "plainuser", "plain@test.cd", "old", nil, false)

		readPasswordFunc = func(fd int) ([]byte, error) { return []byte("newpwd"), nil }
		if err := cli.run([]string{"admin", "adduser", "-username", "plainuser", "-email", "plain@test.cd"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}

		usr, err := usrRepo.GetUserByID(context.Background(), orig.ID)
		if err != nil {
			t.Fatalf("GetUserByID() failed, %v", err)
		}
		if !usr.IsActive {
			t.Error("expected user to be re-activated")
		}
		if err := usr.CheckPassword("newpwd"); err != nil {
			t.Errorf("CheckPassword() failed, %v", err)
		}
	})
}

func Test_commandLine_classReport(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	sub, err := subRepo.CreateSubject(ctx, subject.Subject{Name: "Mathematics", Code: "math101", MaxMarks: 100, PassMarks: 35})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	std1, err := stdRepo.CreateStudent(ctx, student.Student{Name: "Asha Odhiambo", RollNo: "stu-001", Class: "10", Section: "A"})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	std2, err := stdRepo.CreateStudent(ctx, student.Student{Name: "Brian Otieno", RollNo: "stu-002", Class: "10", Section: "A"})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	for _, entry := range []struct {
		studentID, obtained int
	}{
		{std1.ID, 80},
		{std2.ID, 20},
	} {
		_, err := mrkRepo.CreateMark(ctx, mark.Mark{
			StudentID: entry.studentID,
			SubjectID: sub.ID,
			ExamType:  "Final",
			Obtained:  entry.obtained,
			Status:    grading.StatusFor(entry.obtained, sub.PassMarks),
		})
		if err != nil {
			t.Fatalf("CreateMark() failed: %v", err)
		}
	}

	t.Run("class flag is required", func(t *testing.T) {
		if err := cli.run([]string{"admin", "classreport"}); err != errHelp {
			t.Errorf("cli.run() error = %v, wantErr %v", err, errHelp)
		}
	})

	t.Run("unknown class has no data", func(t *testing.T) {
		err := cli.run([]string{"admin", "classreport", "-class", "12"})
		if err != report.ErrNoData {
			t.Errorf("cli.run() error = %v, wantErr %v", err, report.ErrNoData)
		}
	})

	t.Run("renders class statistics", func(t *testing.T) {
		rpt, err := cli.rptSvc.ClassReport(ctx, "10", "A", "Final")
		if err != nil {
			t.Fatalf("ClassReport() failed: %v", err)
		}

		var buf bytes.Buffer
		renderClassReport(&buf, rpt)
		out := buf.String()

		for _, want := range []string{
			"Students graded: 2",
			"Mathematics",
			"Asha Odhiambo",
			"50.00",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("renderClassReport() output missing %q:\n%s", want, out)
			}
		}
	})
}
