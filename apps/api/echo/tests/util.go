package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/mwalimu/alama/apps/api/echo"
	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/report"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
	"github.com/mwalimu/alama/core/user"
	emailsvc "github.com/mwalimu/alama/services/email"
	notifsvc "github.com/mwalimu/alama/services/notifier"
	dummydb "github.com/mwalimu/alama/storage/database/dummy"
)

var (
	usrRepo user.Repository
	stdRepo student.Repository
	subRepo subject.Repository
	mrkRepo mark.Repository
)

func setup(t *testing.T) Server {
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

	// set up services
	scale := grading.DefaultScale()
	mailSvc := emailsvc.NewConsoleServiceMock()
	usrSvc := user.NewService(usrRepo)
	stdSvc := student.NewService(stdRepo)
	subSvc := subject.NewService(subRepo)
	mrkSvc := mark.NewService(mrkRepo, stdRepo, subRepo, scale)
	rptSvc := report.NewService(scale, stdRepo, subRepo, mrkRepo)
	notifier := notifsvc.NewService(mailSvc, stdRepo, subRepo, testLogger{})

	// set up server
	return NewServer(
		&Options{
			DisableReqLogs: true,
			Logger:         testLogger{},
			SignalShutdown: func() {},
			UserSvc:        usrSvc,
			StudentSvc:     stdSvc,
			SubjectSvc:     subSvc,
			MarkSvc:        mrkSvc,
			ReportSvc:      rptSvc,
			Notifier:       notifier,
		},
	)
}

type testLogger struct{}

var _ core.Logger = (*testLogger)(nil)

func (testLogger) Debug(msg string, args ...interface{}) { log.Println(msg) }
func (testLogger) Info(msg string, args ...interface{})  { log.Println(msg) }
func (testLogger) Warn(msg string, args ...interface{})  { log.Println(msg) }
func (testLogger) Error(msg string, args ...interface{}) { log.Println(msg) }
func (testLogger) Fatal(msg string, args ...interface{}) { log.Fatalln(msg) }

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
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

func createStudent(t *testing.T, name, rollNo, class, section, parentEmail string) student.Student {
	t.Helper()

	std, err := stdRepo.CreateStudent(context.Background(), student.Student{
		Name:        name,
		RollNo:      rollNo,
		Class:       class,
		Section:     section,
		ParentEmail: parentEmail,
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func createSubject(t *testing.T, name, code string, maxMarks, passMarks int) subject.Subject {
	t.Helper()

	sub, err := subRepo.CreateSubject(context.Background(), subject.Subject{
		Name:      name,
		Code:      code,
		MaxMarks:  maxMarks,
		PassMarks: passMarks,
	})
	if err != nil {
		t.Fatalf("createSubject() failed: %v", err)
	}
	return sub
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{} // handlers render empty lists as [], not null
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
