package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/report"
	"github.com/mwalimu/alama/core/user"
)

func enterMark(t *testing.T, studentID, subjectID, obtained, passMarks int) {
	t.Helper()

	_, err := mrkRepo.CreateMark(context.Background(), mark.Mark{
		StudentID: studentID,
		SubjectID: subjectID,
		ExamType:  "Final",
		Obtained:  obtained,
		Status:    grading.StatusFor(obtained, passMarks),
	})
	if err != nil {
		t.Fatalf("enterMark() failed: %v", err)
	}
}

func Test_reportApi_studentReport(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	std := createStudent(t, "Asha Odhiambo", "stu-001", "10", "A", "parent@test.cd")
	math := createSubject(t, "Mathematics", "math101", 100, 35)
	english := createSubject(t, "English", "eng101", 100, 35)

	enterMark(t, std.ID, math.ID, 90, math.PassMarks)
	enterMark(t, std.ID, english.ID, 20, english.PassMarks)

	token := getToken(t, teacher)

	t.Run("report aggregates all subjects", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/reports/students/%d?exam_type=Final", std.ID), token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var rpt report.StudentReport
		if err := json.Unmarshal(rec.Body.Bytes(), &rpt); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, std.ID, rpt.StudentID)
		assert.Len(t, rpt.Subjects, 2)
		assert.Equal(t, 110, rpt.TotalObtained)
		assert.Equal(t, 200, rpt.TotalMax)
		assert.Equal(t, 55.0, rpt.Percentage)
		assert.Equal(t, grading.StatusFail, rpt.Result, "one failed subject fails the student")
	})

	t.Run("no marks yields not found", func(t *testing.T) {
		empty := createStudent(t, "New Kid", "stu-099", "10", "A", "")
		req, rec := newAuthRequest(http.MethodGet, fmt.Sprintf("/v1/reports/students/%d", empty.ID), token)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_reportApi_classReport(t *testing.T) {
	app := setup(t)

	teacher := createUser(t, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	parent := createUser(t, "Parent", "parent", "parent@test.cd", "", []string{user.RoleParent}, true)
	math := createSubject(t, "Mathematics", "math101", 100, 35)

	std1 := createStudent(t, "Asha Odhiambo", "stu-001", "10", "A", "")
	std2 := createStudent(t, "Brian Otieno", "stu-002", "10", "A", "")
	createStudent(t, "Chen Wei", "stu-003", "10", "A", "") // no marks

	enterMark(t, std1.ID, math.ID, 80, math.PassMarks)
	enterMark(t, std2.ID, math.ID, 30, math.PassMarks)

	t.Run("parents cannot pull class reports", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/classes/10?section=A", getToken(t, parent))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("class statistics exclude students without marks", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/reports/classes/10?section=A&exam_type=Final", getToken(t, teacher))
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		var rpt report.ClassReport
		if err := json.Unmarshal(rec.Body.Bytes(), &rpt); err != nil {
			t.Fatalf("unmarshalling response failed: %v", err)
		}
		assert.Equal(t, 2, rpt.TotalStudents)
		assert.Equal(t, 1, rpt.PassedStudents)
		assert.Equal(t, 1, rpt.FailedStudents)
		assert.Equal(t, 50.0, rpt.PassPercentage)
		assert.Len(t, rpt.TopPerformers, 2)
	})
}
