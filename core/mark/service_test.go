package mark_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
	dummydb "github.com/mwalimu/alama/storage/database/dummy"
)

type fixture struct {
	svc         mark.Service
	studentRepo student.Repository
	subjectRepo subject.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	studentRepo := dummydb.NewStudentRepository(db)
	subjectRepo := dummydb.NewSubjectRepository(db)
	markRepo := dummydb.NewMarkRepository(db)
	svc := mark.NewService(markRepo, studentRepo, subjectRepo, grading.DefaultScale())
	return fixture{svc: svc, studentRepo: studentRepo, subjectRepo: subjectRepo}
}

func createStudent(t *testing.T, repo student.Repository, name, rollNo string) student.Student {
	t.Helper()

	std, err := repo.CreateStudent(context.Background(), student.Student{
		Name:    name,
		RollNo:  rollNo,
		Class:   "10",
		Section: "A",
	})
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return std
}

func createSubject(t *testing.T, repo subject.Repository, name, code string, maxMarks, passMarks int) subject.Subject {
	t.Helper()

	sub, err := repo.CreateSubject(context.Background(), subject.Subject{
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

func TestServiceEnter(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)
	std := createStudent(t, fix.studentRepo, "Asha Odhiambo", "stu-001")
	sub := createSubject(t, fix.subjectRepo, "Mathematics", "math101", 100, 35)

	t.Run("passing entry", func(t *testing.T) {
		m, evt, err := fix.svc.Enter(ctx, mark.NewMark{
			StudentID: std.ID, SubjectID: sub.ID, ExamType: "Midterm", Obtained: 72, EnteredBy: 1,
		})
		assert.NoError(t, err)
		assert.Equal(t, grading.StatusPass, m.Status)
		assert.Nil(t, evt, "a passing entry must not raise an alert")
	})

	t.Run("failing entry raises event", func(t *testing.T) {
		m, evt, err := fix.svc.Enter(ctx, mark.NewMark{
			StudentID: std.ID, SubjectID: sub.ID, ExamType: "Final", Obtained: 20, EnteredBy: 1,
		})
		assert.NoError(t, err)
		assert.Equal(t, grading.StatusFail, m.Status)
		if assert.NotNil(t, evt) {
			assert.Equal(t, mark.EventFailAlert, evt.Kind)
			assert.Equal(t, std.ID, evt.StudentID)
			assert.Equal(t, sub.ID, evt.SubjectID)
		}
	})

	t.Run("duplicate entry rejected", func(t *testing.T) {
		_, evt, err := fix.svc.Enter(ctx, mark.NewMark{
			StudentID: std.ID, SubjectID: sub.ID, ExamType: "Midterm", Obtained: 80, EnteredBy: 1,
		})
		assert.Equal(t, mark.ErrDuplicateEntry, errors.Cause(err))
		assert.Nil(t, evt, "a rejected entry must not raise an alert")
	})

	t.Run("score above max rejected", func(t *testing.T) {
		_, _, err := fix.svc.Enter(ctx, mark.NewMark{
			StudentID: std.ID, SubjectID: sub.ID, ExamType: "Mock", Obtained: 101, EnteredBy: 1,
		})
		var vErr *core.ValidationError
		if assert.True(t, errors.As(err, &vErr), "want ValidationError, got %v", err) {
			assert.Equal(t, mark.ErrOutOfRange, vErr.Err)
		}
	})

	t.Run("exactly pass mark passes", func(t *testing.T) {
		m, evt, err := fix.svc.Enter(ctx, mark.NewMark{
			StudentID: std.ID, SubjectID: sub.ID, ExamType: "Retake", Obtained: 35, EnteredBy: 1,
		})
		assert.NoError(t, err)
		assert.Equal(t, grading.StatusPass, m.Status)
		assert.Nil(t, evt)
	})

	t.Run("unknown student rejected", func(t *testing.T) {
		_, _, err := fix.svc.Enter(ctx, mark.NewMark{
			StudentID: 999, SubjectID: sub.ID, ExamType: "Midterm", Obtained: 50, EnteredBy: 1,
		})
		assert.Equal(t, student.ErrNotFound, errors.Cause(err))
	})

	t.Run("unknown subject rejected", func(t *testing.T) {
		_, _, err := fix.svc.Enter(ctx, mark.NewMark{
			StudentID: std.ID, SubjectID: 999, ExamType: "Midterm", Obtained: 50, EnteredBy: 1,
		})
		assert.Equal(t, subject.ErrNotFound, errors.Cause(err))
	})
}

// A fail alert fires only on a strict Pass -> Fail transition.
func TestServiceUpdateTransitions(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)
	std := createStudent(t, fix.studentRepo, "Juma Kent", "stu-002")
	sub := createSubject(t, fix.subjectRepo, "Physics", "phy101", 100, 35)

	m, evt, err := fix.svc.Enter(ctx, mark.NewMark{
		StudentID: std.ID, SubjectID: sub.ID, ExamType: "Final", Obtained: 40, EnteredBy: 1,
	})
	if err != nil {
		t.Fatalf("Enter() failed: %v", err)
	}
	assert.Equal(t, grading.StatusPass, m.Status)
	assert.Nil(t, evt)

	score := func(n int) *int { return &n }

	// Pass -> Fail: event fires
	m, evt, err = fix.svc.Update(ctx, m.ID, mark.UpdateMark{Obtained: score(20)})
	assert.NoError(t, err)
	assert.Equal(t, grading.StatusFail, m.Status)
	assert.NotNil(t, evt, "Pass -> Fail must raise exactly one alert")

	// Fail -> Fail: no new event
	m, evt, err = fix.svc.Update(ctx, m.ID, mark.UpdateMark{Obtained: score(25)})
	assert.NoError(t, err)
	assert.Equal(t, grading.StatusFail, m.Status)
	assert.Nil(t, evt, "Fail -> Fail must not raise another alert")

	// Fail -> Pass: no event
	m, evt, err = fix.svc.Update(ctx, m.ID, mark.UpdateMark{Obtained: score(50)})
	assert.NoError(t, err)
	assert.Equal(t, grading.StatusPass, m.Status)
	assert.Nil(t, evt)

	// Pass -> Pass: no event
	m, evt, err = fix.svc.Update(ctx, m.ID, mark.UpdateMark{Obtained: score(90)})
	assert.NoError(t, err)
	assert.Equal(t, grading.StatusPass, m.Status)
	assert.Nil(t, evt)
}

func TestServiceUpdateRemarkOnly(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)
	std := createStudent(t, fix.studentRepo, "Neha Patel", "stu-003")
	sub := createSubject(t, fix.subjectRepo, "Chemistry", "chem101", 100, 35)

	m, _, err := fix.svc.Enter(ctx, mark.NewMark{
		StudentID: std.ID, SubjectID: sub.ID, ExamType: "Final", Obtained: 20, EnteredBy: 1,
	})
	if err != nil {
		t.Fatalf("Enter() failed: %v", err)
	}

	remark := "needs extra coaching"
	updated, evt, err := fix.svc.Update(ctx, m.ID, mark.UpdateMark{Remark: &remark})
	assert.NoError(t, err)
	assert.Equal(t, remark, updated.Remark)
	assert.Equal(t, m.Obtained, updated.Obtained, "remark-only update must not touch the score")
	assert.Equal(t, grading.StatusFail, updated.Status)
	assert.Nil(t, evt, "a remark-only update never raises an alert even when the mark is failing")
}

func TestServiceBulkEnter(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)
	sub := createSubject(t, fix.subjectRepo, "Biology", "bio101", 100, 35)

	std1 := createStudent(t, fix.studentRepo, "Amina Yusuf", "stu-010")
	std2 := createStudent(t, fix.studentRepo, "Brian Otieno", "stu-011")
	std3 := createStudent(t, fix.studentRepo, "Chen Wei", "stu-012")

	// std2 already has a mark for this sheet
	if _, _, err := fix.svc.Enter(ctx, mark.NewMark{
		StudentID: std2.ID, SubjectID: sub.ID, ExamType: "Final", Obtained: 50, EnteredBy: 1,
	}); err != nil {
		t.Fatalf("Enter() failed: %v", err)
	}

	results, err := fix.svc.BulkEnter(ctx, mark.BulkNewMarks{
		SubjectID: sub.ID,
		ExamType:  "Final",
		EnteredBy: 1,
		Rows: []mark.BulkRow{
			{StudentID: std1.ID, Obtained: 80}, // ok, pass
			{StudentID: std2.ID, Obtained: 60}, // duplicate, skipped
			{StudentID: 999, Obtained: 40},     // unknown student, skipped
			{StudentID: std3.ID, Obtained: 10}, // ok, fail -> alert
			{StudentID: std1.ID, Obtained: 120},
		},
	})
	if err != nil {
		t.Fatalf("BulkEnter() failed: %v", err)
	}
	if len(results) != 5 {
		t.Fatalf("BulkEnter() returned %d results, want one per row (5)", len(results))
	}

	assert.NoError(t, results[0].Err)
	assert.Equal(t, grading.StatusPass, results[0].Mark.Status)
	assert.Nil(t, results[0].Event)

	assert.Equal(t, mark.ErrDuplicateEntry, errors.Cause(results[1].Err))
	assert.Equal(t, student.ErrNotFound, errors.Cause(results[2].Err))

	assert.NoError(t, results[3].Err)
	assert.Equal(t, grading.StatusFail, results[3].Mark.Status)
	assert.NotNil(t, results[3].Event)

	var vErr *core.ValidationError
	assert.True(t, errors.As(results[4].Err, &vErr), "out-of-range row must carry a validation error")

	// failed rows must not have been persisted
	marks, err := fix.svc.Filter(ctx, mark.QueryFilter{SubjectID: sub.ID, ExamType: "Final"})
	assert.NoError(t, err)
	assert.Len(t, marks, 3) // std2's original + std1 + std3
}

func TestServiceBulkEnterUnknownSubject(t *testing.T) {
	ctx := context.Background()
	fix := setup(t)

	_, err := fix.svc.BulkEnter(ctx, mark.BulkNewMarks{
		SubjectID: 42,
		ExamType:  "Final",
		Rows:      []mark.BulkRow{{StudentID: 1, Obtained: 10}},
	})
	assert.Equal(t, subject.ErrNotFound, errors.Cause(err))
}
