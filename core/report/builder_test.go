package report_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/report"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
)

var (
	math    = subject.Subject{ID: 1, Name: "Mathematics", Code: "math101", MaxMarks: 100, PassMarks: 35}
	english = subject.Subject{ID: 2, Name: "English", Code: "eng101", MaxMarks: 100, PassMarks: 35}
	science = subject.Subject{ID: 3, Name: "Science", Code: "sci101", MaxMarks: 50, PassMarks: 20}
)

func entry(studentID int, sub subject.Subject, obtained int) report.Entry {
	return report.Entry{
		Mark: mark.Mark{
			StudentID: studentID,
			SubjectID: sub.ID,
			ExamType:  "Final",
			Obtained:  obtained,
			Status:    grading.StatusFor(obtained, sub.PassMarks),
		},
		Subject: sub,
	}
}

func TestBuildStudentReport(t *testing.T) {
	scale := grading.DefaultScale()
	std := student.Student{ID: 1, Name: "Asha Odhiambo", RollNo: "stu-001", Class: "10", Section: "A"}

	t.Run("no data", func(t *testing.T) {
		_, err := report.BuildStudentReport(scale, std, "Final", nil)
		assert.Equal(t, report.ErrNoData, err)
	})

	t.Run("all subjects passed", func(t *testing.T) {
		rpt, err := report.BuildStudentReport(scale, std, "Final", []report.Entry{
			entry(std.ID, math, 90),
			entry(std.ID, english, 75),
			entry(std.ID, science, 40),
		})
		assert.NoError(t, err)
		assert.Equal(t, 205, rpt.TotalObtained)
		assert.Equal(t, 250, rpt.TotalMax)
		assert.Equal(t, 82.0, rpt.Percentage)
		assert.Equal(t, "A", rpt.OverallGrade)
		assert.Equal(t, grading.StatusPass, rpt.Result)
		assert.Len(t, rpt.Subjects, 3)
		assert.Equal(t, "A+", rpt.Subjects[0].Grade)
		assert.Equal(t, "B+", rpt.Subjects[1].Grade)
	})

	t.Run("one failed subject fails the student", func(t *testing.T) {
		// 110/200 = 55% would pass on aggregate; the failed subject decides
		rpt, err := report.BuildStudentReport(scale, std, "Final", []report.Entry{
			entry(std.ID, math, 90),
			entry(std.ID, english, 20),
		})
		assert.NoError(t, err)
		assert.Equal(t, 55.0, rpt.Percentage)
		assert.Equal(t, "C+", rpt.OverallGrade)
		assert.Equal(t, grading.StatusFail, rpt.Result)
		assert.Equal(t, grading.StatusFail, rpt.Subjects[1].Status)
		assert.Equal(t, "F", rpt.Subjects[1].Grade)
	})

	t.Run("percentage weighs mixed max marks", func(t *testing.T) {
		rpt, err := report.BuildStudentReport(scale, std, "Final", []report.Entry{
			entry(std.ID, math, 50),    // of 100
			entry(std.ID, science, 50), // of 50
		})
		assert.NoError(t, err)
		assert.Equal(t, 100, rpt.TotalObtained)
		assert.Equal(t, 150, rpt.TotalMax)
		assert.Equal(t, 66.67, rpt.Percentage)
		assert.Equal(t, "B", rpt.OverallGrade)
	})
}

func TestBuildClassReport(t *testing.T) {
	scale := grading.DefaultScale()
	roster := []student.Student{
		{ID: 1, Name: "Asha Odhiambo", RollNo: "stu-001", Class: "10", Section: "A"},
		{ID: 2, Name: "Brian Otieno", RollNo: "stu-002", Class: "10", Section: "A"},
		{ID: 3, Name: "Chen Wei", RollNo: "stu-003", Class: "10", Section: "A"},
	}

	t.Run("empty roster", func(t *testing.T) {
		_, err := report.BuildClassReport(scale, "10", "A", "Final", nil, nil)
		assert.Equal(t, report.ErrNoData, err)
	})

	t.Run("roster without entries yields an empty report", func(t *testing.T) {
		rpt, err := report.BuildClassReport(scale, "10", "A", "Final", roster, nil)
		assert.NoError(t, err)
		assert.Equal(t, 0, rpt.TotalStudents)
		assert.Equal(t, 0, rpt.PassedStudents)
		assert.Equal(t, 0, rpt.FailedStudents)
		assert.Equal(t, 0.0, rpt.PassPercentage)
		assert.Empty(t, rpt.SubjectStats)
		assert.Empty(t, rpt.TopPerformers)
	})

	t.Run("students without entries are excluded", func(t *testing.T) {
		// student 3 has no marks and must not dilute the tallies
		rpt, err := report.BuildClassReport(scale, "10", "A", "Final", roster, []report.Entry{
			entry(1, math, 80),
			entry(2, math, 30),
		})
		assert.NoError(t, err)
		assert.Equal(t, 2, rpt.TotalStudents)
		assert.Equal(t, 1, rpt.PassedStudents)
		assert.Equal(t, 1, rpt.FailedStudents)
		assert.Equal(t, 50.0, rpt.PassPercentage)
	})

	t.Run("off roster entries ignored", func(t *testing.T) {
		rpt, err := report.BuildClassReport(scale, "10", "A", "Final", roster, []report.Entry{
			entry(1, math, 80),
			entry(99, math, 10), // transferred out, not on roster
		})
		assert.NoError(t, err)
		assert.Equal(t, 1, rpt.TotalStudents)
		assert.Equal(t, 1, rpt.PassedStudents)
		assert.Equal(t, 0, rpt.FailedStudents)
	})

	t.Run("subject stats", func(t *testing.T) {
		rpt, err := report.BuildClassReport(scale, "10", "A", "Final", roster, []report.Entry{
			entry(1, math, 80),
			entry(2, math, 30),
			entry(3, math, 55),
			entry(1, english, 70),
		})
		assert.NoError(t, err)
		if assert.Len(t, rpt.SubjectStats, 2) {
			maths := rpt.SubjectStats[0]
			assert.Equal(t, "Mathematics", maths.Subject)
			assert.Equal(t, 55.0, maths.Average)
			assert.Equal(t, 2, maths.Passed)
			assert.Equal(t, 1, maths.Failed)
			assert.Equal(t, 66.67, maths.PassRate)

			eng := rpt.SubjectStats[1]
			assert.Equal(t, "English", eng.Subject)
			assert.Equal(t, 70.0, eng.Average)
			assert.Equal(t, 100.0, eng.PassRate)
		}
	})

	t.Run("pass percentage rounding", func(t *testing.T) {
		roster5 := []student.Student{
			{ID: 1, Name: "a", RollNo: "r1"}, {ID: 2, Name: "b", RollNo: "r2"},
			{ID: 3, Name: "c", RollNo: "r3"}, {ID: 4, Name: "d", RollNo: "r4"},
			{ID: 5, Name: "e", RollNo: "r5"},
		}
		rpt, err := report.BuildClassReport(scale, "10", "A", "Final", roster5, []report.Entry{
			entry(1, math, 80),
			entry(2, math, 70),
			entry(3, math, 60),
			entry(4, math, 10),
			entry(5, math, 20),
		})
		assert.NoError(t, err)
		assert.Equal(t, 5, rpt.TotalStudents)
		assert.Equal(t, 3, rpt.PassedStudents)
		assert.Equal(t, 60.0, rpt.PassPercentage)
	})

	t.Run("top performers ranked by total, ties stable", func(t *testing.T) {
		roster7 := make([]student.Student, 0, 7)
		for i := 1; i <= 7; i++ {
			roster7 = append(roster7, student.Student{ID: i, Name: "s", RollNo: "r"})
		}
		entries := []report.Entry{
			entry(1, math, 60),
			entry(2, math, 90),
			entry(3, math, 60), // ties with 1; 1 encountered first
			entry(4, math, 95),
			entry(5, math, 10),
			entry(6, math, 70),
			entry(7, math, 80),
		}
		rpt, err := report.BuildClassReport(scale, "10", "A", "Final", roster7, entries)
		assert.NoError(t, err)
		if assert.Len(t, rpt.TopPerformers, 5) {
			ids := make([]int, 0, 5)
			for _, tp := range rpt.TopPerformers {
				ids = append(ids, tp.StudentID)
			}
			assert.Equal(t, []int{4, 2, 7, 6, 1}, ids)
			assert.Equal(t, 95.0, rpt.TopPerformers[0].Percentage)
			assert.Equal(t, "A+", rpt.TopPerformers[0].Grade)
		}
	})
}
