package report

import (
	"sort"
	"time"

	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
)

// topPerformerLimit caps the ranked list of a class report.
const topPerformerLimit = 5

// Entry pairs a mark with the subject it was scored against; the builders are
// pure functions over these caller-supplied snapshots.
type Entry struct {
	Mark    mark.Mark
	Subject subject.Subject
}

// BuildStudentReport folds one student's marks for an exam cycle into a
// report. Returns ErrNoData on an empty entry set. The overall result is Pass
// only when every subject passed; a single failed subject fails the student
// regardless of the aggregate percentage.
func BuildStudentReport(scale grading.Scale, std student.Student, examType string, entries []Entry) (StudentReport, error) {
	if len(entries) == 0 {
		return StudentReport{}, ErrNoData
	}

	subjects := make([]SubjectMark, 0, len(entries))
	var totalObtained, totalMax int
	allPassed := true

	for _, e := range entries {
		subjects = append(subjects, SubjectMark{
			SubjectName: e.Subject.Name,
			SubjectCode: e.Subject.Code,
			Obtained:    e.Mark.Obtained,
			MaxMarks:    e.Subject.MaxMarks,
			PassMarks:   e.Subject.PassMarks,
			Status:      e.Mark.Status,
			Grade:       scale.GradeFor(grading.Percent(e.Mark.Obtained, e.Subject.MaxMarks)),
		})
		totalObtained += e.Mark.Obtained
		totalMax += e.Subject.MaxMarks

		if e.Mark.Status == grading.StatusFail {
			allPassed = false
		}
	}

	percentage := grading.Round2(grading.Percent(totalObtained, totalMax))
	result := grading.StatusFail
	if allPassed {
		result = grading.StatusPass
	}

	return StudentReport{
		StudentID:     std.ID,
		StudentName:   std.Name,
		RollNo:        std.RollNo,
		Class:         std.Class,
		Section:       std.Section,
		ExamType:      examType,
		Subjects:      subjects,
		TotalObtained: totalObtained,
		TotalMax:      totalMax,
		Percentage:    percentage,
		OverallGrade:  scale.GradeFor(percentage),
		Result:        result,
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

type subjectAccum struct {
	total    int
	count    int
	passed   int
	failed   int
	maxMarks int
}

type studentAccum struct {
	id     int
	total  int
	max    int
	failed bool
}

// BuildClassReport folds many students' marks into class-wide statistics.
// Returns ErrNoData when the roster is empty. Students with zero entries are
// excluded from TotalStudents and the pass/fail tallies; entries for students
// not on the roster are ignored. Top performers are ranked by total score,
// ties keeping first-encounter order.
func BuildClassReport(scale grading.Scale, class, section, examType string, roster []student.Student, entries []Entry) (ClassReport, error) {
	if len(roster) == 0 {
		return ClassReport{}, ErrNoData
	}

	byID := make(map[int]student.Student, len(roster))
	for _, std := range roster {
		byID[std.ID] = std
	}

	// accumulate in first-encounter order so ranking ties stay stable
	subjectOrder := make([]string, 0)
	subjectAccums := make(map[string]*subjectAccum)
	studentOrder := make([]int, 0)
	studentAccums := make(map[int]*studentAccum)

	for _, e := range entries {
		if _, onRoster := byID[e.Mark.StudentID]; !onRoster {
			continue
		}

		name := e.Subject.Name
		sa, ok := subjectAccums[name]
		if !ok {
			sa = &subjectAccum{maxMarks: e.Subject.MaxMarks}
			subjectAccums[name] = sa
			subjectOrder = append(subjectOrder, name)
		}
		sa.total += e.Mark.Obtained
		sa.count++
		if e.Mark.Status == grading.StatusPass {
			sa.passed++
		} else {
			sa.failed++
		}

		ta, ok := studentAccums[e.Mark.StudentID]
		if !ok {
			ta = &studentAccum{id: e.Mark.StudentID}
			studentAccums[e.Mark.StudentID] = ta
			studentOrder = append(studentOrder, e.Mark.StudentID)
		}
		ta.total += e.Mark.Obtained
		ta.max += e.Subject.MaxMarks
		if e.Mark.Status == grading.StatusFail {
			ta.failed = true
		}
	}

	var passedStudents, failedStudents int
	for _, id := range studentOrder {
		if studentAccums[id].failed {
			failedStudents++
		} else {
			passedStudents++
		}
	}

	stats := make([]SubjectStats, 0, len(subjectOrder))
	for _, name := range subjectOrder {
		sa := subjectAccums[name]
		stats = append(stats, SubjectStats{
			Subject:  name,
			Average:  grading.Round2(float64(sa.total) / float64(sa.count)),
			MaxMarks: sa.maxMarks,
			Passed:   sa.passed,
			Failed:   sa.failed,
			PassRate: grading.Round2(float64(sa.passed) / float64(sa.count) * 100),
		})
	}

	ranked := make([]*studentAccum, 0, len(studentOrder))
	for _, id := range studentOrder {
		ranked = append(ranked, studentAccums[id])
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].total > ranked[j].total })
	if len(ranked) > topPerformerLimit {
		ranked = ranked[:topPerformerLimit]
	}

	top := make([]TopPerformer, 0, len(ranked))
	for _, ta := range ranked {
		std := byID[ta.id]
		percentage := grading.Round2(grading.Percent(ta.total, ta.max))
		top = append(top, TopPerformer{
			StudentID:  ta.id,
			Name:       std.Name,
			RollNo:     std.RollNo,
			Total:      ta.total,
			Percentage: percentage,
			Grade:      scale.GradeFor(percentage),
		})
	}

	totalStudents := len(studentOrder)
	var passPercentage float64
	if totalStudents > 0 {
		passPercentage = grading.Round2(float64(passedStudents) / float64(totalStudents) * 100)
	}

	return ClassReport{
		Class:          class,
		Section:        section,
		ExamType:       examType,
		TotalStudents:  totalStudents,
		PassedStudents: passedStudents,
		FailedStudents: failedStudents,
		PassPercentage: passPercentage,
		SubjectStats:   stats,
		TopPerformers:  top,
		GeneratedAt:    time.Now().UTC(),
	}, nil
}
