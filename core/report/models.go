package report

import (
	"errors"
	"time"

	"github.com/mwalimu/alama/core/grading"
)

// ErrNoData means there is nothing to report on: a student with zero marks or
// a class with zero students has no report, as opposed to a zero-valued one.
var ErrNoData = errors.New("no data to report on")

// SubjectMark is one subject line of a student report.
type SubjectMark struct {
	SubjectName string         `json:"subject_name"`
	SubjectCode string         `json:"subject_code"`
	Obtained    int            `json:"marks_obtained"`
	MaxMarks    int            `json:"max_marks"`
	PassMarks   int            `json:"pass_marks"`
	Status      grading.Status `json:"status"`
	Grade       string         `json:"grade"`
}

// StudentReport is a derived, immutable value; recomputed fresh on every
// request and never persisted.
type StudentReport struct {
	StudentID     int            `json:"student_id"`
	StudentName   string         `json:"student_name"`
	RollNo        string         `json:"roll_no"`
	Class         string         `json:"class"`
	Section       string         `json:"section"`
	ExamType      string         `json:"exam_type"`
	Subjects      []SubjectMark  `json:"subjects"`
	TotalObtained int            `json:"total_marks"`
	TotalMax      int            `json:"total_max_marks"`
	Percentage    float64        `json:"percentage"`
	OverallGrade  string         `json:"overall_grade"`
	Result        grading.Status `json:"result"`
	GeneratedAt   time.Time      `json:"generated_at"` // UTC
}

// SubjectStats aggregates one subject's marks across a class.
type SubjectStats struct {
	Subject  string  `json:"subject"`
	Average  float64 `json:"average"`
	MaxMarks int     `json:"max_marks"`
	Passed   int     `json:"passed"`
	Failed   int     `json:"failed"`
	PassRate float64 `json:"pass_rate"`
}

// TopPerformer is one ranked entry of a class report.
type TopPerformer struct {
	StudentID  int     `json:"student_id"`
	Name       string  `json:"name"`
	RollNo     string  `json:"roll_no"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}

// ClassReport aggregates many students' marks for one class/section/exam.
// Students with zero mark entries are excluded from all tallies.
type ClassReport struct {
	Class          string         `json:"class_name"`
	Section        string         `json:"section"`
	ExamType       string         `json:"exam_type"`
	TotalStudents  int            `json:"total_students"`
	PassedStudents int            `json:"passed_students"`
	FailedStudents int            `json:"failed_students"`
	PassPercentage float64        `json:"pass_percentage"`
	SubjectStats   []SubjectStats `json:"subject_wise_stats"`
	TopPerformers  []TopPerformer `json:"top_performers"`
	GeneratedAt    time.Time      `json:"generated_at"` // UTC
}
