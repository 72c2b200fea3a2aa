package report

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
)

// Service is the thin adapter between the persistent store and the pure
// report builders: it assembles snapshots and delegates.
type Service struct {
	scale    grading.Scale
	students student.Repository
	subjects subject.Repository
	marks    mark.Repository
}

func NewService(scale grading.Scale, students student.Repository, subjects subject.Repository, marks mark.Repository) Service {
	return Service{scale: scale, students: students, subjects: subjects, marks: marks}
}

// subjectsByID loads each distinct subject referenced by the given marks.
func (svc Service) subjectsByID(ctx context.Context, marks []mark.Mark) (map[int]subject.Subject, error) {
	subs := make(map[int]subject.Subject)
	for _, m := range marks {
		if _, ok := subs[m.SubjectID]; ok {
			continue
		}
		sub, err := svc.subjects.GetSubjectByID(ctx, m.SubjectID)
		if err != nil {
			if err == subject.ErrNotFound {
				continue // dangling reference; the entry is skipped
			}
			return nil, errors.Wrap(err, "loading subject")
		}
		subs[m.SubjectID] = sub
	}
	return subs, nil
}

func entriesFor(marks []mark.Mark, subs map[int]subject.Subject) []Entry {
	entries := make([]Entry, 0, len(marks))
	for _, m := range marks {
		sub, ok := subs[m.SubjectID]
		if !ok {
			continue
		}
		entries = append(entries, Entry{Mark: m, Subject: sub})
	}
	return entries
}

// StudentReport builds the report card for one student and exam cycle.
func (svc Service) StudentReport(ctx context.Context, studentID int, examType string) (StudentReport, error) {
	std, err := svc.students.GetStudentByID(ctx, studentID)
	if err != nil {
		return StudentReport{}, err
	}

	marks, err := svc.marks.FilterMarks(ctx, mark.QueryFilter{StudentID: studentID, ExamType: examType})
	if err != nil {
		return StudentReport{}, errors.Wrap(err, "loading marks")
	}
	subs, err := svc.subjectsByID(ctx, marks)
	if err != nil {
		return StudentReport{}, err
	}

	return BuildStudentReport(svc.scale, std, examType, entriesFor(marks, subs))
}

// ClassReport builds class-wide statistics for one class/section/exam.
func (svc Service) ClassReport(ctx context.Context, class, section, examType string) (ClassReport, error) {
	roster, err := svc.students.FilterStudents(ctx, student.QueryFilter{Class: class, Section: section})
	if err != nil {
		return ClassReport{}, errors.Wrap(err, "loading students")
	}
	if len(roster) == 0 {
		return ClassReport{}, ErrNoData
	}

	ids := make([]int, 0, len(roster))
	for _, std := range roster {
		ids = append(ids, std.ID)
	}

	marks, err := svc.marks.FilterMarks(ctx, mark.QueryFilter{StudentIDs: ids, ExamType: examType})
	if err != nil {
		return ClassReport{}, errors.Wrap(err, "loading marks")
	}
	subs, err := svc.subjectsByID(ctx, marks)
	if err != nil {
		return ClassReport{}, err
	}

	return BuildClassReport(svc.scale, class, section, examType, roster, entriesFor(marks, subs))
}
