package mark

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/student"
	"github.com/mwalimu/alama/core/subject"
)

var (
	// errors
	ErrNotFound       = errors.New("mark entry not found")
	ErrDuplicateEntry = errors.New("a mark entry already exists for this student, subject and exam type")
	ErrOutOfRange     = errors.New("marks must be between 0 and the subject's max marks")
)

type (
	Repository interface {
		// CheckEntryUniqueness returns ErrDuplicateEntry when a mark already
		// exists for the triple. The store's unique constraint remains the
		// backstop for concurrent entries racing past this check.
		CheckEntryUniqueness(ctx context.Context, studentID, subjectID int, examType string) error
		CreateMark(ctx context.Context, m Mark) (Mark, error)
		GetMarkByID(ctx context.Context, id int) (Mark, error)
		// FilterMarks applies AND on available QueryFilter fields.
		FilterMarks(ctx context.Context, filter QueryFilter) ([]Mark, error)
		UpdateMark(ctx context.Context, m Mark) (Mark, error)
		DeleteMarksByID(ctx context.Context, ids ...int) error
	}

	StudentGetter interface {
		GetStudentByID(ctx context.Context, id int) (student.Student, error)
	}

	SubjectGetter interface {
		GetSubjectByID(ctx context.Context, id int) (subject.Subject, error)
	}

	Service struct {
		repo     Repository
		students StudentGetter
		subjects SubjectGetter
		scale    grading.Scale
	}
)

func NewService(repo Repository, students StudentGetter, subjects SubjectGetter, scale grading.Scale) Service {
	return Service{repo: repo, students: students, subjects: subjects, scale: scale}
}

// validateScore enforces 0 <= obtained <= maxMarks.
func validateScore(obtained int, sub subject.Subject) error {
	if obtained < 0 || obtained > sub.MaxMarks {
		return core.NewValidationError(ErrOutOfRange, core.FieldError{
			Field: "marks_obtained",
			Error: fmt.Sprintf("marks must be between 0 and %d", sub.MaxMarks),
		})
	}
	return nil
}

// Enter records a new mark. It either fully succeeds, returning the created
// Mark and a fail-alert event when the initial status is Fail, or fully
// fails, returning no record and no event.
func (svc Service) Enter(ctx context.Context, nm NewMark) (Mark, *NotificationEvent, error) {
	if _, err := svc.students.GetStudentByID(ctx, nm.StudentID); err != nil {
		return Mark{}, nil, err
	}
	sub, err := svc.subjects.GetSubjectByID(ctx, nm.SubjectID)
	if err != nil {
		return Mark{}, nil, err
	}

	// score bounds first, then uniqueness; short-circuit on first failure
	if err := validateScore(nm.Obtained, sub); err != nil {
		return Mark{}, nil, err
	}
	if err := svc.repo.CheckEntryUniqueness(ctx, nm.StudentID, nm.SubjectID, nm.ExamType); err != nil {
		return Mark{}, nil, err
	}

	now := time.Now().UTC()
	m := Mark{
		StudentID: nm.StudentID,
		SubjectID: nm.SubjectID,
		ExamType:  nm.ExamType,
		Obtained:  nm.Obtained,
		Status:    grading.StatusFor(nm.Obtained, sub.PassMarks),
		Remark:    nm.Remark,
		EnteredBy: nm.EnteredBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m, err = svc.repo.CreateMark(ctx, m)
	if err != nil {
		return Mark{}, nil, pkgerrors.Wrap(err, "creating mark")
	}

	if m.Status == grading.StatusFail {
		return m, newFailAlert(m), nil
	}
	return m, nil, nil
}

// Update changes an existing mark's score and/or remark and recomputes its
// status. A fail-alert event is emitted only on a strict Pass -> Fail
// transition: Fail -> Fail edits and any update ending in Pass emit none.
func (svc Service) Update(ctx context.Context, id int, um UpdateMark) (Mark, *NotificationEvent, error) {
	m, err := svc.repo.GetMarkByID(ctx, id)
	if err != nil {
		return Mark{}, nil, err
	}
	sub, err := svc.subjects.GetSubjectByID(ctx, m.SubjectID)
	if err != nil {
		return Mark{}, nil, err
	}

	oldStatus := m.Status
	if um.Obtained != nil {
		if err := validateScore(*um.Obtained, sub); err != nil {
			return Mark{}, nil, err
		}
		m.Obtained = *um.Obtained
		m.Status = grading.StatusFor(m.Obtained, sub.PassMarks)
	}
	if um.Remark != nil {
		m.Remark = core.CleanString(*um.Remark)
	}
	m.UpdatedAt = time.Now().UTC()

	m, err = svc.repo.UpdateMark(ctx, m)
	if err != nil {
		return Mark{}, nil, pkgerrors.Wrap(err, "updating mark")
	}

	if oldStatus == grading.StatusPass && m.Status == grading.StatusFail {
		return m, newFailAlert(m), nil
	}
	return m, nil, nil
}

// BulkEnter applies Enter to each row of a sheet independently: a duplicate,
// out-of-range or unknown-student row is reported in its BulkResult and the
// remainder proceeds. The returned slice has one entry per input row, in
// input order.
func (svc Service) BulkEnter(ctx context.Context, bm BulkNewMarks) ([]BulkResult, error) {
	// an unknown subject fails the whole sheet; every row needs its policy
	if _, err := svc.subjects.GetSubjectByID(ctx, bm.SubjectID); err != nil {
		return nil, err
	}

	results := make([]BulkResult, 0, len(bm.Rows))
	for _, row := range bm.Rows {
		m, evt, err := svc.Enter(ctx, NewMark{
			StudentID: row.StudentID,
			SubjectID: bm.SubjectID,
			ExamType:  bm.ExamType,
			Obtained:  row.Obtained,
			EnteredBy: bm.EnteredBy,
		})
		results = append(results, BulkResult{Row: row, Mark: m, Event: evt, Err: err})
	}
	return results, nil
}

func (svc Service) GetByID(ctx context.Context, id int) (Mark, error) {
	return svc.repo.GetMarkByID(ctx, id)
}

func (svc Service) Filter(ctx context.Context, filter QueryFilter) ([]Mark, error) {
	return svc.repo.FilterMarks(ctx, filter)
}

// Delete removes mark entries; exposed for administrative corrections only,
// reports and alerts never delete.
func (svc Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteMarksByID(ctx, ids...)
}
