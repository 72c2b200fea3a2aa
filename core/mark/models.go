package mark

import (
	"time"

	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/grading"
)

// DefaultExamType partitions entries when the caller does not name a cycle.
const DefaultExamType = "Final"

// Mark is a single (student, subject, exam type) score entry. Status is
// derived from the subject's pass mark; callers never set it directly.
type Mark struct {
	ID        int            `json:"id"`
	StudentID int            `json:"student_id"`
	SubjectID int            `json:"subject_id"`
	ExamType  string         `json:"exam_type"`
	Obtained  int            `json:"marks_obtained"`
	Status    grading.Status `json:"status"`
	Remark    string         `json:"remarks,omitempty"`
	EnteredBy int            `json:"entered_by"`
	CreatedAt time.Time      `json:"created_at"` // UTC
	UpdatedAt time.Time      `json:"updated_at"` // UTC
}

// NewMark contains information needed to enter a mark.
type NewMark struct {
	StudentID int    `json:"student_id" validate:"required"`
	SubjectID int    `json:"subject_id" validate:"required"`
	ExamType  string `json:"exam_type"`
	Obtained  int    `json:"marks_obtained" validate:"gte=0"`
	Remark    string `json:"remarks"`
	EnteredBy int    `json:"-"`
}

func (nm *NewMark) Validate() error {
	nm.ExamType = core.CleanString(nm.ExamType)
	if nm.ExamType == "" {
		nm.ExamType = DefaultExamType
	}
	nm.Remark = core.CleanString(nm.Remark)
	return core.Validate.Struct(nm)
}

// UpdateMark defines what may be changed on an existing Mark; nil fields are
// left untouched.
type UpdateMark struct {
	Obtained *int    `json:"marks_obtained" validate:"omitempty,gte=0"`
	Remark   *string `json:"remarks"`
}

func (um *UpdateMark) Validate() error {
	return core.Validate.Struct(um)
}

// BulkRow is one (student, score) pair of a bulk sheet.
type BulkRow struct {
	StudentID int `json:"student_id" validate:"required"`
	Obtained  int `json:"marks_obtained" validate:"gte=0"`
}

// BulkNewMarks enters one subject/exam sheet for many students at once.
type BulkNewMarks struct {
	SubjectID int       `json:"subject_id" validate:"required"`
	ExamType  string    `json:"exam_type"`
	Rows      []BulkRow `json:"marks" validate:"required,min=1"`
	EnteredBy int       `json:"-"`
}

func (bm *BulkNewMarks) Validate() error {
	bm.ExamType = core.CleanString(bm.ExamType)
	if bm.ExamType == "" {
		bm.ExamType = DefaultExamType
	}
	return core.Validate.Struct(bm)
}

// BulkResult reports the outcome of a single bulk sheet row; rows fail
// independently so a bad row never aborts the batch.
type BulkResult struct {
	Row   BulkRow            `json:"row"`
	Mark  Mark               `json:"mark,omitempty"`
	Event *NotificationEvent `json:"-"`
	Err   error              `json:"-"`
}

// QueryFilter narrows mark listings; fields combine with AND.
type QueryFilter struct {
	StudentID  int    `query:"student_id"`
	StudentIDs []int  `query:"-"`
	SubjectID  int    `query:"subject_id"`
	ExamType   string `query:"exam_type"`
	Class      string `query:"class"`
	Status     string `query:"status"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.StudentID == 0 && qf.StudentIDs == nil && qf.SubjectID == 0 &&
		qf.ExamType == "" && qf.Class == "" && qf.Status == ""
}

func (qf *QueryFilter) Clean() {
	qf.ExamType = core.CleanString(qf.ExamType)
	qf.Class = core.CleanString(qf.Class)
	qf.Status = core.CleanString(qf.Status)
}
