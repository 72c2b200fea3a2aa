package mark

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates notification events.
type EventKind string

// EventFailAlert signals that a parent/guardian alert is warranted. It is
// data only; delivery is the notifier service's concern.
const EventFailAlert EventKind = "FailAlert"

// NotificationEvent is emitted exactly once per status transition into Fail:
// on a failing first entry, and on an update whose transition is strictly
// Pass -> Fail.
type NotificationEvent struct {
	ID         uuid.UUID `json:"id"`
	Kind       EventKind `json:"kind"`
	StudentID  int       `json:"student_id"`
	SubjectID  int       `json:"subject_id"`
	ExamType   string    `json:"exam_type"`
	Obtained   int       `json:"marks_obtained"`
	OccurredAt time.Time `json:"occurred_at"` // UTC
}

func newFailAlert(m Mark) *NotificationEvent {
	return &NotificationEvent{
		ID:         uuid.New(),
		Kind:       EventFailAlert,
		StudentID:  m.StudentID,
		SubjectID:  m.SubjectID,
		ExamType:   m.ExamType,
		Obtained:   m.Obtained,
		OccurredAt: time.Now().UTC(),
	}
}
