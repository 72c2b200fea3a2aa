package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mwalimu/alama/core/grading"
	"github.com/mwalimu/alama/core/mark"
)

type markRow struct {
	ID        int            `db:"id"`
	StudentID int            `db:"student_id"`
	SubjectID int            `db:"subject_id"`
	ExamType  string         `db:"exam_type"`
	Obtained  int            `db:"marks_obtained"`
	Status    string         `db:"status"`
	Remark    sql.NullString `db:"remarks"`
	EnteredBy sql.NullInt64  `db:"entered_by"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type markRepository struct {
	db *sqlx.DB
}

var _ mark.Repository = (*markRepository)(nil) // interface compliance check

func NewMarkRepository(db *sqlx.DB) *markRepository {
	return &markRepository{db: db}
}

func (repo markRepository) toRow(m mark.Mark) markRow {
	return markRow{
		ID:        m.ID,
		StudentID: m.StudentID,
		SubjectID: m.SubjectID,
		ExamType:  m.ExamType,
		Obtained:  m.Obtained,
		Status:    string(m.Status),
		Remark:    sql.NullString{String: m.Remark, Valid: m.Remark != ""},
		EnteredBy: sql.NullInt64{Int64: int64(m.EnteredBy), Valid: m.EnteredBy != 0},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func (repo markRepository) fromRow(row markRow) mark.Mark {
	return mark.Mark{
		ID:        row.ID,
		StudentID: row.StudentID,
		SubjectID: row.SubjectID,
		ExamType:  row.ExamType,
		Obtained:  row.Obtained,
		Status:    grading.Status(row.Status),
		Remark:    row.Remark.String,
		EnteredBy: int(row.EnteredBy.Int64),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to mark.ErrNotFound
func (repo markRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return mark.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo markRepository) CheckEntryUniqueness(ctx context.Context, studentID, subjectID int, examType string) error {
	query := `
	SELECT EXISTS (
		SELECT 1 FROM mark WHERE student_id = $1 AND subject_id = $2 AND LOWER(exam_type) = LOWER($3)
	)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, studentID, subjectID, examType); err != nil {
		return errors.Wrap(err, "checking mark entry uniqueness")
	}
	if exists {
		return mark.ErrDuplicateEntry
	}
	return nil
}

func (repo markRepository) CreateMark(ctx context.Context, m mark.Mark) (mark.Mark, error) {
	query := `
	INSERT INTO mark (student_id, subject_id, exam_type, marks_obtained, status, remarks, entered_by, created_at, updated_at)
	VALUES (:student_id, :subject_id, :exam_type, :marks_obtained, :status, :remarks, :entered_by, :created_at, :updated_at)
	RETURNING id`

	rows, err := sqlx.NamedQueryContext(ctx, repo.db, query, repo.toRow(m))
	if err != nil {
		// the unique constraint backstops entries racing past CheckEntryUniqueness
		if isUniqueViolation(err) {
			return mark.Mark{}, mark.ErrDuplicateEntry
		}
		return mark.Mark{}, errors.Wrap(err, "inserting mark")
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		if err = rows.Scan(&m.ID); err != nil {
			return mark.Mark{}, errors.Wrap(err, "inserting mark")
		}
	}
	return m, rows.Err()
}

func (repo markRepository) GetMarkByID(ctx context.Context, id int) (mark.Mark, error) {
	var row markRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM mark WHERE id = $1`, id); err != nil {
		return mark.Mark{}, repo.trapNoRowsErr(err, "finding mark by ID")
	}
	return repo.fromRow(row), nil
}

func (repo markRepository) FilterMarks(ctx context.Context, filter mark.QueryFilter) ([]mark.Mark, error) {
	where := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	if filter.StudentID != 0 {
		args = append(args, filter.StudentID)
		where = append(where, "student_id = $"+itoa(len(args)))
	}
	if filter.StudentIDs != nil {
		ids := make(pq.Int64Array, 0, len(filter.StudentIDs))
		for _, id := range filter.StudentIDs {
			ids = append(ids, int64(id))
		}
		args = append(args, ids)
		where = append(where, "student_id = ANY($"+itoa(len(args))+")")
	}
	if filter.SubjectID != 0 {
		args = append(args, filter.SubjectID)
		where = append(where, "subject_id = $"+itoa(len(args)))
	}
	if filter.ExamType != "" {
		args = append(args, filter.ExamType)
		where = append(where, "exam_type ILIKE $"+itoa(len(args)))
	}
	if filter.Class != "" {
		args = append(args, filter.Class)
		where = append(where, "student_id IN (SELECT id FROM student WHERE class ILIKE $"+itoa(len(args))+")")
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, "status ILIKE $"+itoa(len(args)))
	}

	query := `SELECT * FROM mark`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id"

	var rows []markRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	marks := make([]mark.Mark, 0, len(rows))
	for _, row := range rows {
		marks = append(marks, repo.fromRow(row))
	}
	return marks, nil
}

func (repo markRepository) UpdateMark(ctx context.Context, m mark.Mark) (mark.Mark, error) {
	query := `
	UPDATE mark
	SET marks_obtained = :marks_obtained, status = :status, remarks = :remarks, updated_at = :updated_at
	WHERE id = :id`

	res, err := sqlx.NamedExecContext(ctx, repo.db, query, repo.toRow(m))
	if err != nil {
		return mark.Mark{}, errors.Wrap(err, "updating mark")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return mark.Mark{}, mark.ErrNotFound
	}
	return m, nil
}

func (repo markRepository) DeleteMarksByID(ctx context.Context, ids ...int) error {
	pqIDs := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		pqIDs = append(pqIDs, int64(id))
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM mark WHERE id = ANY($1)`, pqIDs); err != nil {
		return errors.Wrap(err, "deleting marks")
	}
	return nil
}
