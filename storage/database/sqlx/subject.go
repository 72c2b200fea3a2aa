package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mwalimu/alama/core/subject"
)

type subjectRow struct {
	ID        int           `db:"id"`
	Name      string        `db:"name"`
	Code      string        `db:"code"`
	MaxMarks  int           `db:"max_marks"`
	PassMarks int           `db:"pass_marks"`
	TeacherID sql.NullInt64 `db:"teacher_id"`
	CreatedAt time.Time     `db:"created_at"`
	UpdatedAt time.Time     `db:"updated_at"`
}

type subjectRepository struct {
	db *sqlx.DB
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *sqlx.DB) *subjectRepository {
	return &subjectRepository{db: db}
}

func (repo subjectRepository) toRow(sub subject.Subject) subjectRow {
	return subjectRow{
		ID:        sub.ID,
		Name:      sub.Name,
		Code:      sub.Code,
		MaxMarks:  sub.MaxMarks,
		PassMarks: sub.PassMarks,
		TeacherID: sql.NullInt64{Int64: int64(sub.TeacherID), Valid: sub.TeacherID != 0},
		CreatedAt: sub.CreatedAt.UTC(),
		UpdatedAt: sub.UpdatedAt.UTC(),
	}
}

func (repo subjectRepository) fromRow(row subjectRow) subject.Subject {
	return subject.Subject{
		ID:        row.ID,
		Name:      row.Name,
		Code:      row.Code,
		MaxMarks:  row.MaxMarks,
		PassMarks: row.PassMarks,
		TeacherID: int(row.TeacherID.Int64),
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// trapNoRowsErr maps psql "no rows" err to subject.ErrNotFound
func (repo subjectRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return subject.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo subjectRepository) CheckCodeUniqueness(ctx context.Context, code string, excluded ...subject.Subject) error {
	query := `SELECT EXISTS (SELECT 1 FROM subject WHERE code = $1 AND NOT (id = ANY($2)))`

	ids := make(pq.Int64Array, 0, len(excluded))
	for _, sub := range excluded {
		ids = append(ids, int64(sub.ID))
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, code, ids); err != nil {
		return errors.Wrap(err, "checking subject code uniqueness")
	}
	if exists {
		return subject.ErrCodeExists
	}
	return nil
}

func (repo subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	query := `
	INSERT INTO subject (name, code, max_marks, pass_marks, teacher_id, created_at, updated_at)
	VALUES (:name, :code, :max_marks, :pass_marks, :teacher_id, :created_at, :updated_at)
	RETURNING id`

	rows, err := sqlx.NamedQueryContext(ctx, repo.db, query, repo.toRow(sub))
	if err != nil {
		if isUniqueViolation(err) {
			return subject.Subject{}, subject.ErrCodeExists
		}
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		if err = rows.Scan(&sub.ID); err != nil {
			return subject.Subject{}, errors.Wrap(err, "inserting subject")
		}
	}
	return sub, rows.Err()
}

func (repo subjectRepository) GetSubjectByID(ctx context.Context, id int) (subject.Subject, error) {
	var row subjectRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM subject WHERE id = $1`, id); err != nil {
		return subject.Subject{}, repo.trapNoRowsErr(err, "finding subject by ID")
	}
	return repo.fromRow(row), nil
}

func (repo subjectRepository) GetSubjectByCode(ctx context.Context, code string) (subject.Subject, error) {
	var row subjectRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM subject WHERE code = $1`, code); err != nil {
		return subject.Subject{}, repo.trapNoRowsErr(err, "finding subject by code")
	}
	return repo.fromRow(row), nil
}

func (repo subjectRepository) QueryAllSubjects(ctx context.Context) ([]subject.Subject, error) {
	var rows []subjectRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM subject ORDER BY id`); err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	subjects := make([]subject.Subject, 0, len(rows))
	for _, row := range rows {
		subjects = append(subjects, repo.fromRow(row))
	}
	return subjects, nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	query := `
	UPDATE subject
	SET name = :name, code = :code, max_marks = :max_marks, pass_marks = :pass_marks,
	    teacher_id = :teacher_id, updated_at = :updated_at
	WHERE id = :id`

	res, err := sqlx.NamedExecContext(ctx, repo.db, query, repo.toRow(sub))
	if err != nil {
		if isUniqueViolation(err) {
			return subject.Subject{}, subject.ErrCodeExists
		}
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return sub, nil
}

func (repo subjectRepository) DeleteSubjectsByID(ctx context.Context, ids ...int) error {
	pqIDs := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		pqIDs = append(pqIDs, int64(id))
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE id = ANY($1)`, pqIDs); err != nil {
		return errors.Wrap(err, "deleting subjects")
	}
	return nil
}
