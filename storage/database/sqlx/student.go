package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/mwalimu/alama/core"
	"github.com/mwalimu/alama/core/student"
)

type studentRow struct {
	ID          int            `db:"id"`
	Name        string         `db:"name"`
	RollNo      string         `db:"roll_no"`
	Class       string         `db:"class"`
	Section     string         `db:"section"`
	ParentName  sql.NullString `db:"parent_name"`
	ParentEmail sql.NullString `db:"parent_email"`
	ParentPhone sql.NullString `db:"parent_phone"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo studentRepository) toRow(std student.Student) studentRow {
	return studentRow{
		ID:          std.ID,
		Name:        std.Name,
		RollNo:      std.RollNo,
		Class:       std.Class,
		Section:     std.Section,
		ParentName:  sql.NullString{String: std.ParentName, Valid: std.ParentName != ""},
		ParentEmail: sql.NullString{String: std.ParentEmail, Valid: std.ParentEmail != ""},
		ParentPhone: sql.NullString{String: std.ParentPhone, Valid: std.ParentPhone != ""},
		CreatedAt:   std.CreatedAt.UTC(),
		UpdatedAt:   std.UpdatedAt.UTC(),
	}
}

func (repo studentRepository) fromRow(row studentRow) student.Student {
	return student.Student{
		ID:          row.ID,
		Name:        row.Name,
		RollNo:      row.RollNo,
		Class:       row.Class,
		Section:     row.Section,
		ParentName:  row.ParentName.String,
		ParentEmail: row.ParentEmail.String,
		ParentPhone: row.ParentPhone.String,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

func (repo studentRepository) fromRows(rows []studentRow) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, repo.fromRow(row))
	}
	return students
}

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo studentRepository) CheckRollNoUniqueness(ctx context.Context, rollNo string, excluded ...student.Student) error {
	query := `SELECT EXISTS (SELECT 1 FROM student WHERE roll_no = $1 AND NOT (id = ANY($2)))`

	ids := make(pq.Int64Array, 0, len(excluded))
	for _, std := range excluded {
		ids = append(ids, int64(std.ID))
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, rollNo, ids); err != nil {
		return errors.Wrap(err, "checking roll number uniqueness")
	}
	if exists {
		return student.ErrRollNoExists
	}
	return nil
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	query := `
	INSERT INTO student (name, roll_no, class, section, parent_name, parent_email, parent_phone, created_at, updated_at)
	VALUES (:name, :roll_no, :class, :section, :parent_name, :parent_email, :parent_phone, :created_at, :updated_at)
	RETURNING id`

	rows, err := sqlx.NamedQueryContext(ctx, repo.db, query, repo.toRow(std))
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrRollNoExists
		}
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	defer func() { _ = rows.Close() }()

	if rows.Next() {
		if err = rows.Scan(&std.ID); err != nil {
			return student.Student{}, errors.Wrap(err, "inserting student")
		}
	}
	return std, rows.Err()
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE id = $1`, id); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by ID")
	}
	return repo.fromRow(row), nil
}

func (repo studentRepository) GetStudentByRollNo(ctx context.Context, rollNo string) (student.Student, error) {
	var row studentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM student WHERE roll_no = $1`, rollNo); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "finding student by roll number")
	}
	return repo.fromRow(row), nil
}

func (repo studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	where := make([]string, 0, 3)
	args := make([]interface{}, 0, 3)

	if filter.Class != "" {
		args = append(args, filter.Class)
		where = append(where, "class ILIKE $"+itoa(len(args)))
	}
	if filter.Section != "" {
		args = append(args, filter.Section)
		where = append(where, "section ILIKE $"+itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := itoa(len(args))
		where = append(where, "(name ILIKE $"+n+" OR roll_no ILIKE $"+n+")")
	}

	query := `SELECT * FROM student`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += orderBy(filter.Ordering)

	var rows []studentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return repo.fromRows(rows), nil
}

// studentOrderableColumns whitelists ORDER BY targets; anything else is dropped.
var studentOrderableColumns = map[string]bool{
	"name":       true,
	"roll_no":    true,
	"class":      true,
	"section":    true,
	"created_at": true,
}

func orderBy(ordering []core.DBOrdering) string {
	clauses := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if studentOrderableColumns[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	if len(clauses) == 0 {
		return " ORDER BY id"
	}
	return " ORDER BY " + strings.Join(clauses, ", ")
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	query := `
	UPDATE student
	SET name = :name, roll_no = :roll_no, class = :class, section = :section,
	    parent_name = :parent_name, parent_email = :parent_email, parent_phone = :parent_phone,
	    updated_at = :updated_at
	WHERE id = :id`

	res, err := sqlx.NamedExecContext(ctx, repo.db, query, repo.toRow(std))
	if err != nil {
		if isUniqueViolation(err) {
			return student.Student{}, student.ErrRollNoExists
		}
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}

func (repo studentRepository) DeleteStudentsByID(ctx context.Context, ids ...int) error {
	pqIDs := make(pq.Int64Array, 0, len(ids))
	for _, id := range ids {
		pqIDs = append(pqIDs, int64(id))
	}
	if _, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = ANY($1)`, pqIDs); err != nil {
		return errors.Wrap(err, "deleting students")
	}
	return nil
}
