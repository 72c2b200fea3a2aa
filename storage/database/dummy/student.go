package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/mwalimu/alama/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) query() []student.Student {
	ids := make([]int, 0, len(repo.db.table))
	for id := range repo.db.table {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	students := make([]student.Student, 0, len(ids))
	for _, id := range ids {
		students = append(students, *repo.db.table[id])
	}
	return students
}

func (repo *studentRepository) CheckRollNoUniqueness(ctx context.Context, rollNo string, excluded ...student.Student) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, std := range repo.query() {
		if std.RollNo != rollNo {
			continue
		}
		var excl bool
		for _, ex := range excluded {
			if ex.ID == std.ID {
				excl = true
				break
			}
		}
		if !excl {
			return student.ErrRollNoExists
		}
	}
	return nil
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	std.ID = repo.db.pkCount
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id int) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentByRollNo(ctx context.Context, rollNo string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, std := range repo.query() {
		if std.RollNo == rollNo {
			return std, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FilterStudents(ctx context.Context, filter student.QueryFilter) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := repo.query()
	filtered := make([]student.Student, 0, len(students))
	for _, std := range students {
		if filter.Class != "" && !strings.EqualFold(std.Class, filter.Class) {
			continue
		}
		if filter.Section != "" && !strings.EqualFold(std.Section, filter.Section) {
			continue
		}
		if filter.Search != "" {
			search := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(std.Name), search) &&
				!strings.Contains(strings.ToLower(std.RollNo), search) {
				continue
			}
		}
		filtered = append(filtered, std)
	}

	// single-field ordering is enough for the test double
	if len(filter.Ordering) > 0 {
		ord := filter.Ordering[0]
		sort.SliceStable(filtered, func(i, j int) bool {
			var less bool
			switch ord.Field {
			case "roll_no":
				less = filtered[i].RollNo < filtered[j].RollNo
			default:
				less = filtered[i].Name < filtered[j].Name
			}
			if ord.Ascending {
				return less
			}
			return !less
		})
	}
	return filtered, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	std.CreatedAt = orig.CreatedAt
	repo.db.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) DeleteStudentsByID(ctx context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
