package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/mwalimu/alama/core/mark"
)

type markRepository struct {
	db       *markTable
	students *studentTable
}

var _ mark.Repository = (*markRepository)(nil) // interface compliance check

func NewMarkRepository(db *DB) mark.Repository {
	return &markRepository{db: db.mark, students: db.student}
}

func (repo *markRepository) query() []mark.Mark {
	ids := make([]int, 0, len(repo.db.table))
	for id := range repo.db.table {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	marks := make([]mark.Mark, 0, len(ids))
	for _, id := range ids {
		marks = append(marks, *repo.db.table[id])
	}
	return marks
}

func (repo *markRepository) CheckEntryUniqueness(ctx context.Context, studentID, subjectID int, examType string) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, m := range repo.query() {
		if m.StudentID == studentID && m.SubjectID == subjectID && strings.EqualFold(m.ExamType, examType) {
			return mark.ErrDuplicateEntry
		}
	}
	return nil
}

func (repo *markRepository) CreateMark(ctx context.Context, m mark.Mark) (mark.Mark, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	// unique constraint backstop, as the real store enforces
	for _, existing := range repo.db.table {
		if existing.StudentID == m.StudentID && existing.SubjectID == m.SubjectID &&
			strings.EqualFold(existing.ExamType, m.ExamType) {
			return mark.Mark{}, mark.ErrDuplicateEntry
		}
	}

	repo.db.pkCount++
	m.ID = repo.db.pkCount
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *markRepository) GetMarkByID(ctx context.Context, id int) (mark.Mark, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if m, ok := repo.db.table[id]; ok {
		return *m, nil
	}
	return mark.Mark{}, mark.ErrNotFound
}

func (repo *markRepository) FilterMarks(ctx context.Context, filter mark.QueryFilter) ([]mark.Mark, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var classIDs map[int]bool
	if filter.Class != "" {
		classIDs = make(map[int]bool)
		repo.students.RLock()
		for id, std := range repo.students.table {
			if strings.EqualFold(std.Class, filter.Class) {
				classIDs[id] = true
			}
		}
		repo.students.RUnlock()
	}

	var studentIDs map[int]bool
	if filter.StudentIDs != nil {
		studentIDs = make(map[int]bool, len(filter.StudentIDs))
		for _, id := range filter.StudentIDs {
			studentIDs[id] = true
		}
	}

	marks := repo.query()
	filtered := make([]mark.Mark, 0, len(marks))
	for _, m := range marks {
		if filter.StudentID != 0 && m.StudentID != filter.StudentID {
			continue
		}
		if studentIDs != nil && !studentIDs[m.StudentID] {
			continue
		}
		if filter.SubjectID != 0 && m.SubjectID != filter.SubjectID {
			continue
		}
		if filter.ExamType != "" && !strings.EqualFold(m.ExamType, filter.ExamType) {
			continue
		}
		if filter.Class != "" && !classIDs[m.StudentID] {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(string(m.Status), filter.Status) {
			continue
		}
		filtered = append(filtered, m)
	}
	return filtered, nil
}

func (repo *markRepository) UpdateMark(ctx context.Context, m mark.Mark) (mark.Mark, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[m.ID]
	if !ok {
		return mark.Mark{}, mark.ErrNotFound
	}
	m.CreatedAt = orig.CreatedAt
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *markRepository) DeleteMarksByID(ctx context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
