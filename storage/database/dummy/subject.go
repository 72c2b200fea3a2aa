package dummydb

import (
	"context"
	"sort"

	"github.com/mwalimu/alama/core/subject"
)

type subjectRepository struct {
	db *subjectTable
}

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *DB) subject.Repository {
	return &subjectRepository{db: db.subject}
}

func (repo *subjectRepository) query() []subject.Subject {
	ids := make([]int, 0, len(repo.db.table))
	for id := range repo.db.table {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	subjects := make([]subject.Subject, 0, len(ids))
	for _, id := range ids {
		subjects = append(subjects, *repo.db.table[id])
	}
	return subjects
}

func (repo *subjectRepository) CheckCodeUniqueness(ctx context.Context, code string, excluded ...subject.Subject) error {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sub := range repo.query() {
		if sub.Code != code {
			continue
		}
		var excl bool
		for _, ex := range excluded {
			if ex.ID == sub.ID {
				excl = true
				break
			}
		}
		if !excl {
			return subject.ErrCodeExists
		}
	}
	return nil
}

func (repo *subjectRepository) CreateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.pkCount++
	sub.ID = repo.db.pkCount
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) GetSubjectByID(ctx context.Context, id int) (subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if sub, ok := repo.db.table[id]; ok {
		return *sub, nil
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) GetSubjectByCode(ctx context.Context, code string) (subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, sub := range repo.query() {
		if sub.Code == code {
			return sub, nil
		}
	}
	return subject.Subject{}, subject.ErrNotFound
}

func (repo *subjectRepository) QueryAllSubjects(ctx context.Context) ([]subject.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.query(), nil
}

func (repo *subjectRepository) UpdateSubject(ctx context.Context, sub subject.Subject) (subject.Subject, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.table[sub.ID]
	if !ok {
		return subject.Subject{}, subject.ErrNotFound
	}
	sub.CreatedAt = orig.CreatedAt
	repo.db.table[sub.ID] = &sub
	return sub, nil
}

func (repo *subjectRepository) DeleteSubjectsByID(ctx context.Context, ids ...int) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}
