package subject

import (
	"context"
	"errors"
	"time"

	"github.com/mwalimu/alama/core"
)

var (
	// errors
	ErrNotFound   = errors.New("subject not found")
	ErrCodeExists = errors.New("a subject with this code already exists")
)

type (
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excluded ...Subject) error
		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubjectByID(ctx context.Context, id int) (Subject, error)
		GetSubjectByCode(ctx context.Context, code string) (Subject, error)
		QueryAllSubjects(ctx context.Context) ([]Subject, error)
		UpdateSubject(ctx context.Context, sub Subject) (Subject, error)
		DeleteSubjectsByID(ctx context.Context, ids ...int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return Service{repo: repo}
}

func (svc Service) CheckCodeUniqueness(code string, excluded ...Subject) error {
	if err := svc.repo.CheckCodeUniqueness(context.Background(), code, excluded...); err != nil {
		if err == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc Service) Create(ctx context.Context, ns NewSubject) (Subject, error) {
	now := time.Now().UTC()
	sub := Subject{
		Name:      ns.Name,
		Code:      ns.Code,
		MaxMarks:  ns.MaxMarks,
		PassMarks: ns.PassMarks,
		TeacherID: ns.TeacherID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateSubject(ctx, sub)
}

func (svc Service) GetByID(ctx context.Context, id int) (Subject, error) {
	return svc.repo.GetSubjectByID(ctx, id)
}

func (svc Service) GetByCode(ctx context.Context, code string) (Subject, error) {
	return svc.repo.GetSubjectByCode(ctx, core.CleanString(code, true /* lower */))
}

func (svc Service) QueryAll(ctx context.Context) ([]Subject, error) {
	return svc.repo.QueryAllSubjects(ctx)
}

func (svc Service) Update(ctx context.Context, orig Subject, us UpdateSubject) (Subject, error) {
	sub := Subject{
		ID:        orig.ID,
		Name:      us.Name,
		Code:      us.Code,
		MaxMarks:  orig.MaxMarks,
		PassMarks: orig.PassMarks,
		TeacherID: orig.TeacherID,
		UpdatedAt: time.Now().UTC(),
	}
	if us.MaxMarks != nil {
		sub.MaxMarks = *us.MaxMarks
	}
	if us.PassMarks != nil {
		sub.PassMarks = *us.PassMarks
	}
	if us.TeacherID != nil {
		sub.TeacherID = *us.TeacherID
	}
	return svc.repo.UpdateSubject(ctx, sub)
}

func (svc Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteSubjectsByID(ctx, ids...)
}
