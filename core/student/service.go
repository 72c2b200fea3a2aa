package student

import (
	"context"
	"errors"
	"time"

	"github.com/mwalimu/alama/core"
)

var (
	// errors
	ErrNotFound     = errors.New("student not found")
	ErrRollNoExists = errors.New("a student with this roll number already exists")
)

type (
	Repository interface {
		CheckRollNoUniqueness(ctx context.Context, rollNo string, excluded ...Student) error
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id int) (Student, error)
		GetStudentByRollNo(ctx context.Context, rollNo string) (Student, error)
		// FilterStudents applies AND on available QueryFilter fields.
		FilterStudents(ctx context.Context, filter QueryFilter) ([]Student, error)
		UpdateStudent(ctx context.Context, std Student) (Student, error)
		DeleteStudentsByID(ctx context.Context, ids ...int) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) Service {
	return Service{repo: repo}
}

func (svc Service) CheckRollNoUniqueness(rollNo string, excluded ...Student) error {
	if err := svc.repo.CheckRollNoUniqueness(context.Background(), rollNo, excluded...); err != nil {
		if err == ErrRollNoExists {
			return core.NewValidationError(err, core.FieldError{Field: "roll_no", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	now := time.Now().UTC()
	std := Student{
		Name:        ns.Name,
		RollNo:      ns.RollNo,
		Class:       ns.Class,
		Section:     ns.Section,
		ParentName:  ns.ParentName,
		ParentEmail: ns.ParentEmail,
		ParentPhone: ns.ParentPhone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateStudent(ctx, std)
}

func (svc Service) GetByID(ctx context.Context, id int) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc Service) GetByRollNo(ctx context.Context, rollNo string) (Student, error) {
	return svc.repo.GetStudentByRollNo(ctx, core.CleanString(rollNo, true /* lower */))
}

func (svc Service) Filter(ctx context.Context, filter QueryFilter) ([]Student, error) {
	return svc.repo.FilterStudents(ctx, filter)
}

func (svc Service) Update(ctx context.Context, id int, us UpdateStudent) (Student, error) {
	std := Student{
		ID:          id,
		Name:        us.Name,
		RollNo:      us.RollNo,
		Class:       us.Class,
		Section:     us.Section,
		ParentName:  us.ParentName,
		ParentEmail: us.ParentEmail,
		ParentPhone: us.ParentPhone,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateStudent(ctx, std)
}

func (svc Service) Delete(ctx context.Context, ids ...int) error {
	return svc.repo.DeleteStudentsByID(ctx, ids...)
}
