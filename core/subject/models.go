package subject

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mwalimu/alama/core"
)

// Subject carries the per-subject marking policy: MaxMarks bounds valid
// entries, PassMarks is the Pass/Fail cutoff.
type Subject struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	MaxMarks  int       `json:"max_marks"`
	PassMarks int       `json:"pass_marks"`
	TeacherID int       `json:"teacher_id,omitempty"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// NewSubject contains information needed to create a new Subject.
type NewSubject struct {
	Name      string `json:"name" validate:"required"`
	Code      string `json:"code" validate:"required,alphanum_"`
	MaxMarks  int    `json:"max_marks" validate:"gt=0"`
	PassMarks int    `json:"pass_marks" validate:"gte=0"`
	TeacherID int    `json:"teacher_id"`
}

func (ns *NewSubject) Validate(svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Code = core.CleanString(ns.Code, true /* lower */)
	if ns.MaxMarks == 0 {
		ns.MaxMarks = 100
	}

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(ns.Code)
}

// UpdateSubject defines what information may be provided to modify a Subject.
type UpdateSubject struct {
	Name      string `json:"name"`
	Code      string `json:"code" validate:"omitempty,alphanum_"`
	MaxMarks  *int   `json:"max_marks" validate:"omitempty,gt=0"`
	PassMarks *int   `json:"pass_marks" validate:"omitempty,gte=0"`
	TeacherID *int   `json:"teacher_id"`
}

func (us *UpdateSubject) Validate(orig Subject, svc Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if code := core.CleanString(us.Code, true); code != "" {
		us.Code = code
	} else {
		us.Code = orig.Code
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}

	effMax, effPass := orig.MaxMarks, orig.PassMarks
	if us.MaxMarks != nil {
		effMax = *us.MaxMarks
	}
	if us.PassMarks != nil {
		effPass = *us.PassMarks
	}
	if effPass > effMax {
		return core.NewValidationError(nil, core.FieldError{Field: "pass_marks", Error: passBelowMaxText})
	}
	return svc.CheckCodeUniqueness(us.Code, orig)
}

func init() {
	// passMarks may never exceed maxMarks
	core.Validate.RegisterStructValidation(policyStructValidation, NewSubject{})
	core.RegisterCustomTranslation(passBelowMaxTag, passBelowMaxText)
}

var (
	passBelowMaxTag  = "passbelowmax"
	passBelowMaxText = "pass marks cannot exceed max marks"
)

func policyStructValidation(sl validator.StructLevel) {
	ns := sl.Current().Interface().(NewSubject)
	if ns.PassMarks > ns.MaxMarks {
		sl.ReportError(ns.PassMarks, "pass_marks", "PassMarks", passBelowMaxTag, "")
	}
}
