package student

import (
	"time"

	"github.com/mwalimu/alama/core"
)

// Student holds profile information and the parent/guardian contact used for
// fail alerts and report cards.
type Student struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	RollNo      string    `json:"roll_no"`
	Class       string    `json:"class"`
	Section     string    `json:"section"`
	ParentName  string    `json:"parent_name,omitempty"`
	ParentEmail string    `json:"parent_email,omitempty"`
	ParentPhone string    `json:"parent_phone,omitempty"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// NewStudent contains information needed to register a new Student.
type NewStudent struct {
	Name        string `json:"name" validate:"required"`
	RollNo      string `json:"roll_no" validate:"required,rollno"`
	Class       string `json:"class" validate:"required"`
	Section     string `json:"section"`
	ParentName  string `json:"parent_name"`
	ParentEmail string `json:"parent_email" validate:"omitempty,email"`
	ParentPhone string `json:"parent_phone"`
}

func (ns *NewStudent) Validate(svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.RollNo = core.CleanString(ns.RollNo, true /* lower */)
	ns.Class = core.CleanString(ns.Class)
	ns.Section = core.CleanString(ns.Section)
	if ns.Section == "" {
		ns.Section = "A"
	}
	ns.ParentEmail = core.CleanString(ns.ParentEmail, true /* lower */)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckRollNoUniqueness(ns.RollNo)
}

// UpdateStudent defines what information may be provided to modify a Student.
type UpdateStudent struct {
	Name        string `json:"name"`
	RollNo      string `json:"roll_no" validate:"omitempty,rollno"`
	Class       string `json:"class"`
	Section     string `json:"section"`
	ParentName  string `json:"parent_name"`
	ParentEmail string `json:"parent_email" validate:"omitempty,email"`
	ParentPhone string `json:"parent_phone"`
}

func (us *UpdateStudent) Validate(orig Student, svc Service) error {
	if name := core.CleanString(us.Name); name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}
	if rollNo := core.CleanString(us.RollNo, true); rollNo != "" {
		us.RollNo = rollNo
	} else {
		us.RollNo = orig.RollNo
	}
	if class := core.CleanString(us.Class); class != "" {
		us.Class = class
	} else {
		us.Class = orig.Class
	}
	if section := core.CleanString(us.Section); section != "" {
		us.Section = section
	} else {
		us.Section = orig.Section
	}
	us.ParentEmail = core.CleanString(us.ParentEmail, true)

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckRollNoUniqueness(us.RollNo, orig)
}

// QueryFilter narrows student listings; fields combine with AND.
type QueryFilter struct {
	Class   string `query:"class"`
	Section string `query:"section"`
	Search  string `query:"search"` // case-insensitive match on Name or RollNo

	Ordering []core.DBOrdering `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Class == "" && qf.Section == "" && qf.Search == ""
}

func (qf *QueryFilter) Clean() {
	qf.Class = core.CleanString(qf.Class)
	qf.Section = core.CleanString(qf.Section)
	qf.Search = core.CleanString(qf.Search)
}
