package models

import (
	"strings"
	"time"
)

// Student represents a learner registered in a class.
type Student struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	RollNumber     string    `db:"roll_number" json:"roll_number"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	ClassID        string    `db:"class_id" json:"class_id"`
	DepartmentCode string    `db:"department_code" json:"department_code"`
	Specialty      string    `db:"specialty" json:"specialty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudentRef is the lightweight identity carried by report DTOs.
type StudentRef struct {
	ID         string `json:"id"`
	Code       string `json:"code,omitempty"`
	RollNumber string `json:"roll_number,omitempty"`
	Name       string `json:"name"`
}

// StudentRecord is implemented by the student representations accepted by
// renderers and exporters. The set is closed to this package.
type StudentRecord interface {
	StudentID() string
	studentRecord()
}

func (s Student) StudentID() string { return s.ID }
func (Student) studentRecord() {}

func (r StudentRef) StudentID() string { return r.ID }
func (StudentRef) studentRecord() {}

// Ref converts a student into the identity used by reports.
func (s Student) Ref() StudentRef {
	return StudentRef{ID: s.ID, Code: s.Code, RollNumber: s.RollNumber, Name: DisplayName(s)}
}

// DisplayName returns the printable name of a student record, falling back
// to the student code and then the ID.
func DisplayName(r StudentRecord) string {
	var name, code string
	switch v := r.(type) {
	case Student:
		name = strings.TrimSpace(v.FirstName + " " + v.LastName)
		code = v.Code
	case *Student:
		if v == nil {
			return ""
		}
		return DisplayName(*v)
	case StudentRef:
		name, code = strings.TrimSpace(v.Name), v.Code
	case *StudentRef:
		if v == nil {
			return ""
		}
		return DisplayName(*v)
	case nil:
		return ""
	}
	switch {
	case name != "":
		return name
	case code != "":
		return code
	default:
		return r.StudentID()
	}
}
