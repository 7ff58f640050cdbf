package dto

// UpsertAssessmentRequest records or replaces a score.
type UpsertAssessmentRequest struct {
	StudentID    string   `json:"studentId" validate:"required"`
	SubjectID    string   `json:"subjectId" validate:"required"`
	Term         int      `json:"term" validate:"required,min=1,max=3"`
	Number       int      `json:"number" validate:"required,min=1,max=5"`
	Score        *float64 `json:"score" validate:"required"`
	AcademicYear string   `json:"academicYear" validate:"omitempty,max=16"`
}

// MoveStudentRequest moves a student to another class.
type MoveStudentRequest struct {
	ClassID string `json:"classId" validate:"required"`
}

// StudentCodeRequest asks for the next student code of a department.
type StudentCodeRequest struct {
	DepartmentCode string `json:"departmentCode" validate:"required,alphanum,max=8"`
	Specialty      string `json:"specialty" validate:"omitempty,max=32"`
}

// StudentCodeResponse carries an allocated student code.
type StudentCodeResponse struct {
	Code string `json:"code"`
}
