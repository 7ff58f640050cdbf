package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Report API",
        "description": "Term and yearly academic report aggregation",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Reports", "description": "Ranked term and yearly reports"},
        {"name": "Assessments", "description": "Score entry"},
        {"name": "Grading", "description": "Grade scales and previews"},
        {"name": "Students", "description": "Class membership and student codes"}
    ],
    "paths": {
        "/reports/students/{id}/terms/{term}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student term report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "path", "required": true, "type": "integer", "enum": [1, 2, 3]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TermReportEnvelope"}},
                    "400": {"description": "Invalid term", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/students/{id}/terms": {
            "get": {
                "tags": ["Reports"],
                "summary": "Terms with recorded assessments",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK; data.terms lists the terms in ascending order", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/classes/{id}/roll/{roll}/terms/{term}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student term report by roll number",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "roll", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "path", "required": true, "type": "integer", "enum": [1, 2, 3]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/TermReportEnvelope"}},
                    "400": {"description": "Invalid term or roll number", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class or roll number not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/classes/{id}/roll/{roll}/yearly": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student yearly report by roll number",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "roll", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/YearlyReportEnvelope"}},
                    "404": {"description": "Class or roll number not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/students/{id}/yearly": {
            "get": {
                "tags": ["Reports"],
                "summary": "Student yearly report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/YearlyReportEnvelope"}},
                    "404": {"description": "Student or class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/classes/{id}/terms/{term}": {
            "get": {
                "tags": ["Reports"],
                "summary": "Ranked class term report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "path", "required": true, "type": "integer", "enum": [1, 2, 3]}
                ],
                "responses": {
                    "200": {"description": "OK; meta.summary holds the class summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Invalid term", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Report generation timed out", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/classes/{id}/terms/{term}/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a class term report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "term", "in": "path", "required": true, "type": "integer", "enum": [1, 2, 3]},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "400": {"description": "Invalid term or format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/classes/{id}/yearly": {
            "get": {
                "tags": ["Reports"],
                "summary": "Ranked class yearly report",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK; meta.summary holds the class summary", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/classes/{id}/yearly/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download a class yearly report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}}
                }
            }
        },
        "/grading/preview": {
            "get": {
                "tags": ["Grading"],
                "summary": "Provisional grade for a score",
                "parameters": [
                    {"name": "score", "in": "query", "required": true, "type": "number"},
                    {"name": "tier", "in": "query", "type": "string", "enum": ["ORDINARY", "ADVANCED"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Score outside 0-20 or unknown tier", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/assessments": {
            "post": {
                "tags": ["Assessments"],
                "summary": "Record an assessment score",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertAssessmentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or subject not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/class": {
            "put": {
                "tags": ["Students"],
                "summary": "Move a student to another class",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/MoveStudentRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student or class not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/codes": {
            "post": {
                "tags": ["Students"],
                "summary": "Allocate the next student code",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentCodeRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "UpsertAssessmentRequest": {
            "type": "object",
            "required": ["studentId", "subjectId", "term", "number", "score"],
            "properties": {
                "studentId": {"type": "string"},
                "subjectId": {"type": "string"},
                "term": {"type": "integer", "minimum": 1, "maximum": 3},
                "number": {"type": "integer", "minimum": 1, "maximum": 5},
                "score": {"type": "number", "minimum": 0, "maximum": 20},
                "academicYear": {"type": "string"}
            }
        },
        "MoveStudentRequest": {
            "type": "object",
            "required": ["classId"],
            "properties": {
                "classId": {"type": "string"}
            }
        },
        "StudentCodeRequest": {
            "type": "object",
            "required": ["departmentCode"],
            "properties": {
                "departmentCode": {"type": "string"},
                "specialty": {"type": "string"}
            }
        },
        "StudentSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "code": {"type": "string"},
                "roll_number": {"type": "string"},
                "name": {"type": "string"}
            }
        },
        "SubjectReport": {
            "type": "object",
            "properties": {
                "subjectId": {"type": "string"},
                "subjectName": {"type": "string"},
                "coefficient": {"type": "integer"},
                "assessment1": {"type": "number"},
                "assessment2": {"type": "number"},
                "exam": {"type": "number"},
                "average": {"type": "number"},
                "grade": {"type": "string"},
                "passed": {"type": "boolean"}
            }
        },
        "TermReport": {
            "type": "object",
            "properties": {
                "student": {"$ref": "#/definitions/StudentSummary"},
                "classId": {"type": "string"},
                "className": {"type": "string"},
                "tier": {"type": "string", "enum": ["ORDINARY", "ADVANCED"]},
                "term": {"type": "integer"},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/SubjectReport"}},
                "average": {"type": "number"},
                "formattedAverage": {"type": "string"},
                "grade": {"type": "string"},
                "rank": {"type": "integer"},
                "classSize": {"type": "integer"},
                "passed": {"type": "boolean"},
                "remarks": {"type": "string"},
                "hasData": {"type": "boolean"},
                "warnings": {"type": "array", "items": {"type": "string"}}
            }
        },
        "YearlyReport": {
            "type": "object",
            "properties": {
                "student": {"$ref": "#/definitions/StudentSummary"},
                "classId": {"type": "string"},
                "average": {"type": "number"},
                "grade": {"type": "string"},
                "rank": {"type": "integer"},
                "classSize": {"type": "integer"},
                "passed": {"type": "boolean"},
                "passRate": {"type": "number"},
                "remarks": {"type": "string"},
                "hasData": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        },
        "TermReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/TermReport"},
                "meta": {"type": "object"}
            }
        },
        "YearlyReportEnvelope": {
            "type": "object",
            "properties": {
                "data": {"$ref": "#/definitions/YearlyReport"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
