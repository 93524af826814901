package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LMS Attendance API",
        "description": "Attendance resolution proxy in front of a TalentLMS-style API",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "in": "header", "name": "X-API-Key"},
        "BearerAuth": {"type": "apiKey", "in": "header", "name": "Authorization"}
    },
    "tags": [
        {"name": "Auth", "description": "Admin token issuance"},
        {"name": "Keys", "description": "Caller API key management"},
        {"name": "Attendance", "description": "Attendance resolution and exports"}
    ],
    "paths": {
        "/auth/token": {
            "post": {
                "tags": ["Auth"],
                "summary": "Exchange admin credentials for an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TokenRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/keys": {
            "get": {
                "tags": ["Keys"],
                "security": [{"BearerAuth": []}],
                "summary": "List issued API keys",
                "parameters": [
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Keys"],
                "security": [{"BearerAuth": []}],
                "summary": "Issue a new API key for a customer",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateKeyRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/keys/{id}": {
            "delete": {
                "tags": ["Keys"],
                "security": [{"BearerAuth": []}],
                "summary": "Deactivate an API key",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Unknown key"}
                }
            }
        },
        "/attendance": {
            "get": {
                "tags": ["Attendance"],
                "security": [{"ApiKeyAuth": []}],
                "summary": "Resolve attendance for a student, batch and date",
                "parameters": [
                    {"name": "student_id", "in": "query", "required": true, "type": "string"},
                    {"name": "batch_id", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "description": "YYYY-MM-DD"},
                    {"name": "view", "in": "query", "type": "string", "enum": ["basic", "extended"]},
                    {"name": "subdomain", "in": "query", "type": "string"},
                    {"name": "lms_api_key", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation or upstream failure"},
                    "401": {"description": "Missing or invalid API key"}
                }
            }
        },
        "/attendance/export": {
            "get": {
                "tags": ["Attendance"],
                "security": [{"ApiKeyAuth": []}],
                "summary": "Download an attendance report as CSV or PDF",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "student_id", "in": "query", "required": true, "type": "string"},
                    {"name": "batch_id", "in": "query", "required": true, "type": "string"},
                    {"name": "date", "in": "query", "required": true, "type": "string", "description": "YYYY-MM-DD"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Validation or upstream failure"}
                }
            }
        },
        "/training-units": {
            "get": {
                "tags": ["Attendance"],
                "security": [{"ApiKeyAuth": []}],
                "summary": "List instructor-led training units for a student and batch",
                "parameters": [
                    {"name": "student_id", "in": "query", "required": true, "type": "string"},
                    {"name": "batch_id", "in": "query", "required": true, "type": "string"},
                    {"name": "subdomain", "in": "query", "type": "string"},
                    {"name": "lms_api_key", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "TokenRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "GenerateKeyRequest": {
            "type": "object",
            "properties": {
                "customer_id": {"type": "string"}
            },
            "required": ["customer_id"]
        },
        "AttendanceRecord": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "attendance": {"type": "string", "enum": ["Passed", "Failed"]},
                "session_name": {"type": "string"},
                "session_description": {"type": "string"},
                "in_time": {"type": "string", "x-nullable": true},
                "out_time": {"type": "string", "x-nullable": true},
                "duration_minutes": {"type": "integer"},
                "unit_id": {"type": "string"},
                "unit_name": {"type": "string"},
                "completion_status": {"type": "string"},
                "score": {"type": "number"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
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
                "pagination": {"$ref": "#/definitions/Pagination"},
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
