package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Trialworks Adherence API",
        "description": "Adherence reporting and scheduling for study participants",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Staff authentication"},
        {"name": "Adherence", "description": "Participant adherence reports"},
        {"name": "Schedule", "description": "Resolved participant schedules"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate a staff account",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/studies/{studyId}/participants/{userId}/adherence/eventstream": {
            "get": {
                "tags": ["Adherence"],
                "summary": "Full-history adherence report",
                "parameters": [
                    {"name": "studyId", "in": "path", "required": true, "type": "string"},
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "tz", "in": "query", "type": "string", "description": "IANA time zone"},
                    {"name": "activeOnly", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Event stream report"},
                    "404": {"description": "Study timeline not found"}
                }
            }
        },
        "/studies/{studyId}/participants/{userId}/adherence/weekly": {
            "get": {
                "tags": ["Adherence"],
                "summary": "Current-week adherence report",
                "parameters": [
                    {"name": "studyId", "in": "path", "required": true, "type": "string"},
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "tz", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Weekly report"}
                }
            }
        },
        "/studies/{studyId}/participants/{userId}/adherence": {
            "post": {
                "tags": ["Adherence"],
                "summary": "Replace an adherence record",
                "parameters": [
                    {"name": "studyId", "in": "path", "required": true, "type": "string"},
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpsertAdherenceRequest"}}
                ],
                "responses": {
                    "200": {"description": "Record accepted"},
                    "400": {"description": "Invalid payload"}
                }
            }
        },
        "/studies/{studyId}/participants/{userId}/events": {
            "post": {
                "tags": ["Adherence"],
                "summary": "Record an activity event",
                "parameters": [
                    {"name": "studyId", "in": "path", "required": true, "type": "string"},
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RecordEventRequest"}}
                ],
                "responses": {
                    "201": {"description": "Event recorded"}
                }
            }
        },
        "/studies/{studyId}/participants/{userId}/schedule": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Resolved participant schedule",
                "parameters": [
                    {"name": "studyId", "in": "path", "required": true, "type": "string"},
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "tz", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Resolved schedule"}
                }
            }
        },
        "/studies/{studyId}/participants/{userId}/schedule/export": {
            "get": {
                "tags": ["Schedule"],
                "summary": "Export the resolved schedule",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "studyId", "in": "path", "required": true, "type": "string"},
                    {"name": "userId", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Schedule attachment"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "UpsertAdherenceRequest": {
            "type": "object",
            "required": ["sessionInstanceGuid"],
            "properties": {
                "sessionInstanceGuid": {"type": "string"},
                "startedOn": {"type": "string", "format": "date-time"},
                "finishedOn": {"type": "string", "format": "date-time"},
                "declined": {"type": "boolean"},
                "clientTimeZone": {"type": "string"}
            }
        },
        "RecordEventRequest": {
            "type": "object",
            "required": ["eventId", "timestamp"],
            "properties": {
                "eventId": {"type": "string"},
                "timestamp": {"type": "string", "format": "date-time"}
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
