package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "VTC Gradebook API",
        "description": "Continuous assessment gradebooks for vocational training centres.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http", "https"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Gradebooks", "description": "Gradebook lifecycle and CA results"},
        {"name": "Components", "description": "Assessment components and groups"},
        {"name": "Marks", "description": "Mark and feedback entry"},
        {"name": "Roster", "description": "Gradebook trainee enrolment"},
        {"name": "Mark Queries", "description": "Trainee mark disputes"},
        {"name": "Exports", "description": "Assessor sheets"},
        {"name": "Ops", "description": "Health and metrics"}
    ],
    "paths": {
        "/gradebooks": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "List gradebooks",
                "parameters": [
                    {"name": "qualification_id", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["draft", "submitted", "hot_approved", "ac_approved"]},
                    {"name": "academic_year", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Gradebooks"],
                "summary": "Create gradebook",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateGradebookRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "Get gradebook with permissions",
                "parameters": [{"$ref": "#/parameters/GradebookID"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/weights": {
            "patch": {
                "tags": ["Gradebooks"],
                "summary": "Update theory weights",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UpdateWeightsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Gradebook is read-only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/sheet": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "Full CA sheet",
                "parameters": [{"$ref": "#/parameters/GradebookID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/trainees/{traineeId}/ca": {
            "get": {
                "tags": ["Gradebooks"],
                "summary": "CA result for one trainee",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "traineeId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/transitions/{transition}": {
            "post": {
                "tags": ["Gradebooks"],
                "summary": "Apply a lifecycle transition",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "transition", "in": "path", "required": true, "type": "string", "enum": ["submit", "hot_approve", "return_to_draft", "ac_approve", "return_to_submitted"]},
                    {"name": "payload", "in": "body", "schema": {"$ref": "#/definitions/TransitionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Role may not apply this transition", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Invalid state or concurrent change", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/components": {
            "get": {
                "tags": ["Components"],
                "summary": "List components",
                "parameters": [{"$ref": "#/parameters/GradebookID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Components"],
                "summary": "Add component",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateComponentRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/components/{componentId}": {
            "delete": {
                "tags": ["Components"],
                "summary": "Delete component",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "componentId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "423": {"description": "Gradebook structure is locked", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/groups": {
            "get": {
                "tags": ["Components"],
                "summary": "List component groups",
                "parameters": [{"$ref": "#/parameters/GradebookID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Components"],
                "summary": "Create component group",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateGroupRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/trainees": {
            "get": {
                "tags": ["Roster"],
                "summary": "List enrolled trainees",
                "parameters": [{"$ref": "#/parameters/GradebookID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Roster"],
                "summary": "Enroll trainees manually",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EnrollTraineesRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/trainees/reconcile": {
            "post": {
                "tags": ["Roster"],
                "summary": "Populate an empty roster from the trainee registry",
                "parameters": [{"$ref": "#/parameters/GradebookID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/marks": {
            "get": {
                "tags": ["Marks"],
                "summary": "List marks",
                "parameters": [{"$ref": "#/parameters/GradebookID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Marks"],
                "summary": "Save one mark entry",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveEntryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Gradebook is read-only", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "put": {
                "tags": ["Marks"],
                "summary": "Save staged edits",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkSaveRequest"}}
                ],
                "responses": {
                    "200": {"description": "All cells committed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "207": {"description": "Some cells failed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/feedback": {
            "get": {
                "tags": ["Marks"],
                "summary": "List feedback",
                "parameters": [{"$ref": "#/parameters/GradebookID"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Marks"],
                "summary": "Save feedback",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveFeedbackRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/gradebooks/{id}/assessor-sheet": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the assessor sheet",
                "produces": ["text/csv", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "xlsx"], "default": "csv"}
                ],
                "responses": {
                    "200": {"description": "File", "schema": {"type": "file"}},
                    "409": {"description": "Gradebook not HoT approved", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/gradebooks/{id}/queries": {
            "get": {
                "tags": ["Mark Queries"],
                "summary": "List mark queries",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "status", "in": "query", "type": "string", "enum": ["open", "resolved", "rejected"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Mark Queries"],
                "summary": "Raise a mark query",
                "parameters": [
                    {"$ref": "#/parameters/GradebookID"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RaiseQueryRequest"}}
                ],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/queries/{queryId}/resolve": {
            "post": {
                "tags": ["Mark Queries"],
                "summary": "Resolve or reject a mark query",
                "parameters": [
                    {"name": "queryId", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ResolveQueryRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Query already closed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "parameters": {
        "GradebookID": {"name": "id", "in": "path", "required": true, "type": "string"}
    },
    "definitions": {
        "CreateGradebookRequest": {
            "type": "object",
            "required": ["qualification_id", "academic_year", "title"],
            "properties": {
                "qualification_id": {"type": "string"},
                "level": {"type": "string"},
                "academic_year": {"type": "string"},
                "title": {"type": "string"},
                "test_weight": {"type": "number"},
                "mock_weight": {"type": "number"},
                "intake_label": {"type": "string"}
            }
        },
        "UpdateWeightsRequest": {
            "type": "object",
            "properties": {
                "test_weight": {"type": "number", "minimum": 0},
                "mock_weight": {"type": "number", "minimum": 0}
            }
        },
        "TransitionRequest": {
            "type": "object",
            "properties": {"note": {"type": "string"}}
        },
        "CreateComponentRequest": {
            "type": "object",
            "required": ["name", "component_type", "max_marks"],
            "properties": {
                "name": {"type": "string"},
                "component_type": {"type": "string", "enum": ["test", "mock", "practical", "assignment", "project"]},
                "max_marks": {"type": "number"},
                "group_id": {"type": "string"},
                "template_component_id": {"type": "string"}
            }
        },
        "CreateGroupRequest": {
            "type": "object",
            "required": ["name", "group_type"],
            "properties": {
                "name": {"type": "string"},
                "group_type": {"type": "string", "enum": ["theory", "practical"]}
            }
        },
        "EnrollTraineesRequest": {
            "type": "object",
            "required": ["trainee_ids"],
            "properties": {"trainee_ids": {"type": "array", "items": {"type": "string"}}}
        },
        "FeedbackInput": {
            "type": "object",
            "properties": {
                "text": {"type": "string"},
                "is_final": {"type": "boolean"}
            }
        },
        "SaveEntryRequest": {
            "type": "object",
            "required": ["component_id", "trainee_id"],
            "properties": {
                "component_id": {"type": "string"},
                "trainee_id": {"type": "string"},
                "marks_obtained": {"type": "number"},
                "competency_status": {"type": "string", "enum": ["pending", "competent", "not_yet_competent"]},
                "feedback": {"$ref": "#/definitions/FeedbackInput"}
            }
        },
        "BulkSaveRequest": {
            "type": "object",
            "required": ["entries"],
            "properties": {"entries": {"type": "array", "items": {"$ref": "#/definitions/SaveEntryRequest"}}}
        },
        "SaveFeedbackRequest": {
            "type": "object",
            "required": ["component_id", "trainee_id"],
            "properties": {
                "component_id": {"type": "string"},
                "trainee_id": {"type": "string"},
                "text": {"type": "string"},
                "is_final": {"type": "boolean"}
            }
        },
        "RaiseQueryRequest": {
            "type": "object",
            "required": ["component_id", "trainee_id", "query_type", "subject"],
            "properties": {
                "component_id": {"type": "string"},
                "trainee_id": {"type": "string"},
                "query_type": {"type": "string", "enum": ["incorrect_mark", "missing_mark", "remark_request", "other"]},
                "subject": {"type": "string"},
                "description": {"type": "string"}
            }
        },
        "ResolveQueryRequest": {
            "type": "object",
            "required": ["outcome", "notes"],
            "properties": {
                "outcome": {"type": "string", "enum": ["resolved", "rejected"]},
                "notes": {"type": "string"}
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
