// Package docs registers the OpenAPI description served under /swagger/.
// Regenerate with: swag init -g cmd/server/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/registration": {
            "post": {
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["registration"],
                "summary": "Register for an event",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/controllers.RegisterResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/helpers.PublicError"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/helpers.PublicError"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/helpers.PublicError"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/helpers.PublicError"}}
                }
            }
        },
        "/registration-details": {
            "get": {
                "produces": ["application/json"],
                "tags": ["registration"],
                "summary": "Look up a registration by email or registration token",
                "parameters": [
                    {"type": "string", "name": "eventId", "in": "query", "required": true},
                    {"type": "string", "name": "email", "in": "query"},
                    {"type": "string", "name": "token", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/helpers.PublicError"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/helpers.PublicError"}}
                }
            }
        },
        "/events": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "List events",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/events/{eventID}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["events"],
                "summary": "Get an event",
                "parameters": [{"type": "string", "name": "eventID", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/files/{filename}": {
            "get": {
                "tags": ["files"],
                "summary": "Download an uploaded identity proof",
                "parameters": [{"type": "string", "name": "filename", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            }
        },
        "/admin/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Exchange administrator credentials for a bearer token",
                "parameters": [{"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/controllers.LoginRequest"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/admin/registrations": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List registrations",
                "parameters": [
                    {"type": "string", "name": "eventId", "in": "query"},
                    {"type": "integer", "name": "page", "in": "query"},
                    {"type": "integer", "name": "page_size", "in": "query"}
                ],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Delete all registrations, optionally for one event",
                "parameters": [{"type": "string", "name": "eventId", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/admin/registrations/export.csv": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv"],
                "tags": ["admin"],
                "summary": "Export registrations as CSV",
                "parameters": [{"type": "string", "name": "eventId", "in": "query"}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/admin/registrations/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Get a registration",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Delete a registration",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/admin/files/{filename}": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["admin"],
                "summary": "Delete an uploaded file",
                "parameters": [{"type": "string", "name": "filename", "in": "path", "required": true}],
                "responses": {"204": {"description": "No Content"}}
            }
        }
    },
    "definitions": {
        "controllers.LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "controllers.RegisterResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "eventName": {"type": "string"},
                "whatsappLink": {"type": "string"},
                "emailSent": {"type": "boolean"},
                "registrationToken": {"type": "string"},
                "alreadyRegistered": {"type": "boolean"},
                "registrationId": {"type": "string"},
                "emailError": {"type": "string"},
                "teamEmailErrors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "helpers.PublicError": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "details": {}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Event Registration API",
	Description:      "Public event registration with identity-proof uploads, plus an authenticated admin API.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
