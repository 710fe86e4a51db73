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
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Login", "consumes": ["application/json"], "produces": ["application/json"],
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}},
        "/auth/logout": {"post": {"tags": ["auth"], "summary": "Logout", "responses": {"204": {"description": "No Content"}}}},
        "/auth/me": {"get": {"tags": ["auth"], "summary": "Current user", "produces": ["application/json"],
            "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.userResponse"}}, "401": {"description": "Unauthorized"}}}},
        "/admin/users": {
            "get": {"tags": ["admin"], "summary": "List accounts", "produces": ["application/json"], "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}}},
            "post": {"tags": ["admin"], "summary": "Create account", "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.createUserRequest"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/admin/users/{username}": {
            "patch": {"tags": ["admin"], "summary": "Update account", "consumes": ["application/json"],
                "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}, {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateUserRequest"}}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}},
            "delete": {"tags": ["admin"], "summary": "Delete account",
                "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}],
                "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}
        },
        "/admin/users/{username}/promote": {"post": {"tags": ["admin"], "summary": "Promote to admin",
            "parameters": [{"in": "path", "name": "username", "type": "string", "required": true}],
            "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}, "409": {"description": "Conflict"}}}},
        "/admin/2fa/status": {"get": {"tags": ["2fa"], "summary": "2FA status", "responses": {"200": {"description": "OK"}}}},
        "/admin/2fa/setup": {"post": {"tags": ["2fa"], "summary": "Begin 2FA setup", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}}},
        "/admin/2fa/verify": {"post": {"tags": ["2fa"], "summary": "Confirm 2FA setup",
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.otpRequest"}}],
            "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}},
        "/admin/2fa/cancel": {"post": {"tags": ["2fa"], "summary": "Cancel 2FA setup", "responses": {"204": {"description": "No Content"}}}},
        "/admin/2fa/disable": {"post": {"tags": ["2fa"], "summary": "Disable 2FA",
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.disableRequest"}}],
            "responses": {"204": {"description": "No Content"}, "400": {"description": "Bad Request"}, "401": {"description": "Unauthorized"}}}},
        "/admin/2fa/reset": {"post": {"tags": ["2fa"], "summary": "Reset 2FA for a user",
            "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handler.resetRequest"}}],
            "responses": {"204": {"description": "No Content"}, "403": {"description": "Forbidden"}, "404": {"description": "Not Found"}}}},
        "/admin/audit": {"get": {"tags": ["audit"], "summary": "Query audit log", "produces": ["application/json"],
            "parameters": [
                {"in": "query", "name": "type", "type": "string"}, {"in": "query", "name": "limit", "type": "integer"},
                {"in": "query", "name": "scanLimit", "type": "integer"}, {"in": "query", "name": "username", "type": "string"},
                {"in": "query", "name": "action", "type": "string"}, {"in": "query", "name": "from", "type": "string"},
                {"in": "query", "name": "to", "type": "string"}, {"in": "query", "name": "before", "type": "string"}],
            "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}},
        "/admin/notifications": {"get": {"tags": ["audit"], "summary": "Poll notifications", "produces": ["application/json"],
            "parameters": [{"in": "query", "name": "since", "type": "string"}, {"in": "query", "name": "limit", "type": "integer"}],
            "responses": {"200": {"description": "OK"}}}},
        "/admin/notifications/ws": {"get": {"tags": ["audit"], "summary": "Live notifications", "responses": {"101": {"description": "Switching Protocols"}, "401": {"description": "Unauthorized"}, "403": {"description": "Forbidden"}}}}
    },
    "definitions": {
        "handler.loginRequest": {"type": "object", "properties": {"username": {"type": "string"}, "password": {"type": "string"}, "otp": {"type": "string"}}},
        "handler.userResponse": {"type": "object", "properties": {"user": {"type": "object", "properties": {"username": {"type": "string"}, "role": {"type": "string"}, "mfaVerified": {"type": "boolean"}}}}},
        "handler.createUserRequest": {"type": "object", "required": ["username", "password"], "properties": {"username": {"type": "string"}, "password": {"type": "string"}, "role": {"type": "string", "enum": ["user", "admin"]}}},
        "handler.updateUserRequest": {"type": "object", "properties": {"password": {"type": "string"}, "isActive": {"type": "boolean"}}},
        "handler.otpRequest": {"type": "object", "properties": {"otp": {"type": "string"}}},
        "handler.disableRequest": {"type": "object", "required": ["password", "otp"], "properties": {"password": {"type": "string"}, "otp": {"type": "string"}}},
        "handler.resetRequest": {"type": "object", "required": ["username"], "properties": {"username": {"type": "string"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Ibadah Tracker API",
	Description:      "Authentication, admin console and audit endpoints.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
