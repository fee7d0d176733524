// Package docs registers the Swagger document served on /swagger/*.
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
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Login credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.logoutResponse"}}
                }
            }
        },
        "/auth/check": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Session status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.checkResponse"}}
                }
            }
        },
        "/auth/guest/generate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["guest"],
                "summary": "Generate a guest token",
                "parameters": [
                    {"description": "Target room", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.generateGuestRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.generateGuestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/auth/guest/validate": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["guest"],
                "summary": "Validate a guest token",
                "parameters": [
                    {"description": "Guest token", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.validateGuestRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.validateGuestResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/rooms/{room_id}/access": {
            "get": {
                "produces": ["application/json"],
                "tags": ["rooms"],
                "summary": "Check room access",
                "parameters": [
                    {"type": "string", "description": "Room ID", "name": "room_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.roomAccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.errorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/api.errorResponse"}}
                }
            }
        },
        "/ws/rooms/{room_id}": {
            "get": {
                "tags": ["rooms"],
                "summary": "Join a room over WebSocket",
                "parameters": [
                    {"type": "string", "description": "Room ID", "name": "room_id", "in": "path", "required": true},
                    {"type": "string", "description": "Guest token", "name": "guest_token", "in": "query"}
                ],
                "responses": {
                    "101": {"description": "Switching Protocols"}
                }
            }
        }
    },
    "definitions": {
        "api.errorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "handler.loginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {"authenticated": {"type": "boolean"}, "username": {"type": "string"}}
        },
        "handler.logoutResponse": {
            "type": "object",
            "properties": {"logged_out": {"type": "boolean"}}
        },
        "handler.checkResponse": {
            "type": "object",
            "properties": {"authenticated": {"type": "boolean"}, "is_guest": {"type": "boolean"}}
        },
        "handler.generateGuestRequest": {
            "type": "object",
            "properties": {"room_id": {"type": "string"}}
        },
        "handler.generateGuestResponse": {
            "type": "object",
            "properties": {"guest_token": {"type": "string"}}
        },
        "handler.validateGuestRequest": {
            "type": "object",
            "required": ["token"],
            "properties": {"token": {"type": "string"}}
        },
        "handler.validateGuestResponse": {
            "type": "object",
            "properties": {"validated": {"type": "boolean"}, "is_guest": {"type": "boolean"}, "room_id": {"type": "string"}}
        },
        "handler.roomAccessResponse": {
            "type": "object",
            "properties": {"room_id": {"type": "string"}, "allowed": {"type": "boolean"}, "is_guest": {"type": "boolean"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Room Access API",
	Description:      "Session login, guest tokens and room admission for video rooms.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
