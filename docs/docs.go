// Package docs registers the gateway's OpenAPI document with swag. It is
// maintained by hand alongside the handler annotations.
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
        "/api/admin/users": {
            "get": {
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.ManagedUser"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Create user",
                "parameters": [{"description": "New user", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.NewUser"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Identity"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/admin/users/{id}": {
            "delete": {
                "tags": ["admin"],
                "summary": "Delete user",
                "parameters": [{"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/admin/users/{id}/privileges": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Set user privileges",
                "parameters": [
                    {"type": "integer", "description": "User id", "name": "id", "in": "path", "required": true},
                    {"description": "Granted tabs", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.setPrivilegesRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "403": {"description": "Forbidden", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/password/forgot": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Forgot password",
                "parameters": [{"description": "Username", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.forgotPasswordRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.messageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Current session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Log in",
                "parameters": [{"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.loginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            },
            "delete": {
                "tags": ["session"],
                "summary": "Log out",
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/api/session/access": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Check access",
                "parameters": [{"type": "string", "description": "Dashboard path", "name": "path", "in": "query", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.accessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/session/identity": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Update profile",
                "parameters": [{"description": "Profile fields", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.IdentityPatch"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.identityResponse"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "422": {"description": "Unprocessable Entity", "schema": {"type": "object", "additionalProperties": {"type": "string"}}},
                    "502": {"description": "Bad Gateway", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/api/session/tabs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["session"],
                "summary": "Visible tabs",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Tab"}}},
                    "401": {"description": "Unauthorized", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/login": {
            "get": {
                "produces": ["application/json"],
                "tags": ["views"],
                "summary": "Login view",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.viewResponse"}},
                    "302": {"description": "Found"}
                }
            }
        }
    },
    "definitions": {
        "domain.Identity": {
            "type": "object",
            "properties": {
                "designation": {"type": "string"},
                "email": {"type": "string"},
                "employee_id": {"type": "string"},
                "id": {"type": "integer"},
                "role": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "domain.IdentityPatch": {
            "type": "object",
            "properties": {
                "designation": {"type": "string"},
                "email": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "domain.ManagedUser": {
            "type": "object",
            "properties": {
                "designation": {"type": "string"},
                "email": {"type": "string"},
                "employee_id": {"type": "string"},
                "id": {"type": "integer"},
                "privileges": {"type": "array", "items": {"type": "string"}},
                "role": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "domain.NewUser": {
            "type": "object",
            "required": ["employee_id", "password", "username"],
            "properties": {
                "designation": {"type": "string"},
                "email": {"type": "string"},
                "employee_id": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "domain.Tab": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "path": {"type": "string"}
            }
        },
        "handler.accessResponse": {
            "type": "object",
            "properties": {
                "allowed": {"type": "boolean"},
                "path": {"type": "string"}
            }
        },
        "handler.forgotPasswordRequest": {
            "type": "object",
            "properties": {
                "username": {"type": "string"}
            }
        },
        "handler.identityResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/domain.Identity"}
            }
        },
        "handler.loginRequest": {
            "type": "object",
            "properties": {
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.messageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "handler.sessionResponse": {
            "type": "object",
            "properties": {
                "expires_at": {"type": "string"},
                "login_time": {"type": "string"},
                "privileges": {"type": "object", "additionalProperties": {"type": "boolean"}},
                "user": {"$ref": "#/definitions/domain.Identity"}
            }
        },
        "handler.setPrivilegesRequest": {
            "type": "object",
            "properties": {
                "tabs": {"type": "array", "items": {"type": "string"}}
            }
        },
        "handler.viewResponse": {
            "type": "object",
            "properties": {
                "path": {"type": "string"},
                "tabs": {"type": "array", "items": {"$ref": "#/definitions/domain.Tab"}},
                "user": {"$ref": "#/definitions/domain.Identity"},
                "view": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "QA Dashboard Gateway",
	Description:      "Session and access-control gateway for the QA dashboard.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
