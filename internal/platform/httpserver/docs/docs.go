// Package docs registers the OpenAPI document served at /swagger/doc.json.
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
        "/api/auth/v1/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new account",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Bad Request"},
                    "409": {"description": "Conflict"},
                    "429": {"description": "Too Many Requests"}
                }
            }
        },
        "/api/auth/v1/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange credentials for a token pair",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "429": {"description": "Too Many Requests"}
                }
            }
        },
        "/api/auth/v1/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Exchange a refresh token for a new token pair",
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/auth/v1/profiles/{user_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Fetch one profile",
                "parameters": [
                    {"type": "integer", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Not Found"}
                }
            }
        },
        "/api/authz/v1/users/{user_id}/roles": {
            "get": {
                "produces": ["application/json"],
                "tags": ["authz"],
                "summary": "List role assignments for a user",
                "parameters": [
                    {"type": "integer", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"}
                }
            }
        },
        "/api/orders/v1/accounts/{user_id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["orders"],
                "summary": "Fetch one buyer account",
                "parameters": [
                    {"type": "integer", "name": "user_id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "Unauthorized"},
                    "404": {"description": "Not Found"}
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Gatekeeper API",
	Description:      "Identity, authorization, and commerce backend.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
