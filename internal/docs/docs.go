// Package docs registers the OpenAPI description of the metatext-core API.
// Regenerate with: swag init -g cmd/metatext-core/main.go -o internal/docs
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
        "/auth/login": {"post": {"tags": ["Authentication"], "summary": "User login", "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.LoginRequest"}}], "responses": {"200": {"description": "OK"}, "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}}}},
        "/setup": {"post": {"tags": ["Setup"], "summary": "Initial setup", "responses": {"201": {"description": "Created"}, "403": {"description": "Setup already complete"}}}},
        "/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Get current user", "responses": {"200": {"description": "OK"}}}},
        "/users": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "List users", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Create user", "responses": {"201": {"description": "Created"}}}
        },
        "/admin/queue": {"get": {"security": [{"BearerAuth": []}], "tags": ["Users"], "summary": "Task queue statistics", "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/driven.QueueStats"}}, "403": {"description": "Admin access required"}, "503": {"description": "No task queue configured"}}}},
        "/metatexts": {"get": {"security": [{"BearerAuth": []}], "tags": ["Metatexts"], "summary": "List metatexts", "responses": {"200": {"description": "OK"}}}},
        "/metatexts/{id}": {"get": {"security": [{"BearerAuth": []}], "tags": ["Metatexts"], "summary": "Get metatext", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}}},
        "/metatexts/{id}/view": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Views"], "summary": "Get chunk view", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.PageWindow"}}}},
            "patch": {"security": [{"BearerAuth": []}], "tags": ["Views"], "summary": "Update chunk view", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/domain.ViewUpdate"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.PageWindow"}}, "400": {"description": "Invalid input"}}}
        },
        "/metatexts/{id}/view/goto": {"post": {"security": [{"BearerAuth": []}], "tags": ["Views"], "summary": "Go to chunk", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/http.ChunkTargetRequest"}}], "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.PageWindow"}}}}},
        "/metatexts/{id}/navigation": {"post": {"security": [{"BearerAuth": []}], "tags": ["Views"], "summary": "Request navigation", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/http.ChunkTargetRequest"}}], "responses": {"202": {"description": "Accepted"}}}},
        "/metatexts/{id}/bookmark/goto": {"post": {"security": [{"BearerAuth": []}], "tags": ["Views"], "summary": "Go to bookmark", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "No bookmark set"}}}},
        "/chunks/{id}/favorite": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["Chunks"], "summary": "Favorite chunk", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Chunks"], "summary": "Unfavorite chunk", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/chunks/{id}/bookmark": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["Chunks"], "summary": "Bookmark chunk", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Chunks"], "summary": "Remove bookmark", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"204": {"description": "No Content"}}}
        },
        "/chunks/{id}/images": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Images"], "summary": "List chunk images", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["Images"], "summary": "Generate image", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}, {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/driving.GenerateImageRequest"}}], "responses": {"202": {"description": "Accepted"}, "503": {"description": "Image generator unavailable"}}}
        },
        "/chunks/{id}/images/latest": {"get": {"security": [{"BearerAuth": []}], "tags": ["Images"], "summary": "Latest chunk image", "parameters": [{"type": "integer", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "No image"}}}},
        "/image-polls/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["Images"], "summary": "Get image poll", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Poll not found"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["Images"], "summary": "Abort image poll", "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}], "responses": {"200": {"description": "OK"}, "404": {"description": "Poll not found"}}}
        }
    },
    "definitions": {
        "http.ErrorResponse": {"type": "object", "properties": {"error": {"type": "string", "example": "invalid request body"}}},
        "http.ChunkTargetRequest": {"type": "object", "required": ["chunk_id"], "properties": {"chunk_id": {"type": "integer", "example": 42}}},
        "domain.LoginRequest": {"type": "object", "required": ["email", "password"], "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "domain.ViewUpdate": {"type": "object", "properties": {"query": {"type": "string"}, "only_favorites": {"type": "boolean"}, "page": {"type": "integer", "minimum": 1}, "chunks_per_page": {"type": "integer", "minimum": 1, "maximum": 500}}},
        "domain.PageWindow": {"type": "object", "properties": {"display_chunks": {"type": "array", "items": {"type": "object"}}, "total_filtered_chunks": {"type": "integer"}, "current_page": {"type": "integer"}, "total_pages": {"type": "integer"}, "start_index": {"type": "integer"}, "end_index": {"type": "integer"}, "chunks_per_page": {"type": "integer"}, "query": {"type": "string"}, "only_favorites": {"type": "boolean"}, "is_searching": {"type": "boolean"}, "scroll_to_chunk_id": {"type": "integer"}}},
        "driven.QueueStats": {"type": "object", "properties": {"pending_count": {"type": "integer", "example": 2}, "processing_count": {"type": "integer", "example": 1}, "completed_count": {"type": "integer", "example": 40}, "failed_count": {"type": "integer", "example": 0}}},
        "driving.GenerateImageRequest": {"type": "object", "required": ["prompt"], "properties": {"prompt": {"type": "string", "maxLength": 4000}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"description": "JWT Bearer token. Format: \"Bearer {token}\"", "type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Metatext Core API",
	Description:      "Chunk views, bookmarks and generated images for annotated texts.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
