package docs

import "github.com/swaggo/swag"

const docTemplate = `{
  "swagger": "2.0",
  "info": {
    "title": "Survey Insights API",
    "description": "Patient and visitor survey collection and dashboard analytics",
    "version": "1.0"
  },
  "basePath": "/",
  "paths": {
    "/healthz": {
      "get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"],
        "responses": {"200": {"description": "OK"}, "503": {"description": "Database unavailable"}}}
    },
    "/api/analytics": {
      "get": {"tags": ["analytics"], "summary": "Dashboard analytics", "produces": ["application/json"],
        "parameters": [
          {"name": "from", "in": "query", "type": "string", "description": "inclusive lower bound, RFC3339 or YYYY-MM-DD"},
          {"name": "to", "in": "query", "type": "string", "description": "upper bound, RFC3339 (exclusive) or YYYY-MM-DD (inclusive day)"}
        ],
        "responses": {"200": {"description": "AggregateBundle"}, "400": {"description": "INVALID_FILTER"}, "503": {"description": "ANALYTICS_UNAVAILABLE"}}}
    },
    "/api/analytics/nps": {
      "get": {"tags": ["analytics"], "summary": "Net promoter score", "produces": ["application/json"],
        "parameters": [
          {"name": "from", "in": "query", "type": "string"},
          {"name": "to", "in": "query", "type": "string"}
        ],
        "responses": {"200": {"description": "NPSResult"}, "400": {"description": "INVALID_FILTER"}, "503": {"description": "ANALYTICS_UNAVAILABLE"}}}
    },
    "/api/analytics/invalidate": {
      "post": {"tags": ["analytics"], "summary": "Drop cached analytics", "produces": ["application/json"],
        "parameters": [{"name": "X-Admin-Key", "in": "header", "type": "string"}],
        "responses": {"200": {"description": "OK"}, "401": {"description": "UNAUTHORIZED"}}}
    },
    "/api/locations": {
      "get": {"tags": ["locations"], "summary": "List locations", "produces": ["application/json"],
        "responses": {"200": {"description": "LocationsResponse"}}},
      "put": {"tags": ["locations"], "summary": "Create or update locations", "consumes": ["application/json"], "produces": ["application/json"],
        "parameters": [{"name": "X-Admin-Key", "in": "header", "type": "string"}, {"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}],
        "responses": {"200": {"description": "OK"}, "400": {"description": "VALIDATION_ERROR"}, "401": {"description": "UNAUTHORIZED"}}}
    },
    "/api/submissions": {
      "post": {"tags": ["submissions"], "summary": "Submit a survey", "consumes": ["application/json"], "produces": ["application/json"],
        "parameters": [{"name": "body", "in": "body", "required": true, "schema": {"type": "object"}}],
        "responses": {"201": {"description": "SubmissionResponse"}, "400": {"description": "VALIDATION_ERROR"}}}
    }
  }
}`

func init() {
	swag.Register(swag.Name, &s{})
}

type s struct{}

func (s *s) ReadDoc() string {
	return docTemplate
}
