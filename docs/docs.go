// Package docs registers the OpenAPI description served at /swagger.
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
        "/api/health": {
            "get": {"tags": ["system"], "summary": "Health check", "produces": ["application/json"],
                "responses": {"200": {"description": "status, timestamp"}}}
        },
        "/api/data": {
            "get": {"tags": ["heatpump"], "summary": "Latest heat pump snapshot", "produces": ["application/json"],
                "responses": {"200": {"description": "HeatPumpSnapshot"}, "503": {"description": "no snapshot yet"}}}
        },
        "/api/system": {
            "get": {"tags": ["heatpump"], "summary": "Heat pump and rooms snapshots", "produces": ["application/json"],
                "responses": {"200": {"description": "heatpump, rooms"}}}
        },
        "/api/heating-curve": {
            "get": {"tags": ["heatpump"], "summary": "Heating curve", "produces": ["application/json"],
                "responses": {"200": {"description": "CurveReport"}, "503": {"description": "no snapshot yet"}}}
        },
        "/api/controls": {
            "post": {"tags": ["heatpump"], "summary": "Write a heat pump parameter",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true,
                    "schema": {"type": "object", "properties": {"parameter": {"type": "string"}, "value": {"type": "number"}}}}],
                "responses": {"200": {"description": "success, parameter, value"},
                    "400": {"description": "error, allowed | min, max, received"},
                    "500": {"description": "write failed"}}}
        },
        "/api/rooms": {
            "get": {"tags": ["rooms"], "summary": "Latest rooms snapshot", "produces": ["application/json"],
                "responses": {"200": {"description": "RoomsSnapshot"}, "503": {"description": "no snapshot yet"}}}
        },
        "/api/rooms/labels": {
            "get": {"tags": ["rooms"], "summary": "Room labels", "produces": ["application/json"],
                "responses": {"200": {"description": "controllerId -> roomId -> name"}}}
        },
        "/api/rooms/{controllerId}/{roomId}/temperature": {
            "post": {"tags": ["rooms"], "summary": "Set a room target temperature",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "controllerId", "required": true, "type": "string"},
                    {"in": "path", "name": "roomId", "required": true, "type": "integer"},
                    {"in": "body", "name": "body", "required": true,
                        "schema": {"type": "object", "properties": {"temperature": {"type": "number"}}}}],
                "responses": {"200": {"description": "accepted"}, "400": {"description": "invalid target"}, "500": {"description": "write failed"}}}
        },
        "/api/rooms/{controllerId}/{roomId}/label": {
            "put": {"tags": ["rooms"], "summary": "Rename a room",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"in": "path", "name": "controllerId", "required": true, "type": "string"},
                    {"in": "path", "name": "roomId", "required": true, "type": "integer"},
                    {"in": "body", "name": "body", "required": true,
                        "schema": {"type": "object", "properties": {"name": {"type": "string"}}}}],
                "responses": {"200": {"description": "renamed"}, "400": {"description": "invalid name or target"}}}
        },
        "/api/history": {
            "get": {"tags": ["history"], "summary": "Temperature history", "produces": ["application/json"],
                "responses": {"200": {"description": "HistoryPoint list, oldest first"}}}
        },
        "/api/history/settings": {
            "get": {"tags": ["history"], "summary": "History sampling settings", "produces": ["application/json"],
                "responses": {"200": {"description": "enabled"}}},
            "post": {"tags": ["history"], "summary": "Enable or disable history sampling",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "required": true,
                    "schema": {"type": "object", "properties": {"enabled": {"type": "boolean"}}}}],
                "responses": {"200": {"description": "enabled"}, "400": {"description": "enabled missing"}}}
        },
        "/api/events": {
            "get": {"tags": ["events"], "summary": "Control journal", "produces": ["application/json"],
                "parameters": [
                    {"in": "query", "name": "from", "type": "string"},
                    {"in": "query", "name": "to", "type": "string"},
                    {"in": "query", "name": "type", "type": "string"},
                    {"in": "query", "name": "limit", "type": "integer"}],
                "responses": {"200": {"description": "count, events"}, "400": {"description": "invalid filter"}}}
        },
        "/metrics": {
            "get": {"tags": ["system"], "summary": "Prometheus metrics", "produces": ["text/plain"],
                "responses": {"200": {"description": "exposition format"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Geothermal monitor API",
	Description:      "Heat pump and floor heating monitoring and control.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
