//go:build swagger

package httpapi

import (
	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/swaggo/swag"
)

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{escape .Title}}",
        "version": "{{escape .Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/": {"get": {"produces": ["application/json"], "summary": "server metadata", "responses": {"200": {"description": "OK"}}}},
        "/health": {"get": {"produces": ["application/json"], "summary": "unconditional liveness of the HTTP surface", "responses": {"200": {"description": "OK"}}}},
        "/health/ready": {"get": {"produces": ["application/json"], "summary": "readiness, tied to model state", "responses": {"200": {"description": "OK"}, "503": {"description": "Service Unavailable"}}}},
        "/health/live": {"get": {"produces": ["application/json"], "summary": "liveness, proves the scheduler still completes trivial work", "responses": {"200": {"description": "OK"}, "500": {"description": "Internal Server Error"}}}},
        "/model/status": {"get": {"produces": ["application/json"], "summary": "model lifecycle status", "responses": {"200": {"description": "OK"}}}},
        "/generate": {"post": {"consumes": ["application/json"], "produces": ["application/json"], "summary": "generate text from input text", "responses": {"200": {"description": "OK"}, "422": {"description": "Unprocessable Entity"}, "500": {"description": "Internal Server Error"}, "503": {"description": "Service Unavailable"}}}}
    }
}`

var swaggerInfo = &swag.Spec{
	Version:          ServerVersion,
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "gend API",
	Description:      ServerDescription,
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(swaggerInfo.InstanceName(), swaggerInfo)
	// Keep the GET / endpoint list in sync with the mounted routes.
	endpoints = append(endpoints, "/swagger")
}

// MountSwagger serves the swagger UI and spec under /swagger/.
func MountSwagger(r chi.Router) {
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}
