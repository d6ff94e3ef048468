// Package docs holds the OpenAPI document served at /swagger.
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
        "license": {
            "name": "MIT",
            "url": "http://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/v1/dogs": {
            "get": {
                "description": "All dogs, newest first, with the rescue name resolved from the rescues table",
                "produces": ["application/json"],
                "tags": ["Listings"],
                "summary": "List adoptable dogs",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Dog"}}
                    },
                    "429": {
                        "description": "Rate limit exceeded",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    },
                    "500": {
                        "description": "Fetch failed",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/rescues": {
            "get": {
                "description": "All rescues ordered by name",
                "produces": ["application/json"],
                "tags": ["Listings"],
                "summary": "List rescue organisations",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"type": "array", "items": {"$ref": "#/definitions/models.Rescue"}}
                    },
                    "429": {
                        "description": "Rate limit exceeded",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    },
                    "500": {
                        "description": "Fetch failed",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            }
        },
        "/v1/location": {
            "get": {
                "description": "The session's location state. Sessions that never asked are idle.",
                "produces": ["application/json"],
                "tags": ["Location"],
                "summary": "Current location state",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handler.LocationResponse"}
                    },
                    "429": {
                        "description": "Rate limit exceeded",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            },
            "post": {
                "description": "Starts a location request for the session. Returns 202 while it is in flight, or 200 with the outcome. With wait=true the call blocks until the outcome is known.",
                "produces": ["application/json"],
                "tags": ["Location"],
                "summary": "Request the visitor's location",
                "parameters": [
                    {
                        "type": "boolean",
                        "description": "Block until the request resolves",
                        "name": "wait",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "Terminal state (success or failure)",
                        "schema": {"$ref": "#/definitions/handler.LocationResponse"}
                    },
                    "202": {
                        "description": "Request in flight",
                        "schema": {"$ref": "#/definitions/handler.LocationResponse"}
                    },
                    "429": {
                        "description": "Rate limit exceeded",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            },
            "delete": {
                "description": "Resets the session to idle, abandoning any request in flight",
                "produces": ["application/json"],
                "tags": ["Location"],
                "summary": "Forget the visitor's location",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {"$ref": "#/definitions/handler.LocationResponse"}
                    },
                    "429": {
                        "description": "Rate limit exceeded",
                        "schema": {"$ref": "#/definitions/models.ErrorResponse"}
                    }
                }
            }
        }
    },
    "definitions": {
        "handler.LocationResponse": {
            "type": "object",
            "properties": {
                "latitude": {"type": "number", "x-nullable": true},
                "longitude": {"type": "number", "x-nullable": true},
                "error": {"type": "string", "x-nullable": true},
                "loading": {"type": "boolean"},
                "hasLocation": {"type": "boolean"},
                "geohash": {"type": "string"}
            }
        },
        "models.Dog": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "breed": {"type": "string"},
                "age": {"type": "string"},
                "size": {"type": "string", "enum": ["Small", "Medium", "Large"]},
                "gender": {"type": "string", "enum": ["Male", "Female"]},
                "location": {"type": "string"},
                "rescue": {"type": "string"},
                "rescueWebsite": {"type": "string"},
                "image": {"type": "string"},
                "goodWithKids": {"type": "boolean"},
                "goodWithDogs": {"type": "boolean"},
                "goodWithCats": {"type": "boolean"},
                "description": {"type": "string"}
            }
        },
        "models.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "models.Rescue": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "type": {"type": "string"},
                "region": {"type": "string"},
                "website": {"type": "string", "x-nullable": true}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "DogAdopt API",
	Description:      "Adoptable dog and rescue listings, and visitor geolocation for nearby results",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
