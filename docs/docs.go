// Package docs registers the OpenAPI document served under /docs.
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
        "/sessions": {
            "post": {
                "description": "Finalizes any active session and starts a new one",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Start a visitor session",
                "parameters": [
                    {
                        "description": "Visitor details",
                        "name": "request",
                        "in": "body",
                        "schema": {"$ref": "#/definitions/events.StartSessionRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Session tracking disabled", "schema": {"$ref": "#/definitions/events.SessionResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/events.SessionResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/sessions/current": {
            "delete": {
                "description": "Sets endTime and duration on the active session",
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "End the active session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/events.SessionResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/clicks": {
            "post": {
                "description": "Records a click against the active session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Clicks"],
                "summary": "Track a link click",
                "parameters": [
                    {
                        "description": "Click payload",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/events.TrackClickRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "Click tracking disabled or no active session", "schema": {"$ref": "#/definitions/events.ClickResponse"}},
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/events.ClickResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/clicks/cleanup": {
            "post": {
                "description": "Removes stored clicks that point at items no longer present",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Clicks"],
                "summary": "Prune clicks of removed content",
                "parameters": [
                    {
                        "description": "Current content items",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/events.CleanupRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/events.CleanupResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/analytics": {
            "get": {
                "description": "Returns totals, top links, the daily series, recent clicks and active sessions",
                "produces": ["application/json"],
                "tags": ["Analytics"],
                "summary": "Get the analytics aggregate",
                "parameters": [
                    {
                        "type": "boolean",
                        "description": "Serve the last stored aggregate instead of recomputing",
                        "name": "cached",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/metrics.AnalyticsData"}}
                }
            },
            "delete": {
                "description": "Removes every stored click, session and the cached aggregate",
                "tags": ["Analytics"],
                "summary": "Clear local analytics",
                "responses": {
                    "204": {"description": "No Content"},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/analytics/daily": {
            "get": {
                "description": "Returns one entry per calendar day, oldest first, ending today",
                "produces": ["application/json"],
                "tags": ["Analytics"],
                "summary": "Get the daily series",
                "parameters": [
                    {
                        "type": "integer",
                        "description": "Number of days (1-365, default 7)",
                        "name": "days",
                        "in": "query"
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/metrics.DailyStatsResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/analytics/export": {
            "get": {
                "description": "Returns the aggregate plus raw sessions and clicks as a JSON attachment",
                "produces": ["application/json"],
                "tags": ["Analytics"],
                "summary": "Download the analytics export",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/metrics.ExportPayload"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/analytics/sync": {
            "post": {
                "description": "Merges local and remote clicks and sessions (remote wins) and writes the result to both sides",
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Sync with the remote record store",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/sync.SyncResponse"}},
                    "202": {"description": "Remote unavailable, local data kept", "schema": {"$ref": "#/definitions/sync.SyncResponse"}}
                }
            }
        },
        "/analytics/snapshot": {
            "get": {
                "description": "Returns this device's last remotely stored aggregate",
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Load the stored aggregate",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/metrics.AnalyticsData"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "put": {
                "description": "Saves the current aggregate under this device's id",
                "produces": ["application/json"],
                "tags": ["Sync"],
                "summary": "Store the aggregate remotely",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/metrics.AnalyticsData"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid_click"},
                "message": {"type": "string", "example": "invalid click: url is required"}
            }
        },
        "events.StartSessionRequest": {
            "description": "Session activation DTO. Empty fields fall back to request headers.",
            "type": "object",
            "properties": {
                "userAgent": {"type": "string"},
                "referrer": {"type": "string"},
                "country": {"type": "string"},
                "city": {"type": "string"}
            }
        },
        "events.SessionResponse": {
            "type": "object",
            "properties": {
                "tracked": {"type": "boolean"},
                "session": {"$ref": "#/definitions/events.SessionData"}
            }
        },
        "events.SessionData": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "startTime": {"type": "integer"},
                "endTime": {"type": "integer"},
                "duration": {"type": "integer"},
                "pageViews": {"type": "integer"},
                "clicks": {"type": "integer"},
                "userAgent": {"type": "string"},
                "referrer": {"type": "string"},
                "country": {"type": "string"},
                "city": {"type": "string"}
            }
        },
        "events.TrackClickRequest": {
            "description": "Click tracking DTO",
            "type": "object",
            "properties": {
                "url": {"type": "string", "example": "https://example.com/shop"},
                "title": {"type": "string", "example": "Shop - Summer sale"},
                "itemId": {"type": "string", "example": "42"}
            }
        },
        "events.ClickResponse": {
            "type": "object",
            "properties": {
                "tracked": {"type": "boolean"},
                "click": {"$ref": "#/definitions/events.ClickEvent"}
            }
        },
        "events.ClickEvent": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "timestamp": {"type": "integer"},
                "url": {"type": "string"},
                "title": {"type": "string"},
                "userAgent": {"type": "string"},
                "referrer": {"type": "string"},
                "sessionId": {"type": "string"},
                "itemId": {"type": "string"}
            }
        },
        "events.CleanupRequest": {
            "type": "object",
            "properties": {
                "items": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "id": {"type": "string"},
                            "title": {"type": "string"},
                            "url": {"type": "string"}
                        }
                    }
                }
            }
        },
        "events.CleanupResponse": {
            "type": "object",
            "properties": {
                "removed": {"type": "boolean"}
            }
        },
        "metrics.AnalyticsData": {
            "type": "object",
            "properties": {
                "totalViews": {"type": "integer"},
                "totalClicks": {"type": "integer"},
                "totalSessions": {"type": "integer"},
                "averageSessionDuration": {"type": "integer"},
                "topClickedLinks": {"type": "array", "items": {"$ref": "#/definitions/metrics.TopLink"}},
                "dailyStats": {"type": "array", "items": {"$ref": "#/definitions/metrics.DailyStat"}},
                "recentClicks": {"type": "array", "items": {"$ref": "#/definitions/events.ClickEvent"}},
                "activeSessions": {"type": "array", "items": {"$ref": "#/definitions/events.SessionData"}}
            }
        },
        "metrics.TopLink": {
            "type": "object",
            "properties": {
                "url": {"type": "string"},
                "title": {"type": "string"},
                "clicks": {"type": "integer"},
                "percentage": {"type": "integer"}
            }
        },
        "metrics.DailyStat": {
            "type": "object",
            "properties": {
                "date": {"type": "string", "example": "2024-04-20"},
                "views": {"type": "integer"},
                "clicks": {"type": "integer"},
                "sessions": {"type": "integer"}
            }
        },
        "metrics.DailyStatsResponse": {
            "type": "object",
            "properties": {
                "days": {"type": "integer"},
                "stats": {"type": "array", "items": {"$ref": "#/definitions/metrics.DailyStat"}}
            }
        },
        "metrics.ExportPayload": {
            "type": "object",
            "properties": {
                "analytics": {"$ref": "#/definitions/metrics.AnalyticsData"},
                "sessions": {"type": "array", "items": {"$ref": "#/definitions/events.SessionData"}},
                "clicks": {"type": "array", "items": {"$ref": "#/definitions/events.ClickEvent"}},
                "exportDate": {"type": "string"}
            }
        },
        "sync.SyncResponse": {
            "type": "object",
            "properties": {
                "fetched": {"type": "boolean"},
                "clicks": {"type": "integer"},
                "sessions": {"type": "integer"},
                "failedWrites": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Landing Analytics API",
	Description:      "Session, click and sync endpoints of the landing page analytics service.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
