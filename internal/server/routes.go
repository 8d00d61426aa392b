package server

import (
	"github.com/OFFIS-RIT/pomelo/internal/server/routes"

	"github.com/labstack/echo/v4"
)

func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", routes.HealthHandler)

	e.POST("/query", routes.QueryHandler)
	e.POST("/index", routes.IndexHandler)
}
