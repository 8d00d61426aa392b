package middleware

import (
	"github.com/OFFIS-RIT/pomelo/pkg/ai"
	"github.com/OFFIS-RIT/pomelo/pkg/graph"
	"github.com/OFFIS-RIT/pomelo/pkg/query"
	"github.com/OFFIS-RIT/pomelo/pkg/store"

	"github.com/labstack/echo/v4"
)

// App bundles the shared application state handlers operate on. Store
// may be nil when the server runs without persistence.
type App struct {
	Engine   *query.Engine
	Builder  *graph.Builder
	AIClient ai.Client
	Store    store.Store

	Encoder        string
	MaxChunkTokens int
}

// AppContext wraps the echo context with the application state.
type AppContext struct {
	echo.Context
	App *App
}

// AppContextMiddleware injects the application state into every request
// context.
func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
