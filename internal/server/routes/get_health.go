package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/pomelo/internal/server/middleware"

	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness plus the state of the current index
// snapshot.
func HealthHandler(c echo.Context) error {
	type healthResponse struct {
		Status       string `json:"status"`
		Indexed      bool   `json:"indexed"`
		GraphVersion int64  `json:"graph_version,omitempty"`
		Chunks       int    `json:"chunks,omitempty"`
		Nodes        int    `json:"nodes,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	resp := healthResponse{Status: "ok"}

	if snap := app.Engine.Snapshot(); snap != nil {
		resp.Indexed = true
		resp.GraphVersion = snap.Version()
		resp.Chunks = len(snap.Chunks())
		resp.Nodes = snap.Graph.Graph.NumNodes()
	}
	return c.JSON(http.StatusOK, resp)
}
