package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/pomelo/internal/server/middleware"
	"github.com/OFFIS-RIT/pomelo/pkg/logger"
	"github.com/OFFIS-RIT/pomelo/pkg/query"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

type passageResponse struct {
	ID          string  `json:"id"`
	DocID       string  `json:"doc_id"`
	Institution string  `json:"institution,omitempty"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
}

type traceResponse struct {
	ConsideredChunkIDs []string `json:"considered_chunk_ids"`
	UsedChunkIDs       []string `json:"used_chunk_ids"`
	MatchedEntityKeys  []string `json:"matched_entity_keys"`
	MatchedFacts       []string `json:"matched_facts"`
	Alpha              float64  `json:"alpha"`
}

// QueryHandler runs the retrieval pipeline for one question and,
// unless disabled, generates a cited answer from the ranked passages.
func QueryHandler(c echo.Context) error {
	type queryBody struct {
		Question   string `json:"question" validate:"required"`
		TopK       int    `json:"top_k" validate:"omitempty,min=1,max=100"`
		SkipAnswer bool   `json:"skip_answer"`
	}

	type queryResponse struct {
		Message      string            `json:"message,omitempty"`
		Answer       string            `json:"answer,omitempty"`
		Passages     []passageResponse `json:"passages,omitempty"`
		SubQueries   []string          `json:"sub_queries,omitempty"`
		Confidence   float64           `json:"confidence"`
		GraphVersion int64             `json:"graph_version,omitempty"`
		Trace        *traceResponse    `json:"trace,omitempty"`
	}

	data := new(queryBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, queryResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	trace := query.NewQueryTrace()
	res, err := app.Engine.Retrieve(ctx, data.Question, data.TopK, trace)
	if err != nil {
		switch {
		case errors.Is(err, query.ErrEmptyQuery):
			return c.JSON(http.StatusBadRequest, queryResponse{
				Message: "Question must not be empty",
			})
		case errors.Is(err, query.ErrNoIndex):
			return c.JSON(http.StatusServiceUnavailable, queryResponse{
				Message: "No index available, index documents first",
			})
		default:
			logger.Error("[Server] Retrieval failed", "err", err)
			return c.JSON(http.StatusInternalServerError, queryResponse{
				Message: "Internal server error",
			})
		}
	}

	resp := queryResponse{
		SubQueries:   res.SubQueries,
		Confidence:   res.Confidence,
		GraphVersion: res.GraphVersion,
	}
	for _, p := range res.Passages {
		resp.Passages = append(resp.Passages, passageResponse{
			ID:          p.Chunk.ID,
			DocID:       p.Chunk.DocID,
			Institution: p.Chunk.Institution,
			Text:        p.Chunk.Text,
			Score:       p.Score,
		})
	}

	snap := trace.Snapshot()
	resp.Trace = &traceResponse{
		ConsideredChunkIDs: snap.ConsideredChunkIDs,
		UsedChunkIDs:       snap.UsedChunkIDs,
		MatchedEntityKeys:  snap.MatchedEntityKeys,
		MatchedFacts:       snap.MatchedFacts,
		Alpha:              snap.Alpha,
	}

	if !data.SkipAnswer {
		answer, err := app.Engine.Answer(ctx, data.Question, res.Passages)
		if err != nil {
			logger.Error("[Server] Answer generation failed", "err", err)
			return c.JSON(http.StatusInternalServerError, queryResponse{
				Message: "Internal server error",
			})
		}
		resp.Answer = answer
	}

	return c.JSON(http.StatusOK, resp)
}
