package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/pomelo/internal/server/middleware"
	"github.com/OFFIS-RIT/pomelo/pkg/common"
	"github.com/OFFIS-RIT/pomelo/pkg/graph"
	"github.com/OFFIS-RIT/pomelo/pkg/logger"
	"github.com/OFFIS-RIT/pomelo/pkg/store"

	_ "github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
)

// IndexHandler replaces the corpus: documents are split into chunks,
// embedded, run through triple extraction, and published as one new
// snapshot. The previous snapshot serves queries until the swap.
func IndexHandler(c echo.Context) error {
	type documentBody struct {
		ID          string `json:"id" validate:"required"`
		Institution string `json:"institution"`
		Text        string `json:"text" validate:"required"`
	}

	type indexBody struct {
		Documents []documentBody `json:"documents" validate:"required,min=1,dive"`
	}

	type indexResponse struct {
		Message      string `json:"message"`
		Chunks       int    `json:"chunks,omitempty"`
		Triples      int    `json:"triples,omitempty"`
		GraphVersion int64  `json:"graph_version,omitempty"`
	}

	data := new(indexBody)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, indexResponse{
			Message: "Invalid request body",
		})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, indexResponse{
			Message: "Invalid request body",
		})
	}

	app := c.(*middleware.AppContext).App
	ctx := c.Request().Context()

	var chunks []common.Chunk
	for _, doc := range data.Documents {
		docChunks, err := graph.SplitDocument(doc.ID, doc.Institution, doc.Text, app.Encoder, app.MaxChunkTokens)
		if err != nil {
			logger.Error("[Server] Failed to split document", "doc_id", doc.ID, "err", err)
			return c.JSON(http.StatusInternalServerError, indexResponse{
				Message: "Internal server error",
			})
		}
		chunks = append(chunks, docChunks...)
	}
	if len(chunks) == 0 {
		return c.JSON(http.StatusBadRequest, indexResponse{
			Message: "Documents contain no indexable text",
		})
	}

	inputs := make([][]byte, len(chunks))
	for i, chunk := range chunks {
		inputs[i] = []byte(chunk.Text)
	}
	embeddings, err := app.AIClient.GenerateEmbeddings(ctx, inputs)
	if err != nil {
		logger.Error("[Server] Failed to embed chunks", "err", err)
		return c.JSON(http.StatusInternalServerError, indexResponse{
			Message: "Internal server error",
		})
	}
	for i := range chunks {
		chunks[i].Embedding = embeddings[i]
	}

	g, triples, err := app.Builder.Build(ctx, chunks, app.AIClient)
	if err != nil {
		logger.Error("[Server] Failed to build graph", "err", err)
		return c.JSON(http.StatusInternalServerError, indexResponse{
			Message: "Internal server error",
		})
	}

	snap := app.Engine.SetIndex(chunks, g)
	if err := saveSnapshot(c, app.Store, chunks, triples); err != nil {
		logger.Error("[Server] Failed to persist snapshot", "err", err)
		return c.JSON(http.StatusInternalServerError, indexResponse{
			Message: "Indexed in memory, but persisting the snapshot failed",
		})
	}

	return c.JSON(http.StatusOK, indexResponse{
		Message:      "Indexed",
		Chunks:       len(chunks),
		Triples:      len(triples),
		GraphVersion: snap.Version(),
	})
}

func saveSnapshot(c echo.Context, s store.Store, chunks []common.Chunk, triples []common.Triple) error {
	if s == nil {
		return nil
	}
	return s.SaveSnapshot(c.Request().Context(), chunks, triples)
}
