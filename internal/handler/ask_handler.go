package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"aidigest/internal/metrics"
	"aidigest/pkg/llm"

	"github.com/gin-gonic/gin"
)

type AskHandler struct {
	client llm.Client
}

func NewAskHandler(client llm.Client) *AskHandler {
	return &AskHandler{client: client}
}

// PostAsk streams the answer as plain text, flushing every chunk. Once the
// first byte is out the status is committed, so later failures only end the
// stream.
func (h *AskHandler) PostAsk(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" || strings.TrimSpace(req.Headline) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and headline are required"})
		return
	}

	ctx := c.Request.Context()
	started := false

	err := h.client.Stream(ctx, llm.AskPrompt(req.Question, req.Headline, req.Summary, req.PriorQA), func(chunk string) error {
		if !started {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Status(http.StatusOK)
			started = true
		}
		if _, err := c.Writer.WriteString(chunk); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})

	switch {
	case err == nil:
		metrics.RecordAskStream("ok")
		if !started {
			c.Header("Content-Type", "text/plain; charset=utf-8")
			c.Status(http.StatusOK)
		}
	case ctx.Err() != nil:
		metrics.RecordAskStream("cancelled")
		slog.Info("ask stream cancelled by client", "error", err)
	case started:
		metrics.RecordAskStream("interrupted")
		slog.Error("ask stream failed mid-answer", "error", err)
	default:
		metrics.RecordAskStream("failed")
		slog.Error("ask failed", "error", err)
		status := http.StatusBadGateway
		if errors.Is(err, llm.ErrRateLimited) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": "Failed to answer"})
	}
}
