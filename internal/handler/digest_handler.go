package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"aidigest/internal/digest"
	"aidigest/pkg/llm"

	"github.com/gin-gonic/gin"
)

const cacheHeader = "X-Cache"

type DigestService interface {
	Get(ctx context.Context, dateKey string) (*digest.Result, error)
	Dates(ctx context.Context) ([]string, error)
}

type DigestHandler struct {
	service DigestService
}

func NewDigestHandler(service DigestService) *DigestHandler {
	return &DigestHandler{service: service}
}

func (h *DigestHandler) PostDigest(c *gin.Context) {
	var req DigestRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	res, err := h.service.Get(c.Request.Context(), req.Date)
	if err != nil {
		writeDigestError(c, req.Date, err)
		return
	}

	if res.Cached {
		c.Header(cacheHeader, "HIT")
	} else {
		c.Header(cacheHeader, "MISS")
	}

	c.JSON(http.StatusOK, toStoryResponses(res.Digest.Stories))
}

func (h *DigestHandler) GetDates(c *gin.Context) {
	dates, err := h.service.Dates(c.Request.Context())
	if err != nil {
		slog.Error("error listing digest dates", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if dates == nil {
		dates = []string{}
	}

	c.JSON(http.StatusOK, dates)
}

func writeDigestError(c *gin.Context, date string, err error) {
	var parseErr *llm.ParseError

	switch {
	case errors.Is(err, digest.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date"})
	case errors.Is(err, digest.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "No digest for this date"})
	case errors.As(err, &parseErr):
		slog.Error("digest parse failed", "date", date, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to parse digest", "raw": parseErr.Raw})
	case errors.Is(err, llm.ErrEmptyResult):
		slog.Error("digest came back empty", "date", date, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "No stories found"})
	case errors.Is(err, llm.ErrRateLimited):
		slog.Error("digest rate limited", "date", date, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Rate limited, try again shortly"})
	default:
		slog.Error("error loading digest", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load digest"})
	}
}
