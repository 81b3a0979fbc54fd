package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"hlsgate/internal/client"
	"hlsgate/internal/service"
)

// FetchHandler serves the /fetch endpoint.
type FetchHandler struct {
	pipeline *service.Pipeline
	logger   *slog.Logger
}

// NewFetchHandler creates a FetchHandler.
func NewFetchHandler(p *service.Pipeline, logger *slog.Logger) *FetchHandler {
	return &FetchHandler{
		pipeline: p,
		logger:   logger.With("component", "fetch_handler"),
	}
}

// Handle fetches the target given in the url query parameter and writes the
// classified (and, for manifests, rewritten) response. The optional ref_
// parameter overrides the Referer sent upstream.
func (h *FetchHandler) Handle(c echo.Context) error {
	rawURL := c.QueryParam("url")
	referrer := c.QueryParam("ref_")

	result, err := h.pipeline.Fetch(c.Request().Context(), rawURL, referrer)
	if err != nil {
		return h.mapError(c, err)
	}

	res := c.Response()
	res.Header().Set("Cache-Control", result.CacheControl)
	res.Header().Set("CDN-Cache-Control", result.CDNCacheControl)

	return c.Blob(result.StatusCode, result.ContentType, result.Body)
}

func (h *FetchHandler) mapError(c echo.Context, err error) error {
	if errors.Is(err, service.ErrInvalidTarget) {
		return c.String(http.StatusBadRequest, "Invalid URL")
	}

	h.logger.Error("proxy error",
		"err", err,
		"url", c.QueryParam("url"),
	)

	if errors.Is(err, client.ErrBodyRead) {
		return c.String(http.StatusInternalServerError, "Body assembly failed")
	}

	return c.String(http.StatusInternalServerError, "Fetch failed: "+err.Error())
}
