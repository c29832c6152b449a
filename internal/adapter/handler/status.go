package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medscribe/medscribe/internal/usecase/pipeline"
)

// Status exposes the single-slot progress record.
type Status struct {
	status pipeline.StatusPublisher
}

// NewStatus creates the status handler.
func NewStatus(status pipeline.StatusPublisher) *Status {
	return &Status{status: status}
}

// GetStatus handles GET /status. Always 200: when nothing ran yet the slot
// holds the idle record.
func (h *Status) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, h.status.Current())
}
