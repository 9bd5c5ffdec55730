package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/salesapp/sales-management/internal/logging"
	"github.com/salesapp/sales-management/internal/repo"
)

type DashboardHandler struct {
	Repo *repo.GormRepo
}

func (h *DashboardHandler) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "dashboard")

	stats, err := h.Repo.Stats(ctx)
	if err != nil {
		l.Warn("stats query failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return c.JSON(http.StatusOK, stats)
}
