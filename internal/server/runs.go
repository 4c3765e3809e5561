package server

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/packlint/internal/store"
)

type RunsHandler struct {
	Store *store.Store
}

func (h *RunsHandler) Register(g *echo.Group) {
	g.GET("", h.list)
	g.GET("/:id", h.get)
}

// ListRuns
//
//	@Summary	List validation runs of the current user
//	@Tags		runs
//	@Produce	json
//	@Success	200	{array}		RunListItem
//	@Failure	401	{object}	HTTPError
//	@Failure	500	{object}	HTTPError
//	@Router		/api/runs [get]
func (h *RunsHandler) list(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	runs, err := h.Store.ListValidationRuns(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]RunListItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, runListItem(r))
	}
	return c.JSON(http.StatusOK, out)
}

// GetRun
//
//	@Summary	Fetch one validation run with its report
//	@Tags		runs
//	@Produce	json
//	@Param		id	path		string	true	"Run id"
//	@Success	200	{object}	RunDetailResponse
//	@Failure	401	{object}	HTTPError
//	@Failure	404	{object}	HTTPError
//	@Failure	500	{object}	HTTPError
//	@Router		/api/runs/{id} [get]
func (h *RunsHandler) get(c echo.Context) error {
	userID, _ := c.Get("user_id").(string)
	run, err := h.Store.GetValidationRun(c.Request().Context(), c.Param("id"), userID)
	if errors.Is(err, sql.ErrNoRows) {
		return echo.NewHTTPError(http.StatusNotFound, "run not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, RunDetailResponse{RunListItem: runListItem(run), Report: run.Report})
}

func runListItem(r store.ValidationRun) RunListItem {
	return RunListItem{
		ID:           r.ID,
		PackageName:  r.PackageName,
		Valid:        r.Valid,
		ErrorCount:   r.ErrorCount,
		WarningCount: r.WarningCount,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
}
