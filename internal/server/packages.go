package server

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/packlint/internal/diag"
	"github.com/mohammad-safakhou/packlint/internal/docstore"
	"github.com/mohammad-safakhou/packlint/internal/engine"
	"github.com/mohammad-safakhou/packlint/internal/store"
	"github.com/mohammad-safakhou/packlint/internal/telemetry"
)

type PackagesHandler struct {
	Store           *store.Store
	Cache           *ReportCache
	MaxBytes        int64
	TimelineDefault bool
}

func (h *PackagesHandler) Register(g *echo.Group) {
	g.POST("/validate", h.validate)
}

// Validate
//
//	@Summary		Validate a content package
//	@Description	Runs all validation passes over the submitted documents and media list
//	@Tags			packages
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		ValidateRequest	true	"Package payload"
//	@Success		200		{object}	ValidateResponse
//	@Failure		400		{object}	HTTPError
//	@Failure		401		{object}	HTTPError
//	@Failure		500		{object}	HTTPError
//	@Router			/api/packages/validate [post]
func (h *PackagesHandler) validate(c echo.Context) error {
	if h.MaxBytes > 0 {
		c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.MaxBytes)
	}
	var req ValidateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if len(req.Documents) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "documents are required")
	}
	withTimeline := h.TimelineDefault
	if req.Timeline != nil {
		withTimeline = *req.Timeline
	}
	ctx := c.Request().Context()

	key := requestDigest(req, withTimeline)
	if cached, ok := h.Cache.Get(ctx, key); ok {
		var report engine.Report
		if err := json.Unmarshal(cached, &report); err == nil {
			return c.JSON(http.StatusOK, ValidateResponse{Cached: true, Report: report})
		}
	}

	raws := make([]docstore.RawDocument, 0, len(req.Documents))
	for _, d := range req.Documents {
		raws = append(raws, docstore.RawDocument{Name: d.Name, Content: d.Content})
	}
	var diags diag.Aggregator
	set := docstore.FromRaw(raws, req.Media, &diags)

	started := time.Now()
	report := engine.Run(set, &diags, engine.Options{Timeline: withTimeline})
	telemetry.ObserveRun(report.Summary, time.Since(started))

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	h.Cache.Set(ctx, key, reportJSON)

	resp := ValidateResponse{Report: report}
	if userID, ok := c.Get("user_id").(string); ok && h.Store != nil {
		runID, err := h.Store.InsertValidationRun(ctx, store.ValidationRun{
			UserID:       userID,
			PackageName:  req.PackageName,
			Valid:        report.Summary.Valid,
			ErrorCount:   len(report.Summary.Errors),
			WarningCount: len(report.Summary.Warnings),
			Report:       reportJSON,
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		resp.RunID = runID
	}
	return c.JSON(http.StatusOK, resp)
}

// requestDigest hashes the package content so identical submissions share one
// cache entry. Document order is part of the digest on purpose: it is part of
// diagnostic order too.
func requestDigest(req ValidateRequest, withTimeline bool) string {
	hash := sha256.New()
	for _, d := range req.Documents {
		hash.Write([]byte(d.Name))
		hash.Write([]byte{0})
		hash.Write(d.Content)
		hash.Write([]byte{0})
	}
	for _, m := range req.Media {
		hash.Write([]byte(m))
		hash.Write([]byte{0})
	}
	if withTimeline {
		hash.Write([]byte{1})
	}
	return hex.EncodeToString(hash.Sum(nil))
}
