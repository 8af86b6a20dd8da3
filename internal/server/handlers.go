package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"stock-forecaster/internal/catalog"
	"stock-forecaster/internal/charts"
	"stock-forecaster/internal/errors"
	"stock-forecaster/internal/logging"
	"stock-forecaster/internal/pipeline"
	"stock-forecaster/internal/security"
)

// pageView is the data handed to page.html.
type pageView struct {
	Title    string
	Stocks   []catalog.Stock
	Selected string
	Years    int
	MinYears int
	MaxYears int
	Status   string
	Error    string
	Sections []sectionView
}

type sectionView struct {
	pipeline.Section
	ChartURL  string
	ExportURL string
}

// selection reads stock and years from the query string, falling back to
// the first stock and the shortest horizon.
func (s *Server) selection(c *gin.Context) (pipeline.Selection, error) {
	cfg := s.dash.Config()
	stock := security.SanitizeQuery(c.DefaultQuery("stock", catalog.Default().Name))
	years := cfg.MinYears
	if raw := c.Query("years"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return pipeline.Selection{}, errors.NewValidationError("years", raw, "must be a whole number", errors.ErrInvalidHorizon)
		}
		years = n
	}
	return s.dash.Select(stock, years)
}

func selectionQuery(sel pipeline.Selection) string {
	q := url.Values{}
	q.Set("stock", sel.Stock.Name)
	q.Set("years", strconv.Itoa(sel.Years))
	return q.Encode()
}

func (s *Server) handlePage(c *gin.Context) {
	cfg := s.dash.Config()
	view := pageView{
		Title:    s.cfg.Title,
		Stocks:   catalog.All(),
		MinYears: cfg.MinYears,
		MaxYears: cfg.MaxYears,
		Years:    cfg.MinYears,
		Selected: catalog.Default().Name,
	}

	sel, err := s.selection(c)
	if err != nil {
		view.Error = pipeline.UserMessage(err, "")
		c.HTML(http.StatusBadRequest, "page.html", view)
		return
	}
	view.Selected = sel.Stock.Name
	view.Years = sel.Years

	page := s.dash.Run(c.Request.Context(), sel)
	view.Status = page.Status
	query := selectionQuery(sel)
	for _, section := range page.Sections {
		sv := sectionView{Section: section}
		switch section.Kind {
		case pipeline.SectionChart:
			sv.ChartURL = "/charts/" + string(section.Panel) + "?" + query
		case pipeline.SectionRawTable:
			sv.ExportURL = "/export/" + pipeline.ExportRaw + ".csv?" + query
		case pipeline.SectionForecastTable:
			sv.ExportURL = "/export/" + pipeline.ExportForecast + ".csv?" + query
		}
		view.Sections = append(view.Sections, sv)
	}

	c.HTML(http.StatusOK, "page.html", view)
}

func (s *Server) handleChart(c *gin.Context) {
	panel, ok := charts.ParsePanel(c.Param("panel"))
	if !ok {
		c.String(http.StatusNotFound, "unknown chart %q", c.Param("panel"))
		return
	}
	sel, err := s.selection(c)
	if err != nil {
		c.String(http.StatusBadRequest, "%s", pipeline.UserMessage(err, ""))
		return
	}

	var page *pipeline.Page
	if panel.NeedsForecast() {
		page = s.dash.Run(c.Request.Context(), sel)
	} else {
		page = s.dash.RunPrices(c.Request.Context(), sel)
	}

	chart, err := page.Chart(panel)
	if err != nil {
		c.String(statusFor(err), "%s", pipeline.UserMessage(err, sel.Stock.Symbol))
		return
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := charts.Render(c.Writer, panel, chart); err != nil {
		logger := logging.FromContext(c.Request.Context())
		logger.Error().Err(err).Str("panel", string(panel)).Msg("chart render failed")
	}
}

func (s *Server) handleExport(c *gin.Context) {
	table := strings.TrimSuffix(c.Param("file"), ".csv")
	if table != pipeline.ExportRaw && table != pipeline.ExportForecast {
		c.String(http.StatusNotFound, "unknown export %q", c.Param("file"))
		return
	}
	sel, err := s.selection(c)
	if err != nil {
		c.String(http.StatusBadRequest, "%s", pipeline.UserMessage(err, ""))
		return
	}

	var page *pipeline.Page
	if table == pipeline.ExportForecast {
		page = s.dash.Run(c.Request.Context(), sel)
	} else {
		page = s.dash.RunPrices(c.Request.Context(), sel)
	}
	if page.Series == nil || (table == pipeline.ExportForecast && page.Forecast == nil) {
		c.String(statusFor(page.Err), "%s", pipeline.UserMessage(page.Err, sel.Stock.Symbol))
		return
	}

	filename := fmt.Sprintf("%s_%s.csv", strings.TrimSuffix(sel.Stock.Symbol, ".NS"), table)
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)
	if err := page.WriteCSV(c.Writer, table); err != nil {
		logger := logging.FromContext(c.Request.Context())
		logger.Error().Err(err).Str("table", table).Msg("csv export failed")
	}
}

func (s *Server) handleStocks(c *gin.Context) {
	c.JSON(http.StatusOK, catalog.All())
}

// handleHealth runs the registered checks. A failing check degrades the
// status but the dashboard keeps serving memoised data, so the code stays 200.
func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	logger := logging.FromContext(c.Request.Context())
	status := "OK"
	checks := make(map[string]string, len(s.cfg.Checks))
	for name, check := range s.cfg.Checks {
		if err := check(ctx); err != nil {
			status = "DEGRADED"
			checks[name] = err.Error()
			logger.Warn().Err(err).Str("check", name).Msg("health check failed")
			continue
		}
		checks[name] = "ok"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     status,
		"service":    ServiceName,
		"version":    s.cfg.Version,
		"uptime":     time.Since(s.started).Round(time.Second).String(),
		"goroutines": runtime.NumGoroutine(),
		"checks":     checks,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps a pipeline error to an HTTP status.
func statusFor(err error) int {
	switch errors.StageOf(err) {
	case errors.StageInput:
		return http.StatusBadRequest
	case errors.StageLoad:
		if errors.Is(err, errors.ErrNoData) {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case errors.StagePrepare, errors.StageForecast, errors.StageRender:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
