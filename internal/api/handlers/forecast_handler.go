package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/planora/demandcast/internal/domain"
	"github.com/planora/demandcast/internal/service"
)

type ForecastHandler struct {
	service *service.ForecastService
}

func NewForecastHandler(service *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{service: service}
}

func (h *ForecastHandler) parseRiskFilter(c *gin.Context) domain.RiskFilter {
	filter := domain.RiskFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}
	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filter.Status = domain.RiskStatus(strings.ToLower(status))
	}

	// Support repeated params and comma-separated lists:
	//   ?product=A&product=B
	//   ?product=A,B
	for _, raw := range c.QueryArray("product") {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				filter.Products = append(filter.Products, p)
			}
		}
	}

	return filter
}

// TriggerRun runs the pipeline once and returns its summary.
func (h *ForecastHandler) TriggerRun(c *gin.Context) {
	summary, err := h.service.TriggerRun(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "summary": summary})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ListRuns returns recent persisted runs.
func (h *ForecastHandler) ListRuns(c *gin.Context) {
	limit := 20
	if v, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil && v > 0 {
		limit = v
	}

	runs, err := h.service.ListRuns(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

// GetLatestForecasts returns the latest run's forecast table.
func (h *ForecastHandler) GetLatestForecasts(c *gin.Context) {
	run, points, err := h.service.GetLatestForecasts(c.Request.Context(), strings.TrimSpace(c.Query("product")))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "forecasts": points})
}

// GetLatestRisk returns a page of the latest run's risk table.
func (h *ForecastHandler) GetLatestRisk(c *gin.Context) {
	filter := h.parseRiskFilter(c)
	run, assessments, total, err := h.service.GetLatestRisk(c.Request.Context(), filter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"run":       run,
		"risks":     assessments,
		"total":     total,
		"page":      filter.Page,
		"page_size": filter.PageSize,
	})
}

// GetLatestRiskSummary returns the latest run's per-status counts.
func (h *ForecastHandler) GetLatestRiskSummary(c *gin.Context) {
	run, summaries, err := h.service.GetLatestRiskSummary(c.Request.Context())
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "summary": summaries})
}

func (h *ForecastHandler) writeServiceError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrNoRuns) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
