package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/planora/demandcast/internal/api"
	"github.com/planora/demandcast/internal/domain"
	"github.com/planora/demandcast/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubRepo struct {
	latest      *domain.ForecastRun
	runs        []domain.ForecastRun
	assessments []domain.RiskAssessment
	gotFilter   domain.RiskFilter
}

func (s *stubRepo) SaveRun(ctx context.Context, run *domain.ForecastRun, points []domain.ForecastPoint, assessments []domain.RiskAssessment) (int64, error) {
	return 1, nil
}

func (s *stubRepo) GetLatestRun(ctx context.Context) (*domain.ForecastRun, error) {
	return s.latest, nil
}

func (s *stubRepo) ListRuns(ctx context.Context, limit int) ([]domain.ForecastRun, error) {
	return s.runs, nil
}

func (s *stubRepo) GetForecasts(ctx context.Context, runID int64, product string) ([]domain.ForecastPoint, error) {
	return nil, nil
}

func (s *stubRepo) GetRiskAssessments(ctx context.Context, runID int64, filter domain.RiskFilter) ([]domain.RiskAssessment, int, error) {
	s.gotFilter = filter
	return s.assessments, len(s.assessments), nil
}

func (s *stubRepo) GetRiskSummary(ctx context.Context, runID int64) ([]domain.RiskSummary, error) {
	return []domain.RiskSummary{{Status: domain.RiskStatusOK, Count: 1}}, nil
}

func newTestRouter(repo *stubRepo) *gin.Engine {
	svc := service.NewForecastService(repo, nil, nil)
	return api.NewRouter(&api.Services{ForecastService: svc}, nil)
}

func doGet(t *testing.T, router *gin.Engine, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doGet(t, newTestRouter(&stubRepo{}), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestListRuns(t *testing.T) {
	repo := &stubRepo{runs: []domain.ForecastRun{{ID: 1, Mode: "combined"}}}
	rec := doGet(t, newTestRouter(repo), "/api/v1/runs")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Runs []domain.ForecastRun `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "combined", body.Runs[0].Mode)
}

func TestGetLatestRisk_NoRunsIs404(t *testing.T) {
	rec := doGet(t, newTestRouter(&stubRepo{}), "/api/v1/risk/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetLatestRisk_ParsesFilter(t *testing.T) {
	repo := &stubRepo{
		latest:      &domain.ForecastRun{ID: 4},
		assessments: []domain.RiskAssessment{{Product: "apple"}},
	}
	rec := doGet(t, newTestRouter(repo),
		"/api/v1/risk/latest?page=2&page_size=10&status=AT_RISK&product=apple,banana&product=cherry")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, repo.gotFilter.Page)
	assert.Equal(t, 10, repo.gotFilter.PageSize)
	assert.Equal(t, domain.RiskStatusAtRisk, repo.gotFilter.Status)
	assert.Equal(t, []string{"apple", "banana", "cherry"}, repo.gotFilter.Products)
}

func TestGetLatestRisk_DefaultsPagination(t *testing.T) {
	repo := &stubRepo{latest: &domain.ForecastRun{ID: 4}}
	rec := doGet(t, newTestRouter(repo), "/api/v1/risk/latest?page=-1&page_size=junk")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, repo.gotFilter.Page)
	assert.Equal(t, 50, repo.gotFilter.PageSize)
}

func TestGetLatestRiskSummary(t *testing.T) {
	repo := &stubRepo{latest: &domain.ForecastRun{ID: 4}}
	rec := doGet(t, newTestRouter(repo), "/api/v1/risk/summary")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Summary []domain.RiskSummary `json:"summary"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Summary, 1)
	assert.Equal(t, domain.RiskStatusOK, body.Summary[0].Status)
}

func TestTriggerRun_NoRunnerIs500(t *testing.T) {
	router := newTestRouter(&stubRepo{})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetLatestForecasts_NoRunsIs404(t *testing.T) {
	rec := doGet(t, newTestRouter(&stubRepo{}), "/api/v1/forecasts")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
