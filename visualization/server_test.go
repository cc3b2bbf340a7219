package visualization

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investnotes/internal/export"
	"investnotes/internal/utils"
	"investnotes/models"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	a := []models.Stock{
		{Code: "600519", Name: "贵州茅台", Market: models.MarketA, CurrentPrice: 1500, LaoLiuScore: 60},
		{Code: "000651", Name: "格力电器", Market: models.MarketA, CurrentPrice: 40, LaoLiuScore: 85},
	}
	hk := []models.Stock{
		{Code: "00700", Name: "腾讯控股", Market: models.MarketHK, CurrentPrice: 400, LaoLiuScore: 70},
	}
	dir := t.TempDir()
	require.NoError(t, export.NewBuilder(10, 10).Build(a, hk).Write(dir))

	s := NewServer(dir, utils.NewNopLogger())
	require.NoError(t, s.Reload())
	return s
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t), "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","stocks":3}`, rec.Body.String())
}

func TestStockLookup(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/api/stocks/00700")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Stock    models.Stock          `json:"stock"`
		Analysis models.AnalysisSample `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "腾讯控股", body.Stock.Name)
	assert.Equal(t, 460.0, body.Analysis.InvestmentSummary.TargetPrice)
	assert.Equal(t, 340.0, body.Analysis.InvestmentSummary.StopLoss)

	rec = get(t, s, "/api/stocks/999999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/api/search?q=tx")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Results []models.Stock `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "00700", body.Results[0].Code)

	rec = get(t, s, "/api/search?q=6005")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 1)
	assert.Equal(t, "600519", body.Results[0].Code)

	rec = get(t, s, "/api/search")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStaticData(t *testing.T) {
	s := newTestServer(t)

	rec := get(t, s, "/data/"+export.FileSummary)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "top_laoliu_picks")

	rec = get(t, s, "/")
	assert.Equal(t, http.StatusFound, rec.Code)
}

func TestReloadMissingData(t *testing.T) {
	s := NewServer(t.TempDir(), utils.NewNopLogger())
	assert.Error(t, s.Reload())

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/reload", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	s := newTestServer(t)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 3*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
