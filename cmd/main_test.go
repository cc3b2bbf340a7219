package main

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investnotes/internal/export"
	"investnotes/internal/notes"
	"investnotes/internal/utils"
	"investnotes/models"
)

func testApp(t *testing.T) *app {
	t.Helper()
	config := utils.DefaultConfig()
	dir := t.TempDir()
	config.Export.OutputDirs = []string{filepath.Join(dir, "static_data"), filepath.Join(dir, "miniprogram")}
	config.Export.XLSXPath = filepath.Join(dir, "picks.xlsx")
	config.Server.DataDir = config.Export.OutputDirs[0]
	config.OCR.OutputDir = filepath.Join(dir, "output")
	config.Market.ALimit = 30
	config.Market.HKLimit = 10
	return &app{config: config, logger: utils.NewNopLogger()}
}

func TestMergeQuotes(t *testing.T) {
	curated := notes.Curated()
	extracted := []models.Quote{
		{ID: "n001", Content: curated[0].Content},
		{ID: "n002", Content: "低估值加高分红，耐心持有等待价值回归"},
		{ID: "n003", Content: "低估值加高分红，耐心持有等待价值回归"},
	}

	merged := mergeQuotes(curated, extracted)
	require.Len(t, merged, len(curated)+1)
	assert.Equal(t, "n002", merged[len(merged)-1].ID)
}

func TestWatchlist(t *testing.T) {
	a := testApp(t)

	_, err := a.watchlist(nil)
	assert.Error(t, err)

	codes, err := a.watchlist([]string{"600519"})
	require.NoError(t, err)
	assert.Equal(t, []string{"600519"}, codes)

	csv := filepath.Join(t.TempDir(), "codes.csv")
	require.NoError(t, os.WriteFile(csv, []byte("code\n000651\n00700\n"), 0644))
	a.config.Market.CodesFile = csv
	codes, err = a.watchlist(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"000651", "00700"}, codes)
}

func TestRefreshOffline(t *testing.T) {
	a := testApp(t)
	require.NoError(t, a.refresh(t.Context(), false))

	for _, dir := range a.config.Export.OutputDirs {
		stocksA, stocksHK, err := export.LoadStocks(dir)
		require.NoError(t, err)
		assert.Len(t, stocksA.Stocks, 30)
		assert.Len(t, stocksHK.Stocks, 10)
	}
	assert.FileExists(t, a.config.Export.XLSXPath)
}

func TestNotesPipeline(t *testing.T) {
	a := testApp(t)
	raw := "# 老刘投资笔记\n\n## 第1页 - 1.jpg\n\n选股要看PE<15，ROE>20%的公司，可以买入。\n巴菲特说：别人贪婪时我恐惧。\n止损10%，严格执行。\n\n"
	require.NoError(t, os.MkdirAll(a.config.OCR.OutputDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(a.config.OCR.OutputDir, rawDocumentFile), []byte(raw), 0644))

	for _, cmd := range []*cobra.Command{newAnalyzeCmd(a), newRulesCmd(a)} {
		cmd.SetArgs([]string{})
		require.NoError(t, cmd.ExecuteContext(t.Context()), cmd.Use)
	}
	assert.FileExists(t, filepath.Join(a.config.OCR.OutputDir, structuredReportFile))

	var rules models.RuleSet
	require.NoError(t, utils.ReadJSON(filepath.Join(a.config.OCR.OutputDir, rulesFile), &rules))
	assert.NotEmpty(t, rules.SelectionRules)
	assert.NotEmpty(t, rules.RiskRules)
}

func TestTeardownAfterFailedCommand(t *testing.T) {
	dir := t.TempDir()
	logDir := filepath.Join(dir, "logs")
	config := "logging:\n  dir: " + logDir + "\nserver:\n  dataDir: " + filepath.Join(dir, "empty") + "\n"
	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0644))

	a := &app{}
	root := newRootCmd(a)
	root.SetArgs([]string{"--config", configPath, "export-xlsx", "--out", filepath.Join(dir, "picks.xlsx")})
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(t.Context())
	require.Error(t, err)
	a.teardown(err)
	assert.Nil(t, a.logger)

	logs, err := filepath.Glob(filepath.Join(logDir, "*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Command failed")
	assert.Contains(t, string(data), "Total execution time")
}
