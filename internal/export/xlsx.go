package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"investnotes/internal/utils"
	"investnotes/models"
)

const picksSheet = "老刘精选"

var picksHeaders = []string{"代码", "名称", "市场", "行业", "现价", "涨跌幅(%)", "市盈率", "市净率", "老刘评分", "投资建议"}

// WriteXLSX writes the top best-scored stocks to a workbook at path. A
// non-positive top writes every stock.
func WriteXLSX(path string, stocks []models.Stock, top int) error {
	ranked := rankByScore(stocks)
	if top > 0 {
		ranked = head(ranked, top)
	}

	wb := excelize.NewFile()
	defer wb.Close()
	if err := wb.SetSheetName("Sheet1", picksSheet); err != nil {
		return err
	}

	for i, h := range picksHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		wb.SetCellValue(picksSheet, cell, h)
	}
	for r, s := range ranked {
		row := []interface{}{
			s.Code, s.Name, s.Market, s.Industry, s.CurrentPrice, s.ChangePercent,
			s.PERatio, s.PBRatio, s.LaoLiuScore, s.InvestmentAdvice,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := wb.SetSheetRow(picksSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}
	_ = wb.SetColWidth(picksSheet, "A", "J", 14)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return wb.SaveAs(path)
}

// ReadCodes reads stock codes from the first column of a CSV or XLSX file,
// skipping the header row.
func ReadCodes(path string) ([]string, error) {
	if !strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return utils.ReadCodesFromCSV(path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", path)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	var codes []string
	for i, row := range rows {
		if i == 0 || len(row) == 0 {
			continue
		}
		if code := strings.TrimSpace(row[0]); code != "" {
			codes = append(codes, code)
		}
	}
	return codes, nil
}
