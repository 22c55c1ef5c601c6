package export

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/worldcheck-sorter/internal/entity"
)

const (
	IndividualSheet = "Individual Name"
	CompanySheet    = "Company Name"
)

var (
	IndividualHeaders = []string{
		"World Check文件名",
		"姓名",
		"职位",
		"验证存在",
		"负面信息",
		"政治人物 (PEP) 资料",
		"是否本人",
		"判断依据",
		"审核人",
	}
	CompanyHeaders = []string{
		"World Check文件名",
		"公司名称",
		"与客户的关系",
		"验证存在",
		"负面信息",
		"是否公司",
		"判断依据",
		"审核人",
	}
)

// Writer produces the review workbook and the batch archive.
type Writer struct {
	logger *slog.Logger
}

func NewWriter(logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{logger: logger}
}

// RenderLedgers returns the two-sheet workbook as XLSX bytes.
func (w *Writer) RenderLedgers(l entity.Ledgers) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", IndividualSheet); err != nil {
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	if _, err := f.NewSheet(CompanySheet); err != nil {
		return nil, fmt.Errorf("add sheet: %w", err)
	}
	activeIndex, _ := f.GetSheetIndex(IndividualSheet)
	f.SetActiveSheet(activeIndex)

	indRows := make([][]any, 0, len(l.Individuals))
	for _, r := range l.Individuals {
		indRows = append(indRows, []any{r.Filename, r.Name, r.Position, r.Exists, r.Reports, r.Bios, r.IsSubject, r.Reason, r.Reviewer})
	}
	if err := writeSheet(f, IndividualSheet, IndividualHeaders, indRows); err != nil {
		return nil, err
	}

	orgRows := make([][]any, 0, len(l.Organizations))
	for _, r := range l.Organizations {
		orgRows = append(orgRows, []any{r.Filename, r.Name, r.Relationship, r.Exists, r.Reports, r.IsCompany, r.Reason, r.Reviewer})
	}
	if err := writeSheet(f, CompanySheet, CompanyHeaders, orgRows); err != nil {
		return nil, err
	}

	// Widen a few columns
	_ = f.SetColWidth(IndividualSheet, "A", "B", 24) // file, name
	_ = f.SetColWidth(IndividualSheet, "E", "F", 60) // reports, bios
	_ = f.SetColWidth(CompanySheet, "A", "B", 28)
	_ = f.SetColWidth(CompanySheet, "E", "E", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteLedgers renders the workbook and writes it to path.
func (w *Writer) WriteLedgers(l entity.Ledgers, path string) error {
	start := time.Now()
	b, err := w.RenderLedgers(l)
	if err != nil {
		w.logger.Error("export.xlsx.failed", "path", path, "error", err)
		return err
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		w.logger.Error("export.xlsx.failed", "path", path, "error", err)
		return fmt.Errorf("write %s: %w", path, err)
	}
	w.logger.Info("export.xlsx.ok",
		"path", path,
		"individuals", len(l.Individuals),
		"organizations", len(l.Organizations),
		"bytes", len(b),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("%s header: %w", sheet, err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("%s %s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
