package table

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// loadExcel 加载 Excel 首个工作表
func loadExcel(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	t := &Table{Columns: rows[0]}
	for _, rec := range rows[1:] {
		if len(rec) == 0 {
			continue
		}
		row := make([]any, len(t.Columns))
		for i := range t.Columns {
			if i < len(rec) {
				row[i] = inferCell(rec[i])
			}
		}
		t.Rows = append(t.Rows, row)
	}

	Sanitize(t)
	return t, nil
}
