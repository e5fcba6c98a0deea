package export

import (
	"fmt"
	"time"

	"github.com/salonback/pkg/utils"
	"github.com/xuri/excelize/v2"
)

// ReportRow 采购报表行
type ReportRow struct {
	ID        int64
	Fecha     time.Time
	Proveedor string
	Items     int
	Total     float64
	Estado    string
}

// PurchasesXLSX 生成采购报表
func PurchasesXLSX(rows []ReportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Compras"
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headers := []string{"N°", "Fecha", "Proveedor", "Ítems", "Total", "Estado"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, row := range rows {
		values := []interface{}{
			row.ID,
			row.Fecha.Format("02/01/2006"),
			row.Proveedor,
			row.Items,
			row.Total,
			row.Estado,
		}
		for c, v := range values {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

// ReportFilename 报表文件名
func ReportFilename(now time.Time) string {
	return fmt.Sprintf("Reporte_Compras_%s.xlsx", utils.DateStamp(now))
}
