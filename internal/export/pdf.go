// Package export 生成采购凭证PDF与采购报表XLSX
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/salonback/pkg/utils"
)

// VoucherItem 凭证明细行
type VoucherItem struct {
	Insumo         string
	Cantidad       int
	PrecioUnitario float64
	Subtotal       float64
}

// Voucher 采购凭证数据
type Voucher struct {
	ID        int64
	Fecha     time.Time
	Proveedor string
	Estado    string
	Motivo    string
	Items     []VoucherItem
	Total     float64
}

// Filename 凭证文件名 Compra_<id>_<dd-mm-yyyy>.pdf
func (v *Voucher) Filename() string {
	return fmt.Sprintf("Compra_%d_%s.pdf", v.ID, utils.DateStamp(v.Fecha))
}

// PurchasePDF 渲染采购凭证. 表格渲染失败时退化为纯文本行
func PurchasePDF(v *Voucher) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	writeHeader(pdf, v)

	if err := renderTable(pdf, v); err != nil {
		pdf = fpdf.New("P", "mm", "A4", "")
		pdf.AddPage()
		writeHeader(pdf, v)
		renderPlain(pdf, v)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func writeHeader(pdf *fpdf.Fpdf, v *Voucher) {
	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Comprobante de Compra", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Compra N° %d", v.ID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Fecha: "+v.Fecha.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Proveedor: "+v.Proveedor, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Estado: "+v.Estado, "", 1, "L", false, 0, "")
	if v.Motivo != "" {
		pdf.CellFormat(0, 7, "Motivo de anulación: "+v.Motivo, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

// renderTable 表格布局: 列头 + 明细行 + 总计行
func renderTable(pdf *fpdf.Fpdf, v *Voucher) error {
	widths := []float64{80, 25, 40, 40}
	headers := []string{"Insumo", "Cantidad", "Precio unitario", "Subtotal"}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, item := range v.Items {
		pdf.CellFormat(widths[0], 7, item.Insumo, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 7, fmt.Sprintf("%d", item.Cantidad), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[2], 7, fmt.Sprintf("$ %.2f", item.PrecioUnitario), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[3], 7, fmt.Sprintf("$ %.2f", item.Subtotal), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2], 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(widths[3], 8, fmt.Sprintf("$ %.2f", v.Total), "1", 1, "R", false, 0, "")

	return pdf.Error()
}

// renderPlain 手工定位的文本行, 表格渲染不可用时的退路
func renderPlain(pdf *fpdf.Fpdf, v *Voucher) {
	pdf.SetFont("Helvetica", "", 10)
	for _, item := range v.Items {
		line := fmt.Sprintf("%s  x%d  $ %.2f  =  $ %.2f",
			item.Insumo, item.Cantidad, item.PrecioUnitario, item.Subtotal)
		pdf.CellFormat(0, 6, line, "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, fmt.Sprintf("Total: $ %.2f", v.Total), "", 1, "L", false, 0, "")
}
