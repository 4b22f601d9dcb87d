// internal/httpapi/report_excel.go
package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/tamzrod/kneader-monitor/internal/archive"
)

const (
	reportSheet = "Report"
	xlsxType    = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ReportHeader is the first row of an exported report.
var ReportHeader = []string{
	"Kneader",
	"Address",
	"Weight (kg)",
	"Recipe",
	"Date",
	"Shift",
	"Time",
}

var reportColumnWidths = []float64{20, 10, 12, 18, 14, 10, 10}

// GenerateReport renders records as an XLSX workbook.
func GenerateReport(recs []archive.Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(reportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for col, header := range ReportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(reportSheet, cell, header); err != nil {
			return nil, fmt.Errorf("set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(reportSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("set header style: %w", err)
		}
	}

	for i, width := range reportColumnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(reportSheet, col, col, width); err != nil {
			return nil, err
		}
	}

	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []any{
			rec.Kneader,
			int(rec.Address),
			rec.Weight,
			rec.RecipeName,
			rec.Date,
			rec.Shift,
			clockOf(rec.Timestamp),
		}
		if err := f.SetSheetRow(reportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// clockOf extracts HH:MM:SS from an archive timestamp.
func clockOf(ts string) string {
	if len(ts) < 19 {
		return ""
	}
	return ts[11:19]
}

// ExportPosted renders the records in the request body: {"data": [...]}.
func (h *Handler) ExportPosted(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Data []archive.Record `json:"data"`
	}
	if err := readBodyJSON(r, maxReportBody, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
		return
	}
	h.writeWorkbook(w, body.Data, "report.xlsx")
}

// ExportRange renders the archived records between ?from= and ?to=
// (YYYY-MM-DD, inclusive). Both default to today.
func (h *Handler) ExportRange(w http.ResponseWriter, r *http.Request) {
	today := archive.DateOf(time.Now())
	fromStr := r.URL.Query().Get("from")
	if fromStr == "" {
		fromStr = today
	}
	toStr := r.URL.Query().Get("to")
	if toStr == "" {
		toStr = fromStr
	}

	from, err1 := time.Parse(dateLayout, fromStr)
	to, err2 := time.Parse(dateLayout, toStr)
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD")
		return
	}

	recs, err := h.Archive.Range(from, to)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeWorkbook(w, recs, fmt.Sprintf("report_%s_%s.xlsx", fromStr, toStr))
}

func (h *Handler) writeWorkbook(w http.ResponseWriter, recs []archive.Record, name string) {
	raw, err := GenerateReport(recs)
	if err != nil {
		h.logger().Error("report export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", "attachment; filename="+name)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}
