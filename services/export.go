package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"paperai-backend/internal/graphdb"
	"paperai-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportService renders the corpus dashboard as a downloadable file.
type ExportService struct {
	store graphdb.Store
}

func NewExportService(store graphdb.Store) *ExportService {
	return &ExportService{store: store}
}

// DashboardExport wraps the overview with export bookkeeping.
type DashboardExport struct {
	ExportDate time.Time                 `json:"export_date"`
	Overview   *models.DashboardOverview `json:"overview"`
}

// BuildExport loads the current overview from the graph.
func (es *ExportService) BuildExport(ctx context.Context) (*DashboardExport, error) {
	overview, err := es.store.Overview(ctx)
	if err != nil {
		return nil, fmt.Errorf("load dashboard overview: %w", err)
	}
	return &DashboardExport{
		ExportDate: time.Now().UTC(),
		Overview:   overview,
	}, nil
}

// StreamExport writes the export to the response as an attachment in
// the requested format (json or excel).
func (es *ExportService) StreamExport(ctx *gin.Context, data *DashboardExport, format string) error {
	switch format {
	case "json":
		jsonData, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}

		ctx.Header("Content-Disposition", "attachment; filename=dashboard_export.json")
		ctx.Header("Content-Length", strconv.Itoa(len(jsonData)))
		ctx.Data(http.StatusOK, "application/json", jsonData)

	case "excel":
		buf, err := es.buildWorkbook(data)
		if err != nil {
			return err
		}

		ctx.Header("Content-Disposition", "attachment; filename=dashboard_export.xlsx")
		ctx.Header("Content-Length", strconv.Itoa(buf.Len()))
		ctx.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())

	default:
		return fmt.Errorf("unsupported format: %s", format)
	}

	return nil
}

func (es *ExportService) buildWorkbook(data *DashboardExport) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Overview"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	overview := data.Overview
	f.SetCellValue(sheetName, "A1", "Metric")
	f.SetCellValue(sheetName, "B1", "Value")
	f.SetCellValue(sheetName, "A2", "Export Date")
	f.SetCellValue(sheetName, "B2", data.ExportDate.Format("2006-01-02 15:04:05"))
	f.SetCellValue(sheetName, "A3", "Total Papers")
	f.SetCellValue(sheetName, "B3", overview.TotalPapers)
	f.SetCellValue(sheetName, "A4", "Total Authors")
	f.SetCellValue(sheetName, "B4", overview.TotalAuthors)
	f.SetCellValue(sheetName, "A5", "Total Chunks")
	f.SetCellValue(sheetName, "B5", overview.TotalChunks)

	yearSheet := "Papers Per Year"
	if _, err := f.NewSheet(yearSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetCellValue(yearSheet, "A1", "Year")
	f.SetCellValue(yearSheet, "B1", "Papers")
	for i, yc := range overview.PapersPerYear {
		row := i + 2
		f.SetCellValue(yearSheet, fmt.Sprintf("A%d", row), yc.Year)
		f.SetCellValue(yearSheet, fmt.Sprintf("B%d", row), yc.Count)
	}

	authorSheet := "Top Authors"
	if _, err := f.NewSheet(authorSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetCellValue(authorSheet, "A1", "Author")
	f.SetCellValue(authorSheet, "B1", "Papers")
	for i, ac := range overview.TopAuthors {
		row := i + 2
		f.SetCellValue(authorSheet, fmt.Sprintf("A%d", row), ac.Author)
		f.SetCellValue(authorSheet, fmt.Sprintf("B%d", row), ac.Count)
	}

	// Drop the default empty sheet excelize creates.
	f.DeleteSheet("Sheet1")

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return &buf, nil
}
