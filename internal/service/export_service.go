package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/epiviu-api/internal/models"
	appErrors "github.com/noah-isme/epiviu-api/pkg/errors"
	"github.com/noah-isme/epiviu-api/pkg/export"
)

// ExportFormat names a report rendition.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// Renderer turns a dataset into a downloadable file.
type Renderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

type reportSource interface {
	ResolveRange(query ReportQuery) (models.Date, models.Date, error)
	Rows(ctx context.Context, query ReportQuery) ([]models.ReportRow, bool, error)
}

// ExportFile is a rendered report ready to stream.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders report rows as CSV, PDF or XLSX.
type ExportService struct {
	reports   reportSource
	renderers map[ExportFormat]Renderer
	logger    *zap.Logger
}

// NewExportService constructs an ExportService. Missing renderers fall back
// to the defaults of pkg/export.
func NewExportService(reports reportSource, renderers map[ExportFormat]Renderer, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	all := map[ExportFormat]Renderer{
		ExportFormatCSV:  export.NewCSVExporter(','),
		ExportFormatPDF:  export.NewPDFExporter(),
		ExportFormatXLSX: export.NewXLSXExporter("Report"),
	}
	for format, renderer := range renderers {
		if renderer != nil {
			all[format] = renderer
		}
	}
	return &ExportService{reports: reports, renderers: all, logger: logger}
}

// Export renders the report of the query range in the requested format.
func (s *ExportService) Export(ctx context.Context, query ReportQuery, format string) (*ExportFile, error) {
	if format == "" {
		format = string(ExportFormatCSV)
	}
	renderer, ok := s.renderers[ExportFormat(format)]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}

	start, end, err := s.reports.ResolveRange(query)
	if err != nil {
		return nil, err
	}
	rows, _, err := s.reports.Rows(ctx, ReportQuery{StartDate: start.String(), EndDate: end.String()})
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(buildReportDataset(start, end, rows))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}
	s.logger.Debug("report exported", zap.String("format", format), zap.Int("rows", len(rows)))

	return &ExportFile{
		Filename:    fmt.Sprintf("report_%s_%s.%s", start, end, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

func buildReportDataset(start, end models.Date, rows []models.ReportRow) export.Dataset {
	headers := []string{"Staff", "Shift", "Sector", "Missed date"}
	data := make([]map[string]string, 0, len(rows))
	for _, row := range rows {
		missed := ""
		if row.MissedDate != nil {
			missed = row.MissedDate.String()
		}
		data = append(data, map[string]string{
			"Staff":       row.StaffName,
			"Shift":       string(row.Shift),
			"Sector":      row.SectorName,
			"Missed date": missed,
		})
	}
	title := fmt.Sprintf("Visitation report %s", start)
	if start != end {
		title = fmt.Sprintf("Visitation report %s to %s", start, end)
	}
	return export.Dataset{Title: title, Headers: headers, Rows: data}
}
