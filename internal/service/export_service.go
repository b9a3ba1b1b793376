package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
	"github.com/noah-isme/vtc-gradebook-api/pkg/export"
)

// ExportFormat selects the assessor sheet encoding.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatXLSX ExportFormat = "xlsx"
)

// Fixed assessor sheet columns around the per-component scores.
const (
	AssessorHeaderAdmission = "Admission Number"
	AssessorHeaderName      = "Trainee Name"
	AssessorHeaderAssessor  = "Assessor Name"
	AssessorHeaderExamDate  = "Exam Date"
)

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

type componentLister interface {
	List(ctx context.Context, gradebookID string) ([]models.Component, error)
}

type enrolledLister interface {
	ListEnrolled(ctx context.Context, gradebookID string) ([]models.EnrolledTrainee, error)
}

type exportObserver interface {
	ObserveExport(format string, duration time.Duration)
}

// AssessorSheet is a rendered download.
type AssessorSheet struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the blank assessor sheet handed to external assessors.
type ExportService struct {
	gradebooks gradebookGetter
	components componentLister
	roster     enrolledLister
	renderers  map[ExportFormat]datasetRenderer
	metrics    exportObserver
	logger     *zap.Logger
}

// NewExportService constructs an ExportService with CSV and XLSX renderers.
func NewExportService(gradebooks gradebookGetter, components componentLister, roster enrolledLister, metrics exportObserver, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		gradebooks: gradebooks,
		components: components,
		roster:     roster,
		renderers: map[ExportFormat]datasetRenderer{
			ExportFormatCSV:  export.NewCSVExporter(),
			ExportFormatXLSX: export.NewXLSXExporter("Assessor Sheet"),
		},
		metrics: metrics,
		logger:  logger,
	}
}

// AssessorSheet renders the sheet for an HoT-approved gradebook. Only the
// assessment coordinator may download it.
func (s *ExportService) AssessorSheet(ctx context.Context, actor models.Actor, gradebookID string, format ExportFormat) (*AssessorSheet, error) {
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[ExportFormat(strings.ToLower(string(format)))]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
	if !actor.Is(models.RoleAssessmentCoordinator) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the assessment coordinator can export assessor sheets")
	}
	gradebook, err := loadGradebook(ctx, s.gradebooks, gradebookID)
	if err != nil {
		return nil, err
	}
	if gradebook.Status != models.GradebookStatusHoTApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "assessor sheet requires an hot_approved gradebook")
	}

	start := time.Now()
	components, err := s.components.List(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load components")
	}
	trainees, err := s.roster.ListEnrolled(ctx, gradebook.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load roster")
	}
	payload, err := renderer.Render(BuildAssessorDataset(components, trainees))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to render assessor sheet")
	}
	if s.metrics != nil {
		s.metrics.ObserveExport(renderer.Extension(), time.Since(start))
	}
	s.logger.Info("assessor sheet exported",
		zap.String("gradebook_id", gradebook.ID),
		zap.String("format", renderer.Extension()),
		zap.Int("trainees", len(trainees)),
	)
	return &AssessorSheet{
		Filename:    assessorFilename(gradebook, renderer.Extension()),
		ContentType: renderer.ContentType(),
		Payload:     payload,
	}, nil
}

// BuildAssessorDataset lays out one row per trainee with blank score cells
// under a "<name> (/<max>)" column per component.
func BuildAssessorDataset(components []models.Component, trainees []models.EnrolledTrainee) export.Dataset {
	ordered := orderComponents(components)
	headers := make([]string, 0, len(ordered)+4)
	headers = append(headers, AssessorHeaderAdmission, AssessorHeaderName)
	for _, component := range ordered {
		headers = append(headers, fmt.Sprintf("%s (/%s)", escapeCell(component.Name), strconv.FormatFloat(component.MaxMarks, 'f', -1, 64)))
	}
	headers = append(headers, AssessorHeaderAssessor, AssessorHeaderExamDate)

	rows := make([][]string, 0, len(trainees))
	for _, trainee := range trainees {
		rows = append(rows, []string{escapeCell(trainee.AdmissionNumber), escapeCell(trainee.FullName)})
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

// escapeCell quotes text a spreadsheet would otherwise evaluate as a formula.
func escapeCell(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + value
	}
	return value
}

func assessorFilename(gradebook *models.Gradebook, extension string) string {
	return fmt.Sprintf("assessor_sheet_%s_%s.%s",
		sanitizeFilename(gradebook.Title),
		sanitizeFilename(gradebook.AcademicYear),
		extension,
	)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_", "\"", "")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
