package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
	appErrors "github.com/noah-isme/vtc-gradebook-api/pkg/errors"
)

func newExportFixture(gb *models.Gradebook) *ExportService {
	components := &fakeComponents{components: []models.Component{
		{ID: "c-prac", GradebookID: gb.ID, Name: "Wiring", ComponentType: models.ComponentTypePractical, MaxMarks: 20, SortOrder: 2},
		{ID: "c-test", GradebookID: gb.ID, Name: "Test 1", ComponentType: models.ComponentTypeTest, MaxMarks: 12.5, SortOrder: 1},
	}}
	roster := newFakeRoster()
	roster.addTrainee(models.Trainee{ID: "t1", AdmissionNumber: "A1", FullName: "Amina"}, gb.ID)
	roster.addTrainee(models.Trainee{ID: "t2", AdmissionNumber: "A2", FullName: "Brian"}, gb.ID)
	return NewExportService(newFakeGradebooks(gb), components, roster, newFakeRecorder(), nil)
}

func TestAssessorSheetCSV(t *testing.T) {
	gb := gradebookAt("gb-1", models.GradebookStatusHoTApproved)
	svc := newExportFixture(gb)

	sheet, err := svc.AssessorSheet(context.Background(), acActor, "gb-1", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "assessor_sheet_Electrical_Installation_2026.csv", sheet.Filename)
	assert.Contains(t, sheet.ContentType, "text/csv")

	records, err := csv.NewReader(bytes.NewReader(sheet.Payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Admission Number", "Trainee Name", "Test 1 (/12.5)", "Wiring (/20)", "Assessor Name", "Exam Date"}, records[0])
	assert.Equal(t, []string{"A1", "Amina", "", "", "", ""}, records[1])
	assert.Equal(t, []string{"A2", "Brian", "", "", "", ""}, records[2])
}

func TestAssessorSheetXLSX(t *testing.T) {
	svc := newExportFixture(gradebookAt("gb-1", models.GradebookStatusHoTApproved))

	sheet, err := svc.AssessorSheet(context.Background(), acActor, "gb-1", ExportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "assessor_sheet_Electrical_Installation_2026.xlsx", sheet.Filename)

	book, err := excelize.OpenReader(bytes.NewReader(sheet.Payload))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows("Assessor Sheet")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Test 1 (/12.5)", rows[0][2])
	assert.Equal(t, "Brian", rows[2][1])
}

func TestAssessorSheetRequiresCoordinator(t *testing.T) {
	svc := newExportFixture(gradebookAt("gb-1", models.GradebookStatusHoTApproved))

	for _, actor := range []models.Actor{trainerActor, hotActor, adminActor, traineeActor} {
		_, err := svc.AssessorSheet(context.Background(), actor, "gb-1", ExportFormatCSV)
		assert.ErrorIs(t, err, appErrors.ErrForbidden, string(actor.Role))
	}
}

func TestAssessorSheetRequiresHoTApproval(t *testing.T) {
	for _, status := range []models.GradebookStatus{models.GradebookStatusDraft, models.GradebookStatusSubmitted, models.GradebookStatusACApproved} {
		svc := newExportFixture(gradebookAt("gb-1", status))

		_, err := svc.AssessorSheet(context.Background(), acActor, "gb-1", ExportFormatCSV)
		assert.ErrorIs(t, err, appErrors.ErrInvalidState, string(status))
	}
}

func TestAssessorSheetUnknownFormat(t *testing.T) {
	svc := newExportFixture(gradebookAt("gb-1", models.GradebookStatusHoTApproved))

	_, err := svc.AssessorSheet(context.Background(), acActor, "gb-1", ExportFormat("pdf"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestBuildAssessorDatasetEmptyRoster(t *testing.T) {
	data := BuildAssessorDataset(nil, nil)

	assert.Equal(t, []string{AssessorHeaderAdmission, AssessorHeaderName, AssessorHeaderAssessor, AssessorHeaderExamDate}, data.Headers)
	assert.Empty(t, data.Rows)
}

func TestAssessorSheetEscapesFormulaCells(t *testing.T) {
	gb := gradebookAt("gb-1", models.GradebookStatusHoTApproved)
	components := &fakeComponents{components: []models.Component{
		{ID: "c-test", GradebookID: gb.ID, Name: "=SUM(A1:A9)", ComponentType: models.ComponentTypeTest, MaxMarks: 10, SortOrder: 1},
	}}
	roster := newFakeRoster()
	roster.addTrainee(models.Trainee{ID: "t1", AdmissionNumber: "+254700000000", FullName: "=HYPERLINK(\"http://evil.test\",\"open\")"}, gb.ID)
	roster.addTrainee(models.Trainee{ID: "t2", AdmissionNumber: "@A2", FullName: "-Brian"}, gb.ID)
	roster.addTrainee(models.Trainee{ID: "t3", AdmissionNumber: "A3", FullName: "Chep O'Neill"}, gb.ID)
	svc := NewExportService(newFakeGradebooks(gb), components, roster, newFakeRecorder(), nil)

	sheet, err := svc.AssessorSheet(context.Background(), acActor, "gb-1", ExportFormatCSV)
	require.NoError(t, err)
	records, err := csv.NewReader(bytes.NewReader(sheet.Payload)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "'=SUM(A1:A9) (/10)", records[0][2])
	assert.Equal(t, []string{"'+254700000000", "'=HYPERLINK(\"http://evil.test\",\"open\")"}, records[1][:2])
	assert.Equal(t, []string{"'@A2", "'-Brian"}, records[2][:2])
	assert.Equal(t, []string{"A3", "Chep O'Neill"}, records[3][:2])

	sheet, err = svc.AssessorSheet(context.Background(), acActor, "gb-1", ExportFormatXLSX)
	require.NoError(t, err)
	book, err := excelize.OpenReader(bytes.NewReader(sheet.Payload))
	require.NoError(t, err)
	defer book.Close()
	formula, err := book.GetCellFormula("Assessor Sheet", "B2")
	require.NoError(t, err)
	assert.Empty(t, formula)
	value, err := book.GetCellValue("Assessor Sheet", "B2")
	require.NoError(t, err)
	assert.Equal(t, "'=HYPERLINK(\"http://evil.test\",\"open\")", value)
}
