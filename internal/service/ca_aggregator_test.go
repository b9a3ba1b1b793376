package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
)

func caComponents() []models.Component {
	return []models.Component{
		{ID: "c-test", GradebookID: "gb-1", Name: "Test 1", ComponentType: models.ComponentTypeTest, MaxMarks: 100, SortOrder: 1},
		{ID: "c-mock", GradebookID: "gb-1", Name: "Mock", ComponentType: models.ComponentTypeMock, MaxMarks: 50, SortOrder: 2},
		{ID: "c-prac", GradebookID: "gb-1", Name: "Wiring", ComponentType: models.ComponentTypePractical, MaxMarks: 20, SortOrder: 3},
		{ID: "c-asg", GradebookID: "gb-1", Name: "Assignment", ComponentType: models.ComponentTypeAssignment, MaxMarks: 10, SortOrder: 4},
	}
}

func markFor(componentID, traineeID string, score float64) models.Mark {
	return models.Mark{ComponentID: componentID, TraineeID: traineeID, MarksObtained: floatPtr(score), CompetencyStatus: models.CompetencyPending}
}

func TestComputeTraineeCACompetent(t *testing.T) {
	marks := map[string]models.Mark{
		"c-test": markFor("c-test", "t1", 70),
		"c-mock": markFor("c-mock", "t1", 35),
		"c-prac": markFor("c-prac", "t1", 14),
	}
	result := ComputeTraineeCA("t1", caComponents(), marks, models.CAWeights{Test: 40, Mock: 60})

	require.NotNil(t, result.TestAverage)
	require.NotNil(t, result.MockAverage)
	require.NotNil(t, result.TheoryCA)
	assert.Equal(t, 70.0, *result.TestAverage)
	assert.Equal(t, 70.0, *result.MockAverage)
	assert.Equal(t, 70.0, *result.TheoryCA)
	assert.True(t, result.TheoryPass)
	require.Len(t, result.Practicals, 1)
	assert.Equal(t, 70.0, *result.Practicals[0].Percentage)
	assert.True(t, result.AllPracticalsPass)
	assert.Equal(t, models.OverallCompetent, result.Overall)
}

func TestComputeTraineeCAPracticalBelowThreshold(t *testing.T) {
	marks := map[string]models.Mark{
		"c-test": markFor("c-test", "t1", 70),
		"c-mock": markFor("c-mock", "t1", 35),
		"c-prac": markFor("c-prac", "t1", 11),
	}
	result := ComputeTraineeCA("t1", caComponents(), marks, models.CAWeights{Test: 40, Mock: 60})

	assert.True(t, result.TheoryPass)
	assert.Equal(t, 55.0, *result.Practicals[0].Percentage)
	assert.False(t, result.Practicals[0].Pass)
	assert.False(t, result.AllPracticalsPass)
	assert.Equal(t, models.OverallNotYetCompetent, result.Overall)
}

func TestComputeTraineeCANoMarksIsPending(t *testing.T) {
	result := ComputeTraineeCA("t1", caComponents(), nil, models.CAWeights{Test: 40, Mock: 60})

	assert.Nil(t, result.TestAverage)
	assert.Nil(t, result.MockAverage)
	assert.Nil(t, result.TheoryCA)
	assert.False(t, result.TheoryPass)
	assert.False(t, result.AllPracticalsPass)
	require.Len(t, result.Practicals, 1)
	assert.Nil(t, result.Practicals[0].Percentage)
	assert.Equal(t, models.OverallPending, result.Overall)
}

func TestComputeTraineeCAUnmarkedPracticalBlocksCompetence(t *testing.T) {
	marks := map[string]models.Mark{
		"c-test": markFor("c-test", "t1", 90),
		"c-mock": markFor("c-mock", "t1", 45),
	}
	result := ComputeTraineeCA("t1", caComponents(), marks, models.CAWeights{Test: 50, Mock: 50})

	assert.True(t, result.TheoryPass)
	assert.False(t, result.AllPracticalsPass)
	assert.Equal(t, models.OverallNotYetCompetent, result.Overall)
}

func TestComputeTraineeCANullMarkCountsAsUnmarked(t *testing.T) {
	marks := map[string]models.Mark{
		"c-test": {ComponentID: "c-test", TraineeID: "t1", CompetencyStatus: models.CompetencyPending},
	}
	result := ComputeTraineeCA("t1", caComponents(), marks, models.CAWeights{Test: 40, Mock: 60})

	assert.Nil(t, result.TestAverage)
	assert.Equal(t, models.OverallPending, result.Overall)
}

func TestComputeTraineeCAAssignmentsDoNotAffectResult(t *testing.T) {
	base := map[string]models.Mark{
		"c-test": markFor("c-test", "t1", 60),
	}
	withAssignment := map[string]models.Mark{
		"c-test": markFor("c-test", "t1", 60),
		"c-asg":  markFor("c-asg", "t1", 0),
	}
	weights := models.CAWeights{Test: 40, Mock: 60}

	assert.Equal(t,
		ComputeTraineeCA("t1", caComponents(), base, weights),
		ComputeTraineeCA("t1", caComponents(), withAssignment, weights),
	)
}

func TestComputeTraineeCAOnlyTestsMarked(t *testing.T) {
	marks := map[string]models.Mark{
		"c-test": markFor("c-test", "t1", 80),
	}
	result := ComputeTraineeCA("t1", caComponents(), marks, models.CAWeights{Test: 40, Mock: 60})

	require.NotNil(t, result.TheoryCA)
	assert.Nil(t, result.MockAverage)
	assert.Equal(t, 32.0, *result.TheoryCA)
	assert.False(t, result.TheoryPass)
	assert.Equal(t, models.OverallNotYetCompetent, result.Overall)
}

func TestComputeTraineeCAWeightsNeedNotSumToHundred(t *testing.T) {
	marks := map[string]models.Mark{
		"c-test": markFor("c-test", "t1", 50),
		"c-mock": markFor("c-mock", "t1", 25),
	}
	result := ComputeTraineeCA("t1", caComponents(), marks, models.CAWeights{Test: 80, Mock: 80})

	assert.Equal(t, 80.0, *result.TheoryCA)
}

func TestComputeTraineeCAAveragesAndRounding(t *testing.T) {
	components := []models.Component{
		{ID: "t-a", Name: "Test A", ComponentType: models.ComponentTypeTest, MaxMarks: 30, SortOrder: 1},
		{ID: "t-b", Name: "Test B", ComponentType: models.ComponentTypeTest, MaxMarks: 30, SortOrder: 2},
		{ID: "t-c", Name: "Test C", ComponentType: models.ComponentTypeTest, MaxMarks: 30, SortOrder: 3},
	}
	marks := map[string]models.Mark{
		"t-a": markFor("t-a", "t1", 10),
		"t-b": markFor("t-b", "t1", 20),
		"t-c": markFor("t-c", "t1", 20),
	}
	result := ComputeTraineeCA("t1", components, marks, models.CAWeights{Test: 100})

	// (33.33.. + 66.66.. + 66.66..) / 3
	assert.Equal(t, 55.56, *result.TestAverage)
	assert.Equal(t, 55.56, *result.TheoryCA)
	assert.True(t, result.TheoryPass)
}

func TestComputeTraineeCAZeroMaxMarksIsUnmarked(t *testing.T) {
	components := []models.Component{
		{ID: "p", Name: "Practical", ComponentType: models.ComponentTypePractical, MaxMarks: 0},
	}
	marks := map[string]models.Mark{"p": markFor("p", "t1", 5)}
	result := ComputeTraineeCA("t1", components, marks, models.CAWeights{})

	assert.Nil(t, result.Practicals[0].Percentage)
	assert.Equal(t, models.OverallPending, result.Overall)
}

func TestComputeSheetIsDeterministic(t *testing.T) {
	trainees := []models.EnrolledTrainee{
		{TraineeID: "t1", AdmissionNumber: "A1", FullName: "Amina"},
		{TraineeID: "t2", AdmissionNumber: "A2", FullName: "Brian"},
	}
	marks := []models.Mark{
		markFor("c-test", "t1", 70),
		markFor("c-mock", "t1", 35),
		markFor("c-prac", "t1", 14),
		markFor("c-prac", "t2", 19),
		markFor("c-test", "t2", 33),
	}
	weights := models.CAWeights{Test: 40, Mock: 60}

	first := ComputeSheet(caComponents(), trainees, marks, weights)

	shuffledComponents := caComponents()
	shuffledComponents[0], shuffledComponents[2] = shuffledComponents[2], shuffledComponents[0]
	shuffledMarks := []models.Mark{marks[4], marks[2], marks[0], marks[3], marks[1]}
	second := ComputeSheet(shuffledComponents, trainees, shuffledMarks, weights)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))

	require.Len(t, first, 2)
	assert.Equal(t, "t1", first[0].TraineeID)
	assert.Equal(t, models.OverallCompetent, first[0].Overall)
	assert.Equal(t, "t2", first[1].TraineeID)
	assert.Equal(t, models.OverallNotYetCompetent, first[1].Overall)
}

func TestComputeSheetEmptyRoster(t *testing.T) {
	results := ComputeSheet(caComponents(), nil, nil, models.CAWeights{Test: 40, Mock: 60})

	assert.NotNil(t, results)
	assert.Empty(t, results)
}
