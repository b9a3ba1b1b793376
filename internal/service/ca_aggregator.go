package service

import (
	"math"
	"sort"

	"github.com/noah-isme/vtc-gradebook-api/internal/models"
)

// ComputeSheet derives the CA of every enrolled trainee. Results follow roster order.
// It has no side effects and the same inputs always produce the same output.
func ComputeSheet(components []models.Component, trainees []models.EnrolledTrainee, marks []models.Mark, weights models.CAWeights) []models.TraineeCA {
	byTrainee := indexMarks(marks)
	ordered := orderComponents(components)
	results := make([]models.TraineeCA, 0, len(trainees))
	for _, trainee := range trainees {
		results = append(results, computeOrdered(trainee.TraineeID, ordered, byTrainee[trainee.TraineeID], weights))
	}
	return results
}

// ComputeTraineeCA derives one trainee's CA from the gradebook components and that
// trainee's marks keyed by component id.
func ComputeTraineeCA(traineeID string, components []models.Component, marks map[string]models.Mark, weights models.CAWeights) models.TraineeCA {
	return computeOrdered(traineeID, orderComponents(components), marks, weights)
}

func computeOrdered(traineeID string, components []models.Component, marks map[string]models.Mark, weights models.CAWeights) models.TraineeCA {
	result := models.TraineeCA{
		TraineeID:         traineeID,
		Practicals:        []models.PracticalResult{},
		AllPracticalsPass: true,
	}

	var testSum, mockSum float64
	var testCount, mockCount int
	practicalMarked := false

	for _, component := range components {
		pct, marked := percentage(component, marks)
		switch component.ComponentType {
		case models.ComponentTypeTest:
			if marked {
				testSum += pct
				testCount++
			}
		case models.ComponentTypeMock:
			if marked {
				mockSum += pct
				mockCount++
			}
		case models.ComponentTypePractical:
			practical := models.PracticalResult{ComponentID: component.ID, Name: component.Name}
			if marked {
				practicalMarked = true
				practical.Percentage = roundedPtr(pct)
				practical.Pass = pct >= models.PracticalPassMark
			}
			// an unmarked practical is not a pass
			if !practical.Pass {
				result.AllPracticalsPass = false
			}
			result.Practicals = append(result.Practicals, practical)
		}
	}

	var testAvg, mockAvg float64
	if testCount > 0 {
		testAvg = testSum / float64(testCount)
		result.TestAverage = roundedPtr(testAvg)
	}
	if mockCount > 0 {
		mockAvg = mockSum / float64(mockCount)
		result.MockAverage = roundedPtr(mockAvg)
	}
	if testCount > 0 || mockCount > 0 {
		theory := (testAvg*weights.Test + mockAvg*weights.Mock) / 100
		result.TheoryCA = roundedPtr(theory)
		result.TheoryPass = theory >= models.TheoryPassMark
	}

	switch {
	case result.TheoryPass && result.AllPracticalsPass:
		result.Overall = models.OverallCompetent
	case result.TheoryCA == nil && !practicalMarked:
		result.Overall = models.OverallPending
	default:
		result.Overall = models.OverallNotYetCompetent
	}
	return result
}

func percentage(component models.Component, marks map[string]models.Mark) (float64, bool) {
	mark, ok := marks[component.ID]
	if !ok || mark.MarksObtained == nil || component.MaxMarks <= 0 {
		return 0, false
	}
	return *mark.MarksObtained * 100 / component.MaxMarks, true
}

func orderComponents(components []models.Component) []models.Component {
	ordered := make([]models.Component, len(components))
	copy(ordered, components)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].SortOrder != ordered[j].SortOrder {
			return ordered[i].SortOrder < ordered[j].SortOrder
		}
		return ordered[i].ID < ordered[j].ID
	})
	return ordered
}

func indexMarks(marks []models.Mark) map[string]map[string]models.Mark {
	index := make(map[string]map[string]models.Mark)
	for _, mark := range marks {
		byComponent, ok := index[mark.TraineeID]
		if !ok {
			byComponent = make(map[string]models.Mark)
			index[mark.TraineeID] = byComponent
		}
		byComponent[mark.ComponentID] = mark
	}
	return index
}

func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

func roundedPtr(v float64) *float64 {
	r := round2(v)
	return &r
}
