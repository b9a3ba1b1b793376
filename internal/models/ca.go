package models

// OverallCompetency is the computed outcome for a trainee. It is never stored.
type OverallCompetency string

const (
	OverallCompetent       OverallCompetency = "Competent"
	OverallPending         OverallCompetency = "Pending"
	OverallNotYetCompetent OverallCompetency = "Not Yet Competent"
)

// Thresholds applied by CA aggregation, in percent.
const (
	TheoryPassMark    = 50.0
	PracticalPassMark = 60.0
)

// PracticalResult is one practical component's outcome for a trainee.
type PracticalResult struct {
	ComponentID string   `json:"component_id"`
	Name        string   `json:"name"`
	Percentage  *float64 `json:"percentage"`
	Pass        bool     `json:"pass"`
}

// TraineeCA is the continuous assessment computed for one trainee.
// Nil averages mean no marked component of that type exists.
type TraineeCA struct {
	TraineeID         string            `json:"trainee_id"`
	TestAverage       *float64          `json:"test_average"`
	MockAverage       *float64          `json:"mock_average"`
	TheoryCA          *float64          `json:"theory_ca"`
	TheoryPass        bool              `json:"theory_pass"`
	Practicals        []PracticalResult `json:"practicals"`
	AllPracticalsPass bool              `json:"all_practicals_pass"`
	Overall           OverallCompetency `json:"overall"`
}

// GradebookSheet is the full marking table for a gradebook.
type GradebookSheet struct {
	Gradebook  Gradebook         `json:"gradebook"`
	Components []Component       `json:"components"`
	Groups     []ComponentGroup  `json:"groups"`
	Trainees   []EnrolledTrainee `json:"trainees"`
	Marks      []Mark            `json:"marks"`
	Feedback   []Feedback        `json:"feedback"`
	Results    []TraineeCA       `json:"results"`
}
