package models

// Trainee is a learner registered at the centre. Registration itself is owned elsewhere.
type Trainee struct {
	ID              string  `db:"id" json:"id"`
	UserID          *string `db:"user_id" json:"user_id,omitempty"`
	AdmissionNumber string  `db:"admission_number" json:"admission_number"`
	FullName        string  `db:"full_name" json:"full_name"`
	QualificationID *string `db:"qualification_id" json:"qualification_id,omitempty"`
	TradeID         *string `db:"trade_id" json:"trade_id,omitempty"`
	Level           *string `db:"level" json:"level,omitempty"`
	IntakeLabel     *string `db:"intake_label" json:"intake_label,omitempty"`
}

// Qualification is the trade/qualification lookup used to match trainees to gradebooks.
type Qualification struct {
	ID        string  `db:"id" json:"id"`
	Name      string  `db:"name" json:"name"`
	TradeID   *string `db:"trade_id" json:"trade_id,omitempty"`
	HasLevels bool    `db:"has_levels" json:"has_levels"`
}

// TraineeMatch describes which trainees belong on a gradebook roster.
type TraineeMatch struct {
	QualificationID string
	TradeID         *string
	Level           *string
}
