package models

import "time"

// MarkQueryType categorises a trainee dispute.
type MarkQueryType string

const (
	MarkQueryIncorrectMark MarkQueryType = "incorrect_mark"
	MarkQueryMissingMark   MarkQueryType = "missing_mark"
	MarkQueryRemark        MarkQueryType = "remark_request"
	MarkQueryOther         MarkQueryType = "other"
)

// Valid reports whether the type is known.
func (t MarkQueryType) Valid() bool {
	switch t {
	case MarkQueryIncorrectMark, MarkQueryMissingMark, MarkQueryRemark, MarkQueryOther:
		return true
	}
	return false
}

// QueryStatus tracks a mark query. Resolved and rejected are terminal.
type QueryStatus string

const (
	QueryStatusOpen     QueryStatus = "open"
	QueryStatusResolved QueryStatus = "resolved"
	QueryStatusRejected QueryStatus = "rejected"
)

// Terminal reports whether no further transitions are possible.
func (s QueryStatus) Terminal() bool {
	return s == QueryStatusResolved || s == QueryStatusRejected
}

// MarkQuery is a trainee-raised dispute about a mark.
type MarkQuery struct {
	ID              string        `db:"id" json:"id"`
	GradebookID     string        `db:"gradebook_id" json:"gradebook_id"`
	ComponentID     string        `db:"component_id" json:"component_id"`
	TraineeID       string        `db:"trainee_id" json:"trainee_id"`
	QueryType       MarkQueryType `db:"query_type" json:"query_type"`
	Subject         string        `db:"subject" json:"subject"`
	Description     string        `db:"description" json:"description"`
	Status          QueryStatus   `db:"status" json:"status"`
	ResolutionNotes *string       `db:"resolution_notes" json:"resolution_notes,omitempty"`
	RaisedBy        string        `db:"raised_by" json:"raised_by"`
	ResolvedBy      *string       `db:"resolved_by" json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time    `db:"resolved_at" json:"resolved_at,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

// MarkQueryFilter scopes query listings.
type MarkQueryFilter struct {
	GradebookID string
	TraineeID   string
	Status      QueryStatus
}
