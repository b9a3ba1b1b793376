package models

import "github.com/golang-jwt/jwt/v5"

// UserRole represents the roles issued by the identity provider.
type UserRole string

const (
	RoleAdmin                 UserRole = "ADMIN"
	RoleTrainer               UserRole = "TRAINER"
	RoleHeadOfTraining        UserRole = "HOT"
	RoleAssessmentCoordinator UserRole = "AC"
	RoleTrainee               UserRole = "TRAINEE"
)

// Valid reports whether the role is one the API understands.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTrainer, RoleHeadOfTraining, RoleAssessmentCoordinator, RoleTrainee:
		return true
	}
	return false
}

// IsStaff is true for every role except trainees.
func (r UserRole) IsStaff() bool {
	return r.Valid() && r != RoleTrainee
}

// StaffRoles lists the roles allowed to read full gradebooks.
var StaffRoles = []UserRole{RoleAdmin, RoleTrainer, RoleHeadOfTraining, RoleAssessmentCoordinator}

// Actor identifies who performs a mutation. It is passed explicitly into every
// service call rather than read from ambient session state.
type Actor struct {
	UserID string   `json:"user_id"`
	Role   UserRole `json:"role"`
}

// Is reports whether the actor holds the given role.
func (a Actor) Is(role UserRole) bool {
	return a.Role == role
}

// JWTClaims represents the access token payload minted by the identity provider.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}

// Actor projects the claims onto the service-level actor.
func (c *JWTClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, Role: c.Role}
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
