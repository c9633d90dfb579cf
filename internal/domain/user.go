package domain

import (
	"strings"
	"time"
)

// Role is the marketplace role of a user
type Role string

const (
	RoleStudent    Role = "STUDENT"
	RoleInstructor Role = "INSTRUCTOR"
	RoleAdmin      Role = "ADMIN"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleInstructor, RoleAdmin:
		return true
	}
	return false
}

// UserStatus is the account status reported by the API
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusInactive  UserStatus = "INACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
	UserStatusDeleted   UserStatus = "DELETED"
)

// User represents the authenticated principal or any user returned by the API
type User struct {
	ID                string     `json:"id"`
	Email             string     `json:"email"`
	FirstName         string     `json:"firstName"`
	LastName          string     `json:"lastName"`
	Role              Role       `json:"role"`
	Status            UserStatus `json:"status,omitempty"`
	PhoneNumber       string     `json:"phoneNumber,omitempty"`
	ProfilePictureURL string     `json:"profilePictureUrl,omitempty"`
	Bio               string     `json:"bio,omitempty"`
	Timezone          string     `json:"timezone,omitempty"`
	Language          string     `json:"language,omitempty"`
	EmailVerified     bool       `json:"emailVerified"`
	CreatedAt         *time.Time `json:"createdAt,omitempty"`
	UpdatedAt         *time.Time `json:"updatedAt,omitempty"`
}

// DisplayName returns "First Last", falling back to the email and then "Anonymous"
func (u User) DisplayName() string {
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	case u.Email != "":
		return u.Email
	}
	return "Anonymous"
}

// Merge copies every non-zero field of other onto a copy of u.
// EmailVerified is taken from other whenever other carries an ID, since a
// full profile is authoritative for that flag.
func (u User) Merge(other User) User {
	merged := u
	if other.ID != "" {
		merged.ID = other.ID
		merged.EmailVerified = other.EmailVerified
	}
	if other.Email != "" {
		merged.Email = other.Email
	}
	if other.FirstName != "" {
		merged.FirstName = other.FirstName
	}
	if other.LastName != "" {
		merged.LastName = other.LastName
	}
	if other.Role != "" {
		merged.Role = other.Role
	}
	if other.Status != "" {
		merged.Status = other.Status
	}
	if other.PhoneNumber != "" {
		merged.PhoneNumber = other.PhoneNumber
	}
	if other.ProfilePictureURL != "" {
		merged.ProfilePictureURL = other.ProfilePictureURL
	}
	if other.Bio != "" {
		merged.Bio = other.Bio
	}
	if other.Timezone != "" {
		merged.Timezone = other.Timezone
	}
	if other.Language != "" {
		merged.Language = other.Language
	}
	if other.CreatedAt != nil {
		merged.CreatedAt = other.CreatedAt
	}
	if other.UpdatedAt != nil {
		merged.UpdatedAt = other.UpdatedAt
	}
	return merged
}

// UserPatch is a partial identity update. Nil fields are left untouched.
type UserPatch struct {
	FirstName         *string     `json:"firstName,omitempty"`
	LastName          *string     `json:"lastName,omitempty"`
	PhoneNumber       *string     `json:"phoneNumber,omitempty"`
	ProfilePictureURL *string     `json:"profilePictureUrl,omitempty"`
	Bio               *string     `json:"bio,omitempty"`
	Timezone          *string     `json:"timezone,omitempty"`
	Language          *string     `json:"language,omitempty"`
	Status            *UserStatus `json:"status,omitempty"`
	EmailVerified     *bool       `json:"emailVerified,omitempty"`
}

// Apply returns a copy of u with the patch applied
func (p UserPatch) Apply(u User) User {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.PhoneNumber != nil {
		u.PhoneNumber = *p.PhoneNumber
	}
	if p.ProfilePictureURL != nil {
		u.ProfilePictureURL = *p.ProfilePictureURL
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Timezone != nil {
		u.Timezone = *p.Timezone
	}
	if p.Language != nil {
		u.Language = *p.Language
	}
	if p.Status != nil {
		u.Status = *p.Status
	}
	if p.EmailVerified != nil {
		u.EmailVerified = *p.EmailVerified
	}
	return u
}

// UpdateProfileRequest is the body of PUT /users/profile
type UpdateProfileRequest struct {
	FirstName   *string `json:"firstName,omitempty"`
	LastName    *string `json:"lastName,omitempty"`
	PhoneNumber *string `json:"phoneNumber,omitempty"`
	Bio         *string `json:"bio,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
	Language    *string `json:"language,omitempty"`
}

// Patch converts the request into the identity patch it implies
func (r UpdateProfileRequest) Patch() UserPatch {
	return UserPatch{
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		PhoneNumber: r.PhoneNumber,
		Bio:         r.Bio,
		Timezone:    r.Timezone,
		Language:    r.Language,
	}
}

// UserStats is returned by GET /users/{id}/stats
type UserStats struct {
	TotalCoursesEnrolled int     `json:"totalCoursesEnrolled"`
	CompletedCourses     int     `json:"completedCourses"`
	InProgressCourses    int     `json:"inProgressCourses"`
	TotalLearningTime    int64   `json:"totalLearningTime"`
	AverageProgress      float64 `json:"averageProgress"`
	CertificatesEarned   int     `json:"certificatesEarned"`
}
