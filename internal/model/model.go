package model

import (
	"strings"
	"time"
)

// Role is the capability level carried in a token.
type Role string

const (
	RoleStandard Role = "standard"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool { return r == RoleStandard || r == RoleAdmin }

// User is a registered identity.
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	ProfilePicture string    `json:"profilePicture,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Snapshot copies the identity fields that records embed. Later profile
// changes do not touch snapshots already written.
func (u User) Snapshot() Snapshot {
	return Snapshot{Name: u.Name, Email: NormalizeEmail(u.Email)}
}

// Snapshot is the denormalized user copy stored inside records.
type Snapshot struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Complete reports whether both name and email are present.
func (s Snapshot) Complete() bool {
	return strings.TrimSpace(s.Name) != "" && strings.TrimSpace(s.Email) != ""
}

// Normalized trims the name and normalizes the email.
func (s Snapshot) Normalized() Snapshot {
	return Snapshot{Name: strings.TrimSpace(s.Name), Email: NormalizeEmail(s.Email)}
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// AttendanceRecord is one attendance mark.
type AttendanceRecord struct {
	ID        string    `json:"id"`
	User      Snapshot  `json:"user"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Time      string    `json:"time"` // HH:MM
	CreatedAt time.Time `json:"createdAt"`
}

// LeaveStatus is a leave request state.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "Pending"
	LeaveAccepted LeaveStatus = "Accepted"
	LeaveRejected LeaveStatus = "Rejected"
)

// Terminal reports whether no further transition is expected from s.
func (s LeaveStatus) Terminal() bool { return s == LeaveAccepted || s == LeaveRejected }

// LeaveRequest is a request for time off.
type LeaveRequest struct {
	ID        string      `json:"id"`
	User      Snapshot    `json:"user"`
	FromDate  string      `json:"fromDate"`
	ToDate    string      `json:"toDate"`
	Reason    string      `json:"reason"`
	Status    LeaveStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	DecidedAt *time.Time  `json:"decidedAt,omitempty"`
}
