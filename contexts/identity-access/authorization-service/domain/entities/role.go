package entities

import "time"

// DefaultRole is granted to every newly registered identity.
const DefaultRole = "user"

// RoleAssignment binds one role to one subject. The (UserID, RoleID) pair is
// unique; granting the same pair twice is a conflict, not a second row.
type RoleAssignment struct {
	UserID    int64
	RoleID    string
	GrantedBy string
	GrantedAt time.Time
}
