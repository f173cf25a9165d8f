// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package sec

// # User Roles

// UserRole represents the authorization level granted to an account.
type UserRole string

const (
	// Platform-wide access across all schools
	RoleSuperadmin UserRole = "superadmin"

	// Access restricted to exactly one assigned school
	RoleSchoolAdmin UserRole = "school_admin"
)

// IsValid reports whether the role is one of the known roles.
func (r UserRole) IsValid() bool {
	return r == RoleSuperadmin || r == RoleSchoolAdmin
}

// String returns the role as a plain string.
func (r UserRole) String() string { return string(r) }
