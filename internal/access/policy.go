// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

/*
Package access implements the multi-tenant authorization policy.

Every read and write in the system is confined to a school scope derived from
the caller's claims, never from client input alone. The policy is enforced
twice: proactively (scope resolution before the query) and reactively (an
entity-level check after the fetch). A bug in one layer is caught by the other.

# Architecture

All functions here are pure: they take claims and return a decision. No I/O,
no storage, no clock. That keeps the policy trivially testable and lets the
same rules serve HTTP handlers, background jobs, and tests unchanged.
*/
package access

import (
	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/sec"
	"github.com/ndthang/skolar/internal/platform/validate"
)

// Scope is the resolved tenant boundary of one request.
//
// An empty SchoolID means the caller operates platform-wide, which only a
// superadmin can reach.
type Scope struct {
	SchoolID string
}

// IsScoped reports whether the scope is pinned to a concrete school.
func (s Scope) IsScoped() bool {
	return s.SchoolID != ""
}

// Filter returns the predicate fragment that storage listings must apply.
// Unscoped access contributes no predicate.
func (s Scope) Filter() ScopedFilter {
	return ScopedFilter{SchoolID: s.SchoolID}
}

// ScopedFilter carries the school-equality predicate into storage queries.
// A zero value applies no tenant restriction.
type ScopedFilter struct {
	SchoolID string
}

// # Authentication Gates

// EnsureAuthenticated fails with AUTH_UNAUTHENTICATED when no claims are present.
func EnsureAuthenticated(claims *sec.AuthClaims) error {
	if claims == nil {
		return apperr.Unauthorized("Authentication required")
	}
	return nil
}

// EnsureRole fails with AUTH_FORBIDDEN unless the caller holds one of the
// allowed roles. Roles are flat: superadmin does not implicitly pass
// school_admin checks or vice versa.
func EnsureRole(claims *sec.AuthClaims, roles ...sec.UserRole) error {
	if err := EnsureAuthenticated(claims); err != nil {
		return err
	}

	callerRole := sec.UserRole(claims.Role)
	for _, role := range roles {
		if callerRole == role {
			return nil
		}
	}

	return apperr.Forbidden("Insufficient permissions")
}

// # Scope Resolution (proactive)

/*
ResolveSchoolScope derives the tenant boundary for an operation.

The requested school id comes from client input (query parameter or payload
field) and can narrow but never widen the caller's reach:

  - school_admin: always pinned to their own school. A missing assignment
    fails SCOPE_SCHOOL_NOT_ASSIGNED; requesting any other school fails
    SCOPE_SCHOOL_MISMATCH. Requesting their own school is a no-op.
  - superadmin: scoped to the requested school when one is given, otherwise
    unscoped. Operations that cannot be meaningful platform-wide (e.g.
    creating a classroom) set requireExplicit, turning an empty request into
    VALIDATION_REQUIRED_SCHOOL_ID.

Parameters:
  - claims: The authenticated caller, may be nil.
  - requestedSchoolID: Client-supplied school id, may be empty.
  - requireExplicit: Whether an unscoped result is acceptable.

Returns:
  - Scope: The resolved boundary.
  - error: One of the scope-policy failures above.
*/
func ResolveSchoolScope(claims *sec.AuthClaims, requestedSchoolID string, requireExplicit bool) (Scope, error) {
	if err := EnsureAuthenticated(claims); err != nil {
		return Scope{}, err
	}

	switch sec.UserRole(claims.Role) {
	case sec.RoleSchoolAdmin:
		if claims.SchoolID == "" {
			return Scope{}, apperr.Forbidden("No school is assigned to this account").
				WithCode("SCOPE_SCHOOL_NOT_ASSIGNED")
		}
		if requestedSchoolID != "" && requestedSchoolID != claims.SchoolID {
			return Scope{}, apperr.Forbidden("Access to the requested school is not allowed").
				WithCode("SCOPE_SCHOOL_MISMATCH")
		}
		return Scope{SchoolID: claims.SchoolID}, nil

	case sec.RoleSuperadmin:
		if requestedSchoolID == "" && requireExplicit {
			return Scope{}, validate.RequiredError("school_id", "school_id is required").
				WithCode("VALIDATION_REQUIRED_SCHOOL_ID")
		}
		return Scope{SchoolID: requestedSchoolID}, nil
	}

	return Scope{}, apperr.Forbidden("Insufficient permissions")
}

// # Entity Enforcement (reactive)

// EnforceEntityScope re-checks the boundary against a fetched entity.
//
// It exists as a second line of defense: even if a storage query missed its
// tenant predicate, a school_admin can never observe an entity outside their
// school. Superadmins always pass.
func EnforceEntityScope(claims *sec.AuthClaims, entitySchoolID string) error {
	if err := EnsureAuthenticated(claims); err != nil {
		return err
	}

	if sec.UserRole(claims.Role) == sec.RoleSuperadmin {
		return nil
	}

	if claims.SchoolID == "" || claims.SchoolID != entitySchoolID {
		return apperr.Forbidden("Insufficient permissions")
	}

	return nil
}
