// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

/*
Package auth implements the user identity and session management layer.

It defines the core domain entities (User, RefreshToken) and logic for
authentication, token rotation, and account lifecycle.

# Architecture

This layer is the "Truth" of the system. Entities defined here have no external
dependencies and encapsulate all business rules related to user identity.
*/
package auth

import (
	"time"

	"github.com/ndthang/skolar/internal/platform/sec"
)

// # Domain Entities

// User represents an operator account: a platform superadmin or a
// school-bound administrator.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"` // Explicitly omitted from JSON for security.
	FullName     string       `json:"full_name"`
	Role         sec.UserRole `json:"role"`
	// SchoolID pins a school_admin to their tenant. Empty for superadmins.
	SchoolID string `json:"school_id,omitempty"`
	IsActive bool   `json:"is_active"`
	// Version increments exactly once per successful write.
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Refresh token lifecycle states.
const (
	TokenStatusActive  = "active"
	TokenStatusRevoked = "revoked"
	TokenStatusExpired = "expired"
)

// RefreshToken is the persisted state of one refresh JWT.
//
// TokenID matches the 'tid' claim of the JWT; FamilyID links every rotation
// descending from one login. The row, not the JWT, is authoritative: a token
// whose row is revoked is dead regardless of its signature validity.
type RefreshToken struct {
	TokenID           string     `json:"token_id"`
	FamilyID          string     `json:"family_id"`
	UserID            string     `json:"user_id"`
	Status            string     `json:"status"`
	ExpiresAt         time.Time  `json:"expires_at"`
	RevokedAt         *time.Time `json:"revoked_at,omitempty"`
	ReplacedByTokenID *string    `json:"replaced_by_token_id,omitempty"`
	CreatedByIP       string     `json:"created_by_ip"`
	UserAgent         string     `json:"user_agent"`
	CreatedAt         time.Time  `json:"created_at"`
}

// IsActive reports whether the token row is usable right now.
func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.Status == TokenStatusActive && now.Before(t.ExpiresAt)
}

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldFullName     = "full_name"
	FieldSchoolID     = "school_id"
	FieldRefreshToken = "refresh_token"
	FieldAccessToken  = "access_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldUser         = "user"
)
