// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

// Package school manages the School entity, the unit of tenant isolation for
// classrooms, students, and school-admin accounts.
package school

import "time"

// Status values for a school.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// School represents one institution on the platform.
type School struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Code         string         `json:"code,omitempty"`
	Address      string         `json:"address,omitempty"`
	ContactEmail string         `json:"contact_email,omitempty"`
	ContactPhone string         `json:"contact_phone,omitempty"`
	Profile      map[string]any `json:"profile,omitempty"`
	Status       string         `json:"status"`
	Version      int            `json:"version"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// Filter holds the parameters for a paginated school search.
type Filter struct {
	Query    string   // Substring search against the name
	Statuses []string // Optional status filter
}

// Field names for validation
const (
	FieldName         = "name"
	FieldCode         = "code"
	FieldAddress      = "address"
	FieldContactEmail = "contact_email"
	FieldContactPhone = "contact_phone"
	FieldStatus       = "status"
	FieldProfile      = "profile"
)
