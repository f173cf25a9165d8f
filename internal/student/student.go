// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

// Package student manages student records, their classroom membership, and
// cross-school transfers.
package student

import (
	"time"

	"github.com/ndthang/skolar/internal/access"
)

// Status values for a student.
const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusGraduated = "graduated"
)

// Student represents one enrolled learner. ClassroomID is empty while the
// student is unassigned; when set, the classroom always belongs to the same
// school as the student.
type Student struct {
	ID              string         `json:"id"`
	SchoolID        string         `json:"school_id"`
	ClassroomID     string         `json:"classroom_id,omitempty"`
	FirstName       string         `json:"first_name"`
	LastName        string         `json:"last_name"`
	AdmissionNumber string         `json:"admission_number"`
	Email           string         `json:"email,omitempty"`
	DateOfBirth     string         `json:"date_of_birth,omitempty"`
	Profile         map[string]any `json:"profile,omitempty"`
	Status          string         `json:"status"`
	EnrolledAt      time.Time      `json:"enrolled_at"`
	Version         int            `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Filter holds the parameters for a paginated student search.
type Filter struct {
	Scope       access.ScopedFilter
	ClassroomID string
	Query       string // Substring search against first and last name
	Statuses    []string
}

// Field names for validation
const (
	FieldSchoolID        = "school_id"
	FieldClassroomID     = "classroom_id"
	FieldFirstName       = "first_name"
	FieldLastName        = "last_name"
	FieldAdmissionNumber = "admission_number"
	FieldEmail           = "email"
	FieldDateOfBirth     = "date_of_birth"
	FieldStatus          = "status"
)
