// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

// Package classroom manages classrooms inside a school. Every operation is
// confined to the caller's resolved school scope.
package classroom

import (
	"time"

	"github.com/ndthang/skolar/internal/access"
)

// Status values for a classroom.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Classroom represents one homeroom group within a school.
type Classroom struct {
	ID              string    `json:"id"`
	SchoolID        string    `json:"school_id"`
	Name            string    `json:"name"`
	GradeLevel      string    `json:"grade_level,omitempty"`
	Capacity        int       `json:"capacity"`
	Resources       []string  `json:"resources"`
	HomeroomTeacher string    `json:"homeroom_teacher,omitempty"`
	Status          string    `json:"status"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Filter holds the parameters for a paginated classroom search. Scope carries
// the tenant predicate resolved by the access policy, never raw client input.
type Filter struct {
	Scope      access.ScopedFilter
	Query      string
	GradeLevel string
	Statuses   []string
}

// Field names for validation
const (
	FieldSchoolID        = "school_id"
	FieldName            = "name"
	FieldGradeLevel      = "grade_level"
	FieldCapacity        = "capacity"
	FieldResources       = "resources"
	FieldHomeroomTeacher = "homeroom_teacher"
	FieldStatus          = "status"
)
