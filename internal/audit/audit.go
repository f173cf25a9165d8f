// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

/*
Package audit provides the append-only activity trail for sensitive operations.

Districts are subject to records-retention rules, so every mutating operation
on identity or enrollment data leaves an entry: who acted, on what, with which
outcome. Entries are written best-effort — an audit failure must never fail
the business operation it describes.
*/
package audit

import "time"

// Entry statuses.
const (
	StatusSuccess = "success"
	StatusDenied  = "denied"
	StatusFailed  = "failed"
)

// Well-known actions. Free-form actions are allowed; these constants exist so
// the common ones stay grep-able.
const (
	ActionLogin             = "auth.login"
	ActionRefresh           = "auth.refresh"
	ActionLogout            = "auth.logout"
	ActionBootstrap         = "auth.bootstrap_superadmin"
	ActionCreateSchoolAdmin = "auth.create_school_admin"
	ActionSchoolCreate      = "school.create"
	ActionSchoolDelete      = "school.delete"
	ActionStudentTransfer   = "student.transfer"
)

// Entry is one immutable audit record.
type Entry struct {
	ID            string         `json:"id"`
	Action        string         `json:"action"`
	Status        string         `json:"status"`
	ActorID       string         `json:"actor_id,omitempty"`
	ActorRole     string         `json:"actor_role,omitempty"`
	ActorSchoolID string         `json:"actor_school_id,omitempty"`
	TargetType    string         `json:"target_type,omitempty"`
	TargetID      string         `json:"target_id,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
