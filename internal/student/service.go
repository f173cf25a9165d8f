// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package student

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ndthang/skolar/internal/access"
	"github.com/ndthang/skolar/internal/audit"
	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/sec"
	"github.com/ndthang/skolar/internal/platform/validate"
	"github.com/ndthang/skolar/pkg/pagination"
	"github.com/ndthang/skolar/pkg/uuid"
)

// SchoolDirectory is the read contract against the school domain.
type SchoolDirectory interface {
	SchoolExists(context context.Context, schoolID string) (bool, error)
}

// ClassroomDirectory resolves which school a classroom belongs to. It backs
// the classroom-in-school invariant checked on every create, update, and
// transfer that names a classroom.
type ClassroomDirectory interface {
	SchoolOf(context context.Context, classroomID string) (string, error)
}

// Service implements the student management use cases.
type Service struct {
	repo       Repository
	schools    SchoolDirectory
	classrooms ClassroomDirectory
	recorder   *audit.Recorder
	logger     *slog.Logger
}

// NewService constructs a new student [Service].
func NewService(repo Repository, schools SchoolDirectory, classrooms ClassroomDirectory, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		schools:    schools,
		classrooms: classrooms,
		recorder:   recorder,
		logger:     logger,
	}
}

// CreateInput holds the data to enroll a new student.
type CreateInput struct {
	SchoolID        string
	ClassroomID     string
	FirstName       string
	LastName        string
	AdmissionNumber string
	Email           string
	DateOfBirth     string
	Profile         map[string]any
}

// Create enrolls a student in the resolved school scope. A named classroom
// must belong to that same school; nothing is written when it does not.
func (service *Service) Create(context context.Context, claims *sec.AuthClaims, input CreateInput) (*Student, error) {
	scope, err := access.ResolveSchoolScope(claims, input.SchoolID, true)
	if err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldFirstName, input.FirstName).MaxLen(FieldFirstName, input.FirstName, 100)
	validator.Required(FieldLastName, input.LastName).MaxLen(FieldLastName, input.LastName, 100)
	validator.Required(FieldAdmissionNumber, input.AdmissionNumber).MaxLen(FieldAdmissionNumber, input.AdmissionNumber, 50)
	if input.Email != "" {
		validator.Email(FieldEmail, input.Email)
	}
	if input.DateOfBirth != "" {
		validator.Date(FieldDateOfBirth, input.DateOfBirth)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	exists, err := service.schools.SchoolExists(context, scope.SchoolID)
	if err != nil {
		return nil, fmt.Errorf("student_service_school_lookup_failed: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
	}

	if input.ClassroomID != "" {
		if err := service.ensureClassroomInSchool(context, input.ClassroomID, scope.SchoolID); err != nil {
			return nil, err
		}
	}

	student := &Student{
		ID:              uuid.New(),
		SchoolID:        scope.SchoolID,
		ClassroomID:     input.ClassroomID,
		FirstName:       strings.TrimSpace(input.FirstName),
		LastName:        strings.TrimSpace(input.LastName),
		AdmissionNumber: strings.TrimSpace(input.AdmissionNumber),
		Email:           strings.ToLower(strings.TrimSpace(input.Email)),
		DateOfBirth:     input.DateOfBirth,
		Profile:         input.Profile,
		Status:          StatusActive,
		EnrolledAt:      time.Now(),
		Version:         1,
	}

	if err := service.repo.Create(context, student); err != nil {
		return nil, err
	}

	service.logger.Info("student_enrolled",
		slog.String("student_id", student.ID),
		slog.String("school_id", student.SchoolID))
	return student, nil
}

// List returns a page of students confined to the caller's scope.
func (service *Service) List(context context.Context, claims *sec.AuthClaims, requestedSchoolID string, filter Filter, params pagination.Params) ([]*Student, pagination.Meta, error) {
	scope, err := access.ResolveSchoolScope(claims, requestedSchoolID, false)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	filter.Scope = scope.Filter()

	students, err := service.repo.List(context, filter, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	nextCursor := ""
	if len(students) > 0 {
		last := students[len(students)-1]
		nextCursor = pagination.NextCursor(len(students), params.Limit, last.CreatedAt, last.ID)
	}

	return students, pagination.NewMeta(params, nextCursor), nil
}

// Get returns one student, re-checking the tenant boundary after the fetch.
func (service *Service) Get(context context.Context, claims *sec.AuthClaims, id string) (*Student, error) {
	if err := access.EnsureAuthenticated(claims); err != nil {
		return nil, err
	}

	student, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if err := access.EnforceEntityScope(claims, student.SchoolID); err != nil {
		return nil, err
	}

	return student, nil
}

// UpdateInput holds the partial-update payload for a student. Nil fields are
// left unchanged; present fields overwrite. An empty ClassroomID pointer
// unassigns the student from their classroom.
type UpdateInput struct {
	FirstName       *string
	LastName        *string
	AdmissionNumber *string
	Email           *string
	DateOfBirth     *string
	ClassroomID     *string
	Profile         *map[string]any
	Status          *string
	ExpectedVersion *int
}

// Update applies a partial update under the optimistic concurrency protocol.
// Moving the student between schools is the transfer operation's job, not
// Update's; the school binding never changes here.
func (service *Service) Update(context context.Context, claims *sec.AuthClaims, id string, input UpdateInput) (*Student, error) {
	student, err := service.Get(context, claims, id)
	if err != nil {
		return nil, err
	}

	if input.ExpectedVersion != nil && *input.ExpectedVersion != student.Version {
		return nil, apperr.StaleVersion("Student")
	}

	readVersion := student.Version

	if input.FirstName != nil {
		student.FirstName = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		student.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.AdmissionNumber != nil {
		student.AdmissionNumber = strings.TrimSpace(*input.AdmissionNumber)
	}
	if input.Email != nil {
		student.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.DateOfBirth != nil {
		student.DateOfBirth = *input.DateOfBirth
	}
	if input.ClassroomID != nil {
		student.ClassroomID = *input.ClassroomID
	}
	if input.Profile != nil {
		student.Profile = *input.Profile
	}
	if input.Status != nil {
		student.Status = *input.Status
	}

	validator := &validate.Validator{}
	validator.Required(FieldFirstName, student.FirstName).MaxLen(FieldFirstName, student.FirstName, 100)
	validator.Required(FieldLastName, student.LastName).MaxLen(FieldLastName, student.LastName, 100)
	validator.Required(FieldAdmissionNumber, student.AdmissionNumber).MaxLen(FieldAdmissionNumber, student.AdmissionNumber, 50)
	if student.Email != "" {
		validator.Email(FieldEmail, student.Email)
	}
	if student.DateOfBirth != "" {
		validator.Date(FieldDateOfBirth, student.DateOfBirth)
	}
	validator.OneOf(FieldStatus, student.Status, StatusActive, StatusInactive, StatusGraduated)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	// The classroom-in-school invariant holds on every write that names a
	// classroom, not only at enrollment.
	if input.ClassroomID != nil && student.ClassroomID != "" {
		if err := service.ensureClassroomInSchool(context, student.ClassroomID, student.SchoolID); err != nil {
			return nil, err
		}
	}

	student.Version = readVersion + 1

	if err := service.repo.Update(context, student, readVersion); err != nil {
		return nil, err
	}

	service.logger.Info("student_updated",
		slog.String("student_id", student.ID),
		slog.Int("version", student.Version))
	return student, nil
}

// Delete removes a student record permanently.
func (service *Service) Delete(context context.Context, claims *sec.AuthClaims, id string) error {
	student, err := service.Get(context, claims, id)
	if err != nil {
		return err
	}

	if err := service.repo.Delete(context, id); err != nil {
		return err
	}

	service.logger.Warn("student_deleted",
		slog.String("student_id", id),
		slog.String("school_id", student.SchoolID))
	return nil
}

// TransferInput holds the target scope of a student transfer.
type TransferInput struct {
	TargetSchoolID    string
	TargetClassroomID string
	ExpectedVersion   *int
}

/*
Transfer moves a student to a new school and, optionally, a classroom there.

A school admin may only transfer within their own school; naming any other
target fails SCOPE_SCHOOL_MISMATCH. The target classroom, when given, must
belong to the target school. School and classroom reassignment commit in a
single conditional write, and the move is recorded in the audit log with both
the prior and the new scope.
*/
func (service *Service) Transfer(context context.Context, claims *sec.AuthClaims, id string, input TransferInput) (*Student, error) {
	student, err := service.Get(context, claims, id)
	if err != nil {
		return nil, err
	}

	targetScope, err := access.ResolveSchoolScope(claims, input.TargetSchoolID, true)
	if err != nil {
		return nil, err
	}

	if input.ExpectedVersion != nil && *input.ExpectedVersion != student.Version {
		return nil, apperr.StaleVersion("Student")
	}

	exists, err := service.schools.SchoolExists(context, targetScope.SchoolID)
	if err != nil {
		return nil, fmt.Errorf("student_service_school_lookup_failed: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
	}

	if input.TargetClassroomID != "" {
		if err := service.ensureClassroomInSchool(context, input.TargetClassroomID, targetScope.SchoolID); err != nil {
			return nil, err
		}
	}

	priorSchoolID := student.SchoolID
	priorClassroomID := student.ClassroomID
	readVersion := student.Version

	student.SchoolID = targetScope.SchoolID
	student.ClassroomID = input.TargetClassroomID
	student.Version = readVersion + 1

	if err := service.repo.Update(context, student, readVersion); err != nil {
		return nil, err
	}

	service.recorder.Record(context, audit.Entry{
		Action:     audit.ActionStudentTransfer,
		TargetType: "student",
		TargetID:   student.ID,
		Metadata: map[string]any{
			"prior_school_id":    priorSchoolID,
			"prior_classroom_id": priorClassroomID,
			"new_school_id":      student.SchoolID,
			"new_classroom_id":   student.ClassroomID,
		},
	})

	service.logger.Info("student_transferred",
		slog.String("student_id", student.ID),
		slog.String("from_school", priorSchoolID),
		slog.String("to_school", student.SchoolID))
	return student, nil
}

// ensureClassroomInSchool fails CLASSROOM_SCHOOL_MISMATCH when the classroom
// exists but belongs to a different school.
func (service *Service) ensureClassroomInSchool(context context.Context, classroomID, schoolID string) error {
	classroomSchoolID, err := service.classrooms.SchoolOf(context, classroomID)
	if err != nil {
		return err
	}
	if classroomSchoolID != schoolID {
		return apperr.ValidationError("Classroom belongs to a different school", apperr.FieldError{
			Field:   FieldClassroomID,
			Message: "Must belong to the student's school",
		}).WithCode("CLASSROOM_SCHOOL_MISMATCH")
	}
	return nil
}
