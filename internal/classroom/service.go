// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package classroom

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ndthang/skolar/internal/access"
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

// StudentCensus counts students currently assigned to a classroom. Deletion
// is blocked while the count is non-zero.
type StudentCensus interface {
	CountByClassroom(context context.Context, classroomID string) (int, error)
}

// Service implements the classroom management use cases.
type Service struct {
	repo     Repository
	schools  SchoolDirectory
	students StudentCensus
	logger   *slog.Logger
}

// NewService constructs a new classroom [Service].
func NewService(repo Repository, schools SchoolDirectory, students StudentCensus, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		schools:  schools,
		students: students,
		logger:   logger,
	}
}

// SchoolOf resolves the school a classroom belongs to. It serves the student
// domain's classroom-in-school checks.
func (service *Service) SchoolOf(context context.Context, classroomID string) (string, error) {
	classroom, err := service.repo.FindByID(context, classroomID)
	if err != nil {
		return "", err
	}
	return classroom.SchoolID, nil
}

// CreateInput holds the data to open a new classroom.
type CreateInput struct {
	SchoolID        string
	Name            string
	GradeLevel      string
	Capacity        int
	Resources       []string
	HomeroomTeacher string
}

// Create opens a classroom in the resolved school scope. A superadmin must
// name the school explicitly; a school admin is pinned to their own.
func (service *Service) Create(context context.Context, claims *sec.AuthClaims, input CreateInput) (*Classroom, error) {
	scope, err := access.ResolveSchoolScope(claims, input.SchoolID, true)
	if err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 200)
	validator.Min(FieldCapacity, input.Capacity, 1)
	validator.MaxLen(FieldHomeroomTeacher, input.HomeroomTeacher, 200)
	for _, resource := range input.Resources {
		validator.MaxLen(FieldResources, resource, 100)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	exists, err := service.schools.SchoolExists(context, scope.SchoolID)
	if err != nil {
		return nil, fmt.Errorf("classroom_service_school_lookup_failed: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
	}

	classroom := &Classroom{
		ID:              uuid.New(),
		SchoolID:        scope.SchoolID,
		Name:            strings.TrimSpace(input.Name),
		GradeLevel:      strings.TrimSpace(input.GradeLevel),
		Capacity:        input.Capacity,
		Resources:       input.Resources,
		HomeroomTeacher: strings.TrimSpace(input.HomeroomTeacher),
		Status:          StatusActive,
		Version:         1,
	}
	if classroom.Resources == nil {
		classroom.Resources = []string{}
	}

	if err := service.repo.Create(context, classroom); err != nil {
		return nil, err
	}

	service.logger.Info("classroom_created",
		slog.String("classroom_id", classroom.ID),
		slog.String("school_id", classroom.SchoolID))
	return classroom, nil
}

// List returns a page of classrooms confined to the caller's scope. Superadmins
// may list platform-wide by omitting the school filter.
func (service *Service) List(context context.Context, claims *sec.AuthClaims, requestedSchoolID string, filter Filter, params pagination.Params) ([]*Classroom, pagination.Meta, error) {
	scope, err := access.ResolveSchoolScope(claims, requestedSchoolID, false)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	filter.Scope = scope.Filter()

	classrooms, err := service.repo.List(context, filter, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	nextCursor := ""
	if len(classrooms) > 0 {
		last := classrooms[len(classrooms)-1]
		nextCursor = pagination.NextCursor(len(classrooms), params.Limit, last.CreatedAt, last.ID)
	}

	return classrooms, pagination.NewMeta(params, nextCursor), nil
}

// Get returns one classroom, re-checking the tenant boundary after the fetch.
func (service *Service) Get(context context.Context, claims *sec.AuthClaims, id string) (*Classroom, error) {
	if err := access.EnsureAuthenticated(claims); err != nil {
		return nil, err
	}

	classroom, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if err := access.EnforceEntityScope(claims, classroom.SchoolID); err != nil {
		return nil, err
	}

	return classroom, nil
}

// UpdateInput holds the partial-update payload for a classroom. Nil fields are
// left unchanged; present fields overwrite.
type UpdateInput struct {
	Name            *string
	GradeLevel      *string
	Capacity        *int
	Resources       *[]string
	HomeroomTeacher *string
	Status          *string
	ExpectedVersion *int
}

// Update applies a partial update under the optimistic concurrency protocol.
func (service *Service) Update(context context.Context, claims *sec.AuthClaims, id string, input UpdateInput) (*Classroom, error) {
	classroom, err := service.Get(context, claims, id)
	if err != nil {
		return nil, err
	}

	if input.ExpectedVersion != nil && *input.ExpectedVersion != classroom.Version {
		return nil, apperr.StaleVersion("Classroom")
	}

	readVersion := classroom.Version

	if input.Name != nil {
		classroom.Name = strings.TrimSpace(*input.Name)
	}
	if input.GradeLevel != nil {
		classroom.GradeLevel = strings.TrimSpace(*input.GradeLevel)
	}
	if input.Capacity != nil {
		classroom.Capacity = *input.Capacity
	}
	if input.Resources != nil {
		classroom.Resources = *input.Resources
		if classroom.Resources == nil {
			classroom.Resources = []string{}
		}
	}
	if input.HomeroomTeacher != nil {
		classroom.HomeroomTeacher = strings.TrimSpace(*input.HomeroomTeacher)
	}
	if input.Status != nil {
		classroom.Status = *input.Status
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, classroom.Name).MaxLen(FieldName, classroom.Name, 200)
	validator.Min(FieldCapacity, classroom.Capacity, 1)
	validator.OneOf(FieldStatus, classroom.Status, StatusActive, StatusInactive)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	classroom.Version = readVersion + 1

	if err := service.repo.Update(context, classroom, readVersion); err != nil {
		return nil, err
	}

	service.logger.Info("classroom_updated",
		slog.String("classroom_id", classroom.ID),
		slog.Int("version", classroom.Version))
	return classroom, nil
}

// Delete removes a classroom. It fails while any student still references it.
func (service *Service) Delete(context context.Context, claims *sec.AuthClaims, id string) error {
	classroom, err := service.Get(context, claims, id)
	if err != nil {
		return err
	}

	studentCount, err := service.students.CountByClassroom(context, id)
	if err != nil {
		return fmt.Errorf("classroom_service_student_count_failed: %w", err)
	}
	if studentCount > 0 {
		return apperr.Conflict("Classroom still has enrolled students").WithCode("CLASSROOM_HAS_STUDENTS")
	}

	if err := service.repo.Delete(context, id); err != nil {
		return err
	}

	service.logger.Warn("classroom_deleted",
		slog.String("classroom_id", id),
		slog.String("school_id", classroom.SchoolID))
	return nil
}
