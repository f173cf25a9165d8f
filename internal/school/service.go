// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package school

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ndthang/skolar/internal/access"
	"github.com/ndthang/skolar/internal/audit"
	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/sec"
	"github.com/ndthang/skolar/internal/platform/validate"
	"github.com/ndthang/skolar/pkg/code"
	"github.com/ndthang/skolar/pkg/pagination"
	"github.com/ndthang/skolar/pkg/uuid"
)

// Census counts entities that reference a school. The classroom and student
// repositories satisfy it; school deletion is blocked while any count is
// non-zero.
type Census interface {
	CountBySchool(context context.Context, schoolID string) (int, error)
}

// AdminDirectory counts school-admin accounts bound to a school.
type AdminDirectory interface {
	CountSchoolAdminsBySchool(context context.Context, schoolID string) (int, error)
}

// Service implements the school management use cases. All mutating operations
// are superadmin-only; reads of a single school are additionally open to that
// school's own admins.
type Service struct {
	repo       Repository
	classrooms Census
	students   Census
	admins     AdminDirectory
	recorder   *audit.Recorder
	logger     *slog.Logger
}

// NewService constructs a new school [Service].
func NewService(repo Repository, classrooms, students Census, admins AdminDirectory, recorder *audit.Recorder, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		classrooms: classrooms,
		students:   students,
		admins:     admins,
		recorder:   recorder,
		logger:     logger,
	}
}

// SchoolExists reports whether a school with the given id is enrolled. It
// serves the auth service's admin-enrollment check.
func (service *Service) SchoolExists(context context.Context, schoolID string) (bool, error) {
	return service.repo.ExistsByID(context, schoolID)
}

// CreateInput holds the data to enroll a new school.
type CreateInput struct {
	Name         string
	Code         string
	Address      string
	ContactEmail string
	ContactPhone string
	Profile      map[string]any
}

// Create enrolls a new school. The code, when given, is normalized to its
// canonical uppercase form and must be unique platform-wide.
func (service *Service) Create(context context.Context, claims *sec.AuthClaims, input CreateInput) (*School, error) {
	if err := access.EnsureRole(claims, sec.RoleSuperadmin); err != nil {
		return nil, err
	}

	normalizedCode := code.Normalize(input.Code)

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 200)
	if input.Code != "" {
		validator.Custom(FieldCode, normalizedCode == "", "Must contain at least one letter or digit").
			MaxLen(FieldCode, normalizedCode, 50)
	}
	if input.ContactEmail != "" {
		validator.Email(FieldContactEmail, input.ContactEmail)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	school := &School{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(input.Name),
		Code:         normalizedCode,
		Address:      strings.TrimSpace(input.Address),
		ContactEmail: strings.TrimSpace(input.ContactEmail),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		Profile:      input.Profile,
		Status:       StatusActive,
		Version:      1,
	}

	if err := service.repo.Create(context, school); err != nil {
		return nil, err
	}

	service.recorder.Record(context, audit.Entry{
		Action:     audit.ActionSchoolCreate,
		TargetType: "school",
		TargetID:   school.ID,
		Metadata:   map[string]any{"name": school.Name, "code": school.Code},
	})

	service.logger.Info("school_created", slog.String("school_id", school.ID), slog.String("name", school.Name))
	return school, nil
}

// List returns a page of schools. Superadmin only: school admins never see
// institutions beyond their own.
func (service *Service) List(context context.Context, claims *sec.AuthClaims, filter Filter, params pagination.Params) ([]*School, pagination.Meta, error) {
	if err := access.EnsureRole(claims, sec.RoleSuperadmin); err != nil {
		return nil, pagination.Meta{}, err
	}

	schools, err := service.repo.List(context, filter, params)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	nextCursor := ""
	if len(schools) > 0 {
		last := schools[len(schools)-1]
		nextCursor = pagination.NextCursor(len(schools), params.Limit, last.CreatedAt, last.ID)
	}

	return schools, pagination.NewMeta(params, nextCursor), nil
}

// Get returns one school by id. A school admin may only read their own school.
func (service *Service) Get(context context.Context, claims *sec.AuthClaims, id string) (*School, error) {
	if err := access.EnsureAuthenticated(claims); err != nil {
		return nil, err
	}

	school, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if err := access.EnforceEntityScope(claims, school.ID); err != nil {
		return nil, err
	}

	return school, nil
}

// UpdateInput holds the partial-update payload for a school. Nil fields are
// left unchanged; present fields overwrite.
type UpdateInput struct {
	Name            *string
	Code            *string
	Address         *string
	ContactEmail    *string
	ContactPhone    *string
	Status          *string
	ExpectedVersion *int
}

// Update applies a partial update under the optimistic concurrency protocol.
func (service *Service) Update(context context.Context, claims *sec.AuthClaims, id string, input UpdateInput) (*School, error) {
	if err := access.EnsureRole(claims, sec.RoleSuperadmin); err != nil {
		return nil, err
	}

	school, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	// Pre-check: a stale expected version fails before anything is written.
	if input.ExpectedVersion != nil && *input.ExpectedVersion != school.Version {
		return nil, apperr.StaleVersion("School")
	}

	readVersion := school.Version

	if input.Name != nil {
		school.Name = strings.TrimSpace(*input.Name)
	}
	if input.Code != nil {
		school.Code = code.Normalize(*input.Code)
	}
	if input.Address != nil {
		school.Address = strings.TrimSpace(*input.Address)
	}
	if input.ContactEmail != nil {
		school.ContactEmail = strings.TrimSpace(*input.ContactEmail)
	}
	if input.ContactPhone != nil {
		school.ContactPhone = strings.TrimSpace(*input.ContactPhone)
	}
	if input.Status != nil {
		school.Status = *input.Status
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, school.Name).MaxLen(FieldName, school.Name, 200)
	if input.Code != nil && *input.Code != "" {
		validator.Custom(FieldCode, school.Code == "", "Must contain at least one letter or digit")
	}
	if school.ContactEmail != "" {
		validator.Email(FieldContactEmail, school.ContactEmail)
	}
	validator.OneOf(FieldStatus, school.Status, StatusActive, StatusInactive)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	school.Version = readVersion + 1

	if err := service.repo.Update(context, school, readVersion); err != nil {
		return nil, err
	}

	service.logger.Info("school_updated", slog.String("school_id", school.ID), slog.Int("version", school.Version))
	return school, nil
}

// Delete removes a school permanently.
//
// The three referential checks (classrooms, students, admin accounts) run
// concurrently; any non-zero count blocks the deletion.
func (service *Service) Delete(context context.Context, claims *sec.AuthClaims, id string) error {
	if err := access.EnsureRole(claims, sec.RoleSuperadmin); err != nil {
		return err
	}

	school, err := service.repo.FindByID(context, id)
	if err != nil {
		return err
	}

	var classroomCount, studentCount, adminCount int
	group, groupContext := errgroup.WithContext(context)

	group.Go(func() error {
		var err error
		classroomCount, err = service.classrooms.CountBySchool(groupContext, id)
		return err
	})
	group.Go(func() error {
		var err error
		studentCount, err = service.students.CountBySchool(groupContext, id)
		return err
	})
	group.Go(func() error {
		var err error
		adminCount, err = service.admins.CountSchoolAdminsBySchool(groupContext, id)
		return err
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("school_service_linked_resource_check_failed: %w", err)
	}

	if classroomCount > 0 || studentCount > 0 || adminCount > 0 {
		return apperr.Conflict("School still has linked classrooms, students, or admin accounts").
			WithCode("SCHOOL_HAS_LINKED_RESOURCES")
	}

	if err := service.repo.Delete(context, id); err != nil {
		return err
	}

	service.recorder.Record(context, audit.Entry{
		Action:     audit.ActionSchoolDelete,
		TargetType: "school",
		TargetID:   id,
		Metadata:   map[string]any{"name": school.Name},
	})

	service.logger.Warn("school_deleted", slog.String("school_id", id))
	return nil
}

// GetProfile returns the opaque profile document of a school.
func (service *Service) GetProfile(context context.Context, claims *sec.AuthClaims, id string) (map[string]any, int, error) {
	school, err := service.Get(context, claims, id)
	if err != nil {
		return nil, 0, err
	}
	return school.Profile, school.Version, nil
}

// ProfileInput holds the replacement profile document for a school.
type ProfileInput struct {
	Profile         map[string]any
	ExpectedVersion *int
}

// UpdateProfile replaces the profile document under the same version protocol
// as entity updates. The profile write bumps the school version.
func (service *Service) UpdateProfile(context context.Context, claims *sec.AuthClaims, id string, input ProfileInput) (*School, error) {
	if err := access.EnsureRole(claims, sec.RoleSuperadmin); err != nil {
		return nil, err
	}

	school, err := service.repo.FindByID(context, id)
	if err != nil {
		return nil, err
	}

	if input.ExpectedVersion != nil && *input.ExpectedVersion != school.Version {
		return nil, apperr.StaleVersion("School")
	}

	readVersion := school.Version
	if input.Profile == nil {
		input.Profile = map[string]any{}
	}
	school.Profile = input.Profile
	school.Version = readVersion + 1

	if err := service.repo.UpdateProfile(context, school, readVersion); err != nil {
		return nil, err
	}

	service.logger.Info("school_profile_updated", slog.String("school_id", school.ID))
	return school, nil
}
