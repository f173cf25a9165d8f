// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package classroom_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndthang/skolar/internal/classroom"
	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/sec"
	"github.com/ndthang/skolar/pkg/pagination"
	"github.com/ndthang/skolar/pkg/pointer"
)

type fakeRepo struct {
	classrooms map[string]*classroom.Classroom
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{classrooms: make(map[string]*classroom.Classroom)}
}

func (repo *fakeRepo) List(_ context.Context, filter classroom.Filter, _ pagination.Params) ([]*classroom.Classroom, error) {
	var out []*classroom.Classroom
	for _, c := range repo.classrooms {
		if filter.Scope.SchoolID != "" && c.SchoolID != filter.Scope.SchoolID {
			continue
		}
		clone := *c
		out = append(out, &clone)
	}
	return out, nil
}

func (repo *fakeRepo) FindByID(_ context.Context, id string) (*classroom.Classroom, error) {
	if c, ok := repo.classrooms[id]; ok {
		clone := *c
		return &clone, nil
	}
	return nil, apperr.NotFound("Classroom").WithCode("CLASSROOM_NOT_FOUND")
}

func (repo *fakeRepo) Create(_ context.Context, c *classroom.Classroom) error {
	for _, existing := range repo.classrooms {
		if existing.SchoolID == c.SchoolID && existing.Name == c.Name {
			return apperr.Conflict("A classroom with this name already exists in the school").
				WithCode("CLASSROOM_NAME_EXISTS")
		}
	}
	clone := *c
	repo.classrooms[c.ID] = &clone
	return nil
}

func (repo *fakeRepo) Update(_ context.Context, c *classroom.Classroom, readVersion int) error {
	stored, ok := repo.classrooms[c.ID]
	if !ok {
		return apperr.NotFound("Classroom").WithCode("CLASSROOM_NOT_FOUND")
	}
	if stored.Version != readVersion {
		return apperr.StaleVersion("Classroom")
	}
	clone := *c
	repo.classrooms[c.ID] = &clone
	return nil
}

func (repo *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := repo.classrooms[id]; !ok {
		return apperr.NotFound("Classroom").WithCode("CLASSROOM_NOT_FOUND")
	}
	delete(repo.classrooms, id)
	return nil
}

func (repo *fakeRepo) CountBySchool(_ context.Context, schoolID string) (int, error) {
	count := 0
	for _, c := range repo.classrooms {
		if c.SchoolID == schoolID {
			count++
		}
	}
	return count, nil
}

type fakeSchoolDirectory struct {
	schools map[string]bool
}

func (directory *fakeSchoolDirectory) SchoolExists(_ context.Context, schoolID string) (bool, error) {
	return directory.schools[schoolID], nil
}

type fakeStudentCensus struct {
	counts map[string]int
}

func (census *fakeStudentCensus) CountByClassroom(_ context.Context, classroomID string) (int, error) {
	return census.counts[classroomID], nil
}

type classroomFixture struct {
	service  *classroom.Service
	repo     *fakeRepo
	schools  *fakeSchoolDirectory
	students *fakeStudentCensus
}

func newClassroomFixture(t *testing.T) *classroomFixture {
	t.Helper()

	repo := newFakeRepo()
	schools := &fakeSchoolDirectory{schools: map[string]bool{"sch-1": true, "sch-2": true}}
	students := &fakeStudentCensus{counts: map[string]int{}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &classroomFixture{
		service:  classroom.NewService(repo, schools, students, logger),
		repo:     repo,
		schools:  schools,
		students: students,
	}
}

func superadmin() *sec.AuthClaims {
	return &sec.AuthClaims{UserID: "root", Role: string(sec.RoleSuperadmin)}
}

func schoolAdmin(schoolID string) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: "admin", Role: string(sec.RoleSchoolAdmin), SchoolID: schoolID}
}

func validInput(schoolID string) classroom.CreateInput {
	return classroom.CreateInput{
		SchoolID:   schoolID,
		Name:       "5A",
		GradeLevel: "5",
		Capacity:   30,
	}
}

func TestCreate_ScopeResolution(t *testing.T) {
	fixture := newClassroomFixture(t)

	t.Run("superadmin must name the school", func(t *testing.T) {
		_, err := fixture.service.Create(context.Background(), superadmin(), validInput(""))
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, "VALIDATION_REQUIRED_SCHOOL_ID"))
	})

	t.Run("school admin cannot target another school", func(t *testing.T) {
		_, err := fixture.service.Create(context.Background(), schoolAdmin("sch-1"), validInput("sch-2"))
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, "SCOPE_SCHOOL_MISMATCH"))
	})

	t.Run("school admin is pinned to their school", func(t *testing.T) {
		created, err := fixture.service.Create(context.Background(), schoolAdmin("sch-1"), validInput(""))
		require.NoError(t, err)
		assert.Equal(t, "sch-1", created.SchoolID)
	})

	t.Run("unknown school is rejected", func(t *testing.T) {
		_, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-ghost"))
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, "SCHOOL_NOT_FOUND"))
	})
}

func TestCreate_ValidatesCapacity(t *testing.T) {
	fixture := newClassroomFixture(t)

	input := validInput("sch-1")
	input.Capacity = 0

	_, err := fixture.service.Create(context.Background(), superadmin(), input)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "VALIDATION_ERROR"))
}

func TestCreate_DuplicateNameWithinSchool(t *testing.T) {
	fixture := newClassroomFixture(t)

	_, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1"))
	require.NoError(t, err)

	_, err = fixture.service.Create(context.Background(), superadmin(), validInput("sch-1"))
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CLASSROOM_NAME_EXISTS"))

	// The same name in another school is fine.
	_, err = fixture.service.Create(context.Background(), superadmin(), validInput("sch-2"))
	assert.NoError(t, err)
}

func TestList_SchoolAdminConfinement(t *testing.T) {
	fixture := newClassroomFixture(t)

	_, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1"))
	require.NoError(t, err)
	other := validInput("sch-2")
	other.Name = "6B"
	_, err = fixture.service.Create(context.Background(), superadmin(), other)
	require.NoError(t, err)

	listed, _, err := fixture.service.List(context.Background(), schoolAdmin("sch-1"), "", classroom.Filter{}, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "sch-1", listed[0].SchoolID)

	// An explicit foreign school filter is a scope violation, not an empty list.
	_, _, err = fixture.service.List(context.Background(), schoolAdmin("sch-1"), "sch-2", classroom.Filter{}, pagination.Params{Limit: 20})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "SCOPE_SCHOOL_MISMATCH"))
}

func TestGet_CrossSchoolDenied(t *testing.T) {
	fixture := newClassroomFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-2"))
	require.NoError(t, err)

	_, err = fixture.service.Get(context.Background(), schoolAdmin("sch-1"), created.ID)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "AUTH_FORBIDDEN"))

	got, err := fixture.service.Get(context.Background(), superadmin(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestUpdate_StaleVersion(t *testing.T) {
	fixture := newClassroomFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1"))
	require.NoError(t, err)

	_, err = fixture.service.Update(context.Background(), superadmin(), created.ID, classroom.UpdateInput{
		Capacity:        pointer.To(35),
		ExpectedVersion: pointer.To(7),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CONFLICT_STALE_VERSION"))

	stored, err := fixture.service.Get(context.Background(), superadmin(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, stored.Capacity)
	assert.Equal(t, 1, stored.Version)
}

func TestUpdate_PartialFields(t *testing.T) {
	fixture := newClassroomFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1"))
	require.NoError(t, err)

	updated, err := fixture.service.Update(context.Background(), superadmin(), created.ID, classroom.UpdateInput{
		Capacity:        pointer.To(35),
		Resources:       pointer.To([]string{"projector"}),
		ExpectedVersion: pointer.To(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 35, updated.Capacity)
	assert.Equal(t, []string{"projector"}, updated.Resources)
	assert.Equal(t, "5A", updated.Name) // nil field untouched
	assert.Equal(t, 2, updated.Version)
}

func TestDelete_BlockedByStudents(t *testing.T) {
	fixture := newClassroomFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1"))
	require.NoError(t, err)

	fixture.students.counts[created.ID] = 2

	err = fixture.service.Delete(context.Background(), superadmin(), created.ID)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CLASSROOM_HAS_STUDENTS"))

	fixture.students.counts[created.ID] = 0
	require.NoError(t, fixture.service.Delete(context.Background(), superadmin(), created.ID))
}
