// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package school_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndthang/skolar/internal/audit"
	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/sec"
	"github.com/ndthang/skolar/internal/school"
	"github.com/ndthang/skolar/pkg/pagination"
	"github.com/ndthang/skolar/pkg/pointer"
)

type fakeRepo struct {
	schools map[string]*school.School
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{schools: make(map[string]*school.School)}
}

func (repo *fakeRepo) List(_ context.Context, _ school.Filter, _ pagination.Params) ([]*school.School, error) {
	var out []*school.School
	for _, s := range repo.schools {
		clone := *s
		out = append(out, &clone)
	}
	return out, nil
}

func (repo *fakeRepo) FindByID(_ context.Context, id string) (*school.School, error) {
	if s, ok := repo.schools[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
}

func (repo *fakeRepo) ExistsByID(_ context.Context, id string) (bool, error) {
	_, ok := repo.schools[id]
	return ok, nil
}

func (repo *fakeRepo) Create(_ context.Context, s *school.School) error {
	for _, existing := range repo.schools {
		if s.Code != "" && existing.Code == s.Code {
			return apperr.Conflict("School code is already in use").WithCode("SCHOOL_CODE_EXISTS")
		}
	}
	clone := *s
	repo.schools[s.ID] = &clone
	return nil
}

func (repo *fakeRepo) Update(_ context.Context, s *school.School, readVersion int) error {
	stored, ok := repo.schools[s.ID]
	if !ok {
		return apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
	}
	if stored.Version != readVersion {
		return apperr.StaleVersion("School")
	}
	clone := *s
	repo.schools[s.ID] = &clone
	return nil
}

func (repo *fakeRepo) UpdateProfile(ctx context.Context, s *school.School, readVersion int) error {
	return repo.Update(ctx, s, readVersion)
}

func (repo *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := repo.schools[id]; !ok {
		return apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
	}
	delete(repo.schools, id)
	return nil
}

// fakeCensus returns a fixed per-school count.
type fakeCensus struct {
	counts map[string]int
}

func (census *fakeCensus) CountBySchool(_ context.Context, schoolID string) (int, error) {
	return census.counts[schoolID], nil
}

type fakeAdminDirectory struct {
	counts map[string]int
}

func (directory *fakeAdminDirectory) CountSchoolAdminsBySchool(_ context.Context, schoolID string) (int, error) {
	return directory.counts[schoolID], nil
}

type fakeAuditStore struct {
	entries []*audit.Entry
}

func (store *fakeAuditStore) Append(_ context.Context, entry *audit.Entry) error {
	store.entries = append(store.entries, entry)
	return nil
}

type schoolFixture struct {
	service    *school.Service
	repo       *fakeRepo
	classrooms *fakeCensus
	students   *fakeCensus
	admins     *fakeAdminDirectory
	auditing   *fakeAuditStore
}

func newSchoolFixture(t *testing.T) *schoolFixture {
	t.Helper()

	repo := newFakeRepo()
	classrooms := &fakeCensus{counts: map[string]int{}}
	students := &fakeCensus{counts: map[string]int{}}
	admins := &fakeAdminDirectory{counts: map[string]int{}}
	auditing := &fakeAuditStore{}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(auditing, logger)

	return &schoolFixture{
		service:    school.NewService(repo, classrooms, students, admins, recorder, logger),
		repo:       repo,
		classrooms: classrooms,
		students:   students,
		admins:     admins,
		auditing:   auditing,
	}
}

func superadmin() *sec.AuthClaims {
	return &sec.AuthClaims{UserID: "root", Role: string(sec.RoleSuperadmin)}
}

func schoolAdmin(schoolID string) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: "admin", Role: string(sec.RoleSchoolAdmin), SchoolID: schoolID}
}

func TestCreate_SuperadminOnly(t *testing.T) {
	fixture := newSchoolFixture(t)

	_, err := fixture.service.Create(context.Background(), schoolAdmin("sch-1"), school.CreateInput{Name: "Springfield Elementary"})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "AUTH_FORBIDDEN"))

	_, _, err = fixture.service.List(context.Background(), schoolAdmin("sch-1"), school.Filter{}, pagination.Params{Limit: 20})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "AUTH_FORBIDDEN"))
}

func TestCreate_NormalizesCode(t *testing.T) {
	fixture := newSchoolFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), school.CreateInput{
		Name: "Springfield Elementary",
		Code: "spr élém 01",
	})
	require.NoError(t, err)
	assert.Equal(t, "SPR-ELEM-01", created.Code)
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, school.StatusActive, created.Status)

	// Same code in a different casing collides with the canonical form.
	_, err = fixture.service.Create(context.Background(), superadmin(), school.CreateInput{
		Name: "Another School",
		Code: "SPR-ELEM-01",
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "SCHOOL_CODE_EXISTS"))
}

func TestUpdate_StaleVersionLeavesEntityUnchanged(t *testing.T) {
	fixture := newSchoolFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), school.CreateInput{Name: "Springfield Elementary"})
	require.NoError(t, err)

	_, err = fixture.service.Update(context.Background(), superadmin(), created.ID, school.UpdateInput{
		Name:            pointer.To("Shelbyville Elementary"),
		ExpectedVersion: pointer.To(99),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CONFLICT_STALE_VERSION"))

	stored, err := fixture.service.Get(context.Background(), superadmin(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Springfield Elementary", stored.Name)
	assert.Equal(t, 1, stored.Version)
}

func TestUpdate_PartialFieldsAndVersionBump(t *testing.T) {
	fixture := newSchoolFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), school.CreateInput{
		Name:    "Springfield Elementary",
		Address: "19 Plympton St",
	})
	require.NoError(t, err)

	updated, err := fixture.service.Update(context.Background(), superadmin(), created.ID, school.UpdateInput{
		Name:            pointer.To("Springfield Primary"),
		ExpectedVersion: pointer.To(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "Springfield Primary", updated.Name)
	assert.Equal(t, "19 Plympton St", updated.Address) // nil field untouched
	assert.Equal(t, 2, updated.Version)
}

func TestDelete_BlockedByLinkedResources(t *testing.T) {
	fixture := newSchoolFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), school.CreateInput{Name: "Springfield Elementary"})
	require.NoError(t, err)

	cases := []struct {
		name string
		prep func()
	}{
		{"classrooms", func() { fixture.classrooms.counts[created.ID] = 1 }},
		{"students", func() { fixture.students.counts[created.ID] = 3 }},
		{"admins", func() { fixture.admins.counts[created.ID] = 1 }},
	}

	for _, testCase := range cases {
		t.Run(testCase.name, func(t *testing.T) {
			fixture.classrooms.counts[created.ID] = 0
			fixture.students.counts[created.ID] = 0
			fixture.admins.counts[created.ID] = 0
			testCase.prep()

			err := fixture.service.Delete(context.Background(), superadmin(), created.ID)
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, "SCHOOL_HAS_LINKED_RESOURCES"))
		})
	}

	fixture.classrooms.counts[created.ID] = 0
	fixture.students.counts[created.ID] = 0
	fixture.admins.counts[created.ID] = 0

	require.NoError(t, fixture.service.Delete(context.Background(), superadmin(), created.ID))

	_, err = fixture.service.Get(context.Background(), superadmin(), created.ID)
	assert.True(t, apperr.HasCode(err, "SCHOOL_NOT_FOUND"))
}

func TestGet_SchoolAdminConfinedToOwnSchool(t *testing.T) {
	fixture := newSchoolFixture(t)

	mine, err := fixture.service.Create(context.Background(), superadmin(), school.CreateInput{Name: "Mine"})
	require.NoError(t, err)
	other, err := fixture.service.Create(context.Background(), superadmin(), school.CreateInput{Name: "Other"})
	require.NoError(t, err)

	got, err := fixture.service.Get(context.Background(), schoolAdmin(mine.ID), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = fixture.service.Get(context.Background(), schoolAdmin(mine.ID), other.ID)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "AUTH_FORBIDDEN"))
}

func TestUpdateProfile_VersionProtocol(t *testing.T) {
	fixture := newSchoolFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), school.CreateInput{Name: "Springfield Elementary"})
	require.NoError(t, err)

	updated, err := fixture.service.UpdateProfile(context.Background(), superadmin(), created.ID, school.ProfileInput{
		Profile:         map[string]any{"motto": "Embiggen the smallest student"},
		ExpectedVersion: pointer.To(1),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)

	_, err = fixture.service.UpdateProfile(context.Background(), superadmin(), created.ID, school.ProfileInput{
		Profile:         map[string]any{},
		ExpectedVersion: pointer.To(1),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CONFLICT_STALE_VERSION"))
}
