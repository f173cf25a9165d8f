// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package student_test

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
	"github.com/ndthang/skolar/internal/student"
	"github.com/ndthang/skolar/pkg/pagination"
	"github.com/ndthang/skolar/pkg/pointer"
)

type fakeRepo struct {
	students map[string]*student.Student
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{students: make(map[string]*student.Student)}
}

func (repo *fakeRepo) List(_ context.Context, filter student.Filter, _ pagination.Params) ([]*student.Student, error) {
	var out []*student.Student
	for _, s := range repo.students {
		if filter.Scope.SchoolID != "" && s.SchoolID != filter.Scope.SchoolID {
			continue
		}
		clone := *s
		out = append(out, &clone)
	}
	return out, nil
}

func (repo *fakeRepo) FindByID(_ context.Context, id string) (*student.Student, error) {
	if s, ok := repo.students[id]; ok {
		clone := *s
		return &clone, nil
	}
	return nil, apperr.NotFound("Student").WithCode("STUDENT_NOT_FOUND")
}

func (repo *fakeRepo) uniqueConflict(candidate *student.Student) error {
	for _, existing := range repo.students {
		if existing.ID == candidate.ID {
			continue
		}
		if existing.SchoolID == candidate.SchoolID && existing.AdmissionNumber == candidate.AdmissionNumber {
			return apperr.Conflict("Admission number is already used in this school").
				WithCode("STUDENT_ADMISSION_EXISTS")
		}
		if candidate.Email != "" && existing.Email == candidate.Email {
			return apperr.Conflict("A student with this email already exists").
				WithCode("STUDENT_EMAIL_EXISTS")
		}
	}
	return nil
}

func (repo *fakeRepo) Create(_ context.Context, s *student.Student) error {
	if err := repo.uniqueConflict(s); err != nil {
		return err
	}
	clone := *s
	repo.students[s.ID] = &clone
	return nil
}

func (repo *fakeRepo) Update(_ context.Context, s *student.Student, readVersion int) error {
	stored, ok := repo.students[s.ID]
	if !ok {
		return apperr.NotFound("Student").WithCode("STUDENT_NOT_FOUND")
	}
	if stored.Version != readVersion {
		return apperr.StaleVersion("Student")
	}
	if err := repo.uniqueConflict(s); err != nil {
		return err
	}
	clone := *s
	repo.students[s.ID] = &clone
	return nil
}

func (repo *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := repo.students[id]; !ok {
		return apperr.NotFound("Student").WithCode("STUDENT_NOT_FOUND")
	}
	delete(repo.students, id)
	return nil
}

func (repo *fakeRepo) CountBySchool(_ context.Context, schoolID string) (int, error) {
	count := 0
	for _, s := range repo.students {
		if s.SchoolID == schoolID {
			count++
		}
	}
	return count, nil
}

func (repo *fakeRepo) CountByClassroom(_ context.Context, classroomID string) (int, error) {
	count := 0
	for _, s := range repo.students {
		if s.ClassroomID == classroomID {
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

// fakeClassroomDirectory maps classroom id to its school.
type fakeClassroomDirectory struct {
	classrooms map[string]string
}

func (directory *fakeClassroomDirectory) SchoolOf(_ context.Context, classroomID string) (string, error) {
	if schoolID, ok := directory.classrooms[classroomID]; ok {
		return schoolID, nil
	}
	return "", apperr.NotFound("Classroom").WithCode("CLASSROOM_NOT_FOUND")
}

type fakeAuditStore struct {
	entries []*audit.Entry
}

func (store *fakeAuditStore) Append(_ context.Context, entry *audit.Entry) error {
	store.entries = append(store.entries, entry)
	return nil
}

type studentFixture struct {
	service    *student.Service
	repo       *fakeRepo
	schools    *fakeSchoolDirectory
	classrooms *fakeClassroomDirectory
	auditing   *fakeAuditStore
}

func newStudentFixture(t *testing.T) *studentFixture {
	t.Helper()

	repo := newFakeRepo()
	schools := &fakeSchoolDirectory{schools: map[string]bool{"sch-1": true, "sch-2": true}}
	classrooms := &fakeClassroomDirectory{classrooms: map[string]string{
		"cls-1a": "sch-1",
		"cls-2a": "sch-2",
	}}
	auditing := &fakeAuditStore{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	recorder := audit.NewRecorder(auditing, logger)

	return &studentFixture{
		service:    student.NewService(repo, schools, classrooms, recorder, logger),
		repo:       repo,
		schools:    schools,
		classrooms: classrooms,
		auditing:   auditing,
	}
}

func superadmin() *sec.AuthClaims {
	return &sec.AuthClaims{UserID: "root", Role: string(sec.RoleSuperadmin)}
}

func schoolAdmin(schoolID string) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: "admin", Role: string(sec.RoleSchoolAdmin), SchoolID: schoolID}
}

func validInput(schoolID, admission string) student.CreateInput {
	return student.CreateInput{
		SchoolID:        schoolID,
		FirstName:       "Lisa",
		LastName:        "Simpson",
		AdmissionNumber: admission,
	}
}

func TestCreate_CrossSchoolClassroomCreatesNothing(t *testing.T) {
	fixture := newStudentFixture(t)

	input := validInput("sch-1", "ADM-001")
	input.ClassroomID = "cls-2a" // belongs to sch-2

	_, err := fixture.service.Create(context.Background(), superadmin(), input)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CLASSROOM_SCHOOL_MISMATCH"))
	assert.Empty(t, fixture.repo.students)
}

func TestCreate_AdmissionUniquePerSchool(t *testing.T) {
	fixture := newStudentFixture(t)

	_, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1", "ADM-001"))
	require.NoError(t, err)

	_, err = fixture.service.Create(context.Background(), superadmin(), validInput("sch-1", "ADM-001"))
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "STUDENT_ADMISSION_EXISTS"))

	// The same admission number in another school does not collide.
	_, err = fixture.service.Create(context.Background(), superadmin(), validInput("sch-2", "ADM-001"))
	assert.NoError(t, err)
}

func TestCreate_EmailGloballyUnique(t *testing.T) {
	fixture := newStudentFixture(t)

	first := validInput("sch-1", "ADM-001")
	first.Email = "lisa@springfield.edu"
	_, err := fixture.service.Create(context.Background(), superadmin(), first)
	require.NoError(t, err)

	second := validInput("sch-2", "ADM-002")
	second.Email = "lisa@springfield.edu"
	_, err = fixture.service.Create(context.Background(), superadmin(), second)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "STUDENT_EMAIL_EXISTS"))
}

func TestCreate_SchoolAdminPinnedToOwnSchool(t *testing.T) {
	fixture := newStudentFixture(t)

	created, err := fixture.service.Create(context.Background(), schoolAdmin("sch-1"), validInput("", "ADM-001"))
	require.NoError(t, err)
	assert.Equal(t, "sch-1", created.SchoolID)

	_, err = fixture.service.Create(context.Background(), schoolAdmin("sch-1"), validInput("sch-2", "ADM-002"))
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "SCOPE_SCHOOL_MISMATCH"))
}

func TestList_SchoolAdminConfinement(t *testing.T) {
	fixture := newStudentFixture(t)

	_, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1", "ADM-001"))
	require.NoError(t, err)
	_, err = fixture.service.Create(context.Background(), superadmin(), validInput("sch-2", "ADM-002"))
	require.NoError(t, err)

	listed, _, err := fixture.service.List(context.Background(), schoolAdmin("sch-1"), "", student.Filter{}, pagination.Params{Limit: 20})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "sch-1", listed[0].SchoolID)
}

func TestUpdate_StaleVersionLeavesEntityUnchanged(t *testing.T) {
	fixture := newStudentFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1", "ADM-001"))
	require.NoError(t, err)

	_, err = fixture.service.Update(context.Background(), superadmin(), created.ID, student.UpdateInput{
		FirstName:       pointer.To("Bart"),
		ExpectedVersion: pointer.To(42),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CONFLICT_STALE_VERSION"))

	stored, err := fixture.service.Get(context.Background(), superadmin(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lisa", stored.FirstName)
	assert.Equal(t, 1, stored.Version)
}

func TestUpdate_ClassroomMustBelongToSchool(t *testing.T) {
	fixture := newStudentFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1", "ADM-001"))
	require.NoError(t, err)

	_, err = fixture.service.Update(context.Background(), superadmin(), created.ID, student.UpdateInput{
		ClassroomID: pointer.To("cls-2a"),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CLASSROOM_SCHOOL_MISMATCH"))

	updated, err := fixture.service.Update(context.Background(), superadmin(), created.ID, student.UpdateInput{
		ClassroomID: pointer.To("cls-1a"),
	})
	require.NoError(t, err)
	assert.Equal(t, "cls-1a", updated.ClassroomID)
	assert.Equal(t, 2, updated.Version)

	// An empty pointer unassigns the classroom.
	updated, err = fixture.service.Update(context.Background(), superadmin(), created.ID, student.UpdateInput{
		ClassroomID: pointer.To(""),
	})
	require.NoError(t, err)
	assert.Empty(t, updated.ClassroomID)
}

func TestTransfer_SchoolAdminCannotTargetAnotherSchool(t *testing.T) {
	fixture := newStudentFixture(t)

	created, err := fixture.service.Create(context.Background(), schoolAdmin("sch-1"), validInput("", "ADM-001"))
	require.NoError(t, err)

	_, err = fixture.service.Transfer(context.Background(), schoolAdmin("sch-1"), created.ID, student.TransferInput{
		TargetSchoolID: "sch-2",
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "SCOPE_SCHOOL_MISMATCH"))

	stored, err := fixture.service.Get(context.Background(), superadmin(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "sch-1", stored.SchoolID)
}

func TestTransfer_ValidatesTargetClassroom(t *testing.T) {
	fixture := newStudentFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1", "ADM-001"))
	require.NoError(t, err)

	_, err = fixture.service.Transfer(context.Background(), superadmin(), created.ID, student.TransferInput{
		TargetSchoolID:    "sch-2",
		TargetClassroomID: "cls-1a", // belongs to sch-1, not the target
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CLASSROOM_SCHOOL_MISMATCH"))
}

func TestTransfer_MovesScopeAndAudits(t *testing.T) {
	fixture := newStudentFixture(t)

	input := validInput("sch-1", "ADM-001")
	input.ClassroomID = "cls-1a"
	created, err := fixture.service.Create(context.Background(), superadmin(), input)
	require.NoError(t, err)

	transferred, err := fixture.service.Transfer(context.Background(), superadmin(), created.ID, student.TransferInput{
		TargetSchoolID:    "sch-2",
		TargetClassroomID: "cls-2a",
		ExpectedVersion:   pointer.To(1),
	})
	require.NoError(t, err)
	assert.Equal(t, "sch-2", transferred.SchoolID)
	assert.Equal(t, "cls-2a", transferred.ClassroomID)
	assert.Equal(t, 2, transferred.Version)

	require.Len(t, fixture.auditing.entries, 1)
	entry := fixture.auditing.entries[0]
	assert.Equal(t, audit.ActionStudentTransfer, entry.Action)
	assert.Equal(t, "sch-1", entry.Metadata["prior_school_id"])
	assert.Equal(t, "sch-2", entry.Metadata["new_school_id"])
	assert.Equal(t, "cls-1a", entry.Metadata["prior_classroom_id"])
	assert.Equal(t, "cls-2a", entry.Metadata["new_classroom_id"])
}

func TestTransfer_StaleVersion(t *testing.T) {
	fixture := newStudentFixture(t)

	created, err := fixture.service.Create(context.Background(), superadmin(), validInput("sch-1", "ADM-001"))
	require.NoError(t, err)

	_, err = fixture.service.Transfer(context.Background(), superadmin(), created.ID, student.TransferInput{
		TargetSchoolID:  "sch-2",
		ExpectedVersion: pointer.To(5),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "CONFLICT_STALE_VERSION"))
}
