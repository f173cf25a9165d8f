// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package access_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndthang/skolar/internal/access"
	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/sec"
)

func superadmin() *sec.AuthClaims {
	return &sec.AuthClaims{UserID: "user-super", Role: string(sec.RoleSuperadmin)}
}

func schoolAdmin(schoolID string) *sec.AuthClaims {
	return &sec.AuthClaims{UserID: "user-admin", Role: string(sec.RoleSchoolAdmin), SchoolID: schoolID}
}

/*
TestEnsureAuthenticated verifies the anonymous-caller gate.
*/
func TestEnsureAuthenticated(t *testing.T) {
	err := access.EnsureAuthenticated(nil)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "AUTH_UNAUTHENTICATED"))

	assert.NoError(t, access.EnsureAuthenticated(superadmin()))
}

/*
TestEnsureRole verifies that roles are flat, not hierarchical.
*/
func TestEnsureRole(t *testing.T) {
	assert.NoError(t, access.EnsureRole(superadmin(), sec.RoleSuperadmin))
	assert.NoError(t, access.EnsureRole(schoolAdmin("sch-1"), sec.RoleSuperadmin, sec.RoleSchoolAdmin))

	err := access.EnsureRole(schoolAdmin("sch-1"), sec.RoleSuperadmin)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "AUTH_FORBIDDEN"))

	// Anonymous callers fail authentication, not authorization.
	err = access.EnsureRole(nil, sec.RoleSuperadmin)
	assert.True(t, apperr.HasCode(err, "AUTH_UNAUTHENTICATED"))
}

/*
TestResolveSchoolScope_SchoolAdmin verifies that school admins are pinned to
their own school and can never escalate via the requested id.
*/
func TestResolveSchoolScope_SchoolAdmin(t *testing.T) {
	t.Run("pinned to own school", func(t *testing.T) {
		scope, err := access.ResolveSchoolScope(schoolAdmin("sch-1"), "", false)
		require.NoError(t, err)
		assert.Equal(t, "sch-1", scope.SchoolID)
	})

	t.Run("requesting own school is a no-op", func(t *testing.T) {
		scope, err := access.ResolveSchoolScope(schoolAdmin("sch-1"), "sch-1", true)
		require.NoError(t, err)
		assert.Equal(t, "sch-1", scope.SchoolID)
	})

	t.Run("requesting another school is rejected", func(t *testing.T) {
		_, err := access.ResolveSchoolScope(schoolAdmin("sch-1"), "sch-2", false)
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, "SCOPE_SCHOOL_MISMATCH"))
	})

	t.Run("missing assignment is rejected", func(t *testing.T) {
		_, err := access.ResolveSchoolScope(schoolAdmin(""), "", false)
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, "SCOPE_SCHOOL_NOT_ASSIGNED"))
	})
}

/*
TestResolveSchoolScope_Superadmin verifies platform-wide vs explicit scoping.
*/
func TestResolveSchoolScope_Superadmin(t *testing.T) {
	t.Run("unscoped when no school requested", func(t *testing.T) {
		scope, err := access.ResolveSchoolScope(superadmin(), "", false)
		require.NoError(t, err)
		assert.False(t, scope.IsScoped())
		assert.Empty(t, scope.Filter().SchoolID)
	})

	t.Run("scoped to requested school", func(t *testing.T) {
		scope, err := access.ResolveSchoolScope(superadmin(), "sch-9", false)
		require.NoError(t, err)
		assert.Equal(t, "sch-9", scope.SchoolID)
		assert.True(t, scope.IsScoped())
	})

	t.Run("explicit school required", func(t *testing.T) {
		_, err := access.ResolveSchoolScope(superadmin(), "", true)
		require.Error(t, err)
		assert.True(t, apperr.HasCode(err, "VALIDATION_REQUIRED_SCHOOL_ID"))
	})
}

/*
TestEnforceEntityScope verifies the reactive post-fetch check.
*/
func TestEnforceEntityScope(t *testing.T) {
	assert.NoError(t, access.EnforceEntityScope(superadmin(), "sch-1"))
	assert.NoError(t, access.EnforceEntityScope(schoolAdmin("sch-1"), "sch-1"))

	err := access.EnforceEntityScope(schoolAdmin("sch-1"), "sch-2")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, "AUTH_FORBIDDEN"))

	err = access.EnforceEntityScope(schoolAdmin(""), "sch-1")
	assert.True(t, apperr.HasCode(err, "AUTH_FORBIDDEN"))

	err = access.EnforceEntityScope(nil, "sch-1")
	assert.True(t, apperr.HasCode(err, "AUTH_UNAUTHENTICATED"))
}
