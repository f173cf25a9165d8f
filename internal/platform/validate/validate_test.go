// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/validate"
)

/*
TestValidator_PassingChain verifies that a chain with no violations yields nil.
*/
func TestValidator_PassingChain(t *testing.T) {
	v := &validate.Validator{}
	v.Required("name", "Springfield Elementary").
		MaxLen("name", "Springfield Elementary", 200).
		Email("contact_email", "office@springfield.edu").
		Min("capacity", 30, 1)

	assert.NoError(t, v.Err())
	assert.False(t, v.HasErrors())
}

/*
TestValidator_CollectsAllFailures verifies that every failed rule produces its
own field error rather than short-circuiting on the first one.
*/
func TestValidator_CollectsAllFailures(t *testing.T) {
	v := &validate.Validator{}
	v.Required("first_name", "  ").
		Email("email", "not-an-email").
		UUID("school_id", "1234").
		Min("capacity", 0, 1)

	err := v.Err()
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "VALIDATION_ERROR", appError.Code)
	assert.Len(t, appError.Details, 4)
}

/*
TestValidator_Date verifies ISO calendar date parsing.
*/
func TestValidator_Date(t *testing.T) {
	valid := &validate.Validator{}
	valid.Date("date_of_birth", "2014-09-01")
	assert.NoError(t, valid.Err())

	invalid := &validate.Validator{}
	invalid.Date("date_of_birth", "01/09/2014")
	assert.Error(t, invalid.Err())
}

/*
TestValidator_OneOf verifies membership checks against an allowed set.
*/
func TestValidator_OneOf(t *testing.T) {
	v := &validate.Validator{}
	v.OneOf("status", "archived", "active", "inactive")

	err := v.Err()
	require.Error(t, err)

	appError := apperr.As(err)
	require.NotNil(t, appError)
	assert.Equal(t, "status", appError.Details[0].Field)
}
