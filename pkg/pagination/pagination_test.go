// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package pagination_test

import (
	"encoding/base64"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/pkg/pagination"
)

/*
TestCursor_RoundTrip verifies that encoding is deterministic and that decoding
recovers the original (created_at, id) pair.
*/
func TestCursor_RoundTrip(t *testing.T) {
	createdAt := time.Date(2026, 3, 14, 9, 26, 53, 589793000, time.UTC)
	id := "0195f1a2-7c3e-7000-8000-0123456789ab"

	token := pagination.EncodeCursor(createdAt, id)
	require.NotEmpty(t, token)

	// Deterministic: same input, same token.
	assert.Equal(t, token, pagination.EncodeCursor(createdAt, id))

	cursor := pagination.DecodeCursor(token)
	require.NotNil(t, cursor)
	assert.True(t, createdAt.Equal(cursor.CreatedAt))
	assert.Equal(t, id, cursor.ID)
}

/*
TestDecodeCursor_Malformed verifies that every class of malformed token yields
nil rather than an error or a panic.
*/
func TestDecodeCursor_Malformed(t *testing.T) {
	cases := map[string]string{
		"not base64":       "%%%not-base64%%%",
		"not json":         "bm90LWpzb24",
		"missing fields":   "e30",
		"bad timestamp":    pagination.EncodeCursor(time.Time{}, "x") + "x",
		"bad id shape":     encodeRaw(t, "2026-03-14T09:26:53Z", "not-a-uuid"),
		"empty id":         encodeRaw(t, "2026-03-14T09:26:53Z", ""),
		"non-iso datetime": encodeRaw(t, "14/03/2026 09:26", "0195f1a2-7c3e-7000-8000-0123456789ab"),
	}

	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Nil(t, pagination.DecodeCursor(token))
		})
	}
}

// encodeRaw builds a structurally valid token around a hand-picked payload.
func encodeRaw(t *testing.T, createdAt, id string) string {
	t.Helper()
	raw := `{"created_at":"` + createdAt + `","id":"` + id + `"}`
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

/*
TestParse_Defaults verifies that an empty query yields the default page shape.
*/
func TestParse_Defaults(t *testing.T) {
	params, err := pagination.Parse(url.Values{})
	require.NoError(t, err)

	assert.Equal(t, pagination.DefaultLimit, params.Limit)
	assert.Zero(t, params.Offset)
	assert.Nil(t, params.Cursor)
}

/*
TestParse_LimitClamped verifies that an oversized limit is clamped, not rejected.
*/
func TestParse_LimitClamped(t *testing.T) {
	params, err := pagination.Parse(url.Values{"limit": {"5000"}})
	require.NoError(t, err)
	assert.Equal(t, pagination.MaxLimit, params.Limit)
}

/*
TestParse_InvalidInputs verifies the stable error code for each rejected input.
*/
func TestParse_InvalidInputs(t *testing.T) {
	cases := []struct {
		name  string
		query url.Values
		code  string
	}{
		{"zero limit", url.Values{"limit": {"0"}}, "VALIDATION_INVALID_LIMIT"},
		{"negative limit", url.Values{"limit": {"-3"}}, "VALIDATION_INVALID_LIMIT"},
		{"non-numeric limit", url.Values{"limit": {"ten"}}, "VALIDATION_INVALID_LIMIT"},
		{"negative offset", url.Values{"offset": {"-1"}}, "VALIDATION_INVALID_OFFSET"},
		{"non-numeric offset", url.Values{"offset": {"abc"}}, "VALIDATION_INVALID_OFFSET"},
		{"garbage cursor", url.Values{"cursor": {"@@@"}}, "VALIDATION_INVALID_CURSOR"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := pagination.Parse(tc.query)
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, tc.code))
		})
	}
}

/*
TestParse_CursorBeatsOffset verifies that a valid cursor and an offset can be
supplied together; the parser keeps both and precedence is resolved downstream.
*/
func TestParse_CursorBeatsOffset(t *testing.T) {
	token := pagination.EncodeCursor(time.Now().UTC(), "0195f1a2-7c3e-7000-8000-0123456789ab")

	params, err := pagination.Parse(url.Values{"cursor": {token}, "offset": {"40"}})
	require.NoError(t, err)

	assert.NotNil(t, params.Cursor)
	assert.Equal(t, 40, params.Offset)
}

/*
TestNextCursor verifies the continuation rule: a token is emitted only when the
page is exactly full.
*/
func TestNextCursor(t *testing.T) {
	createdAt := time.Now().UTC()
	id := "0195f1a2-7c3e-7000-8000-0123456789ab"

	assert.Empty(t, pagination.NextCursor(0, 20, createdAt, id))
	assert.Empty(t, pagination.NextCursor(19, 20, createdAt, id))
	assert.NotEmpty(t, pagination.NextCursor(20, 20, createdAt, id))
}
