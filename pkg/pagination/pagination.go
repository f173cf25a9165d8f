// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

/*
Package pagination provides shared types and helpers for API list endpoints.

It standardizes how cursor- and offset-based navigation is requested via query
parameters and how the resulting metadata is delivered in the API response
envelope.

Cursor protocol:

  - A cursor is an opaque, order-preserving bookmark encoding the
    (created_at, id) pair of the last row the client has seen.
  - Lists are ordered by (created_at DESC, id DESC); the id tie-break makes
    the order total even when many rows share one timestamp.
  - A next cursor is only emitted when the returned page is exactly `limit`
    rows, i.e. there may be more data.
  - When both a cursor and an offset are supplied, the cursor wins.
*/
package pagination

import (
	"encoding/base64"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/ndthang/skolar/internal/platform/apperr"
)

const (
	// DefaultLimit is the number of items per page if not specified.
	DefaultLimit = 20
	// MaxLimit is the upper bound for items per page to prevent system abuse.
	MaxLimit = 100
)

// idRegex matches the UUID shape used for all primary keys.
var idRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// # Cursor Codec

// Cursor is the decoded form of an opaque pagination token.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// cursorPayload is the JSON wire form of a cursor. The timestamp travels as an
// RFC 3339 string so encoding is deterministic across processes.
type cursorPayload struct {
	CreatedAt string `json:"created_at"`
	ID        string `json:"id"`
}

// EncodeCursor produces an opaque token deterministically derived from the
// (createdAt, id) pair. The same input always yields the same token.
func EncodeCursor(createdAt time.Time, id string) string {
	raw, _ := json.Marshal(cursorPayload{
		CreatedAt: createdAt.UTC().Format(time.RFC3339Nano),
		ID:        id,
	})
	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor reverses [EncodeCursor].
//
// It returns nil — never an error and never a panic — on any malformed token,
// unparseable timestamp, or id that fails the UUID shape check. Callers must
// treat nil as "invalid cursor" and surface a validation error.
func DecodeCursor(token string) *Cursor {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil
	}
	if payload.CreatedAt == "" || payload.ID == "" {
		return nil
	}

	createdAt, err := time.Parse(time.RFC3339Nano, payload.CreatedAt)
	if err != nil {
		return nil
	}
	if !idRegex.MatchString(payload.ID) {
		return nil
	}

	return &Cursor{CreatedAt: createdAt, ID: payload.ID}
}

// # Request Parsing

// Params holds the parsed pagination inputs of a list request.
type Params struct {
	Limit  int
	Offset int
	// Cursor is nil when the client did not supply one. When present it takes
	// precedence over Offset.
	Cursor *Cursor
}

// Parse validates the limit/offset/cursor query parameters using the
// platform defaults.
func Parse(query url.Values) (Params, error) {
	return ParseWith(query, DefaultLimit, MaxLimit)
}

// ParseWith validates pagination query parameters against explicit bounds.
//
// # Behavior
//
//   - limit: optional; must be a positive integer (VALIDATION_INVALID_LIMIT).
//     Values above maxLimit are clamped silently — clamping, not rejection.
//   - offset: optional; must be a non-negative integer (VALIDATION_INVALID_OFFSET).
//   - cursor: optional; any token [DecodeCursor] rejects fails with
//     VALIDATION_INVALID_CURSOR.
func ParseWith(query url.Values, defaultLimit, maxLimit int) (Params, error) {
	params := Params{Limit: defaultLimit}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return Params{}, apperr.ValidationError("Validation failed", apperr.FieldError{
				Field:   "limit",
				Message: "limit must be a positive integer",
			}).WithCode("VALIDATION_INVALID_LIMIT")
		}
		if limit > maxLimit {
			limit = maxLimit
		}
		params.Limit = limit
	}

	if raw := query.Get("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return Params{}, apperr.ValidationError("Validation failed", apperr.FieldError{
				Field:   "offset",
				Message: "offset must be a non-negative integer",
			}).WithCode("VALIDATION_INVALID_OFFSET")
		}
		params.Offset = offset
	}

	if raw := query.Get("cursor"); raw != "" {
		cursor := DecodeCursor(raw)
		if cursor == nil {
			return Params{}, apperr.ValidationError("Validation failed", apperr.FieldError{
				Field:   "cursor",
				Message: "cursor is invalid",
			}).WithCode("VALIDATION_INVALID_CURSOR")
		}
		params.Cursor = cursor
	}

	return params, nil
}

// # Response Metadata

// Meta is the pagination metadata included in API list responses.
type Meta struct {
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
	NextCursor string `json:"next_cursor,omitempty"`
}

// NewMeta constructs pagination metadata for a response.
func NewMeta(params Params, nextCursor string) Meta {
	return Meta{
		Limit:      params.Limit,
		Offset:     params.Offset,
		NextCursor: nextCursor,
	}
}

// NextCursor builds the continuation token for a page.
//
// It returns an empty string unless the page is exactly `limit` rows — a short
// page proves the result set is exhausted, so no cursor is handed out.
func NextCursor(pageLen, limit int, lastCreatedAt time.Time, lastID string) string {
	if pageLen == 0 || pageLen < limit {
		return ""
	}
	return EncodeCursor(lastCreatedAt, lastID)
}
