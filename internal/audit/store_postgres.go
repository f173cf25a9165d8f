// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL implementation of the audit Store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

/*
Append persists a new entry into the audit.log table.

Parameters:
  - context: context.Context
  - entry: *Entry

Returns:
  - error: Persistence failures
*/
func (repository *PostgresStore) Append(context context.Context, entry *Entry) error {
	const query = `
		INSERT INTO audit.log (
			id, action, status, actorid, actorrole, actorschoolid,
			targettype, targetid, requestid, correlationid, metadata, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}

	var metadata []byte
	if entry.Metadata != nil {
		encoded, err := json.Marshal(entry.Metadata)
		if err != nil {
			return fmt.Errorf("postgres_audit_repo_encode_metadata_failed: %w", err)
		}
		metadata = encoded
	}

	_, err := repository.pool.Exec(context, query,
		entry.ID,
		entry.Action,
		entry.Status,
		entry.ActorID,
		entry.ActorRole,
		entry.ActorSchoolID,
		entry.TargetType,
		entry.TargetID,
		entry.RequestID,
		entry.CorrelationID,
		metadata,
		entry.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_audit_repo_append_failed: %w", err)
	}

	return nil
}
