// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

// PostgreSQL implementations of the auth repositories.
//
// # err Mapping
//
// Storage-specific errors (like pgx.ErrNoRows) are mapped to domain-friendly
// [apperr.AppError] types to avoid leaking storage implementation details.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/dberr"
	"github.com/ndthang/skolar/internal/platform/sec"
)

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

const userColumns = `id, email, passwordhash, fullname, role, COALESCE(schoolid, ''), isactive, version, createdat, updatedat`

func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.FullName,
		&user.Role,
		&user.SchoolID,
		&user.IsActive,
		&user.Version,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
Create persists a new account record into the users.account table.

Description: Duplicate emails are detected via the unique index and surfaced
as USER_EMAIL_EXISTS.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: USER_EMAIL_EXISTS, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, email, passwordhash, fullname, role, schoolid, isactive, version, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9, $10)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FullName,
		user.Role,
		user.SchoolID,
		user.IsActive,
		user.Version,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err, "account_email_unique") {
			return apperr.Conflict("Email is already registered").WithCode("USER_EMAIL_EXISTS")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByEmail retrieves an account by its email, case-insensitively.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: USER_NOT_FOUND or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE lower(email) = lower($1)`

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User").WithCode("USER_NOT_FOUND")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByID retrieves an account by its primary key.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: USER_NOT_FOUND or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users.account
		WHERE id = $1`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User").WithCode("USER_NOT_FOUND")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
ExistsSuperadmin reports whether any superadmin account is enrolled.

Parameters:
  - context: context.Context

Returns:
  - bool: Whether a superadmin exists
  - error: Database retrieval failures
*/
func (repository *PostgresUserRepository) ExistsSuperadmin(context context.Context) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users.account WHERE role = $1)`

	var exists bool
	if err := repository.pool.QueryRow(context, query, sec.RoleSuperadmin).Scan(&exists); err != nil {
		return false, fmt.Errorf("postgres_user_repo_exists_superadmin_failed: %w", err)
	}

	return exists, nil
}

/*
CountSchoolAdminsBySchool counts admin accounts bound to a school.

Parameters:
  - context: context.Context
  - schoolID: string

Returns:
  - int: Number of school_admin accounts
  - error: Database retrieval failures
*/
func (repository *PostgresUserRepository) CountSchoolAdminsBySchool(context context.Context, schoolID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users.account WHERE role = $1 AND schoolid = $2`

	var count int
	if err := repository.pool.QueryRow(context, query, sec.RoleSchoolAdmin, schoolID).Scan(&count); err != nil {
		return 0, fmt.Errorf("postgres_user_repo_count_admins_failed: %w", err)
	}

	return count, nil
}

// # Refresh Token Repository

// PostgresRefreshTokenRepository implements the RefreshTokenRepository interface.
type PostgresRefreshTokenRepository struct {
	pool *pgxpool.Pool
}

// NewRefreshTokenRepository creates a new PostgreSQL implementation of RefreshTokenRepository.
func NewRefreshTokenRepository(pool *pgxpool.Pool) *PostgresRefreshTokenRepository {
	return &PostgresRefreshTokenRepository{pool: pool}
}

/*
Create persists a new active token row into the users.refresh_token table.

Parameters:
  - context: context.Context
  - token: *RefreshToken

Returns:
  - error: Storage failures
*/
func (repository *PostgresRefreshTokenRepository) Create(context context.Context, token *RefreshToken) error {
	const query = `
		INSERT INTO users.refresh_token (
			tokenid, familyid, userid, status, expiresat, createdbyip, useragent, createdat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err := repository.pool.Exec(context, query,
		token.TokenID,
		token.FamilyID,
		token.UserID,
		token.Status,
		token.ExpiresAt,
		token.CreatedByIP,
		token.UserAgent,
		token.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("postgres_token_repo_create_failed: %w", err)
	}

	return nil
}

/*
FindByTokenID retrieves a token row in ANY state.

Description: Reuse detection needs to observe revoked and expired rows, so no
status predicate is applied here.

Parameters:
  - context: context.Context
  - tokenID: string

Returns:
  - *RefreshToken: Hydrated row
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresRefreshTokenRepository) FindByTokenID(context context.Context, tokenID string) (*RefreshToken, error) {
	const query = `
		SELECT tokenid, familyid, userid, status, expiresat, revokedat, replacedbytokenid, createdbyip, useragent, createdat
		FROM users.refresh_token
		WHERE tokenid = $1`

	token := &RefreshToken{}
	err := repository.pool.QueryRow(context, query, tokenID).Scan(
		&token.TokenID,
		&token.FamilyID,
		&token.UserID,
		&token.Status,
		&token.ExpiresAt,
		&token.RevokedAt,
		&token.ReplacedByTokenID,
		&token.CreatedByIP,
		&token.UserAgent,
		&token.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Refresh token")
		}
		return nil, fmt.Errorf("postgres_token_repo_find_failed: %w", err)
	}

	return token, nil
}

/*
Revoke transitions one token to a terminal status.

Parameters:
  - context: context.Context
  - tokenID: string
  - status: string
  - replacedByTokenID: *string

Returns:
  - error: Revocation failures
*/
func (repository *PostgresRefreshTokenRepository) Revoke(context context.Context, tokenID, status string, replacedByTokenID *string) error {
	const query = `
		UPDATE users.refresh_token
		SET status = $2, revokedat = $3, replacedbytokenid = $4
		WHERE tokenid = $1`

	_, err := repository.pool.Exec(context, query, tokenID, status, time.Now(), replacedByTokenID)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_revoke_failed: %w", err)
	}

	return nil
}

/*
RevokeFamily revokes every still-active token in a family in one statement.

Parameters:
  - context: context.Context
  - familyID: string

Returns:
  - error: Batch revocation failures
*/
func (repository *PostgresRefreshTokenRepository) RevokeFamily(context context.Context, familyID string) error {
	const query = `
		UPDATE users.refresh_token
		SET status = $2, revokedat = $3
		WHERE familyid = $1 AND status = $4`

	_, err := repository.pool.Exec(context, query, familyID, TokenStatusRevoked, time.Now(), TokenStatusActive)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_revoke_family_failed: %w", err)
	}

	return nil
}

/*
DeleteExpired permanently removes rows past their expiration.

Description: Cleanup task to reclaim storage; expiry handling is otherwise lazy.

Parameters:
  - context: context.Context

Returns:
  - error: Cleanup failures
*/
func (repository *PostgresRefreshTokenRepository) DeleteExpired(context context.Context) error {
	const query = `DELETE FROM users.refresh_token WHERE expiresat <= NOW()`

	_, err := repository.pool.Exec(context, query)
	if err != nil {
		return fmt.Errorf("postgres_token_repo_delete_expired_failed: %w", err)
	}

	return nil
}
