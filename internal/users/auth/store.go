// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package auth

import "context"

// # User Data Access

// UserRepository defines the data access contract for operator accounts.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByEmail returns the account with the given email (case-insensitive).

		Parameters:
		  - context: context.Context
		  - email: string

		Returns:
		  - *User: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByEmail(context context.Context, email string) (*User, error)

	/*
		Create persists a brand-new operator account to the storage.

		Parameters:
		  - context: context.Context
		  - user: *User

		Returns:
		  - error: Persistence failures (USER_EMAIL_EXISTS on duplicate email)
	*/
	Create(context context.Context, user *User) error

	/*
		ExistsSuperadmin reports whether any superadmin account exists.
		Used to guard the one-time bootstrap operation.

		Parameters:
		  - context: context.Context

		Returns:
		  - bool: Whether a superadmin is already enrolled
		  - error: Database retrieval failures
	*/
	ExistsSuperadmin(context context.Context) (bool, error)

	/*
		CountSchoolAdminsBySchool returns the number of admin accounts bound
		to the given school. Feeds the school-delete integrity check.

		Parameters:
		  - context: context.Context
		  - schoolID: string

		Returns:
		  - int: Number of school_admin accounts
		  - error: Database retrieval failures
	*/
	CountSchoolAdminsBySchool(context context.Context, schoolID string) (int, error)
}

// # Refresh Token Data Access

// RefreshTokenRepository defines the data access contract for the persisted
// refresh-token state machine.
type RefreshTokenRepository interface {

	/*
		Create persists a new active refresh-token row.

		Parameters:
		  - context: context.Context
		  - token: *RefreshToken

		Returns:
		  - error: Persistence failures
	*/
	Create(context context.Context, token *RefreshToken) error

	/*
		FindByTokenID returns the row for the given token id in ANY state.
		Reuse detection depends on seeing revoked and expired rows too.

		Parameters:
		  - context: context.Context
		  - tokenID: string

		Returns:
		  - *RefreshToken: Hydrated entity
		  - error: Database retrieval failures
	*/
	FindByTokenID(context context.Context, tokenID string) (*RefreshToken, error)

	/*
		Revoke transitions one token to the given terminal status, optionally
		recording the successor that replaced it during rotation.

		Parameters:
		  - context: context.Context
		  - tokenID: string
		  - status: string (TokenStatusRevoked or TokenStatusExpired)
		  - replacedByTokenID: *string (nil outside rotation)

		Returns:
		  - error: Persistence failures
	*/
	Revoke(context context.Context, tokenID, status string, replacedByTokenID *string) error

	/*
		RevokeFamily revokes every still-active token in a family in a single
		statement. This is the reuse-detection kill switch.

		Parameters:
		  - context: context.Context
		  - familyID: string

		Returns:
		  - error: Persistence failures
	*/
	RevokeFamily(context context.Context, familyID string) error

	/*
		DeleteExpired physically removes rows whose ExpiresAt is in the past.
		Expiry is otherwise lazy (detected at use); this exists for
		out-of-band pruning.

		Parameters:
		  - context: context.Context

		Returns:
		  - error: Persistence failures
	*/
	DeleteExpired(context context.Context) error
}
