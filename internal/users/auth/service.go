// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

/*
Package auth implements the core identity and access management (IAM) system.

It handles operator login with per-pair throttling, refresh-token rotation
with family-wide reuse detection, and the account provisioning operations
(one-time superadmin bootstrap, school-admin enrollment).

Architecture:

  - Service: Orchestrates business logic (Login, Refresh, provisioning).
  - Repository: Abstracted interfaces for Postgres (users, refresh tokens).
  - Security: Bcrypt password hashing and RSA-signed JWTs.

The refresh-token rows in Postgres are the authoritative session state; the
JWTs are merely signed pointers into that state.
*/
package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ndthang/skolar/internal/access"
	"github.com/ndthang/skolar/internal/audit"
	"github.com/ndthang/skolar/internal/platform/apperr"
	"github.com/ndthang/skolar/internal/platform/sec"
	"github.com/ndthang/skolar/internal/platform/validate"
	"github.com/ndthang/skolar/pkg/uuid"
)

// # Contracts & Types

// TokenProvider defines the contract for generating and verifying security tokens.
type TokenProvider interface {

	/*
		GenerateAccessToken creates a signed JWT string for the given user.

		Parameters:
		  - userID: The ID of the account.
		  - role: The role of the account.
		  - schoolID: The tenant binding (empty for superadmins).
		  - timeToLive: The duration before the token expires.

		Returns:
		  - A signed JWT string, or an err if signing fails.
	*/
	GenerateAccessToken(userID, role, schoolID string, timeToLive time.Duration) (string, error)

	/*
		GenerateRefreshToken creates a signed refresh JWT carrying the
		rotation identifiers.

		Parameters:
		  - userID, tokenID, familyID: Identity and lineage claims.
		  - timeToLive: The duration before the token expires.

		Returns:
		  - The signed JWT, its expiry instant, or a signing err.
	*/
	GenerateRefreshToken(userID, tokenID, familyID string, timeToLive time.Duration) (string, time.Time, error)

	/*
		VerifyRefreshToken checks signature and shape of a refresh JWT.
		Expired tokens still parse; expiry is decided against the stored row.

		Parameters:
		  - tokenString: The raw JWT.

		Returns:
		  - The refresh claims, or an err on any malformed input.
	*/
	VerifyRefreshToken(tokenString string) (*sec.RefreshClaims, error)
}

// SchoolDirectory is the minimal read contract the auth service needs from the
// school domain. Kept as a local interface to avoid a package cycle.
type SchoolDirectory interface {
	SchoolExists(context context.Context, schoolID string) (bool, error)
}

// Service implements identity and session use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, throttling,
// or rotation logic must be reviewed by the security team.
type Service struct {
	userRepository  UserRepository
	tokenRepository RefreshTokenRepository
	schoolDirectory SchoolDirectory
	throttle        LoginThrottle
	tokenProvider   TokenProvider
	recorder        *audit.Recorder
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	tokenRepo RefreshTokenRepository,
	schools SchoolDirectory,
	throttle LoginThrottle,
	tokenProv TokenProvider,
	recorder *audit.Recorder,
) *Service {
	return &Service{
		userRepository:  userRepo,
		tokenRepository: tokenRepo,
		schoolDirectory: schools,
		throttle:        throttle,
		tokenProvider:   tokenProv,
		recorder:        recorder,
	}
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
	IPAddress string
}

// LoginSession represents a successfully established operator session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates operator credentials and issues security tokens.

Description: Gates the attempt through the per-(email, ip) throttle, performs
constant-time password comparison, and opens a brand-new token family.
Unknown emails and wrong passwords are indistinguishable to the caller.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - err: AUTH_LOGIN_RATE_LIMITED, AUTH_INVALID_CREDENTIALS, AUTH_USER_INACTIVE
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))

	// Lockout gate first: a locked pair never reaches the password check.
	if err := service.throttle.Acquire(context, email, input.IPAddress); err != nil {
		return nil, err
	}

	user, err := service.userRepository.FindByEmail(context, email)

	// Generic message on both unknown email and bad password to prevent enumeration.
	if err != nil {
		_ = service.throttle.RegisterFailure(context, email, input.IPAddress)
		return nil, apperr.Unauthorized("Invalid email or password").WithCode("AUTH_INVALID_CREDENTIALS")
	}

	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		_ = service.throttle.RegisterFailure(context, email, input.IPAddress)
		return nil, apperr.Unauthorized("Invalid email or password").WithCode("AUTH_INVALID_CREDENTIALS")
	}

	if !user.IsActive {
		return nil, apperr.Forbidden("Account is deactivated").WithCode("AUTH_USER_INACTIVE")
	}

	_ = service.throttle.RegisterSuccess(context, email, input.IPAddress)

	session, err := service.openSession(context, user, input.UserAgent, input.IPAddress)
	if err != nil {
		return nil, err
	}

	service.recorder.Record(context, audit.Entry{
		Action:        audit.ActionLogin,
		ActorID:       user.ID,
		ActorRole:     string(user.Role),
		ActorSchoolID: user.SchoolID,
		TargetType:    "user",
		TargetID:      user.ID,
		Metadata:      map[string]any{"ip": input.IPAddress},
	})

	return session, nil
}

// openSession issues a fresh access token and a refresh token in a NEW family,
// persisting the authoritative row.
func (service *Service) openSession(context context.Context, user *User, userAgent, ipAddress string) (*LoginSession, error) {
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, string(user.Role), user.SchoolID, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	tokenID := uuid.New()
	familyID := uuid.New()

	refreshToken, expiresAt, err := service.tokenProvider.GenerateRefreshToken(user.ID, tokenID, familyID, RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	row := &RefreshToken{
		TokenID:     tokenID,
		FamilyID:    familyID,
		UserID:      user.ID,
		Status:      TokenStatusActive,
		ExpiresAt:   expiresAt,
		CreatedByIP: ipAddress,
		UserAgent:   userAgent,
	}

	if err := service.tokenRepository.Create(context, row); err != nil {
		return nil, fmt.Errorf("auth_service_session_creation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}

// # Session Rotation

/*
Refresh implements the refresh-token rotation protocol with reuse detection.

Description: The presented JWT resolves to a persisted row which is the single
source of truth. A token presented in any non-active state is treated as
stolen-and-replayed: the ENTIRE family is revoked, including whichever
successor the legitimate client still holds.

Parameters:
  - context: context.Context
  - refreshToken: string
  - userAgent: string
  - ipAddress: string

Returns:
  - *LoginSession: Rotated credentials within the same family
  - err: AUTH_INVALID_REFRESH_TOKEN, AUTH_REFRESH_TOKEN_REVOKED,
    AUTH_REFRESH_TOKEN_EXPIRED, AUTH_USER_INACTIVE
*/
func (service *Service) Refresh(context context.Context, refreshToken, userAgent, ipAddress string) (*LoginSession, error) {
	claims, err := service.tokenProvider.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperr.Unauthorized("Invalid refresh token").WithCode("AUTH_INVALID_REFRESH_TOKEN")
	}

	row, err := service.tokenRepository.FindByTokenID(context, claims.TokenID)
	if err != nil {
		// Signed but unknown: no row to pivot reuse detection on.
		return nil, apperr.Unauthorized("Invalid refresh token").WithCode("AUTH_INVALID_REFRESH_TOKEN")
	}

	// The signature binds the claims; the row binds the state. Disagreement
	// between them means the token does not belong to this row's lineage.
	if row.UserID != claims.UserID || row.FamilyID != claims.FamilyID {
		return nil, apperr.Unauthorized("Invalid refresh token").WithCode("AUTH_INVALID_REFRESH_TOKEN")
	}

	// Reuse detection: a revoked or expired row being presented again means
	// the token leaked. Kill every active descendant in one statement.
	if row.Status != TokenStatusActive {
		if err := service.tokenRepository.RevokeFamily(context, row.FamilyID); err != nil {
			return nil, fmt.Errorf("auth_service_family_revoke_failed: %w", err)
		}
		service.recorder.Record(context, audit.Entry{
			Action:     audit.ActionRefresh,
			Status:     audit.StatusDenied,
			ActorID:    row.UserID,
			TargetType: "refresh_token_family",
			TargetID:   row.FamilyID,
			Metadata:   map[string]any{"reason": "token_reuse", "ip": ipAddress},
		})
		return nil, apperr.Unauthorized("Refresh token has been revoked").WithCode("AUTH_REFRESH_TOKEN_REVOKED")
	}

	// Lazy expiry: the row outlived its window, retire it now.
	if !time.Now().Before(row.ExpiresAt) {
		if err := service.tokenRepository.Revoke(context, row.TokenID, TokenStatusExpired, nil); err != nil {
			return nil, fmt.Errorf("auth_service_expire_failed: %w", err)
		}
		return nil, apperr.Unauthorized("Refresh token has expired").WithCode("AUTH_REFRESH_TOKEN_EXPIRED")
	}

	user, err := service.userRepository.FindByID(context, row.UserID)
	if err != nil || !user.IsActive {
		// A deactivated operator keeps no live sessions.
		if err := service.tokenRepository.RevokeFamily(context, row.FamilyID); err != nil {
			return nil, fmt.Errorf("auth_service_family_revoke_failed: %w", err)
		}
		return nil, apperr.Forbidden("Account is deactivated").WithCode("AUTH_USER_INACTIVE")
	}

	// Rotate: successor joins the SAME family, predecessor records its heir.
	accessToken, err := service.tokenProvider.GenerateAccessToken(user.ID, string(user.Role), user.SchoolID, AccessTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_access_token_failed: %w", err)
	}

	newTokenID := uuid.New()
	newRefreshToken, expiresAt, err := service.tokenProvider.GenerateRefreshToken(user.ID, newTokenID, row.FamilyID, RefreshTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_failed: %w", err)
	}

	newRow := &RefreshToken{
		TokenID:     newTokenID,
		FamilyID:    row.FamilyID,
		UserID:      user.ID,
		Status:      TokenStatusActive,
		ExpiresAt:   expiresAt,
		CreatedByIP: ipAddress,
		UserAgent:   userAgent,
	}

	if err := service.tokenRepository.Create(context, newRow); err != nil {
		return nil, fmt.Errorf("auth_service_rotation_create_failed: %w", err)
	}

	if err := service.tokenRepository.Revoke(context, row.TokenID, TokenStatusRevoked, &newTokenID); err != nil {
		return nil, fmt.Errorf("auth_service_rotation_revoke_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          newRefreshToken,
		RefreshTokenExpiresAt: expiresAt,
		User:                  user,
	}, nil
}

/*
Logout revokes the presented refresh token.

Description: Idempotent by contract — a malformed, unknown, or already-revoked
token still logs the caller out successfully.

Parameters:
  - context: context.Context
  - refreshToken: string

Returns:
  - err: Only unexpected storage failures
*/
func (service *Service) Logout(context context.Context, refreshToken string) error {
	claims, err := service.tokenProvider.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil
	}

	row, err := service.tokenRepository.FindByTokenID(context, claims.TokenID)
	if err != nil || row.Status != TokenStatusActive {
		return nil
	}

	if err := service.tokenRepository.Revoke(context, row.TokenID, TokenStatusRevoked, nil); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}

	service.recorder.Record(context, audit.Entry{
		Action:     audit.ActionLogout,
		ActorID:    row.UserID,
		TargetType: "refresh_token",
		TargetID:   row.TokenID,
	})

	return nil
}

// # Account Provisioning

// BootstrapInput holds the data for the one-time superadmin enrollment.
type BootstrapInput struct {
	Email    string
	Password string
	FullName string
}

/*
BootstrapSuperadmin creates the very first platform operator.

Description: Unauthenticated by design — it only works while NO superadmin
exists, turning into a 409 forever after.

Parameters:
  - context: context.Context
  - input: BootstrapInput

Returns:
  - *User: Created superadmin
  - err: SUPERADMIN_ALREADY_EXISTS, validation or storage failures
*/
func (service *Service) BootstrapSuperadmin(context context.Context, input BootstrapInput) (*User, error) {
	if err := validateCredentials(input.Email, input.Password, input.FullName); err != nil {
		return nil, err
	}

	exists, err := service.userRepository.ExistsSuperadmin(context)
	if err != nil {
		return nil, fmt.Errorf("auth_service_bootstrap_check_failed: %w", err)
	}
	if exists {
		return nil, apperr.Conflict("A superadmin account already exists").WithCode("SUPERADMIN_ALREADY_EXISTS")
	}

	user, err := service.createUser(context, input.Email, input.Password, input.FullName, sec.RoleSuperadmin, "")
	if err != nil {
		return nil, err
	}

	service.recorder.Record(context, audit.Entry{
		Action:     audit.ActionBootstrap,
		ActorID:    user.ID,
		ActorRole:  string(user.Role),
		TargetType: "user",
		TargetID:   user.ID,
	})

	return user, nil
}

// CreateSchoolAdminInput holds the data to enroll a school administrator.
type CreateSchoolAdminInput struct {
	Email    string
	Password string
	FullName string
	SchoolID string
}

/*
CreateSchoolAdmin enrolls an administrator bound to one school.

Description: Superadmin-only. The target school must exist; the email must be
unused platform-wide.

Parameters:
  - context: context.Context
  - claims: *sec.AuthClaims (the caller)
  - input: CreateSchoolAdminInput

Returns:
  - *User: Created school admin
  - err: AUTH_FORBIDDEN, SCHOOL_NOT_FOUND, USER_EMAIL_EXISTS, validation failures
*/
func (service *Service) CreateSchoolAdmin(context context.Context, claims *sec.AuthClaims, input CreateSchoolAdminInput) (*User, error) {
	if err := access.EnsureRole(claims, sec.RoleSuperadmin); err != nil {
		return nil, err
	}

	if err := validateCredentials(input.Email, input.Password, input.FullName); err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	validator.Required(FieldSchoolID, input.SchoolID).UUID(FieldSchoolID, input.SchoolID)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	exists, err := service.schoolDirectory.SchoolExists(context, input.SchoolID)
	if err != nil {
		return nil, fmt.Errorf("auth_service_school_lookup_failed: %w", err)
	}
	if !exists {
		return nil, apperr.NotFound("School").WithCode("SCHOOL_NOT_FOUND")
	}

	user, err := service.createUser(context, input.Email, input.Password, input.FullName, sec.RoleSchoolAdmin, input.SchoolID)
	if err != nil {
		return nil, err
	}

	service.recorder.Record(context, audit.Entry{
		Action:     audit.ActionCreateSchoolAdmin,
		TargetType: "user",
		TargetID:   user.ID,
		Metadata:   map[string]any{"school_id": input.SchoolID},
	})

	return user, nil
}

/*
Me returns the caller's own account.

Parameters:
  - context: context.Context
  - claims: *sec.AuthClaims

Returns:
  - *User: Hydrated account
  - err: AUTH_UNAUTHENTICATED or retrieval failures
*/
func (service *Service) Me(context context.Context, claims *sec.AuthClaims) (*User, error) {
	if err := access.EnsureAuthenticated(claims); err != nil {
		return nil, err
	}
	return service.userRepository.FindByID(context, claims.UserID)
}

// createUser hashes the password and persists the account.
func (service *Service) createUser(context context.Context, email, password, fullName string, role sec.UserRole, schoolID string) (*User, error) {

	// Prevent storing plain-text passwords. Default cost balances security
	// against CPU spent during enrollment bursts.
	hashedPassword, err := sec.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: hashedPassword,
		FullName:     strings.TrimSpace(fullName),
		Role:         role,
		SchoolID:     schoolID,
		IsActive:     true,
		Version:      1,
	}

	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	return user, nil
}

// validateCredentials applies the shared enrollment rules.
func validateCredentials(email, password, fullName string) error {
	validator := &validate.Validator{}
	validator.Required(FieldEmail, email).Email(FieldEmail, email)
	validator.Required(FieldPassword, password).
		MinLen(FieldPassword, password, MinPasswordLength).
		MaxLen(FieldPassword, password, MaxPasswordLength)
	validator.Required(FieldFullName, fullName).MaxLen(FieldFullName, fullName, 200)
	return validator.Err()
}
