// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

/*
HTTP delivery layer for operator identity management.

# Architecture

The handler acts as a thin mediation layer between the web and domain services:
  - Protocol: Standard RESTful JSON interface.
  - Security: Handles JWT orchestration and refresh token cookie injection.
  - Verification: Enforces strict input validation before passing to [Service].

This layer is strictly responsible for transport concerns (status codes, headers, JSON).
*/
package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ndthang/skolar/internal/platform/constants"
	"github.com/ndthang/skolar/internal/platform/middleware"
	requestutil "github.com/ndthang/skolar/internal/platform/request"
	"github.com/ndthang/skolar/internal/platform/respond"
	"github.com/ndthang/skolar/internal/platform/sec"
	"github.com/ndthang/skolar/internal/platform/validate"
)

// # Definitions & Constructors

// Handler implements authentication-related HTTP endpoints.
//
// # Scope
//
// This handler manages the operator lifecycle entry points: bootstrap, login,
// token rotation, and school-admin enrollment.
type Handler struct {
	authService *Service
}

// NewHandler constructs a new [Handler] with its service dependency.
func NewHandler(service *Service) *Handler {
	return &Handler{authService: service}
}

// Routes returns a [chi.Router] configured with authentication-specific routes.
//
// # Endpoints
//   - POST /bootstrap : One-time superadmin enrollment.
//   - POST /login     : Authenticates and returns a JWT.
//   - POST /refresh   : Rotates the refresh token.
//   - POST /logout    : Revokes the presented refresh token.
//   - POST /admins    : Enrolls a school admin (superadmin only).
//   - GET  /me        : Returns the caller's own account.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	// Public endpoints
	router.Post("/bootstrap", handler.bootstrap)
	router.Post("/login", handler.login)
	router.Post("/refresh", handler.refresh)
	router.Post("/logout", handler.logout)

	// Protected endpoints
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", handler.me)
	})

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(sec.RoleSuperadmin))
		r.Post("/admins", handler.createSchoolAdmin)
	})

	return router
}

// # Request Payloads

type bootstrapRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type createSchoolAdminRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	SchoolID string `json:"school_id"`
}

/*
Bootstrap enrolls the very first superadmin.

POST /api/v1/auth/bootstrap

Description: Unauthenticated one-time setup; turns into a 409 once any
superadmin exists.

Request:
  - Body: bootstrapRequest (Email, Password, FullName)

Response:
  - 201: User: Created superadmin profile
  - 409: SUPERADMIN_ALREADY_EXISTS
*/
func (handler *Handler) bootstrap(writer http.ResponseWriter, request *http.Request) {
	var input bootstrapRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.authService.BootstrapSuperadmin(request.Context(), BootstrapInput{
		Email:    input.Email,
		Password: input.Password,
		FullName: input.FullName,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates an operator and establishes a session.

POST /api/v1/auth/login

Description: Verifies credentials behind the login throttle, generates JWT
access tokens, and injects a secure refresh token cookie into the response.

Request:
  - Body: loginRequest (Email, Password)

Response:
  - 200: Session: Access and refresh tokens with the user profile
  - 401: AUTH_INVALID_CREDENTIALS
  - 429: AUTH_LOGIN_RATE_LIMITED (with Retry-After)
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required(FieldEmail, input.Email)
	validator.Required(FieldPassword, input.Password)

	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Email:     input.Email,
		Password:  input.Password,
		UserAgent: request.UserAgent(),
		IPAddress: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken, session.RefreshTokenExpiresAt)

	respond.OK(writer, map[string]any{
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
		FieldTokenType:    "Bearer",
		FieldExpiresIn:    AccessTokenTTL / time.Second,
		FieldUser:         session.User,
	})
}

/*
Refresh issues new tokens using a valid refresh token.

POST /api/v1/auth/refresh

Description: Rotates the session. The token is read from the body first, the
cookie second, so both SPA and API clients are served.

Response:
  - 200: RefreshResponse: New credentials
  - 401: AUTH_INVALID_REFRESH_TOKEN / AUTH_REFRESH_TOKEN_REVOKED /
    AUTH_REFRESH_TOKEN_EXPIRED
*/
func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	token := handler.resolveRefreshToken(request)
	if token == "" {
		respond.Error(writer, request, validate.RequiredError(FieldRefreshToken, "is required"))
		return
	}

	session, err := handler.authService.Refresh(
		request.Context(),
		token,
		request.UserAgent(),
		middleware.RealIP(request),
	)

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	setRefreshCookie(writer, session.RefreshToken, session.RefreshTokenExpiresAt)

	respond.OK(writer, map[string]any{
		FieldAccessToken:  session.AccessToken,
		FieldRefreshToken: session.RefreshToken,
		FieldTokenType:    "Bearer",
		FieldExpiresIn:    AccessTokenTTL / time.Second,
	})
}

/*
Logout terminates the presented session.

POST /api/v1/auth/logout

Description: Idempotent — an unknown or already-revoked token still clears the
cookie and succeeds.

Response:
  - 204: No Content: Session terminated
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	if token := handler.resolveRefreshToken(request); token != "" {
		if err := handler.authService.Logout(request.Context(), token); err != nil {
			respond.Error(writer, request, err)
			return
		}
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     constants.RefreshTokenCookiePath,
		MaxAge:   -1,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	respond.NoContent(writer)
}

/*
CreateSchoolAdmin enrolls an administrator for one school.

POST /api/v1/auth/admins

Response:
  - 201: User: Created school admin
  - 404: SCHOOL_NOT_FOUND
  - 409: USER_EMAIL_EXISTS
*/
func (handler *Handler) createSchoolAdmin(writer http.ResponseWriter, request *http.Request) {
	var input createSchoolAdminRequest

	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	user, err := handler.authService.CreateSchoolAdmin(request.Context(), requestutil.Claims(request), CreateSchoolAdminInput{
		Email:    input.Email,
		Password: input.Password,
		FullName: input.FullName,
		SchoolID: input.SchoolID,
	})

	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Me returns the caller's own account.

GET /api/v1/auth/me

Response:
  - 200: User
  - 401: AUTH_UNAUTHENTICATED
*/
func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.authService.Me(request.Context(), requestutil.Claims(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// resolveRefreshToken reads the refresh token from the JSON body, falling
// back to the browser cookie.
func (handler *Handler) resolveRefreshToken(request *http.Request) string {
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err == nil && input.RefreshToken != "" {
		return input.RefreshToken
	}

	if cookie, err := request.Cookie(constants.RefreshTokenCookieName); err == nil && cookie != nil {
		return cookie.Value
	}

	return ""
}

// setRefreshCookie installs the rotated refresh token for browser clients.
func setRefreshCookie(writer http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     constants.RefreshTokenCookiePath,
		Expires:  expiresAt,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
