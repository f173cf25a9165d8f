// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package auth

import "time"

// Token lifetimes.
const (
	// AccessTokenTTL keeps the stateless access window short so a revoked
	// account falls out of the system quickly.
	AccessTokenTTL = 15 * time.Minute

	// RefreshTokenTTL bounds how long a session can survive without a login.
	RefreshTokenTTL = 30 * 24 * time.Hour
)

// Password policy.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt input limit
)
