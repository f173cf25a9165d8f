// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package audit

import "context"

// # Audit Data Access

// Store defines the persistence contract for audit entries.
type Store interface {

	/*
		Append persists a single audit entry. Entries are never updated or
		deleted through the application.

		Parameters:
		  - context: context.Context
		  - entry: *Entry

		Returns:
		  - error: Persistence failures
	*/
	Append(context context.Context, entry *Entry) error
}
