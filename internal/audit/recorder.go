// Copyright (c) 2026 Skolar. All rights reserved.
// Author: thang.nd.dev@gmail.com

package audit

import (
	"context"
	"log/slog"

	"github.com/ndthang/skolar/internal/platform/ctxutil"
	"github.com/ndthang/skolar/pkg/uuid"
)

// Recorder is the write-side facade the domain services use.
//
// # Failure Policy
//
// Record never surfaces an error. A school delete or a login must not fail
// because the audit insert did; failures are logged at warn level and dropped.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

// NewRecorder constructs a Recorder backed by the given store.
func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record fills in the entry's identity and tracing fields and appends it.
//
// The request and correlation ids are pulled from the context so call sites
// only describe the business event.
func (recorder *Recorder) Record(context context.Context, entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.New()
	}
	if entry.Status == "" {
		entry.Status = StatusSuccess
	}
	entry.RequestID = ctxutil.GetRequestID(context)
	entry.CorrelationID = ctxutil.GetCorrelationID(context)

	if claims := ctxutil.GetAuthUser(context); claims != nil && entry.ActorID == "" {
		entry.ActorID = claims.UserID
		entry.ActorRole = claims.Role
		entry.ActorSchoolID = claims.SchoolID
	}

	if err := recorder.store.Append(context, &entry); err != nil {
		recorder.logger.WarnContext(context, "audit_append_failed",
			slog.String("action", entry.Action),
			slog.String("target_type", entry.TargetType),
			slog.String("target_id", entry.TargetID),
			slog.Any("error", err),
		)
	}
}
