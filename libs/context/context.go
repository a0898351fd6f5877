// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package context

import (
	"context"

	uuid "github.com/satori/go.uuid"
)

type traceIDT int

const traceIDKey traceIDT = iota

// WithTraceID returns a context carrying the given trace id.
func WithTraceID(ctx context.Context, tID string) context.Context {
	return context.WithValue(ctx, traceIDKey, tID)
}

// TraceIDFromContext returns the trace id carried by the context, if any.
func TraceIDFromContext(ctx context.Context) (string, bool) {
	tID, ok := ctx.Value(traceIDKey).(string)
	return tID, ok
}

// EnsureTraceID returns the context with a trace id, generating a new one
// if the context doesn't carry one yet.
func EnsureTraceID(ctx context.Context) (context.Context, string) {
	if tID, ok := TraceIDFromContext(ctx); ok {
		return ctx, tID
	}
	tID := uuid.NewV4().String()
	return WithTraceID(ctx, tID), tID
}
