// Package utils provides small helpers shared across the application:
// typed context keys and an operation id generator.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
func (c contextKey) String() string {
	return string(c)
}

// OpIDCtxKey is the key under which the current operation id is stored.
var OpIDCtxKey = contextKey("opID")

// WithOpID returns a copy of ctx carrying opID.
func WithOpID(ctx context.Context, opID string) context.Context {
	return context.WithValue(ctx, OpIDCtxKey, opID)
}

// GetOpIDFromContext retrieves the operation id from ctx.
// ok is false when the value is missing, empty or has an unexpected type.
func GetOpIDFromContext(ctx context.Context) (string, bool) {
	opID, ok := ctx.Value(OpIDCtxKey).(string)
	return opID, ok && opID != ""
}
