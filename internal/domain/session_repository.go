package domain

import (
	"context"
	"fmt"
	"strings"
)

// ShapePolicy decides what the session store does with a record that exists
// but is not an ordered turn log.
type ShapePolicy string

const (
	// ShapePolicyReset replaces the record with an empty log and logs a warning.
	ShapePolicyReset ShapePolicy = "reset"
	// ShapePolicyFail leaves the record untouched and reports ErrStoreFailure.
	ShapePolicyFail ShapePolicy = "fail"
)

// ParseShapePolicy parses a policy name; the empty string selects ShapePolicyReset.
func ParseShapePolicy(s string) (ShapePolicy, error) {
	switch ShapePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", ShapePolicyReset:
		return ShapePolicyReset, nil
	case ShapePolicyFail:
		return ShapePolicyFail, nil
	default:
		return "", fmt.Errorf("unknown session shape policy %q", s)
	}
}

// SessionRepository is the canonical, TTL-bound, ordered turn log per session.
type SessionRepository interface {
	// Create allocates a new session id. No backing record is written until the first append.
	Create(ctx context.Context) (string, error)

	// Append appends a single turn and refreshes the session expiry.
	Append(ctx context.Context, sessionID string, turn Turn) error

	// AppendPair appends both turns and refreshes the expiry as one indivisible
	// operation, returning the full history read inside that same operation.
	AppendPair(ctx context.Context, sessionID string, user, assistant Turn) ([]Turn, error)

	// GetHistory returns turns oldest first. Absent sessions yield an empty slice.
	GetHistory(ctx context.Context, sessionID string) ([]Turn, error)

	// Delete removes the session and reports whether a record existed.
	Delete(ctx context.Context, sessionID string) (bool, error)

	// Ping checks the backing store.
	Ping(ctx context.Context) error
}
