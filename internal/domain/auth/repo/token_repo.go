package repo

import (
	"context"
	"time"
)

// TokenRepo is the revocation blocklist. Only revoked jti values are
// persisted; a jti absent from the store is considered live.
type TokenRepo interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// RevokeIfActive atomically revokes jti and reports whether this
	// call performed the revocation. A false result means some other
	// caller revoked the same jti first.
	RevokeIfActive(ctx context.Context, jti string, expiresAt time.Time) (bool, error)

	IsRevoked(ctx context.Context, jti string) (bool, error)

	RevokeAccess(ctx context.Context, jti string, expiresAt time.Time) error

	IsAccessRevoked(ctx context.Context, jti string) (bool, error)
}
