package domain

import (
	"context"
	"time"
)

// RoleAdmin is the role carried by administrator tokens.
const RoleAdmin = "admin"

// PasswordHasher hashes and verifies administrator passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated administrator.
type TokenIssuer interface {
	Issue(subject, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated subject.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}

// AdminAuthService authenticates the site administrator.
type AdminAuthService interface {
	Login(ctx context.Context, email, password string) (token string, err error)
}
