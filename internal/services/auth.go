package services

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"eventregistration/internal/domain"
)

// DefaultAdminTokenExpiry is the lifetime of an admin session token.
const DefaultAdminTokenExpiry = 12 * time.Hour

type adminAuthService struct {
	email        string
	passwordHash string
	hasher       domain.PasswordHasher
	issuer       domain.TokenIssuer
	expiry       time.Duration
}

// NewAdminAuthService authenticates the single configured administrator.
// An empty passwordHash disables admin login.
func NewAdminAuthService(email, passwordHash string, hasher domain.PasswordHasher, issuer domain.TokenIssuer, expiry time.Duration) domain.AdminAuthService {
	if expiry <= 0 {
		expiry = DefaultAdminTokenExpiry
	}
	return &adminAuthService{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: passwordHash,
		hasher:       hasher,
		issuer:       issuer,
		expiry:       expiry,
	}
}

func (s *adminAuthService) Login(ctx context.Context, email, password string) (string, error) {
	if s.email == "" || s.passwordHash == "" {
		return "", domain.ErrUnauthorized
	}
	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	// Always run the hash comparison so timing does not reveal the email.
	passErr := s.hasher.Compare(s.passwordHash, password)
	if !emailOK || passErr != nil {
		return "", domain.ErrUnauthorized
	}
	return s.issuer.Issue(domain.RoleAdmin, s.email, []string{domain.RoleAdmin}, s.expiry)
}
