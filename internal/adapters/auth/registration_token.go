package auth

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"eventregistration/internal/domain"
)

type registrationTokens struct {
	validate *validator.Validate
}

// NewRegistrationTokenIssuer returns the unsigned, reversible token codec handed
// to registrants so they can re-open their confirmation page.
func NewRegistrationTokenIssuer() domain.RegistrationTokenIssuer {
	return &registrationTokens{validate: validator.New()}
}

func (r *registrationTokens) Issue(email string) string {
	return base64.StdEncoding.EncodeToString([]byte(email))
}

// Resolve accepts base64(email) as well as the legacy base64("email|ts|nonce")
// form and returns only the email segment.
func (r *registrationTokens) Resolve(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", domain.ErrInvalidToken
	}
	raw, err := decodeBase64(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	email, _, _ := strings.Cut(string(raw), domain.TokenSeparator)
	email = strings.TrimSpace(email)
	if err := r.validate.Var(email, "required,email"); err != nil {
		return "", fmt.Errorf("%w: decoded value is not an email", domain.ErrInvalidToken)
	}
	return email, nil
}

// decodeBase64 tries the standard alphabet first, then the URL-safe one,
// with and without padding.
func decodeBase64(s string) ([]byte, error) {
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.URLEncoding,
		base64.RawStdEncoding,
		base64.RawURLEncoding,
	} {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}
