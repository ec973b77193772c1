package auth

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventregistration/internal/domain"
)

func TestRegistrationToken_RoundTrip(t *testing.T) {
	tokens := NewRegistrationTokenIssuer()
	emails := []string{
		"priya.sharma@du.ac.in",
		"a+b@college.edu",
		"x_y-z@sub.domain.org",
		"rahul99@gmail.com",
	}
	for _, e := range emails {
		t.Run(e, func(t *testing.T) {
			tok := tokens.Issue(e)
			assert.Equal(t, base64.StdEncoding.EncodeToString([]byte(e)), tok)
			got, err := tokens.Resolve(tok)
			require.NoError(t, err)
			assert.Equal(t, e, got)
		})
	}
}

func TestRegistrationToken_LegacyFormat(t *testing.T) {
	tokens := NewRegistrationTokenIssuer()
	for _, suffix := range []string{"1712345678901", "1712345678901|abc123", "", "|"} {
		tok := base64.StdEncoding.EncodeToString([]byte("priya@du.ac.in|" + suffix))
		got, err := tokens.Resolve(tok)
		require.NoError(t, err, "suffix %q", suffix)
		assert.Equal(t, "priya@du.ac.in", got)
	}
}

func TestRegistrationToken_URLSafeAlphabet(t *testing.T) {
	tokens := NewRegistrationTokenIssuer()
	tok := base64.RawURLEncoding.EncodeToString([]byte("ankit@iitd.ac.in"))
	got, err := tokens.Resolve(tok)
	require.NoError(t, err)
	assert.Equal(t, "ankit@iitd.ac.in", got)
}

func TestRegistrationToken_RejectsNonEmail(t *testing.T) {
	tokens := NewRegistrationTokenIssuer()
	cases := map[string]string{
		"empty":         "",
		"not base64":    "%%%not-base64%%%",
		"decodes to id": base64.StdEncoding.EncodeToString([]byte("12345")),
		"legacy no @":   base64.StdEncoding.EncodeToString([]byte("someone|17000")),
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Resolve(tok)
			assert.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}
