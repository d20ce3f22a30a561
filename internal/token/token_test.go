package token

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"easybuy/internal/domain"
)

func TestIssueVerifyRoundTrip(t *testing.T) {
	iss, err := NewIssuer("s3cret", time.Hour)
	require.NoError(t, err)

	raw, err := iss.Issue("  Buyer@Example.com ")
	require.NoError(t, err)

	email, err := iss.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", email)
}

func TestVerifyRejects(t *testing.T) {
	iss, err := NewIssuer("s3cret", time.Minute)
	require.NoError(t, err)
	other, err := NewIssuer("different", time.Minute)
	require.NoError(t, err)

	foreign, err := other.Issue("a@b.io")
	require.NoError(t, err)

	base := time.Now()
	expired := &Issuer{secret: []byte("s3cret"), ttl: time.Minute, leeway: DefaultLeeway, now: func() time.Time { return base.Add(-time.Hour) }}
	old, err := expired.Issue("a@b.io")
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "a@b.io",
		ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "a@b.io"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	cases := map[string]string{
		"garbage":    "not-a-token",
		"foreign":    foreign,
		"expired":    old,
		"alg none":   none,
		"no expiry":  noExp,
		"no subject": noSub,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Verify(raw)
			assert.ErrorIs(t, err, domain.ErrUnauthenticated)
		})
	}
}

func TestNewIssuerRequiresSecret(t *testing.T) {
	_, err := NewIssuer(" ", time.Hour)
	assert.Error(t, err)

	iss, err := NewIssuer("x", 0)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, iss.ttl)

	_, err = iss.Issue("")
	assert.ErrorIs(t, err, domain.ErrInvalid)
}
