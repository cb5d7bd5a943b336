package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"library-catalog/library"
)

var testSecret = []byte("test-signing-secret")

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(testSecret)
	require.NoError(t, err)
	return codec
}

func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	token, err := codec.Encode(42, library.RoleAdmin, now)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	id, err := codec.Decode(token, now)
	require.NoError(t, err)
	assert.Equal(t, Identity{SubjectID: 42, Role: library.RoleAdmin}, id)
}

func TestTokenCodec_ExpiresAfter24Hours(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := codec.Encode(7, library.RoleUser, now)
	require.NoError(t, err)

	_, err = codec.Decode(token, now.Add(23*time.Hour+59*time.Minute))
	require.NoError(t, err)

	_, err = codec.Decode(token, now.Add(24*time.Hour+time.Second))
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestTokenCodec_EmbedsExpiry(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	token, err := codec.Encode(7, library.RoleUser, now)
	require.NoError(t, err)

	claims := &tokenClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(token, claims)
	require.NoError(t, err)
	assert.Equal(t, now.Add(TokenTTL).Unix(), claims.ExpiresAt.Unix())
	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, "user", claims.Role)
}

func TestTokenCodec_FlippedSignatureByte(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()
	token, err := codec.Encode(1, library.RoleAdmin, now)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)
	sig[0] ^= 0xFF
	parts[2] = base64.RawURLEncoding.EncodeToString(sig)

	_, err = codec.Decode(strings.Join(parts, "."), now)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenCodec_TamperedClaims(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()
	token, err := codec.Encode(1, library.RoleUser, now)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"role":"admin","sub":"1","exp":9999999999}`))
	_, err = codec.Decode(parts[0]+"."+forged+"."+parts[2], now)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenCodec_TamperedAndExpiredIsMalformed(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()
	token, err := codec.Encode(1, library.RoleUser, now)
	require.NoError(t, err)

	_, err = codec.Decode(token[:len(token)-4]+"AAAA", now.Add(48*time.Hour))
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestTokenCodec_RejectsForeignTokens(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	other, err := NewTokenCodec([]byte("another-secret"))
	require.NoError(t, err)
	foreign, err := other.Encode(1, library.RoleAdmin, now)
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, &tokenClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &tokenClaims{
		Role:             "admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "1"},
	}).SignedString(testSecret)
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &tokenClaims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &tokenClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}).SignedString(testSecret)
	require.NoError(t, err)

	cases := map[string]string{
		"other secret": foreign,
		"alg none":     unsigned,
		"no expiry":    noExpiry,
		"unknown role": badRole,
		"bad subject":  badSubject,
		"garbage":      "not-a-token",
		"empty":        "",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(tok, now)
			assert.ErrorIs(t, err, ErrMalformedToken)
		})
	}
}

func TestNewTokenCodec_RequiresSecret(t *testing.T) {
	_, err := NewTokenCodec(nil)
	assert.Error(t, err)
}

func TestNewTokenCodec_CopiesSecret(t *testing.T) {
	secret := []byte("mutable-secret")
	codec, err := NewTokenCodec(secret)
	require.NoError(t, err)

	now := time.Now()
	token, err := codec.Encode(3, library.RoleUser, now)
	require.NoError(t, err)

	secret[0] = 'X'
	_, err = codec.Decode(token, now)
	assert.NoError(t, err)
}
