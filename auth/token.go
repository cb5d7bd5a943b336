package auth

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"library-catalog/library"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 24 * time.Hour

// Identity is the caller resolved from a valid token.
type Identity struct {
	SubjectID int64        `json:"subject_id"`
	Role      library.Role `json:"role"`
}

// IsAdmin reports whether the identity carries the admin role.
func (i Identity) IsAdmin() bool { return i.Role == library.RoleAdmin }

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec signs and verifies HS256 tokens with a secret fixed at
// construction.
type TokenCodec struct {
	secret []byte
}

// NewTokenCodec copies secret; later changes to the caller's slice do not
// affect the codec.
func NewTokenCodec(secret []byte) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("token signing secret must not be empty")
	}
	key := make([]byte, len(secret))
	copy(key, secret)
	return &TokenCodec{secret: key}, nil
}

// Encode issues a token for subjectID and role expiring TokenTTL after now.
func (c *TokenCodec) Encode(subjectID int64, role library.Role, now time.Time) (string, error) {
	claims := &tokenClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(subjectID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}

// Decode verifies the token at time now. Signature problems are reported as
// ErrMalformedToken even when the token is also expired.
func (c *TokenCodec) Decode(token string, now time.Time) (Identity, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := &tokenClaims{}
	_, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrMalformedToken
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return Identity{}, ErrMalformedToken
	}
	role := library.Role(claims.Role)
	if !role.Valid() {
		return Identity{}, ErrMalformedToken
	}
	return Identity{SubjectID: id, Role: role}, nil
}
