package auth

import "github.com/pkg/errors"

var (
	// ErrBadRequest is returned by Login when username or password is empty.
	ErrBadRequest = errors.New("username and password are required")

	// ErrInvalidCredentials covers both unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrMissingToken means the request carried no bearer credential.
	ErrMissingToken = errors.New("missing authorization token")

	// ErrMalformedTokenFormat means the Authorization header is not "Bearer <token>".
	ErrMalformedTokenFormat = errors.New("authorization header must be 'Bearer <token>'")

	// ErrMalformedToken is returned for tokens that fail to parse or verify.
	ErrMalformedToken = errors.New("invalid token")

	// ErrExpiredToken is returned for correctly signed tokens past their expiry.
	ErrExpiredToken = errors.New("token has expired")

	// ErrInsufficientRole means the token is valid but lacks the admin role.
	ErrInsufficientRole = errors.New("admin role required")
)

// IsAuthenticationError reports whether err should be answered with 401.
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrMissingToken) ||
		errors.Is(err, ErrMalformedTokenFormat) ||
		errors.Is(err, ErrMalformedToken) ||
		errors.Is(err, ErrExpiredToken)
}
