package auth

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"library-catalog/library"
)

// CredentialStore looks up accounts by username. *library.Database implements it.
type CredentialStore interface {
	FindAccountByUsername(ctx context.Context, username string) (*library.Account, error)
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// LoginResult is returned on a successful login.
type LoginResult struct {
	Token string       `json:"token"`
	Role  library.Role `json:"role"`
}

// Authenticator verifies credentials and issues tokens.
type Authenticator struct {
	store  CredentialStore
	hasher Hasher
	codec  *TokenCodec
	log    logrus.FieldLogger

	// now is replaced in tests.
	now func() time.Time

	// dummyDigest is verified against when the username is unknown so both
	// failure paths do the same work.
	dummyDigest string
}

func NewAuthenticator(store CredentialStore, hasher Hasher, codec *TokenCodec, log logrus.FieldLogger) *Authenticator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	dummy, err := hasher.Hash("library-catalog-dummy-password")
	if err != nil {
		log.WithError(err).Warn("could not prepare dummy digest")
	}
	return &Authenticator{
		store:       store,
		hasher:      hasher,
		codec:       codec,
		log:         log,
		now:         time.Now,
		dummyDigest: dummy,
	}
}

// Login checks username and password and returns a signed token with the
// account's role. Unknown users and wrong passwords yield the same error.
func (a *Authenticator) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	req := LoginRequest{Username: username, Password: password}
	if err := req.Validate(); err != nil {
		return nil, ErrBadRequest
	}

	account, err := a.store.FindAccountByUsername(ctx, username)
	if errors.Is(err, library.ErrAccountNotFound) {
		a.hasher.Verify(password, a.dummyDigest)
		a.log.WithField("username", username).Info("login rejected")
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, errors.Wrap(err, "lookup account")
	}

	if !a.hasher.Verify(password, account.PasswordHash) {
		a.log.WithField("username", username).Info("login rejected")
		return nil, ErrInvalidCredentials
	}

	token, err := a.codec.Encode(account.ID, account.Role, a.now())
	if err != nil {
		return nil, err
	}
	a.log.WithFields(logrus.Fields{"subject": account.ID, "role": account.Role}).Info("login succeeded")
	return &LoginResult{Token: token, Role: account.Role}, nil
}
