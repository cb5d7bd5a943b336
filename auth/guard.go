package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type ctxKey int

const identityKey ctxKey = 1

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity stored by Guard.Require.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// Guard validates bearer tokens and enforces the admin requirement. It holds
// no per-request state.
type Guard struct {
	codec   *TokenCodec
	log     logrus.FieldLogger
	onError ErrorHandler

	now func() time.Time
}

func NewGuard(codec *TokenCodec, log logrus.FieldLogger, onError ErrorHandler) *Guard {
	if log == nil {
		log = logrus.StandardLogger()
	}
	if onError == nil {
		onError = plainError
	}
	return &Guard{codec: codec, log: log, onError: onError, now: time.Now}
}

// Authorize resolves the caller of r. When adminOnly is set the token must
// carry the admin role.
func (g *Guard) Authorize(r *http.Request, adminOnly bool) (Identity, error) {
	token, err := bearerToken(r)
	if err != nil {
		return Identity{}, err
	}
	id, err := g.codec.Decode(token, g.now())
	if err != nil {
		return Identity{}, err
	}
	if adminOnly && !id.IsAdmin() {
		return id, ErrInsufficientRole
	}
	return id, nil
}

// Require wraps next so it only runs for authorized callers. The resolved
// identity is available to next through IdentityFromContext.
func (g *Guard) Require(adminOnly bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := g.Authorize(r, adminOnly)
			fields := logrus.Fields{
				"http.req.method": r.Method,
				"http.req.path":   r.URL.Path,
				"admin_only":      adminOnly,
			}
			if err != nil {
				if errors.Is(err, ErrInsufficientRole) {
					fields["subject"] = id.SubjectID
					fields["role"] = id.Role
				}
				g.log.WithFields(fields).WithField("reason", err.Error()).Info("request rejected")
				g.onError(w, r, err)
				return
			}
			fields["subject"] = id.SubjectID
			fields["role"] = id.Role
			g.log.WithFields(fields).Debug("request authorized")
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if h == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMalformedTokenFormat
	}
	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedTokenFormat
	}
	return token, nil
}

func plainError(w http.ResponseWriter, _ *http.Request, err error) {
	status := http.StatusUnauthorized
	if errors.Is(err, ErrInsufficientRole) {
		status = http.StatusForbidden
	}
	http.Error(w, err.Error(), status)
}
