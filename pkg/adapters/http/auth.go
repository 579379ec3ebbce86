package http

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/golang-jwt/jwt/v5"
)

type viewerKey struct{}

// Claims are the JWT claims accepted from the storefront.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// Authenticator turns a bearer token into a domain.Viewer.
//
// Requests without a token are anonymous. With a secret configured, tokens
// must be HS256 JWTs signed with it and carry a subject. Without a secret
// the token is passed through opaque, and the privileged backend decides.
type Authenticator struct {
	secret []byte
}

// NewAuthenticator creates an Authenticator. A nil secret disables local
// validation.
func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// Viewer extracts the viewer from the Authorization header.
func (a *Authenticator) Viewer(r *http.Request) (domain.Viewer, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return domain.Anonymous(), nil
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return domain.Viewer{}, errors.New("invalid Authorization header format (expected 'Bearer <token>')")
	}
	token := strings.TrimSpace(parts[1])

	if len(a.secret) == 0 {
		return domain.Viewer{Token: token}, nil
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return domain.Viewer{}, errors.New("invalid or expired token")
	}
	if claims.Subject == "" {
		return domain.Viewer{}, errors.New("token subject is required")
	}
	return domain.Viewer{ActorID: claims.Subject, Token: token, Roles: claims.Roles}, nil
}

// Middleware injects the viewer into the request context. Bad tokens are
// rejected; a missing token is not.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		viewer, err := a.Viewer(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorBody{Error: err.Error()})
			return
		}
		next.ServeHTTP(w, r.WithContext(WithViewer(r.Context(), viewer)))
	})
}

// WithViewer stores the viewer in ctx.
func WithViewer(ctx context.Context, v domain.Viewer) context.Context {
	return context.WithValue(ctx, viewerKey{}, v)
}

// ViewerFrom returns the viewer stored in ctx, or the anonymous viewer.
func ViewerFrom(ctx context.Context) domain.Viewer {
	if v, ok := ctx.Value(viewerKey{}).(domain.Viewer); ok {
		return v
	}
	return domain.Anonymous()
}
