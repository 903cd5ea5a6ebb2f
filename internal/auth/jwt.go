// Package auth resolves the calling user from a bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"expenses/internal/core"
	applog "expenses/internal/log"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKey string

const callerKey ctxKey = "caller"

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by access tokens. The subject is the user id.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Resolver validates HS256 tokens.
type Resolver struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewResolver(secret, issuer string) *Resolver {
	return &Resolver{secret: []byte(secret), issuer: issuer, now: time.Now}
}

func (r *Resolver) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
	}
	return r.secret, nil
}

// Resolve parses and validates raw, returning the caller it names.
func (r *Resolver) Resolve(raw string) (*core.Caller, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(r.now),
	}
	if r.issuer != "" {
		opts = append(opts, jwt.WithIssuer(r.issuer))
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, r.keyFunc, opts...)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	caller := &core.Caller{ID: strings.TrimSpace(claims.Subject), Email: claims.Email}
	if !caller.Valid() {
		return nil, ErrInvalidToken
	}
	return caller, nil
}

// Issue signs a token for caller valid for ttl.
func (r *Resolver) Issue(caller core.Caller, ttl time.Duration) (string, error) {
	now := r.now()
	claims := Claims{
		Email: caller.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			Issuer:    r.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Middleware attaches the caller to the request context when a valid bearer
// token is present. Requests without one pass through anonymous; the service
// layer decides what anonymous callers may do.
func (r *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h := req.Header.Get("Authorization")
		scheme, raw, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			caller, err := r.Resolve(strings.TrimSpace(raw))
			if err == nil {
				req = req.WithContext(WithCaller(req.Context(), caller))
			} else {
				applog.FromContext(req.Context()).WithComponent(applog.ComponentAuth).
					DebugContext(req.Context(), "Bearer token rejected", applog.FieldError, err)
			}
		}
		next.ServeHTTP(w, req)
	})
}

func WithCaller(ctx context.Context, c *core.Caller) context.Context {
	return context.WithValue(ctx, callerKey, c)
}

// CallerFromContext returns nil for anonymous requests.
func CallerFromContext(ctx context.Context) *core.Caller {
	c, _ := ctx.Value(callerKey).(*core.Caller)
	return c
}
