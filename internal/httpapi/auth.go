package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "careerpath"
	learnerHeader = "X-Learner"
	guestLearner  = "guest"
)

type learnerKey struct{}

// Authenticator resolves the learner behind a request. With a secret it
// requires an HS256 bearer token whose subject is the learner.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{secret: []byte(strings.TrimSpace(secret))}
}

func (a *Authenticator) Enabled() bool {
	return len(a.secret) > 0
}

func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		learner, err := a.learner(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), learnerKey{}, learner)))
	})
}

func (a *Authenticator) learner(r *http.Request) (string, error) {
	if !a.Enabled() {
		if learner := strings.TrimSpace(r.Header.Get(learnerHeader)); learner != "" {
			return learner, nil
		}
		return guestLearner, nil
	}

	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", errors.New("Authorization header required")
	}
	scheme, tokenString, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenString) == "" {
		return "", errors.New("Authorization header format must be Bearer {token}")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithExpirationRequired())
	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenExpired):
		return "", errors.New("Token expired")
	case errors.Is(err, jwt.ErrSignatureInvalid):
		return "", errors.New("Invalid token signature")
	default:
		return "", errors.New("Invalid token")
	}

	if strings.TrimSpace(claims.Subject) == "" {
		return "", errors.New("Token has no subject")
	}
	return claims.Subject, nil
}

// IssueToken signs a learner token accepted by an Authenticator built with
// the same secret.
func IssueToken(secret, learner string, ttl time.Duration) (string, error) {
	secret = strings.TrimSpace(secret)
	learner = strings.TrimSpace(learner)
	if secret == "" {
		return "", errors.New("jwt secret is required")
	}
	if learner == "" {
		return "", errors.New("learner is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   learner,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}

func learnerFrom(ctx context.Context) string {
	learner, _ := ctx.Value(learnerKey{}).(string)
	return learner
}
