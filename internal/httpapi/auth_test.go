package httpapi

import (
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"careerpath/internal/logging"
)

func TestIssueTokenRoundTrip(t *testing.T) {
	router := NewRouter(newTestService(t), Options{JWTSecret: "s3cret", Logger: logging.Discard()})

	token, err := IssueToken("s3cret", "asha", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}

	rec := serve(router, http.MethodPost, "/api/tests/12/start", "", map[string]string{"Authorization": "Bearer " + token})
	if rec.Code != http.StatusOK {
		t.Fatalf("start with token = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = serve(router, http.MethodGet, "/api/tests/12", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reading a test needs no token, got %d", rec.Code)
	}
}

func TestAuthenticatorRejectsBadTokens(t *testing.T) {
	router := NewRouter(newTestService(t), Options{JWTSecret: "s3cret", Logger: logging.Discard()})

	wrongSecret, err := IssueToken("other", "asha", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken failed: %v", err)
	}
	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		Subject:   "asha",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    tokenIssuer,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("s3cret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	cases := map[string]struct {
		header  string
		message string
	}{
		"missing header":  {"", "Authorization header required"},
		"wrong scheme":    {"Basic abc", "Authorization header format must be Bearer {token}"},
		"wrong secret":    {"Bearer " + wrongSecret, "Invalid token signature"},
		"expired":         {"Bearer " + expired, "Token expired"},
		"no subject":      {"Bearer " + noSubject, "Token has no subject"},
		"garbage":         {"Bearer not-a-token", "Invalid token"},
		"learner ignored": {"", "Authorization header required"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			headers := map[string]string{learnerHeader: "asha"}
			if tc.header != "" {
				headers["Authorization"] = tc.header
			}
			rec := serve(router, http.MethodPost, "/api/tests/12/start", "", headers)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
			if got := decodeError(t, rec); got.Message != tc.message {
				t.Fatalf("message = %q, want %q", got.Message, tc.message)
			}
		})
	}
}

func TestIssueTokenValidatesInput(t *testing.T) {
	if _, err := IssueToken("", "asha", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	if _, err := IssueToken("s3cret", " ", time.Hour); err == nil {
		t.Fatalf("expected error for empty learner")
	}
}
