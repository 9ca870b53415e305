package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"domainsuggest/internal/config"
)

const testSigningKey = "test-signing-key-for-unit-tests"

func testService(mutate func(*config.Config)) *Service {
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	return &Service{Config: cfg, Now: func() time.Time { return time.Unix(1000, 0) }}
}

func signedJWT(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func TestAuthenticateJWT(t *testing.T) {
	svc := testService(func(c *config.Config) {
		c.Auth.Issuer = "https://auth.example.com"
		c.Auth.Audience = "domainsuggest"
		c.Security.TokenSigningKey = testSigningKey
	})

	token := signedJWT(t, jwt.MapClaims{
		"iss":   "https://auth.example.com",
		"aud":   "domainsuggest",
		"exp":   2000,
		"nbf":   500,
		"sub":   "client-1",
		"jti":   "token-1",
		"scope": "domains:suggest domains:evaluate",
	})

	principal, err := svc.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "client-1", principal.Subject)
	assert.Equal(t, "token-1", principal.TokenID)
	assert.Equal(t, "jwt", principal.AuthMethod)
	assert.Equal(t, []string{ScopeSuggest, ScopeEvaluate}, principal.Scopes)
}

func TestAuthenticateJWTRejections(t *testing.T) {
	svc := testService(func(c *config.Config) {
		c.Auth.Audience = "domainsuggest"
		c.Security.TokenSigningKey = testSigningKey
	})

	tests := []struct {
		name   string
		claims jwt.MapClaims
	}{
		{"missing subject", jwt.MapClaims{"exp": 2000, "aud": "domainsuggest"}},
		{"expired", jwt.MapClaims{"exp": 900, "sub": "c", "aud": "domainsuggest"}},
		{"wrong audience", jwt.MapClaims{"exp": 2000, "sub": "c", "aud": "other"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Authenticate("Bearer " + signedJWT(t, tc.claims))
			assert.ErrorIs(t, err, ErrUnauthorized)
		})
	}

	_, err := svc.Authenticate("Basic abc")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Authenticate("")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticateStaticKey(t *testing.T) {
	svc := testService(func(c *config.Config) { c.Security.APIKey = "hf_secret" })

	principal, err := svc.Authenticate("Bearer hf_secret")
	require.NoError(t, err)
	assert.Equal(t, "api_key", principal.AuthMethod)

	_, err = svc.Authenticate("Bearer hf_wrong")
	assert.ErrorIs(t, err, ErrUnauthorized, "no signing key configured, so the JWT path fails too")
}

func TestAuthenticateDisabled(t *testing.T) {
	principal, err := testService(nil).Authenticate("")
	require.NoError(t, err)
	assert.Equal(t, "anonymous", principal.AuthMethod)
}

func TestValidateScopes(t *testing.T) {
	svc := testService(nil)
	tests := []struct {
		scopes []string
		want   error
	}{
		{[]string{"*"}, nil},
		{[]string{ScopeSuggest}, nil},
		{[]string{"domains:*"}, nil},
		{[]string{ScopeEvaluate}, ErrForbidden},
		{nil, ErrForbidden},
	}
	for _, tc := range tests {
		err := svc.ValidateScopes(Principal{Scopes: tc.scopes}, ScopeSuggest)
		if tc.want == nil {
			assert.NoError(t, err, "%v", tc.scopes)
		} else {
			assert.ErrorIs(t, err, tc.want, "%v", tc.scopes)
		}
	}
}

func TestMiddleware(t *testing.T) {
	svc := testService(func(c *config.Config) {
		c.Security.TokenSigningKey = testSigningKey
	})
	var seen Principal
	handler := svc.Middleware(ScopeEvaluate)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/evaluate", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, []any{}, body["suggestions"])

	req := httptest.NewRequest(http.MethodPost, "/evaluate", nil)
	req.Header.Set("Authorization", "Bearer "+signedJWT(t, jwt.MapClaims{"exp": 2000, "sub": "c", "scope": ScopeSuggest}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/evaluate", nil)
	req.Header.Set("Authorization", "Bearer "+signedJWT(t, jwt.MapClaims{"exp": 2000, "sub": "c", "scope": "domains:*"}))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "c", seen.Subject)
}
