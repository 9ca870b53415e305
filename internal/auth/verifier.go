package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"domainsuggest/internal/config"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

const (
	ScopeSuggest  = "domains:suggest"
	ScopeEvaluate = "domains:evaluate"
)

type Service struct {
	Config config.Config
	Now    func() time.Time
}

func NewService(cfg config.Config) *Service {
	return &Service{
		Config: cfg,
		Now:    func() time.Time { return time.Now().UTC() },
	}
}

// Enabled reports whether any credential is configured. With none, every
// request is accepted as anonymous.
func (s *Service) Enabled() bool {
	return s.Config.Security.APIKey != "" || s.Config.Security.TokenSigningKey != ""
}

// Authenticate checks the value of an Authorization header. A bearer token
// matching the static API key is accepted first; anything else must be a
// valid HS256 JWT.
func (s *Service) Authenticate(authHeader string) (Principal, error) {
	if !s.Enabled() {
		return Principal{Subject: "anonymous", Scopes: []string{"*"}, AuthMethod: "anonymous"}, nil
	}
	headerParts := strings.Fields(authHeader)
	if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "Bearer") {
		return Principal{}, ErrUnauthorized
	}
	rawToken := strings.TrimSpace(headerParts[1])

	if key := s.Config.Security.APIKey; key != "" &&
		subtle.ConstantTimeCompare([]byte(rawToken), []byte(key)) == 1 {
		return Principal{Subject: "api_key", Scopes: []string{"*"}, AuthMethod: "api_key"}, nil
	}
	return s.VerifyJWT(rawToken)
}

func (s *Service) VerifyJWT(rawToken string) (Principal, error) {
	signingKey := []byte(s.Config.Security.TokenSigningKey)
	if len(signingKey) == 0 {
		return Principal{}, fmt.Errorf("%w: token signing key not configured", ErrUnauthorized)
	}

	now := s.Now
	if now == nil {
		now = time.Now
	}
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithTimeFunc(now),
	}
	if iss := strings.TrimSpace(s.Config.Auth.Issuer); iss != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(s.Config.Auth.Audience); aud != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(aud))
	}

	parsed, err := jwt.Parse(rawToken, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return signingKey, nil
	}, parserOpts...)
	if err != nil || !parsed.Valid {
		return Principal{}, ErrUnauthorized
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	subject := claimString(claims["sub"])
	if subject == "" {
		return Principal{}, ErrUnauthorized
	}
	return Principal{
		Subject:    subject,
		TokenID:    claimString(claims["jti"]),
		Scopes:     extractScopes(claims["scope"]),
		AuthMethod: "jwt",
	}, nil
}

// ValidateScopes accepts "*", an exact match, or a "prefix:*" wildcard.
func (s *Service) ValidateScopes(principal Principal, requiredScope string) error {
	if requiredScope == "" {
		return nil
	}
	for _, scope := range principal.Scopes {
		if scope == "*" || scope == requiredScope {
			return nil
		}
		if strings.HasSuffix(scope, ":*") {
			prefix := strings.TrimSuffix(scope, "*")
			if strings.HasPrefix(requiredScope, prefix) {
				return nil
			}
		}
	}
	return ErrForbidden
}

func claimString(v any) string {
	switch value := v.(type) {
	case string:
		return strings.TrimSpace(value)
	default:
		return ""
	}
}

func extractScopes(claim any) []string {
	var scopes []string
	switch value := claim.(type) {
	case string:
		scopes = append(scopes, strings.Fields(value)...)
	case []any:
		for _, item := range value {
			if scope := claimString(item); scope != "" {
				scopes = append(scopes, scope)
			}
		}
	case []string:
		for _, item := range value {
			if item != "" {
				scopes = append(scopes, item)
			}
		}
	}
	return scopes
}
