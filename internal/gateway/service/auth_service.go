package service

import (
	"errors"
	"fmt"
	"time"

	pkgerrors "codejudge/pkg/errors"

	"github.com/golang-jwt/jwt/v5"
)

// RoleService marks tokens minted for in-process callers.
const RoleService = "service"

// Principal identifies the caller behind a bearer token.
type Principal struct {
	Subject string
	Role    string
}

// AuthService validates HS256 access tokens.
type AuthService struct {
	jwtSecret []byte
	jwtIssuer string
}

func NewAuthService(jwtSecret, jwtIssuer string) *AuthService {
	return &AuthService{
		jwtSecret: []byte(jwtSecret),
		jwtIssuer: jwtIssuer,
	}
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate parses raw and returns its principal.
func (s *AuthService) Authenticate(raw string) (Principal, error) {
	if raw == "" || len(s.jwtSecret) == 0 {
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	parsed, err := jwt.ParseWithClaims(raw, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, pkgerrors.New(pkgerrors.TokenExpired)
		}
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if s.jwtIssuer != "" && claims.Issuer != s.jwtIssuer {
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	if claims.Subject == "" {
		return Principal{}, pkgerrors.New(pkgerrors.TokenInvalid)
	}
	return Principal{Subject: claims.Subject, Role: claims.Role}, nil
}

// IssueToken signs an HS256 token for subject with the service issuer.
func (s *AuthService) IssueToken(subject, role string, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = subject
	if claims.Issuer == "" {
		claims.Issuer = s.jwtIssuer
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{Role: role, RegisteredClaims: claims})
	return token.SignedString(s.jwtSecret)
}

// ServiceToken signs a token without expiry for a caller inside this process,
// such as the gateway's own run workflow calling back into the execution
// endpoint.
func (s *AuthService) ServiceToken(subject string) (string, error) {
	return s.IssueToken(subject, RoleService, jwt.RegisteredClaims{
		IssuedAt: jwt.NewNumericDate(time.Now()),
	})
}
