// Package auth verifies bearer tokens issued by the identity provider and
// enforces role-based access on handlers.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"svcadmin/model"
)

const minSecretLen = 16

// Claims is the token payload: registered claims plus the caller's role and
// employee id.
type Claims struct {
	jwt.RegisteredClaims
	Role       model.Role `json:"role"`
	EmployeeID int64      `json:"employee_id"`
}

type Verifier struct {
	secret   []byte
	issuer   string
	audience string
	now      func() time.Time
}

func NewVerifier(secret, issuer, audience string) (*Verifier, error) {
	if len(secret) < minSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLen)
	}
	return &Verifier{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		now:      time.Now,
	}, nil
}

// Verify parses raw and returns its claims when the signature, issuer,
// audience and expiry all check out.
func (v *Verifier) Verify(raw string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if !claims.Role.Valid() {
		return nil, fmt.Errorf("verify token: unknown role %q", claims.Role)
	}
	if claims.EmployeeID <= 0 {
		return nil, errors.New("verify token: employee_id is required")
	}
	return claims, nil
}

// Mint signs a token for an employee. The service itself never logs anyone
// in; this exists for the CLI and for tests.
func (v *Verifier) Mint(e model.Employee, ttl time.Duration) (string, error) {
	now := v.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(e.ID, 10),
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role:       e.Role,
		EmployeeID: e.ID,
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
