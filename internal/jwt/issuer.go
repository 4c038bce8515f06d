// Package jwt emite y valida los bearer tokens del dashboard de vendors (HS256).
package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid_jwt")
	ErrExpired       = errors.New("expired")
	ErrMissingSecret = errors.New("jwt secret is required")
)

// Roles conocidos.
const (
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

// DashboardClaims son los claims del access token del dashboard.
// sub es el store id del vendor (mismo id que el usuario).
type DashboardClaims struct {
	Role string `json:"role,omitempty"`
	jwtv5.RegisteredClaims
}

// IsAdmin indica si el token tiene rol admin.
func (c *DashboardClaims) IsAdmin() bool { return c.Role == RoleAdmin }

// Issuer firma y valida tokens con un secreto compartido.
type Issuer struct {
	Iss       string
	AccessTTL time.Duration
	Leeway    time.Duration

	secret []byte
	now    func() time.Time
}

// NewIssuer crea un Issuer. ttl <= 0 usa 1h.
func NewIssuer(secret, iss string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Issuer{
		Iss:       iss,
		AccessTTL: ttl,
		Leeway:    30 * time.Second,
		secret:    []byte(secret),
		now:       time.Now,
	}, nil
}

// Issue emite un access token para sub con el rol dado.
func (i *Issuer) Issue(sub, role string) (string, time.Time, error) {
	if sub == "" {
		return "", time.Time{}, fmt.Errorf("jwt: sub is required")
	}
	if role == "" {
		role = RoleVendor
	}
	now := i.now().UTC()
	exp := now.Add(i.AccessTTL)

	claims := DashboardClaims{
		Role: role,
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    i.Iss,
			Subject:   sub,
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(exp),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"

	signed, err := tk.SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse valida firma (solo HS256), iss (si está configurado) y exp/nbf con tolerancia.
func (i *Issuer) Parse(token string) (*DashboardClaims, error) {
	opts := []jwtv5.ParserOption{
		jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
		jwtv5.WithLeeway(i.Leeway),
		jwtv5.WithExpirationRequired(),
		jwtv5.WithTimeFunc(i.now),
	}
	if i.Iss != "" {
		opts = append(opts, jwtv5.WithIssuer(i.Iss))
	}

	claims := &DashboardClaims{}
	tok, err := jwtv5.ParseWithClaims(token, claims, func(*jwtv5.Token) (any, error) {
		return i.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
