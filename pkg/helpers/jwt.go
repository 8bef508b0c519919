package helpers

import (
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSymmetricAlgorithm = errors.New("jwt: symmetric signing algorithms are not allowed")
	ErrInvalidToken       = errors.New("jwt: invalid token")
)

// JWTManager signs and verifies tokens with an asymmetric key pair.
// Key material is read once and never mutated.
type JWTManager struct {
	method     jwt.SigningMethod
	privateKey crypto.PrivateKey
	publicKey  crypto.PublicKey
	Audience   string
	TTL        time.Duration
	Now        func() time.Time
}

// Claims is the payload carried by access tokens.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// NewJWTManager parses PEM key material for the given algorithm (RS*, PS*, ES*, EdDSA).
// A zero ttl issues tokens without an exp claim.
func NewJWTManager(algorithm string, privatePEM, publicPEM []byte, audience string, ttl time.Duration) (*JWTManager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("jwt: unknown algorithm %q", algorithm)
	}
	priv, pub, err := parseKeyPair(method, privatePEM, publicPEM)
	if err != nil {
		return nil, err
	}
	return &JWTManager{
		method:     method,
		privateKey: priv,
		publicKey:  pub,
		Audience:   audience,
		TTL:        ttl,
		Now:        time.Now,
	}, nil
}

func parseKeyPair(method jwt.SigningMethod, privatePEM, publicPEM []byte) (crypto.PrivateKey, crypto.PublicKey, error) {
	switch method.(type) {
	case *jwt.SigningMethodRSA, *jwt.SigningMethodRSAPSS:
		priv, err := jwt.ParseRSAPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt: parse rsa private key: %w", err)
		}
		pub, err := jwt.ParseRSAPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt: parse rsa public key: %w", err)
		}
		return priv, pub, nil
	case *jwt.SigningMethodECDSA:
		priv, err := jwt.ParseECPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt: parse ec private key: %w", err)
		}
		pub, err := jwt.ParseECPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt: parse ec public key: %w", err)
		}
		return priv, pub, nil
	case *jwt.SigningMethodEd25519:
		priv, err := jwt.ParseEdPrivateKeyFromPEM(privatePEM)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt: parse ed25519 private key: %w", err)
		}
		pub, err := jwt.ParseEdPublicKeyFromPEM(publicPEM)
		if err != nil {
			return nil, nil, fmt.Errorf("jwt: parse ed25519 public key: %w", err)
		}
		return priv, pub, nil
	default:
		return nil, nil, ErrSymmetricAlgorithm
	}
}

// Algorithm returns the configured signing algorithm name.
func (m *JWTManager) Algorithm() string { return m.method.Alg() }

func (m *JWTManager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Generate signs a token for subject. The returned time is zero when no expiry is set.
func (m *JWTManager) Generate(subject, email string) (string, time.Time, error) {
	now := m.now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			Audience: jwt.ClaimStrings{m.Audience},
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	var exp time.Time
	if m.TTL > 0 {
		exp = now.Add(m.TTL)
		claims.ExpiresAt = jwt.NewNumericDate(exp)
	}
	t := jwt.NewWithClaims(m.method, claims)
	s, err := t.SignedString(m.privateKey)
	return s, exp, err
}

// Parse verifies signature, algorithm, audience, expiry and issue time.
func (m *JWTManager) Parse(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{m.method.Alg()}),
		jwt.WithAudience(m.Audience),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(m.now),
	)
	claims := &Claims{}
	tkn, err := parser.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return m.publicKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
