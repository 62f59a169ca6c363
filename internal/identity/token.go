// Package identity implements the external identity tokens the gateway's
// Authenticated/Protected routes require — distinct from the tokenkit
// connection strings, which encode a delegated scope rather than a
// principal's own identity. Profile assembly is keyed by email, so Claims
// carries an email claim rather than embedded tenant/role data.
package identity

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("identity: invalid token")
	ErrExpiredToken = errors.New("identity: token has expired")
)

// Claims is Mycelium's external-identity JWT claim set: the email the
// gateway resolves a Profile from, plus standard registered claims.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// JWK represents a JSON Web Key.
type JWK struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
	Alg string `json:"alg"`
}

// JWKS represents a JSON Web Key Set.
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// Provider defines the contract for issuing and validating identity tokens.
type Provider interface {
	Issue(email string, ttl time.Duration) (string, error)
	Validate(tokenString string) (*Claims, error)
	JWKS() (*JWKS, error)
}

// JWTProvider implements Provider using RSA-SHA256 (RS256): a PEM-loaded
// RSA key, a kid header on every token, and a JWKS export for verifiers.
type JWTProvider struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	issuer     string
	kid        string
}

// NewJWTProvider builds a JWTProvider from a PEM-encoded RSA private key
// (PKCS#1 or PKCS#8) and the issuer string embedded in every token.
func NewJWTProvider(privateKeyPEM, issuer, kid string) (*JWTProvider, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return nil, fmt.Errorf("identity: failed to parse PEM block containing the private key")
	}

	priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		key, err2 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err2 != nil {
			return nil, fmt.Errorf("identity: failed to parse private key: %v | %v", err, err2)
		}
		var ok bool
		priv, ok = key.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("identity: key is not of type *rsa.PrivateKey")
		}
	}

	return &JWTProvider{
		privateKey: priv,
		publicKey:  &priv.PublicKey,
		issuer:     issuer,
		kid:        kid,
	}, nil
}

// NewJWTProviderFromKey wraps an already-parsed RSA key. Used by the
// gateway's dev mode, which generates an ephemeral key at startup instead
// of failing on a missing key file.
func NewJWTProviderFromKey(priv *rsa.PrivateKey, issuer, kid string) *JWTProvider {
	return &JWTProvider{
		privateKey: priv,
		publicKey:  &priv.PublicKey,
		issuer:     issuer,
		kid:        kid,
	}
}

// Issue creates a signed identity token for email, valid for ttl.
func (p *JWTProvider) Issue(email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			NotBefore: jwt.NewNumericDate(now.Add(-1 * time.Minute)),
			Issuer:    p.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = p.kid
	signed, err := token.SignedString(p.privateKey)
	if err != nil {
		return "", fmt.Errorf("identity: failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies tokenString, returning its Claims.
func (p *JWTProvider) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return p.publicKey, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// JWKS returns the JSON Web Key Set for the provider's public key.
func (p *JWTProvider) JWKS() (*JWKS, error) {
	eBuf := big.NewInt(int64(p.publicKey.E)).Bytes()
	e := base64.RawURLEncoding.EncodeToString(eBuf)
	n := base64.RawURLEncoding.EncodeToString(p.publicKey.N.Bytes())

	return &JWKS{Keys: []JWK{{
		Kty: "RSA",
		Kid: p.kid,
		Use: "sig",
		N:   n,
		E:   e,
		Alg: "RS256",
	}}}, nil
}
