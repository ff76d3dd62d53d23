package jwtx

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// ErrWeakSecret rejects signing secrets shorter than 32 bytes.
var ErrWeakSecret = errors.New("jwtx: signing secret must be at least 32 bytes")

// Signer mints HS256-signed tokens with a shared secret. The same secret is
// used by the verifier, so sibling services holding it can validate sessions
// without a round trip.
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner creates an HS256 signer.
func NewSigner(secret []byte, issuer string) (*Signer, error) {
	if len(secret) < 32 {
		return nil, ErrWeakSecret
	}
	return &Signer{secret: secret, issuer: issuer}, nil
}

// Issuer returns the issuer stamped on minted tokens.
func (s *Signer) Issuer() string { return s.issuer }

// Sign serializes and signs the claims.
func (s *Signer) Sign(claims Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}
