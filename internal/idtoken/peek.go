// Package idtoken reads display information out of an id_token.
//
// Nothing here verifies a signature or validates a claim. The result is
// only fit for showing to the user who already holds the token.
package idtoken

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
)

var supportedAlgorithms = []jose.SignatureAlgorithm{
	jose.RS256, jose.RS384, jose.RS512,
	jose.ES256, jose.ES384, jose.ES512,
	jose.PS256, jose.PS384, jose.PS512,
	jose.EdDSA,
}

type Claims struct {
	Subject string
	Issuer  string
	Name    string
	Email   string
	Nonce   string
	Expiry  time.Time
}

type displayClaims struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	PreferredUsername string `json:"preferred_username"`
	Nonce             string `json:"nonce"`
}

// Peek decodes the claims of raw without verifying them.
func Peek(raw string) (Claims, error) {
	token, err := jwt.ParseSigned(raw, supportedAlgorithms)
	if err != nil {
		return Claims{}, fmt.Errorf("parsing id token: %w", err)
	}

	var standard jwt.Claims
	var display displayClaims
	if err := token.UnsafeClaimsWithoutVerification(&standard, &display); err != nil {
		return Claims{}, fmt.Errorf("decoding id token claims: %w", err)
	}

	claims := Claims{
		Subject: standard.Subject,
		Issuer:  standard.Issuer,
		Name:    display.Name,
		Email:   display.Email,
		Nonce:   display.Nonce,
	}
	if claims.Email == "" {
		claims.Email = display.PreferredUsername
	}
	if standard.Expiry != nil {
		claims.Expiry = standard.Expiry.Time().UTC()
	}

	return claims, nil
}
