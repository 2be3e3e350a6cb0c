package webpush

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"encoding/base64"
	"fmt"
	"math/big"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// decodeKey handles both URL-safe and standard base64, padded or not, since
// browsers and key generators disagree on which variant they emit.
func decodeKey(key string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(key)

	if err == nil {
		return b, nil
	}

	return base64.StdEncoding.DecodeString(key)
}

// parseVapidPrivateKey rebuilds an ECDSA P-256 key from the raw 32-byte
// scalar produced by VAPID key generators.
func parseVapidPrivateKey(key string) (*ecdsa.PrivateKey, error) {
	b, err := decodeKey(key)

	if err != nil {
		return nil, fmt.Errorf("error decoding vapid private key: %w", err)
	}

	if len(b) != 32 {
		return nil, fmt.Errorf("vapid private key must be 32 bytes, got %d", len(b))
	}

	curve := elliptic.P256()
	x, y := curve.ScalarBaseMult(b)

	return &ecdsa.PrivateKey{
		PublicKey: ecdsa.PublicKey{
			Curve: curve,
			X:     x,
			Y:     y,
		},
		D: new(big.Int).SetBytes(b),
	}, nil
}

// vapidAuthorization builds the `vapid t=<jwt>,k=<key>` header of RFC 8292.
// The token is signed with ES256, whose raw r||s signature form is exactly
// what push services expect. The audience is the origin of the endpoint, so a
// token never leaks authority over a different push service.
func vapidAuthorization(endpoint, subscriber, publicKey string, privateKey *ecdsa.PrivateKey, expiry time.Time) (string, error) {
	u, err := url.Parse(endpoint)

	if err != nil {
		return "", fmt.Errorf("error parsing endpoint url: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"aud": u.Scheme + "://" + u.Host,
		"exp": expiry.Unix(),
		"sub": subscriber,
	})

	signed, err := token.SignedString(privateKey)

	if err != nil {
		return "", fmt.Errorf("error signing vapid token: %w", err)
	}

	return "vapid t=" + signed + ",k=" + publicKey, nil
}
