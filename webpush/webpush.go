// Package webpush delivers messages to browser push subscriptions over the
// Web Push protocol (RFC 8030), building the VAPID authorization (RFC 8292)
// and aes128gcm payload encryption (RFC 8291) from primitives.
package webpush

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// ErrSubscriptionGone is returned when the push service reports the endpoint
// permanently gone (404/410). The subscription must be deleted before the
// next delivery cycle; the attempt itself is neither a success nor a failure.
var ErrSubscriptionGone = errors.New("push subscription is no longer valid")

// StatusError is any other non-2xx response from a push service.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("push endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Keys are the two subscription keys issued by the browser's push service.
type Keys struct {
	Auth   string `json:"auth"`
	P256dh string `json:"p256dh"`
}

// Subscription addresses one specific browser.
type Subscription struct {
	Endpoint string `json:"endpoint"`
	Keys     Keys   `json:"keys"`
}

type Client struct {
	// Subscriber is the mailto/URL contact placed in the VAPID sub claim
	Subscriber string

	// TTL bounds how long the push service holds an undelivered message
	TTL int

	publicKey  string
	privateKey *ecdsa.PrivateKey
	http       *http.Client
}

// NewClient parses the VAPID key pair once; the private key is read-only for
// the life of the process and never derived from subscription data.
func NewClient(publicKey, privateKey, subscriber string, ttl int, timeout time.Duration) (*Client, error) {
	priv, err := parseVapidPrivateKey(privateKey)

	if err != nil {
		return nil, err
	}

	pub, err := decodeKey(publicKey)

	if err != nil {
		return nil, fmt.Errorf("error decoding vapid public key: %w", err)
	}

	if len(pub) != 65 {
		return nil, fmt.Errorf("vapid public key must be an uncompressed 65 byte point, got %d bytes", len(pub))
	}

	return &Client{
		Subscriber: subscriber,
		TTL:        ttl,
		publicKey:  base64.RawURLEncoding.EncodeToString(pub),
		privateKey: priv,
		http:       &http.Client{Timeout: timeout},
	}, nil
}

// Send encrypts payload for the subscription and posts it to the endpoint.
// 2xx returns nil, 404/410 returns ErrSubscriptionGone, anything else returns
// a *StatusError carrying the status and response body.
func (c *Client) Send(ctx context.Context, sub Subscription, payload []byte) error {
	p256dh, err := decodeKey(sub.Keys.P256dh)

	if err != nil {
		return fmt.Errorf("error decoding subscription p256dh key: %w", err)
	}

	auth, err := decodeKey(sub.Keys.Auth)

	if err != nil {
		return fmt.Errorf("error decoding subscription auth secret: %w", err)
	}

	body, err := encryptPayload(payload, p256dh, auth)

	if err != nil {
		return err
	}

	authz, err := vapidAuthorization(sub.Endpoint, c.Subscriber, c.publicKey, c.privateKey, time.Now().Add(1*time.Hour))

	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sub.Endpoint, bytes.NewReader(body))

	if err != nil {
		return fmt.Errorf("error creating push request: %w", err)
	}

	req.Header.Set("Authorization", authz)
	req.Header.Set("Content-Encoding", "aes128gcm")
	req.Header.Set("Content-Type", "application/octet-stream")
	req.Header.Set("Content-Length", strconv.Itoa(len(body)))
	req.Header.Set("TTL", strconv.Itoa(c.TTL))

	resp, err := c.http.Do(req)

	if err != nil {
		return fmt.Errorf("error posting to push endpoint: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
		return ErrSubscriptionGone
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(msg),
		}
	}

	return nil
}

// GenerateVAPIDKeys returns a fresh key pair in the base64url form used by
// browsers and push services: the raw 32 byte private scalar and the
// uncompressed 65 byte public point.
func GenerateVAPIDKeys() (privateKey, publicKey string, err error) {
	key, err := ecdh.P256().GenerateKey(rand.Reader)

	if err != nil {
		return "", "", err
	}

	privateKey = base64.RawURLEncoding.EncodeToString(key.Bytes())
	publicKey = base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes())

	return privateKey, publicKey, nil
}
