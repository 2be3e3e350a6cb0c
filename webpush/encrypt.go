package webpush

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// A push service is only required to accept a single 4096 byte record
// (RFC 8291 section 4).
const maxRecordSize = 4096

var ErrRecordSizeExceeded = errors.New("payload exceeds the maximum push record size")

// encryptPayload seals msg for a subscription per RFC 8291 (aes128gcm): an
// ephemeral P-256 key agreement with the subscription's p256dh key, HKDF key
// derivation bound to the auth secret, and a single AES-128-GCM record with
// the encryption header prepended.
func encryptPayload(msg, p256dh, auth []byte) ([]byte, error) {
	curve := ecdh.P256()

	subPub, err := curve.NewPublicKey(p256dh)

	if err != nil {
		return nil, fmt.Errorf("invalid p256dh key: %w", err)
	}

	local, err := curve.GenerateKey(rand.Reader)

	if err != nil {
		return nil, err
	}

	shared, err := local.ECDH(subPub)

	if err != nil {
		return nil, fmt.Errorf("error agreeing on shared secret: %w", err)
	}

	salt := make([]byte, 16)

	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	localPub := local.PublicKey().Bytes()

	// ikm = HKDF(salt: auth, ikm: ecdh_secret, info: "WebPush: info" || 0x00 || ua_public || as_public)
	prkInfo := make([]byte, 0, 14+len(p256dh)+len(localPub))
	prkInfo = append(prkInfo, []byte("WebPush: info\x00")...)
	prkInfo = append(prkInfo, p256dh...)
	prkInfo = append(prkInfo, localPub...)

	ikm := make([]byte, 32)

	if _, err := io.ReadFull(hkdf.New(sha256.New, shared, auth, prkInfo), ikm); err != nil {
		return nil, err
	}

	cek := make([]byte, 16)

	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, []byte("Content-Encoding: aes128gcm\x00")), cek); err != nil {
		return nil, err
	}

	nonce := make([]byte, 12)

	if _, err := io.ReadFull(hkdf.New(sha256.New, ikm, salt, []byte("Content-Encoding: nonce\x00")), nonce); err != nil {
		return nil, err
	}

	block, err := aes.NewCipher(cek)

	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)

	if err != nil {
		return nil, err
	}

	// Last (only) record: plaintext || 0x02 delimiter, then the GCM tag
	plaintext := make([]byte, 0, len(msg)+1)
	plaintext = append(plaintext, msg...)
	plaintext = append(plaintext, 0x02)

	if len(plaintext)+gcm.Overhead() > maxRecordSize {
		return nil, ErrRecordSizeExceeded
	}

	// Encryption content coding header: salt (16) || rs (4) || idlen (1) || keyid
	header := make([]byte, 0, 21+len(localPub))
	header = append(header, salt...)
	header = binary.BigEndian.AppendUint32(header, maxRecordSize)
	header = append(header, byte(len(localPub)))
	header = append(header, localPub...)

	return gcm.Seal(header, nonce, plaintext, nil), nil
}
