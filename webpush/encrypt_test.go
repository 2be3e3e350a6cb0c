package webpush

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdh"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/hkdf"
)

// decryptRecord plays the browser's side of RFC 8291: parse the aes128gcm
// header, agree on the shared secret with the subscription's private key, and
// open the single record.
func decryptRecord(t *testing.T, body []byte, subPriv *ecdh.PrivateKey, auth []byte) []byte {
	t.Helper()

	require.Greater(t, len(body), 21)

	salt := body[:16]
	rs := binary.BigEndian.Uint32(body[16:20])
	idlen := int(body[20])

	require.Equal(t, uint32(maxRecordSize), rs)
	require.Equal(t, 65, idlen)
	require.Greater(t, len(body), 21+idlen)

	localPubBytes := body[21 : 21+idlen]
	record := body[21+idlen:]

	localPub, err := ecdh.P256().NewPublicKey(localPubBytes)
	require.NoError(t, err)

	shared, err := subPriv.ECDH(localPub)
	require.NoError(t, err)

	subPub := subPriv.PublicKey().Bytes()

	prkInfo := append(append([]byte("WebPush: info\x00"), subPub...), localPubBytes...)

	ikm := make([]byte, 32)
	_, err = io.ReadFull(hkdf.New(sha256.New, shared, auth, prkInfo), ikm)
	require.NoError(t, err)

	cek := make([]byte, 16)
	_, err = io.ReadFull(hkdf.New(sha256.New, ikm, salt, []byte("Content-Encoding: aes128gcm\x00")), cek)
	require.NoError(t, err)

	nonce := make([]byte, 12)
	_, err = io.ReadFull(hkdf.New(sha256.New, ikm, salt, []byte("Content-Encoding: nonce\x00")), nonce)
	require.NoError(t, err)

	block, err := aes.NewCipher(cek)
	require.NoError(t, err)

	gcm, err := cipher.NewGCM(block)
	require.NoError(t, err)

	plaintext, err := gcm.Open(nil, nonce, record, nil)
	require.NoError(t, err)

	// strip the last-record delimiter and any padding
	i := bytes.LastIndexByte(plaintext, 0x02)
	require.GreaterOrEqual(t, i, 0)

	return plaintext[:i]
}

func TestEncryptPayloadRoundTrip(t *testing.T) {
	subPriv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	msg := []byte(`{"title":"⏰ Linear Algebra Lecture","body":"Starting in 30m","tag":"event-ev1"}`)

	body, err := encryptPayload(msg, subPriv.PublicKey().Bytes(), auth)
	require.NoError(t, err)

	assert.Equal(t, msg, decryptRecord(t, body, subPriv, auth))
}

func TestEncryptPayloadIsNondeterministic(t *testing.T) {
	subPriv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	a, err := encryptPayload([]byte("hello"), subPriv.PublicKey().Bytes(), auth)
	require.NoError(t, err)

	b, err := encryptPayload([]byte("hello"), subPriv.PublicKey().Bytes(), auth)
	require.NoError(t, err)

	// fresh salt and ephemeral key every time
	assert.NotEqual(t, a, b)
}

func TestEncryptPayloadRejectsOversizedMessage(t *testing.T) {
	subPriv, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)

	auth := make([]byte, 16)
	_, err = rand.Read(auth)
	require.NoError(t, err)

	_, err = encryptPayload(make([]byte, maxRecordSize), subPriv.PublicKey().Bytes(), auth)
	assert.ErrorIs(t, err, ErrRecordSizeExceeded)
}

func TestEncryptPayloadRejectsBadSubscriptionKey(t *testing.T) {
	_, err := encryptPayload([]byte("hello"), []byte{0x04, 0x01}, make([]byte, 16))
	assert.Error(t, err)
}
