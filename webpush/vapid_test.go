package webpush

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	priv, pub, err := GenerateVAPIDKeys()
	require.NoError(t, err)

	privBytes, err := decodeKey(priv)
	require.NoError(t, err)
	assert.Len(t, privBytes, 32)

	pubBytes, err := decodeKey(pub)
	require.NoError(t, err)
	assert.Len(t, pubBytes, 65)

	// uncompressed point marker
	assert.Equal(t, byte(0x04), pubBytes[0])
}

func TestParseVapidPrivateKeyRejectsBadInput(t *testing.T) {
	_, err := parseVapidPrivateKey("not base64!!!")
	assert.Error(t, err)

	_, err = parseVapidPrivateKey("AAAA")
	assert.Error(t, err)
}

func TestVapidAuthorization(t *testing.T) {
	priv, pub, err := GenerateVAPIDKeys()
	require.NoError(t, err)

	key, err := parseVapidPrivateKey(priv)
	require.NoError(t, err)

	expiry := time.Now().Add(time.Hour)

	authz, err := vapidAuthorization(
		"https://fcm.googleapis.com/fcm/send/abc123",
		"mailto:ops@studytraka.app",
		pub,
		key,
		expiry,
	)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(authz, "vapid t="))
	require.True(t, strings.HasSuffix(authz, ",k="+pub))

	raw := strings.TrimSuffix(strings.TrimPrefix(authz, "vapid t="), ",k="+pub)

	token, err := jwt.Parse(raw, func(token *jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"ES256"}))
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims := token.Claims.(jwt.MapClaims)

	// audience is the endpoint origin, not the full endpoint
	assert.Equal(t, "https://fcm.googleapis.com", claims["aud"])
	assert.Equal(t, "mailto:ops@studytraka.app", claims["sub"])
	assert.Equal(t, float64(expiry.Unix()), claims["exp"])
}

func TestDecodeKeyAcceptsBothAlphabets(t *testing.T) {
	// url-safe unpadded
	b, err := decodeKey("_-8")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xef}, b)

	// standard padded
	b, err = decodeKey("/+8=")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xef}, b)
}
