package identity

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

// payloadToken builds a header.payload.signature-shaped string from a raw
// payload without going through a JWT library.
func payloadToken(payload string) string {
	seg := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return "eyJhbGciOiJIUzI1NiJ9." + seg + ".sig"
}

func TestDecodeUserID_SubClaim(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": 42})

	id, ok := DecodeUserID(token)
	require.True(t, ok)
	require.Equal(t, int64(42), id)
}

func TestDecodeUserID_NotAToken(t *testing.T) {
	_, ok := DecodeUserID("not-a-token")
	require.False(t, ok)
}

func TestDecodeUserID_StringUserID(t *testing.T) {
	id, ok := DecodeUserID(payloadToken(`{"userId":"7"}`))
	require.True(t, ok)
	require.Equal(t, int64(7), id)
}

func TestDecodeUserID_ClaimOrder(t *testing.T) {
	// sub wins over the later keys when both are present.
	id, ok := DecodeUserID(payloadToken(`{"id":9,"sub":3}`))
	require.True(t, ok)
	require.Equal(t, int64(3), id)

	// A null claim is skipped, not treated as present.
	id, ok = DecodeUserID(payloadToken(`{"sub":null,"id":9}`))
	require.True(t, ok)
	require.Equal(t, int64(9), id)
}

func TestDecodeUserID_FirstPresentClaimDecides(t *testing.T) {
	// A non-numeric first claim means absent; later keys are not probed.
	_, ok := DecodeUserID(payloadToken(`{"sub":"nobody","id":9}`))
	require.False(t, ok)
}

func TestDecodeUserID_PaddedPayload(t *testing.T) {
	seg := base64.URLEncoding.EncodeToString([]byte(`{"uid":11}`)) // with padding
	id, ok := DecodeUserID("h." + seg + ".s")
	require.True(t, ok)
	require.Equal(t, int64(11), id)
}

func TestDecodeUserID_GarbageInputs(t *testing.T) {
	for _, input := range []string{
		"",
		".",
		"..",
		"a.%%%%.c",
		payloadToken(`not json`),
		payloadToken(`{"nickname":"x"}`),
		payloadToken(`[1,2,3]`),
	} {
		_, ok := DecodeUserID(input)
		require.False(t, ok, "input %q should decode to absent", input)
	}
}

// A tampered token still decodes: the signature is never checked here,
// which is exactly why this value must stay advisory and the server's
// /auth/me answer is the only identity fit for authorization.
func TestDecodeUserID_TamperedTokenStillDecodes(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": 42})
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)

	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":999}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	id, ok := DecodeUserID(tampered)
	require.True(t, ok)
	require.Equal(t, int64(999), id)
}
