// Package identity extracts an advisory user id from a session token's
// payload without contacting the server.
package identity

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// claimKeys are probed in order; the first key present in the payload wins.
var claimKeys = []string{"sub", "userId", "uid", "id"}

// DecodeUserID pulls a numeric user id out of a token's payload segment.
//
// SECURITY: this performs no cryptographic verification. The payload is
// whatever the token bearer says it is, so the result is advisory and may
// only feed optimistic UI decisions (showing a hint before /auth/me
// answers). It must never gate a security-relevant action; the server's
// /auth/me response is the authoritative identity.
//
// Total for any input: malformed base64, non-JSON payloads and missing or
// non-numeric claims all yield absent, never a panic or error.
func DecodeUserID(token string) (int64, bool) {
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return 0, false
	}

	// Tokens in the wild carry the payload both with and without base64
	// padding; strip any padding and decode raw.
	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return 0, false
	}

	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return 0, false
	}

	for _, key := range claimKeys {
		v, ok := claims[key]
		if !ok || v == nil {
			continue
		}
		// First present claim decides; a non-numeric value there means
		// absent, not "try the next key".
		return coerceID(v)
	}
	return 0, false
}

// coerceID accepts the number and numeric-string encodings servers use for
// the user id claim.
func coerceID(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return int64(f), true
	default:
		return 0, false
	}
}
