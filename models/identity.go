package models

// Identity is the server-confirmed identity for the current session token,
// as returned by GET /auth/me. It is the only identity usable for trust
// decisions; locally decoded token claims (services/identity) are advisory
// and never reach ownership checks.
type Identity struct {
	ID       int64  `json:"id"`
	Nickname string `json:"nickname"`
}
