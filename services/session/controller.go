// Package session resolves the current user for presentation code.
package session

import (
	"errors"
	"fmt"
	"log/slog"

	"bulletin/models"
	"bulletin/services/board"
	"bulletin/services/identity"
	"bulletin/services/tokenstore"
)

// ErrSessionInvalid means a token is stored but the server no longer
// accepts it (or could not be reached). Pages that require a signed-in
// user send the viewer back to login on this.
var ErrSessionInvalid = errors.New("session expired or invalid")

// Controller resolves "who is the current user". The server's /auth/me
// answer is authoritative; everything else is advisory.
type Controller struct {
	tokens *tokenstore.Store
	client *board.Client
	log    *slog.Logger
}

// NewController creates a session controller over the given store and
// client. Both are shared with the rest of the process.
func NewController(tokens *tokenstore.Store, client *board.Client) *Controller {
	return &Controller{
		tokens: tokens,
		client: client,
		log:    slog.Default().With("component", "session"),
	}
}

// Resolve returns the authoritative identity for the stored token, or nil
// for anonymous. With no stored token it answers immediately, without a
// network call. A token the server rejects — or any transient failure —
// also resolves to anonymous, but the token stays in the store: only an
// explicit Logout clears it, so a network blip cannot silently sign the
// user out.
func (c *Controller) Resolve() *models.Identity {
	if _, ok := c.tokens.Get(); !ok {
		return nil
	}
	id, ok := c.client.Me()
	if !ok {
		c.log.Debug("stored token did not resolve to an identity")
		return nil
	}
	return &id
}

// RequireUser is the guard for protected pages. It distinguishes "never
// signed in" (board.ErrUnauthenticated) from "signed in but the session no
// longer resolves" (ErrSessionInvalid) so the caller can word the login
// prompt accordingly.
func (c *Controller) RequireUser() (models.Identity, error) {
	if _, ok := c.tokens.Get(); !ok {
		return models.Identity{}, board.ErrUnauthenticated
	}
	id, ok := c.client.Me()
	if !ok {
		return models.Identity{}, ErrSessionInvalid
	}
	return id, nil
}

// Login authenticates against the backend and stores the issued token.
func (c *Controller) Login(email, password string) error {
	token, err := c.client.Login(email, password)
	if err != nil {
		return err
	}
	if err := c.tokens.Set(token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Logout clears the stored token. The backend keeps no session state to
// revoke; the token simply stops being presented.
func (c *Controller) Logout() error {
	return c.tokens.Clear()
}

// DecodedUserID is the advisory, locally-decoded user id from the stored
// token's payload. Useful for optimistic hints before Resolve answers;
// never a substitute for it.
func (c *Controller) DecodedUserID() (int64, bool) {
	token, ok := c.tokens.Get()
	if !ok {
		return 0, false
	}
	return identity.DecodeUserID(token)
}
