// Package board is the typed client for the community-board REST API.
package board

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"bulletin/models"
	"bulletin/services/tokenstore"
)

// Client talks to the community-board REST API. It is origin-agnostic
// beyond the single resolved base URL it is constructed with; picking the
// right origin for the execution context is the caller's concern.
//
// Operations never retry and never coalesce: a write is exactly one round
// trip, and duplicate-submission protection belongs to the control that
// triggered it (see services/pages).
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     *tokenstore.Store
	log        *slog.Logger
}

// NewClient creates a board API client. The token store supplies the
// bearer credential for protected calls; the client itself never writes to
// the store.
func NewClient(baseURL string, tokens *tokenstore.Store) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		log:        slog.Default().With("component", "board-client"),
	}
}

// setHeaders adds the headers every board API request carries. The token
// is attached when present, including on public reads: mine flags in the
// response are computed from the request's credentials, so an
// authenticated read sees its own content flagged correctly.
func (c *Client) setHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// getJSON performs a read. Reads need no token but send one when stored.
func (c *Client) getJSON(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	token, _ := c.tokens.Get()
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("board api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &RequestError{Method: http.MethodGet, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// send performs a protected write. It fails with ErrUnauthenticated before
// any network call when no token is stored.
func (c *Client) send(method, path string, body any, out any) error {
	token, ok := c.tokens.Get()
	if !ok {
		return ErrUnauthenticated
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("board api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return &RequestError{Method: method, Path: path, Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Health is the liveness answer from GET /health.
type Health struct {
	Status string `json:"status"`
}

// GetHealth checks backend liveness. Like every other operation it makes a
// single attempt; readiness polling loops live in the caller.
func (c *Client) GetHealth() (Health, error) {
	var h Health
	if err := c.getJSON("/health", &h); err != nil {
		return Health{}, err
	}
	return h, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login exchanges credentials for an access token. Storing the token is
// the caller's responsibility (services/session does it on the login
// flow); the client deliberately does not touch the store here.
func (c *Client) Login(email, password string) (string, error) {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("board api request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", &RequestError{Method: http.MethodPost, Path: "/auth/login", Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var login loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&login); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return login.AccessToken, nil
}

// Me resolves the authoritative identity for the stored token. Best effort
// by contract: with no token it answers absent without touching the
// network, and any failure — transport error or non-2xx — also reads as
// absent. It never returns an error, because its one consumer defaults to
// anonymous and a transient failure must not look like a sign-out.
func (c *Client) Me() (models.Identity, bool) {
	token, ok := c.tokens.Get()
	if !ok {
		return models.Identity{}, false
	}

	req, err := http.NewRequest(http.MethodGet, c.baseURL+"/auth/me", nil)
	if err != nil {
		return models.Identity{}, false
	}
	c.setHeaders(req, token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Debug("identity lookup failed", "error", err)
		return models.Identity{}, false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Identity{}, false
	}

	var id models.Identity
	if err := json.NewDecoder(resp.Body).Decode(&id); err != nil {
		return models.Identity{}, false
	}
	return id, true
}

// ListPosts fetches the newest posts, at most size of them.
func (c *Client) ListPosts(size int) ([]models.PostListItem, error) {
	var items []models.PostListItem
	if err := c.getJSON(fmt.Sprintf("/posts?size=%d", size), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GetPost fetches one post in detail form.
func (c *Client) GetPost(id int64) (models.PostDetail, error) {
	var post models.PostDetail
	if err := c.getJSON(fmt.Sprintf("/posts/%d", id), &post); err != nil {
		return models.PostDetail{}, err
	}
	return post, nil
}

// ListComments fetches a post's comments, at most size of them.
func (c *Client) ListComments(postID int64, size int) ([]models.CommentItem, error) {
	var items []models.CommentItem
	if err := c.getJSON(fmt.Sprintf("/posts/%d/comments?size=%d", postID, size), &items); err != nil {
		return nil, err
	}
	return items, nil
}

// PostInput is the body for creating or editing a post.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type commentInput struct {
	Content string `json:"content"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

// CreatePost creates a post and returns its server-assigned id.
func (c *Client) CreatePost(in PostInput) (int64, error) {
	var created createdResponse
	if err := c.send(http.MethodPost, "/posts", in, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UpdatePost edits a post. Owner-only, enforced server-side.
func (c *Client) UpdatePost(id int64, in PostInput) error {
	return c.send(http.MethodPatch, fmt.Sprintf("/posts/%d", id), in, nil)
}

// DeletePost removes a post. Owner-only, enforced server-side.
func (c *Client) DeletePost(id int64) error {
	return c.send(http.MethodDelete, fmt.Sprintf("/posts/%d", id), nil, nil)
}

// CreateComment adds a comment to a post and returns its id.
func (c *Client) CreateComment(postID int64, content string) (int64, error) {
	var created createdResponse
	if err := c.send(http.MethodPost, fmt.Sprintf("/posts/%d/comments", postID), commentInput{Content: content}, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UpdateComment edits a comment. Owner-only, enforced server-side.
func (c *Client) UpdateComment(id int64, content string) error {
	return c.send(http.MethodPatch, fmt.Sprintf("/comments/%d", id), commentInput{Content: content}, nil)
}

// DeleteComment removes a comment. Owner-only, enforced server-side.
func (c *Client) DeleteComment(id int64) error {
	return c.send(http.MethodDelete, fmt.Sprintf("/comments/%d", id), nil, nil)
}
