// Package boardstub is an in-process implementation of the community-board
// REST API, used by end-to-end tests and for local development. It mirrors
// the real backend's contract: jwt bearer auth, server-computed mine flags,
// and owner-only mutation enforcement.
package boardstub

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"bulletin/models"
)

const (
	// DemoEmail / DemoPassword / DemoNickname seed the stub's demo
	// account at startup.
	DemoEmail    = "test@example.com"
	DemoPassword = "pass1234"
	DemoNickname = "tester"

	defaultListSize = 20
	maxTitleLength  = 200
)

// Server is the stub backend. It implements http.Handler.
type Server struct {
	router     *mux.Router
	store      *store
	signingKey []byte
}

// New creates a stub server seeded with the demo account.
func New() *Server {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("boardstub: generate signing key: %v", err))
	}

	s := &Server{
		store:      newStore(),
		signingKey: key,
	}
	if _, err := s.store.addAccount(DemoEmail, DemoPassword, DemoNickname); err != nil {
		panic(fmt.Sprintf("boardstub: seed demo account: %v", err))
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	r.HandleFunc("/posts", s.handleListPosts).Methods(http.MethodGet)
	r.HandleFunc("/posts", s.handleCreatePost).Methods(http.MethodPost)
	r.HandleFunc("/posts/{id}", s.handleGetPost).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}", s.handleUpdatePost).Methods(http.MethodPatch)
	r.HandleFunc("/posts/{id}", s.handleDeletePost).Methods(http.MethodDelete)
	r.HandleFunc("/posts/{id}/comments", s.handleListComments).Methods(http.MethodGet)
	r.HandleFunc("/posts/{id}/comments", s.handleCreateComment).Methods(http.MethodPost)
	r.HandleFunc("/comments/{id}", s.handleUpdateComment).Methods(http.MethodPatch)
	r.HandleFunc("/comments/{id}", s.handleDeleteComment).Methods(http.MethodDelete)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// AddAccount registers an extra account, for tests that need a second
// user or local setups that want more than the demo login.
func (s *Server) AddAccount(email, password, nickname string) error {
	_, err := s.store.addAccount(email, password, nickname)
	return err
}

// issueToken mints a signed jwt for the account. The subject is the user
// id as a string, which is what the real backend emits.
func (s *Server) issueToken(acct *account) (string, error) {
	claims := jwt.MapClaims{
		"sub":      strconv.FormatInt(acct.ID, 10),
		"nickname": acct.Nickname,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

// requester resolves the account behind the request's bearer token, if
// any. An absent or invalid token is simply "anonymous" here; handlers
// that require auth turn that into a 401.
func (s *Server) requester(r *http.Request) *account {
	header := r.Header.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if token == "" || token == header {
		return nil
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil
	}
	acct, err := s.store.accountID(id)
	if err != nil {
		return nil
	}
	return acct
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func sizeParam(r *http.Request, fallback int) int {
	size, err := strconv.Atoi(r.URL.Query().Get("size"))
	if err != nil || size <= 0 {
		return fallback
	}
	return size
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	acct, err := s.store.authenticate(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.issueToken(acct)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": token})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	acct := s.requester(r)
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, models.Identity{ID: acct.ID, Nickname: acct.Nickname})
}

func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	posts := s.store.listPosts(sizeParam(r, defaultListSize))
	items := make([]models.PostListItem, 0, len(posts))
	for _, p := range posts {
		items = append(items, models.PostListItem{ID: p.ID, Title: p.Title, CreatedAt: p.CreatedAt})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	p, err := s.store.getPost(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	// mine is computed against this request's credentials, nothing else.
	acct := s.requester(r)
	authorID := p.AuthorID
	nickname := p.AuthorNickname
	writeJSON(w, http.StatusOK, models.PostDetail{
		ID:             p.ID,
		Title:          p.Title,
		Content:        p.Content,
		AuthorID:       &authorID,
		AuthorNickname: &nickname,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		Mine:           acct != nil && acct.ID == p.AuthorID,
	})
}

type postBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (s *Server) readPostBody(w http.ResponseWriter, r *http.Request) (postBody, bool) {
	var body postBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return body, false
	}
	if strings.TrimSpace(body.Title) == "" || len(body.Title) > maxTitleLength {
		writeError(w, http.StatusBadRequest, "title is required and at most 200 characters")
		return body, false
	}
	if strings.TrimSpace(body.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return body, false
	}
	return body, true
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	acct := s.requester(r)
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	body, ok := s.readPostBody(w, r)
	if !ok {
		return
	}
	p := s.store.createPost(acct, body.Title, body.Content)
	writeJSON(w, http.StatusCreated, map[string]int64{"id": p.ID})
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	acct := s.requester(r)
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	body, ok := s.readPostBody(w, r)
	if !ok {
		return
	}
	if err := s.store.updatePost(id, acct.ID, body.Title, body.Content); err != nil {
		s.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	acct := s.requester(r)
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	if err := s.store.deletePost(id, acct.ID); err != nil {
		s.writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	if _, err := s.store.getPost(id); err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}

	acct := s.requester(r)
	comments := s.store.listComments(id, sizeParam(r, defaultListSize))
	items := make([]models.CommentItem, 0, len(comments))
	for _, c := range comments {
		items = append(items, models.CommentItem{
			ID:             c.ID,
			Content:        c.Content,
			AuthorID:       c.AuthorID,
			AuthorNickname: c.AuthorNickname,
			CreatedAt:      c.CreatedAt,
			Mine:           acct != nil && acct.ID == c.AuthorID,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request) {
	acct := s.requester(r)
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid post id")
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	c, err := s.store.createComment(id, acct, body.Content)
	if err != nil {
		writeError(w, http.StatusNotFound, "post not found")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int64{"id": c.ID})
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request) {
	acct := s.requester(r)
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Content) == "" {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}
	if err := s.store.updateComment(id, acct.ID, body.Content); err != nil {
		s.writeMutationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request) {
	acct := s.requester(r)
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid comment id")
		return
	}
	if err := s.store.deleteComment(id, acct.ID); err != nil {
		s.writeMutationError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeMutationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errNotOwner):
		writeError(w, http.StatusForbidden, "not the owner")
	case errors.Is(err, errPostNotFound), errors.Is(err, errCommentNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
