package boardstub

import (
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	errAccountNotFound = errors.New("account not found")
	errBadCredentials  = errors.New("invalid email or password")
	errPostNotFound    = errors.New("post not found")
	errCommentNotFound = errors.New("comment not found")
	errNotOwner        = errors.New("not the owner")
)

type account struct {
	ID           int64
	Email        string
	Nickname     string
	PasswordHash []byte
}

type post struct {
	ID             int64
	Title          string
	Content        string
	AuthorID       int64
	AuthorNickname string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type comment struct {
	ID             int64
	PostID         int64
	Content        string
	AuthorID       int64
	AuthorNickname string
	CreatedAt      time.Time
}

// store holds the stub's world: accounts, posts and comments, all in
// memory. It enforces the same ownership rules the real backend does.
type store struct {
	mu          sync.RWMutex
	accounts    map[string]*account // by email
	accountByID map[int64]*account
	posts       map[int64]*post
	comments    map[int64]*comment
	nextAccount int64
	nextPost    int64
	nextComment int64
}

func newStore() *store {
	return &store{
		accounts:    make(map[string]*account),
		accountByID: make(map[int64]*account),
		posts:       make(map[int64]*post),
		comments:    make(map[int64]*comment),
	}
}

func (s *store) addAccount(email, password, nickname string) (*account, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextAccount++
	acct := &account{
		ID:           s.nextAccount,
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
	}
	s.accounts[email] = acct
	s.accountByID[acct.ID] = acct
	return acct, nil
}

func (s *store) authenticate(email, password string) (*account, error) {
	s.mu.RLock()
	acct, ok := s.accounts[email]
	s.mu.RUnlock()
	if !ok {
		return nil, errBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acct.PasswordHash, []byte(password)); err != nil {
		return nil, errBadCredentials
	}
	return acct, nil
}

func (s *store) accountID(id int64) (*account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.accountByID[id]
	if !ok {
		return nil, errAccountNotFound
	}
	return acct, nil
}

func (s *store) createPost(author *account, title, content string) *post {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextPost++
	now := time.Now().UTC()
	p := &post{
		ID:             s.nextPost,
		Title:          title,
		Content:        content,
		AuthorID:       author.ID,
		AuthorNickname: author.Nickname,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.posts[p.ID] = p
	return p
}

// listPosts returns up to size posts, newest first.
func (s *store) listPosts(size int) []*post {
	s.mu.RLock()
	defer s.mu.RUnlock()
	posts := make([]*post, 0, len(s.posts))
	for _, p := range s.posts {
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		if posts[i].CreatedAt.Equal(posts[j].CreatedAt) {
			return posts[i].ID > posts[j].ID
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	if len(posts) > size {
		posts = posts[:size]
	}
	return posts
}

func (s *store) getPost(id int64) (*post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, errPostNotFound
	}
	return p, nil
}

func (s *store) updatePost(id, requesterID int64, title, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return errPostNotFound
	}
	if p.AuthorID != requesterID {
		return errNotOwner
	}
	p.Title = title
	p.Content = content
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *store) deletePost(id, requesterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return errPostNotFound
	}
	if p.AuthorID != requesterID {
		return errNotOwner
	}
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *store) createComment(postID int64, author *account, content string) (*comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[postID]; !ok {
		return nil, errPostNotFound
	}
	s.nextComment++
	c := &comment{
		ID:             s.nextComment,
		PostID:         postID,
		Content:        content,
		AuthorID:       author.ID,
		AuthorNickname: author.Nickname,
		CreatedAt:      time.Now().UTC(),
	}
	s.comments[c.ID] = c
	return c, nil
}

// listComments returns up to size comments for a post, oldest first.
func (s *store) listComments(postID int64, size int) []*comment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	comments := make([]*comment, 0)
	for _, c := range s.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	sort.Slice(comments, func(i, j int) bool {
		if comments[i].CreatedAt.Equal(comments[j].CreatedAt) {
			return comments[i].ID < comments[j].ID
		}
		return comments[i].CreatedAt.Before(comments[j].CreatedAt)
	})
	if len(comments) > size {
		comments = comments[:size]
	}
	return comments
}

func (s *store) updateComment(id, requesterID int64, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return errCommentNotFound
	}
	if c.AuthorID != requesterID {
		return errNotOwner
	}
	c.Content = content
	return nil
}

func (s *store) deleteComment(id, requesterID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return errCommentNotFound
	}
	if c.AuthorID != requesterID {
		return errNotOwner
	}
	delete(s.comments, id)
	return nil
}
