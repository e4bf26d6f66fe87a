package pages

import (
	"sync"

	"bulletin/models"
	"bulletin/services/board"
)

const (
	// DefaultListSize is the home page's post window.
	DefaultListSize = 20
	// DefaultCommentSize is the comment window on a post page.
	DefaultCommentSize = 50
)

// PostList is the home page's data: the current window of posts plus the
// create-post control.
type PostList struct {
	client *board.Client
	size   int

	mu    sync.Mutex
	items []models.PostListItem

	create submitGuard
}

// NewPostList creates the home page state. size <= 0 uses the default
// window.
func NewPostList(client *board.Client, size int) *PostList {
	if size <= 0 {
		size = DefaultListSize
	}
	return &PostList{client: client, size: size}
}

// Load fetches the initial window. A failed initial read is fatal to the
// page; the caller surfaces a generic failure and offers no retry.
func (p *PostList) Load() error {
	items, err := p.client.ListPosts(p.size)
	if err != nil {
		return err
	}
	p.replace(items)
	return nil
}

// Items is the currently displayed window.
func (p *PostList) Items() []models.PostListItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.items
}

// CreatePost submits a new post, then reloads the list so the new entry
// appears with its server-assigned fields. Returns the new post's id.
func (p *PostList) CreatePost(in board.PostInput) (int64, error) {
	if err := p.create.begin(); err != nil {
		return 0, err
	}

	var id int64
	items, replaced, err := performThenReload(
		func() error {
			var err error
			id, err = p.client.CreatePost(in)
			return err
		},
		func() ([]models.PostListItem, error) { return p.client.ListPosts(p.size) },
	)
	p.create.finish(err)
	if replaced {
		p.replace(items)
	}
	return id, err
}

// CreateState exposes the create control's state for rendering.
func (p *PostList) CreateState() SubmitState { return p.create.State() }

// CreateErr is the last create submission's failure, nil after a success.
func (p *PostList) CreateErr() error { return p.create.Err() }

// Close marks the page as navigated away. In-flight results arriving
// afterwards are discarded instead of applied.
func (p *PostList) Close() { p.create.close() }

func (p *PostList) replace(items []models.PostListItem) {
	if p.create.isClosed() {
		return
	}
	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
}
