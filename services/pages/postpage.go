package pages

import (
	"sync"

	"github.com/sourcegraph/conc"

	"bulletin/models"
	"bulletin/services/board"
	"bulletin/services/ownership"
	"bulletin/services/session"
)

// PostPage is the detail page's data: the post, its comments, and the
// resolved viewer. The three reads are independent, so Load runs them
// concurrently; ordering does not matter because ownership checks treat
// "identity not yet resolved" as deny, never as allow.
type PostPage struct {
	client  *board.Client
	session *session.Controller
	postID  int64

	mu       sync.Mutex
	post     models.PostDetail
	comments []models.CommentItem
	viewer   *models.Identity
	closed   bool

	postCtl    submitGuard
	commentCtl submitGuard
}

// NewPostPage creates the detail page state for one post.
func NewPostPage(client *board.Client, sess *session.Controller, postID int64) *PostPage {
	return &PostPage{client: client, session: sess, postID: postID}
}

// Load assembles the page. A failed post read is fatal; a failed comment
// read is not — the page renders with an empty comment list, matching how
// the board treats comments as a best-effort section.
func (p *PostPage) Load() error {
	var (
		post     models.PostDetail
		comments []models.CommentItem
		viewer   *models.Identity
		postErr  error
	)

	var wg conc.WaitGroup
	wg.Go(func() {
		post, postErr = p.client.GetPost(p.postID)
	})
	wg.Go(func() {
		list, err := p.client.ListComments(p.postID, DefaultCommentSize)
		if err != nil {
			return
		}
		comments = list
	})
	wg.Go(func() {
		viewer = p.session.Resolve()
	})
	wg.Wait()

	if postErr != nil {
		return postErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrViewClosed
	}
	p.post = post
	p.comments = comments
	p.viewer = viewer
	return nil
}

// Post is the currently displayed post.
func (p *PostPage) Post() models.PostDetail {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.post
}

// Comments is the currently displayed comment window.
func (p *PostPage) Comments() []models.CommentItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.comments
}

// Viewer is the resolved identity, nil for anonymous.
func (p *PostPage) Viewer() *models.Identity {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewer
}

// CanEditPost reports whether the post's edit/delete controls render.
func (p *PostPage) CanEditPost() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ownership.CanMutate(p.viewer, p.post.AuthorID)
}

// CanEditComment reports whether a comment's edit/delete controls render.
func (p *PostPage) CanEditComment(c models.CommentItem) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return ownership.CanMutate(p.viewer, &c.AuthorID)
}

// UpdatePost edits the post, then refetches the detail so UpdatedAt and
// the ownership flags displayed are the server's.
func (p *PostPage) UpdatePost(in board.PostInput) error {
	if err := p.postCtl.begin(); err != nil {
		return err
	}
	post, replaced, err := performThenReload(
		func() error { return p.client.UpdatePost(p.postID, in) },
		func() (models.PostDetail, error) { return p.client.GetPost(p.postID) },
	)
	p.postCtl.finish(err)
	if replaced {
		p.setPost(post)
	}
	return err
}

// DeletePost removes the post. No reload follows: a successful delete
// navigates away from this page, and the list page refetches on entry.
func (p *PostPage) DeletePost() error {
	if err := p.postCtl.begin(); err != nil {
		return err
	}
	err := p.client.DeletePost(p.postID)
	p.postCtl.finish(err)
	return err
}

// AddComment submits a comment, then reloads the comment window so the new
// entry carries the server's authorNickname and mine values.
func (p *PostPage) AddComment(content string) error {
	return p.commentMutation(func() error {
		_, err := p.client.CreateComment(p.postID, content)
		return err
	})
}

// EditComment edits one comment and reloads the window.
func (p *PostPage) EditComment(id int64, content string) error {
	return p.commentMutation(func() error {
		return p.client.UpdateComment(id, content)
	})
}

// DeleteComment removes one comment and reloads the window.
func (p *PostPage) DeleteComment(id int64) error {
	return p.commentMutation(func() error {
		return p.client.DeleteComment(id)
	})
}

func (p *PostPage) commentMutation(mutate func() error) error {
	if err := p.commentCtl.begin(); err != nil {
		return err
	}
	comments, replaced, err := performThenReload(
		mutate,
		func() ([]models.CommentItem, error) { return p.client.ListComments(p.postID, DefaultCommentSize) },
	)
	p.commentCtl.finish(err)
	if replaced {
		p.setComments(comments)
	}
	return err
}

// PostState exposes the post control's state for rendering.
func (p *PostPage) PostState() SubmitState { return p.postCtl.State() }

// CommentState exposes the comment control's state for rendering.
func (p *PostPage) CommentState() SubmitState { return p.commentCtl.State() }

// CommentErr is the last comment submission's failure, nil after success.
func (p *PostPage) CommentErr() error { return p.commentCtl.Err() }

// Close marks the page as navigated away. In-flight results arriving
// afterwards are discarded instead of applied.
func (p *PostPage) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.postCtl.close()
	p.commentCtl.close()
}

func (p *PostPage) setPost(post models.PostDetail) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.post = post
}

func (p *PostPage) setComments(comments []models.CommentItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.comments = comments
}
