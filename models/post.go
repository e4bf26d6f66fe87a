package models

import "time"

// PostListItem is the compact post form returned by GET /posts.
type PostListItem struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostDetail is the full post form returned by GET /posts/{id}.
//
// AuthorID and AuthorNickname are null for anonymous-authored legacy posts.
// Mine is computed by the server from the request's Authorization header, so
// it can be false on an unauthenticated read even when the viewer owns the
// post. Ownership decisions use AuthorID, never Mine alone.
type PostDetail struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	AuthorID       *int64    `json:"authorId"`
	AuthorNickname *string   `json:"authorNickname"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	Mine           bool      `json:"mine"`
}

// Edited reports whether the post has been modified since creation.
func (p PostDetail) Edited() bool {
	return p.UpdatedAt.After(p.CreatedAt)
}
