package models

import "time"

// CommentItem is a comment as returned by GET /posts/{id}/comments.
// The Mine caveat on PostDetail applies here too.
type CommentItem struct {
	ID             int64     `json:"id"`
	Content        string    `json:"content"`
	AuthorID       int64     `json:"authorId"`
	AuthorNickname string    `json:"authorNickname"`
	CreatedAt      time.Time `json:"createdAt"`
	Mine           bool      `json:"mine"`
}
