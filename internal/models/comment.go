package models

import (
	"fmt"
	"time"
)

// Comment on a post. Comments are flat; there are no replies.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func NewCommentID(now time.Time) string {
	return fmt.Sprintf("comment_%d", now.UnixMilli())
}
