package post

import (
	"errors"
	"time"
)

type Post struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Image     string    `json:"image"`
	OwnerID   string    `json:"ownerId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ListedPost is the read-only listing projection: a post joined
// with its owner's public identity. The password hash is never part
// of the projection.
type ListedPost struct {
	Post
	Owner Owner `json:"user"`
}

type Owner struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

var ErrNotFound = errors.New("post not found")

type CreatePostRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
	Body  string `json:"body" binding:"required,min=1"`
	Image string `json:"image" binding:"required,min=1"`
}

// a full update payload; ownerId is deliberately absent, ownership never moves.
type UpdatePostRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
	Body  string `json:"body" binding:"required,min=1"`
	Image string `json:"image" binding:"required,min=1"`
}
