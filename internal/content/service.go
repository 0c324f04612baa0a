// Package content contains the content access layer: posts, media, comments,
// likes, follows and stories.
package content

import (
	"context"
	"errors"
	"io"

	"github.com/pictora/pictora/internal/entities"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

// MaxPostFiles is the hard cap of media files per post.
const MaxPostFiles = 10

// ErrNotAuthenticated returned when a mutation requires a signed-in user.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrNoFiles ...
var ErrNoFiles = errors.New("at least one file is required")

// ErrTooManyFiles ...
var ErrTooManyFiles = errors.New("too many files")

// File is a media file selected for upload.
type File struct {
	Name        string
	ContentType string
	Content     io.Reader
}

// CreatePostParams ...
type CreatePostParams struct {
	Caption  string
	Location string
	Files    []File
}

// Service ...
type Service interface {
	ListPosts(ctx context.Context, limit, offset int) ([]*entities.Post, error)
	UserPosts(ctx context.Context, userID string) ([]*entities.Post, error)
	CreatePost(ctx context.Context, p CreatePostParams) (*entities.Post, error)

	Like(ctx context.Context, postID string) error
	Unlike(ctx context.Context, postID string) error
	LikedPosts(ctx context.Context, postIDs []string) (map[string]struct{}, error)

	ListComments(ctx context.Context, postID string) ([]*entities.Comment, error)
	AddComment(ctx context.Context, postID, content string) (*entities.Comment, error)

	IsFollowing(ctx context.Context, userID string) (bool, error)
	Follow(ctx context.Context, userID string) error
	Unfollow(ctx context.Context, userID string) error

	ActiveStories(ctx context.Context) ([]*entities.Story, error)
}
