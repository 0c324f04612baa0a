package view

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pictora/pictora/internal/content"
	"github.com/pictora/pictora/internal/entities"
)

// ErrEmptyComment returned before any request when the comment text is blank.
var ErrEmptyComment = errors.New("comment is empty")

// CommentThread is the comment overlay of a single post, newest first.
type CommentThread struct {
	svc    content.Service
	postID string

	comments []*entities.Comment
	onAdded  func()
}

// NewCommentThread creates a thread for postID. onAdded fires after a comment
// was submitted so the owner can bump the post's displayed comment counter;
// it may be nil.
func NewCommentThread(svc content.Service, postID string, onAdded func()) *CommentThread {
	return &CommentThread{svc: svc, postID: postID, onAdded: onAdded}
}

// Load fetches the full thread.
func (t *CommentThread) Load(ctx context.Context) error {
	comments, err := t.svc.ListComments(ctx, t.postID)
	if err != nil {
		return fmt.Errorf("failed to load comments: %w", err)
	}

	t.comments = comments

	return nil
}

// Add submits a comment and prepends it locally, the thread is not refetched.
func (t *CommentThread) Add(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyComment
	}

	comment, err := t.svc.AddComment(ctx, t.postID, text)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}

	t.comments = append([]*entities.Comment{comment}, t.comments...)

	if t.onAdded != nil {
		t.onAdded()
	}

	return nil
}

// Comments ...
func (t *CommentThread) Comments() []*entities.Comment {
	return t.comments
}
