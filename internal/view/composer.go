package view

import (
	"context"
	"fmt"

	"github.com/pictora/pictora/internal/content"
	"github.com/pictora/pictora/internal/entities"
)

// Composer is the multi-file post creation form.
type Composer struct {
	svc content.Service

	Caption  string
	Location string

	files []content.File
}

// NewComposer ...
func NewComposer(svc content.Service) *Composer {
	return &Composer{svc: svc}
}

// SetFiles replaces the selection. A selection over the file cap is rejected
// here, before any network call.
func (c *Composer) SetFiles(files []content.File) error {
	if len(files) > content.MaxPostFiles {
		return fmt.Errorf("%w: maximum %d files allowed", content.ErrTooManyFiles, content.MaxPostFiles)
	}

	c.files = files

	return nil
}

// RemoveFile drops the file at index i from the selection.
func (c *Composer) RemoveFile(i int) {
	if i < 0 || i >= len(c.files) {
		return
	}

	c.files = append(c.files[:i], c.files[i+1:]...)
}

// Files ...
func (c *Composer) Files() []content.File {
	return c.files
}

// Submit validates the selection and creates the post.
func (c *Composer) Submit(ctx context.Context) (*entities.Post, error) {
	if len(c.files) == 0 {
		return nil, content.ErrNoFiles
	}

	post, err := c.svc.CreatePost(ctx, content.CreatePostParams{
		Caption:  c.Caption,
		Location: c.Location,
		Files:    c.files,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to submit post: %w", err)
	}

	return post, nil
}
