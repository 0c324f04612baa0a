// Package view contains UI-free view-model state: the feed, comment threads,
// the media carousel, the post composer and the profile page. Rendering and
// routing stay outside, these types only hold local state and drive the
// access layers.
package view

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/pictora/pictora/internal/content"
	"github.com/pictora/pictora/internal/entities"
)

var log = logrus.WithField("layer", "view")

// AnonymousLabel is rendered for a post whose author profile is missing.
const AnonymousLabel = "Anonymous"

const defaultPageSize = 20

// AuthorLabel returns the display label for a post author.
func AuthorLabel(p *entities.Post) string {
	if p.Author == nil {
		return AnonymousLabel
	}

	switch {
	case p.Author.Username != "":
		return p.Author.Username
	case p.Author.DisplayName != "":
		return p.Author.DisplayName
	default:
		return AnonymousLabel
	}
}

// Feed is the paged home feed.
type Feed struct {
	svc content.Service

	pageSize int
	posts    []*entities.Post
	offset   int
}

// NewFeed ...
func NewFeed(svc content.Service, pageSize int) *Feed {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &Feed{svc: svc, pageSize: pageSize}
}

// Load fetches the first page, replacing any loaded state.
func (f *Feed) Load(ctx context.Context) error {
	posts, err := f.svc.ListPosts(ctx, f.pageSize, 0)
	if err != nil {
		return fmt.Errorf("failed to load feed: %w", err)
	}

	f.posts, f.offset = posts, len(posts)

	return nil
}

// LoadMore appends the next page.
func (f *Feed) LoadMore(ctx context.Context) error {
	posts, err := f.svc.ListPosts(ctx, f.pageSize, f.offset)
	if err != nil {
		return fmt.Errorf("failed to load more posts: %w", err)
	}

	f.posts = append(f.posts, posts...)
	f.offset += len(posts)

	return nil
}

// Posts ...
func (f *Feed) Posts() []*entities.Post {
	return f.posts
}

// ToggleLike likes or unlikes the post and adjusts the displayed counter
// optimistically. The backend counter is not re-read.
func (f *Feed) ToggleLike(ctx context.Context, postID string) error {
	var post *entities.Post
	for _, v := range f.posts {
		if v.ID == postID {
			post = v
			break
		}
	}

	if post == nil {
		return fmt.Errorf("post %s is not loaded", postID)
	}

	if post.Liked {
		if err := f.svc.Unlike(ctx, postID); err != nil {
			return fmt.Errorf("failed to unlike: %w", err)
		}

		post.Liked = false
		post.LikesCount--

		return nil
	}

	if err := f.svc.Like(ctx, postID); err != nil {
		return fmt.Errorf("failed to like: %w", err)
	}

	post.Liked = true
	post.LikesCount++

	return nil
}
