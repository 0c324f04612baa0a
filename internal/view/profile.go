package view

import (
	"context"
	"fmt"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/content"
	"github.com/pictora/pictora/internal/entities"
)

// Tab ...
type Tab string

const (
	// PostsTab ...
	PostsTab Tab = "posts"
	// ReelsTab is enumerated for the header but has no content source yet.
	ReelsTab Tab = "reels"
	// SavedTab is enumerated for the header but has no content source yet.
	SavedTab Tab = "saved"
)

// ProfileView is the profile page: header, follow toggle and the posts grid.
type ProfileView struct {
	auth    auth.Service
	content content.Service
	userID  string

	profile   *entities.UserProfile
	posts     []*entities.Post
	following bool
	tab       Tab
}

// NewProfileView ...
func NewProfileView(a auth.Service, c content.Service, userID string) *ProfileView {
	return &ProfileView{auth: a, content: c, userID: userID, tab: PostsTab}
}

// Load fetches the profile header, the posts grid and the follow state.
// The follow check degrades silently, the header and grid do not.
func (v *ProfileView) Load(ctx context.Context) error {
	profile, err := v.auth.Profile(ctx, v.userID)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}

	posts, err := v.content.UserPosts(ctx, v.userID)
	if err != nil {
		return fmt.Errorf("failed to load profile posts: %w", err)
	}

	following, err := v.content.IsFollowing(ctx, v.userID)
	if err != nil {
		log.WithError(err).Warn("failed to check follow status")
		following = false
	}

	v.profile, v.posts, v.following = profile, posts, following

	return nil
}

// ToggleFollow follows or unfollows the profile owner and adjusts the
// displayed followers counter optimistically.
func (v *ProfileView) ToggleFollow(ctx context.Context) error {
	if v.profile == nil {
		return fmt.Errorf("profile is not loaded")
	}

	if v.following {
		if err := v.content.Unfollow(ctx, v.userID); err != nil {
			return fmt.Errorf("failed to unfollow: %w", err)
		}

		v.following = false
		v.profile.FollowersCount--

		return nil
	}

	if err := v.content.Follow(ctx, v.userID); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}

	v.following = true
	v.profile.FollowersCount++

	return nil
}

// SelectTab ...
func (v *ProfileView) SelectTab(t Tab) { v.tab = t }

// Tab ...
func (v *ProfileView) Tab() Tab { return v.tab }

// Profile ...
func (v *ProfileView) Profile() *entities.UserProfile { return v.profile }

// Posts returns the posts grid content. Only the posts tab has content.
func (v *ProfileView) Posts() []*entities.Post {
	if v.tab != PostsTab {
		return nil
	}

	return v.posts
}

// Following ...
func (v *ProfileView) Following() bool { return v.following }
