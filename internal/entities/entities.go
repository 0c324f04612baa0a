// Package entities contains main entities of the client.
package entities

import (
	"time"
)

// MediaType ...
type MediaType string

const (
	// ImageMedia ...
	ImageMedia MediaType = "image"
	// VideoMedia ...
	VideoMedia MediaType = "video"
)

// FollowStatus ...
type FollowStatus string

const (
	// ActiveFollow ...
	ActiveFollow FollowStatus = "active"
	// PendingFollow is reserved for private profiles and is never created by this client.
	PendingFollow FollowStatus = "pending"
)

// User ...
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	EmailVerified bool      `json:"email_verified,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// UserProfile ...
type UserProfile struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Username          string    `json:"username"`
	DisplayName       string    `json:"display_name,omitempty"`
	Bio               string    `json:"bio,omitempty"`
	ProfilePictureURL string    `json:"profile_picture_url,omitempty"`
	IsPrivate         bool      `json:"is_private"`
	FollowersCount    int       `json:"followers_count"`
	FollowingCount    int       `json:"following_count"`
	PostsCount        int       `json:"posts_count"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Post is a backend post record. Media, Author and Liked are attached
// client-side and are never sent back to the backend.
type Post struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	Caption       string    `json:"caption,omitempty"`
	Location      string    `json:"location,omitempty"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	IsArchived    bool      `json:"is_archived"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Media  []*PostMedia `json:"-"`
	Author *UserProfile `json:"-"`
	Liked  bool         `json:"-"`
}

// PostMedia ...
type PostMedia struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	MediaURL   string    `json:"media_url"`
	MediaType  MediaType `json:"media_type"`
	OrderIndex int       `json:"order_index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Comment ...
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Author *UserProfile `json:"-"`
}

// Like is a directed edge from a user to a post.
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PostID    string    `json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Follow is a directed edge between two users.
type Follow struct {
	ID          string       `json:"id"`
	FollowerID  string       `json:"follower_id"`
	FollowingID string       `json:"following_id"`
	Status      FollowStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Story ...
type Story struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	MediaURL   string    `json:"media_url"`
	MediaType  MediaType `json:"media_type"`
	Caption    string    `json:"caption,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`
	ViewsCount int       `json:"views_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Author *UserProfile `json:"-"`
}
