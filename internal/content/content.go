package content

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pictora/pictora/internal/backend"
	"github.com/pictora/pictora/internal/entities"
	"github.com/pictora/pictora/internal/session"
)

var log = logrus.WithField("layer", "content")

// DefaultBucket is the object-storage bucket for post and story media.
const DefaultBucket = "pictora-media"

const (
	postsTable    = "posts"
	mediaTable    = "post_media"
	commentsTable = "comments"
	likesTable    = "likes"
	followsTable  = "follows"
	storiesTable  = "stories"
	profilesTable = "user_profiles"
)

type svc struct {
	b      *backend.Client
	s      session.Store
	bucket string
}

// New creates the content service.
func New(b *backend.Client, s session.Store, bucket string) Service {
	return &svc{b: b, s: s, bucket: bucket}
}

func (c *svc) ListPosts(ctx context.Context, limit, offset int) ([]*entities.Post, error) {
	q := backend.NewQuery().
		Order("created_at", backend.DescendingOrder).
		Limit(limit).
		Offset(offset)

	var posts []*entities.Post
	if err := c.b.ListRecords(ctx, postsTable, q, &posts,
		backend.WithRange(offset, limit), backend.WithExactCount()); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	if len(posts) == 0 {
		return posts, nil
	}

	// secondary lookups degrade the page instead of failing it
	c.attachMedia(ctx, posts)
	c.attachAuthors(ctx, posts)
	c.attachLiked(ctx, posts)

	return posts, nil
}

func (c *svc) UserPosts(ctx context.Context, userID string) ([]*entities.Post, error) {
	q := backend.NewQuery().
		Eq("user_id", userID).
		Order("created_at", backend.DescendingOrder)

	var posts []*entities.Post
	if err := c.b.ListRecords(ctx, postsTable, q, &posts); err != nil {
		return nil, fmt.Errorf("failed to list user posts: %w", err)
	}

	if len(posts) > 0 {
		c.attachMedia(ctx, posts)
	}

	return posts, nil
}

type postRow struct {
	UserID   string `json:"user_id"`
	Caption  string `json:"caption,omitempty"`
	Location string `json:"location,omitempty"`
}

type mediaRow struct {
	PostID     string             `json:"post_id"`
	MediaURL   string             `json:"media_url"`
	MediaType  entities.MediaType `json:"media_type"`
	OrderIndex int                `json:"order_index"`
}

func (c *svc) CreatePost(ctx context.Context, p CreatePostParams) (*entities.Post, error) {
	// validated before any request is made
	if len(p.Files) == 0 {
		return nil, ErrNoFiles
	}
	if len(p.Files) > MaxPostFiles {
		return nil, fmt.Errorf("%w: %d files, maximum is %d", ErrTooManyFiles, len(p.Files), MaxPostFiles)
	}

	userID := c.s.UserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	var created []*entities.Post
	if err := c.b.CreateRecords(ctx, postsTable, []postRow{{
		UserID:   userID,
		Caption:  p.Caption,
		Location: p.Location,
	}}, &created); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if len(created) == 0 {
		return nil, fmt.Errorf("backend returned no created post")
	}

	post := created[0]

	// uploads run one after another, a failure mid-loop leaves the post with
	// fewer media rows than files selected, nothing is rolled back
	for i, f := range p.Files {
		name := fmt.Sprintf("%s_%d_%s%s", post.ID, i, uuid.NewString(), filepath.Ext(f.Name))

		obj, err := c.b.UploadObject(ctx, c.bucket, name, f.ContentType, f.Content)
		if err != nil {
			return nil, fmt.Errorf("failed to upload file %d: %w", i, err)
		}

		mediaType := entities.ImageMedia
		if strings.HasPrefix(f.ContentType, "video/") {
			mediaType = entities.VideoMedia
		}

		if err := c.b.CreateRecords(ctx, mediaTable, []mediaRow{{
			PostID:     post.ID,
			MediaURL:   obj.ResolveURL(c.bucket, name),
			MediaType:  mediaType,
			OrderIndex: i,
		}}, nil); err != nil {
			return nil, fmt.Errorf("failed to create media record %d: %w", i, err)
		}
	}

	return post, nil
}

type likeRow struct {
	UserID string `json:"user_id"`
	PostID string `json:"post_id"`
}

func (c *svc) Like(ctx context.Context, postID string) error {
	userID := c.s.UserID()
	if userID == "" {
		return ErrNotAuthenticated
	}

	if err := c.b.CreateRecords(ctx, likesTable, []likeRow{{UserID: userID, PostID: postID}}, nil); err != nil {
		return fmt.Errorf("failed to like post: %w", err)
	}

	return nil
}

func (c *svc) Unlike(ctx context.Context, postID string) error {
	userID := c.s.UserID()
	if userID == "" {
		return ErrNotAuthenticated
	}

	q := backend.NewQuery().Eq("user_id", userID).Eq("post_id", postID)

	if err := c.b.DeleteRecords(ctx, likesTable, q); err != nil {
		return fmt.Errorf("failed to unlike post: %w", err)
	}

	return nil
}

func (c *svc) LikedPosts(ctx context.Context, postIDs []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(postIDs))

	userID := c.s.UserID()
	if userID == "" || len(postIDs) == 0 {
		return out, nil
	}

	q := backend.NewQuery().Eq("user_id", userID).In("post_id", postIDs...)

	var likes []*entities.Like
	if err := c.b.ListRecords(ctx, likesTable, q, &likes); err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}

	for _, l := range likes {
		out[l.PostID] = struct{}{}
	}

	return out, nil
}

func (c *svc) ListComments(ctx context.Context, postID string) ([]*entities.Comment, error) {
	q := backend.NewQuery().
		Eq("post_id", postID).
		Order("created_at", backend.DescendingOrder)

	var comments []*entities.Comment
	if err := c.b.ListRecords(ctx, commentsTable, q, &comments); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	if len(comments) == 0 {
		return comments, nil
	}

	profiles, err := c.profilesByUserID(ctx, commentUserIDs(comments))
	if err != nil {
		log.WithError(err).Warn("failed to get comment authors")
		return comments, nil
	}

	for _, v := range comments {
		v.Author = profiles[v.UserID]
	}

	return comments, nil
}

type commentRow struct {
	PostID  string `json:"post_id"`
	UserID  string `json:"user_id"`
	Content string `json:"content"`
}

func (c *svc) AddComment(ctx context.Context, postID, content string) (*entities.Comment, error) {
	userID := c.s.UserID()
	if userID == "" {
		return nil, ErrNotAuthenticated
	}

	var created []*entities.Comment
	if err := c.b.CreateRecords(ctx, commentsTable, []commentRow{{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}}, &created); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	if len(created) == 0 {
		return nil, fmt.Errorf("backend returned no created comment")
	}

	comment := created[0]

	profiles, err := c.profilesByUserID(ctx, []string{userID})
	if err != nil {
		log.WithError(err).Warn("failed to get own profile for comment")
	} else {
		comment.Author = profiles[userID]
	}

	return comment, nil
}

type followRow struct {
	FollowerID  string                `json:"follower_id"`
	FollowingID string                `json:"following_id"`
	Status      entities.FollowStatus `json:"status"`
}

func (c *svc) IsFollowing(ctx context.Context, userID string) (bool, error) {
	followerID := c.s.UserID()
	if followerID == "" || followerID == userID {
		return false, nil
	}

	q := backend.NewQuery().Eq("follower_id", followerID).Eq("following_id", userID)

	var follows []*entities.Follow
	if err := c.b.ListRecords(ctx, followsTable, q, &follows); err != nil {
		return false, fmt.Errorf("failed to check follow status: %w", err)
	}

	return len(follows) > 0, nil
}

func (c *svc) Follow(ctx context.Context, userID string) error {
	followerID := c.s.UserID()
	if followerID == "" {
		return ErrNotAuthenticated
	}

	if err := c.b.CreateRecords(ctx, followsTable, []followRow{{
		FollowerID:  followerID,
		FollowingID: userID,
		Status:      entities.ActiveFollow,
	}}, nil); err != nil {
		return fmt.Errorf("failed to follow: %w", err)
	}

	return nil
}

func (c *svc) Unfollow(ctx context.Context, userID string) error {
	followerID := c.s.UserID()
	if followerID == "" {
		return ErrNotAuthenticated
	}

	q := backend.NewQuery().Eq("follower_id", followerID).Eq("following_id", userID)

	if err := c.b.DeleteRecords(ctx, followsTable, q); err != nil {
		return fmt.Errorf("failed to unfollow: %w", err)
	}

	return nil
}

func (c *svc) ActiveStories(ctx context.Context) ([]*entities.Story, error) {
	q := backend.NewQuery().Order("created_at", backend.DescendingOrder)

	var stories []*entities.Story
	if err := c.b.ListRecords(ctx, storiesTable, q, &stories); err != nil {
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	// the record endpoint has no comparison predicates, expiry is filtered here
	now := time.Now()
	active := stories[:0]
	for _, v := range stories {
		if v.ExpiresAt.After(now) {
			active = append(active, v)
		}
	}

	if len(active) == 0 {
		return []*entities.Story{}, nil
	}

	ids := make([]string, 0, len(active))
	seen := make(map[string]struct{}, len(active))
	for _, v := range active {
		if _, ok := seen[v.UserID]; !ok {
			ids = append(ids, v.UserID)
			seen[v.UserID] = struct{}{}
		}
	}

	profiles, err := c.profilesByUserID(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("failed to get story authors")
		return active, nil
	}

	for _, v := range active {
		v.Author = profiles[v.UserID]
	}

	return active, nil
}

// attachMedia loads media for all posts in one lookup and attaches them sorted
// by order index. A post with no media rows gets an empty list.
func (c *svc) attachMedia(ctx context.Context, posts []*entities.Post) {
	ids := make([]string, len(posts))
	for i, v := range posts {
		ids[i] = v.ID
		v.Media = []*entities.PostMedia{}
	}

	var media []*entities.PostMedia
	if err := c.b.ListRecords(ctx, mediaTable, backend.NewQuery().In("post_id", ids...), &media); err != nil {
		log.WithError(err).Warn("failed to get post media")
		return
	}

	byPost := make(map[string][]*entities.PostMedia, len(posts))
	for _, m := range media {
		byPost[m.PostID] = append(byPost[m.PostID], m)
	}

	for _, p := range posts {
		ms := byPost[p.ID]
		sort.Slice(ms, func(i, j int) bool { return ms[i].OrderIndex < ms[j].OrderIndex })
		if ms != nil {
			p.Media = ms
		}
	}
}

// attachAuthors loads author profiles for all posts in one lookup. A post
// whose author has no profile keeps a nil Author.
func (c *svc) attachAuthors(ctx context.Context, posts []*entities.Post) {
	ids := make([]string, 0, len(posts))
	seen := make(map[string]struct{}, len(posts))
	for _, v := range posts {
		if _, ok := seen[v.UserID]; !ok {
			ids = append(ids, v.UserID)
			seen[v.UserID] = struct{}{}
		}
	}

	profiles, err := c.profilesByUserID(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("failed to get post authors")
		return
	}

	for _, v := range posts {
		v.Author = profiles[v.UserID]
	}
}

// attachLiked marks posts liked by the current user. Skipped when nobody is
// signed in, degraded when the lookup fails.
func (c *svc) attachLiked(ctx context.Context, posts []*entities.Post) {
	if c.s.UserID() == "" {
		return
	}

	ids := make([]string, len(posts))
	for i, v := range posts {
		ids[i] = v.ID
	}

	liked, err := c.LikedPosts(ctx, ids)
	if err != nil {
		log.WithError(err).Warn("failed to get likes")
		return
	}

	for _, v := range posts {
		_, v.Liked = liked[v.ID]
	}
}

func (c *svc) profilesByUserID(ctx context.Context, userIDs []string) (map[string]*entities.UserProfile, error) {
	var profiles []*entities.UserProfile
	if err := c.b.ListRecords(ctx, profilesTable, backend.NewQuery().In("user_id", userIDs...), &profiles); err != nil {
		return nil, err
	}

	out := make(map[string]*entities.UserProfile, len(profiles))
	for _, v := range profiles {
		out[v.UserID] = v
	}

	return out, nil
}

func commentUserIDs(comments []*entities.Comment) []string {
	out := make([]string, 0, len(comments))
	seen := make(map[string]struct{}, len(comments))

	for _, v := range comments {
		if _, ok := seen[v.UserID]; !ok {
			out = append(out, v.UserID)
			seen[v.UserID] = struct{}{}
		}
	}

	return out
}
