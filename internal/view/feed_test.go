package view

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	contentmock "github.com/pictora/pictora/internal/content/mock"
	"github.com/pictora/pictora/internal/entities"
)

func Test_Feed_LoadAndLoadMore(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := contentmock.NewMockService(ctrl)

	svc.EXPECT().ListPosts(gomock.Any(), 2, 0).Return([]*entities.Post{
		{ID: "p1"}, {ID: "p2"},
	}, nil)
	svc.EXPECT().ListPosts(gomock.Any(), 2, 2).Return([]*entities.Post{
		{ID: "p3"},
	}, nil)

	f := NewFeed(svc, 2)

	require.NoError(t, f.Load(context.Background()))
	require.Len(t, f.Posts(), 2)

	require.NoError(t, f.LoadMore(context.Background()))
	require.Len(t, f.Posts(), 3)
	assert.Equal(t, "p3", f.Posts()[2].ID)
}

func Test_Feed_ToggleLike_roundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := contentmock.NewMockService(ctrl)

	svc.EXPECT().ListPosts(gomock.Any(), 20, 0).Return([]*entities.Post{
		{ID: "p1", LikesCount: 5, Liked: false},
	}, nil)
	svc.EXPECT().Like(gomock.Any(), "p1").Return(nil)
	svc.EXPECT().Unlike(gomock.Any(), "p1").Return(nil)

	f := NewFeed(svc, 0)
	require.NoError(t, f.Load(context.Background()))

	post := f.Posts()[0]

	require.NoError(t, f.ToggleLike(context.Background(), "p1"))
	assert.True(t, post.Liked)
	assert.Equal(t, 6, post.LikesCount)

	// unliking returns the counter to its original value
	require.NoError(t, f.ToggleLike(context.Background(), "p1"))
	assert.False(t, post.Liked)
	assert.Equal(t, 5, post.LikesCount)
}

func Test_Feed_ToggleLike_failureKeepsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := contentmock.NewMockService(ctrl)

	svc.EXPECT().ListPosts(gomock.Any(), 20, 0).Return([]*entities.Post{
		{ID: "p1", LikesCount: 5},
	}, nil)
	svc.EXPECT().Like(gomock.Any(), "p1").Return(assert.AnError)

	f := NewFeed(svc, 0)
	require.NoError(t, f.Load(context.Background()))

	require.Error(t, f.ToggleLike(context.Background(), "p1"))

	post := f.Posts()[0]
	assert.False(t, post.Liked)
	assert.Equal(t, 5, post.LikesCount)
}

func Test_Feed_ToggleLike_unknownPost(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := contentmock.NewMockService(ctrl)

	f := NewFeed(svc, 0)

	assert.Error(t, f.ToggleLike(context.Background(), "nope"))
}

func Test_AuthorLabel(t *testing.T) {
	assert.Equal(t, AnonymousLabel, AuthorLabel(&entities.Post{}))
	assert.Equal(t, "jane", AuthorLabel(&entities.Post{Author: &entities.UserProfile{Username: "jane"}}))
	assert.Equal(t, "Jane D", AuthorLabel(&entities.Post{Author: &entities.UserProfile{DisplayName: "Jane D"}}))
	assert.Equal(t, AnonymousLabel, AuthorLabel(&entities.Post{Author: &entities.UserProfile{}}))
}
