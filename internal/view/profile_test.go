package view

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authmock "github.com/pictora/pictora/internal/auth/mock"
	contentmock "github.com/pictora/pictora/internal/content/mock"
	"github.com/pictora/pictora/internal/entities"
)

func Test_ProfileView_Load(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	a := authmock.NewMockService(ctrl)
	c := contentmock.NewMockService(ctrl)

	a.EXPECT().Profile(gomock.Any(), "u2").Return(&entities.UserProfile{
		UserID: "u2", Username: "jane", FollowersCount: 10,
	}, nil)
	c.EXPECT().UserPosts(gomock.Any(), "u2").Return([]*entities.Post{{ID: "p1"}}, nil)
	c.EXPECT().IsFollowing(gomock.Any(), "u2").Return(false, nil)

	v := NewProfileView(a, c, "u2")
	require.NoError(t, v.Load(context.Background()))

	assert.Equal(t, "jane", v.Profile().Username)
	assert.Len(t, v.Posts(), 1)
	assert.False(t, v.Following())
	assert.Equal(t, PostsTab, v.Tab())
}

func Test_ProfileView_followCheckDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	a := authmock.NewMockService(ctrl)
	c := contentmock.NewMockService(ctrl)

	a.EXPECT().Profile(gomock.Any(), "u2").Return(&entities.UserProfile{UserID: "u2"}, nil)
	c.EXPECT().UserPosts(gomock.Any(), "u2").Return(nil, nil)
	c.EXPECT().IsFollowing(gomock.Any(), "u2").Return(false, assert.AnError)

	v := NewProfileView(a, c, "u2")
	require.NoError(t, v.Load(context.Background()))

	assert.False(t, v.Following())
}

func Test_ProfileView_ToggleFollow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	a := authmock.NewMockService(ctrl)
	c := contentmock.NewMockService(ctrl)

	a.EXPECT().Profile(gomock.Any(), "u2").Return(&entities.UserProfile{
		UserID: "u2", FollowersCount: 10,
	}, nil)
	c.EXPECT().UserPosts(gomock.Any(), "u2").Return(nil, nil)
	c.EXPECT().IsFollowing(gomock.Any(), "u2").Return(false, nil)
	c.EXPECT().Follow(gomock.Any(), "u2").Return(nil)
	c.EXPECT().Unfollow(gomock.Any(), "u2").Return(nil)

	v := NewProfileView(a, c, "u2")
	require.NoError(t, v.Load(context.Background()))

	require.NoError(t, v.ToggleFollow(context.Background()))
	assert.True(t, v.Following())
	assert.Equal(t, 11, v.Profile().FollowersCount)

	require.NoError(t, v.ToggleFollow(context.Background()))
	assert.False(t, v.Following())
	assert.Equal(t, 10, v.Profile().FollowersCount)
}

func Test_ProfileView_tabs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	a := authmock.NewMockService(ctrl)
	c := contentmock.NewMockService(ctrl)

	a.EXPECT().Profile(gomock.Any(), "u2").Return(&entities.UserProfile{UserID: "u2"}, nil)
	c.EXPECT().UserPosts(gomock.Any(), "u2").Return([]*entities.Post{{ID: "p1"}}, nil)
	c.EXPECT().IsFollowing(gomock.Any(), "u2").Return(false, nil)

	v := NewProfileView(a, c, "u2")
	require.NoError(t, v.Load(context.Background()))

	v.SelectTab(ReelsTab)
	assert.Empty(t, v.Posts())

	v.SelectTab(PostsTab)
	assert.Len(t, v.Posts(), 1)
}

func Test_Carousel(t *testing.T) {
	post := &entities.Post{Media: []*entities.PostMedia{
		{ID: "m1", OrderIndex: 0},
		{ID: "m2", OrderIndex: 1},
	}}

	c := NewCarousel(post)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "m1", c.Current().ID)

	assert.False(t, c.Prev())
	assert.True(t, c.Next())
	assert.Equal(t, "m2", c.Current().ID)
	assert.False(t, c.Next())
	assert.True(t, c.Prev())
	assert.Equal(t, "m1", c.Current().ID)

	empty := NewCarousel(&entities.Post{})
	assert.Nil(t, empty.Current())
	assert.False(t, empty.Next())
}
