package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pictora/pictora/internal/backend"
	"github.com/pictora/pictora/internal/session"
)

// fakeBackend is a scriptable record/storage endpoint.
type fakeBackend struct {
	mu       sync.Mutex
	requests []string
	handlers map[string]http.HandlerFunc
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{handlers: map[string]http.HandlerFunc{}}
}

func (f *fakeBackend) on(method, path string, h http.HandlerFunc) {
	f.handlers[method+" "+path] = h
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Method+" "+r.URL.Path)
	f.mu.Unlock()

	if h, ok := f.handlers[r.Method+" "+r.URL.Path]; ok {
		h(w, r)
		return
	}

	http.Error(w, fmt.Sprintf("unexpected request %s %s", r.Method, r.URL.Path), http.StatusNotImplemented)
}

func (f *fakeBackend) requestLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.requests))
	copy(out, f.requests)

	return out
}

func newTestService(t *testing.T, f *fakeBackend, userID string) Service {
	t.Helper()

	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)

	store := &session.MemStore{}
	if userID != "" {
		require.NoError(t, store.Set("token-1", userID))
	}

	return New(backend.New(srv.URL, store), store, DefaultBucket)
}

func Test_ListPosts_joinsMediaProfilesAndLikes(t *testing.T) {
	f := newFakeBackend()

	f.on(http.MethodGet, "/database/records/posts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))
		assert.Equal(t, "0-19", r.Header.Get("Range"))
		assert.Equal(t, "count=exact", r.Header.Get("Prefer"))

		w.Write([]byte(`[
			{"id":"p1","user_id":"u1","caption":"first","likes_count":3},
			{"id":"p2","user_id":"u2","caption":"second"}
		]`))
	})

	f.on(http.MethodGet, "/database/records/post_media", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "in.(p1,p2)", r.URL.Query().Get("post_id"))

		// deliberately out of display order
		w.Write([]byte(`[
			{"id":"m3","post_id":"p1","media_url":"/3.jpg","media_type":"image","order_index":2},
			{"id":"m1","post_id":"p1","media_url":"/1.jpg","media_type":"image","order_index":0},
			{"id":"m2","post_id":"p1","media_url":"/2.mp4","media_type":"video","order_index":1}
		]`))
	})

	f.on(http.MethodGet, "/database/records/user_profiles", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "in.(u1,u2)", r.URL.Query().Get("user_id"))

		// u2 has no profile row
		w.Write([]byte(`[{"id":"pr1","user_id":"u1","username":"jane"}]`))
	})

	f.on(http.MethodGet, "/database/records/likes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.viewer", r.URL.Query().Get("user_id"))
		assert.Equal(t, "in.(p1,p2)", r.URL.Query().Get("post_id"))

		w.Write([]byte(`[{"id":"l1","user_id":"viewer","post_id":"p2"}]`))
	})

	s := newTestService(t, f, "viewer")

	posts, err := s.ListPosts(context.Background(), 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	p1, p2 := posts[0], posts[1]

	// media attached sorted by order index
	require.Len(t, p1.Media, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{p1.Media[0].OrderIndex, p1.Media[1].OrderIndex, p1.Media[2].OrderIndex})

	// a post with no media rows gets an empty list, not nil
	require.NotNil(t, p2.Media)
	assert.Empty(t, p2.Media)

	require.NotNil(t, p1.Author)
	assert.Equal(t, "jane", p1.Author.Username)
	assert.Nil(t, p2.Author)

	assert.False(t, p1.Liked)
	assert.True(t, p2.Liked)
}

func Test_ListPosts_secondaryLookupFailuresDegrade(t *testing.T) {
	f := newFakeBackend()

	f.on(http.MethodGet, "/database/records/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"p1","user_id":"u1"}]`))
	})
	f.on(http.MethodGet, "/database/records/post_media", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	f.on(http.MethodGet, "/database/records/user_profiles", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	f.on(http.MethodGet, "/database/records/likes", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	s := newTestService(t, f, "viewer")

	posts, err := s.ListPosts(context.Background(), 20, 0)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.Empty(t, posts[0].Media)
	assert.Nil(t, posts[0].Author)
	assert.False(t, posts[0].Liked)
}

func Test_ListPosts_primaryFailureAborts(t *testing.T) {
	f := newFakeBackend()

	f.on(http.MethodGet, "/database/records/posts", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	s := newTestService(t, f, "viewer")

	_, err := s.ListPosts(context.Background(), 20, 0)
	assert.Error(t, err)
}

func Test_CreatePost_sequentialUploads(t *testing.T) {
	f := newFakeBackend()

	var mediaRows []map[string]interface{}

	f.on(http.MethodPost, "/database/records/posts", func(w http.ResponseWriter, r *http.Request) {
		var rows []map[string]interface{}
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "user-1", rows[0]["user_id"])
		assert.Equal(t, "hello", rows[0]["caption"])

		w.Write([]byte(`[{"id":"post-1","user_id":"user-1","caption":"hello"}]`))
	})

	f.on(http.MethodPost, "/storage/buckets/pictora-media/objects", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"url":"https://cdn/obj"}`))
	})

	f.on(http.MethodPost, "/database/records/post_media", func(w http.ResponseWriter, r *http.Request) {
		var rows []map[string]interface{}
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &rows))
		mediaRows = append(mediaRows, rows...)

		w.Write([]byte(`[{"id":"m"}]`))
	})

	s := newTestService(t, f, "user-1")

	post, err := s.CreatePost(context.Background(), CreatePostParams{
		Caption: "hello",
		Files: []File{
			{Name: "a.jpg", ContentType: "image/jpeg", Content: strings.NewReader("a")},
			{Name: "b.mp4", ContentType: "video/mp4", Content: strings.NewReader("b")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "post-1", post.ID)

	// post first, then upload and media record per file, in selection order
	assert.Equal(t, []string{
		"POST /database/records/posts",
		"POST /storage/buckets/pictora-media/objects",
		"POST /database/records/post_media",
		"POST /storage/buckets/pictora-media/objects",
		"POST /database/records/post_media",
	}, f.requestLog())

	require.Len(t, mediaRows, 2)
	assert.EqualValues(t, 0, mediaRows[0]["order_index"])
	assert.Equal(t, "image", mediaRows[0]["media_type"])
	assert.Equal(t, "https://cdn/obj", mediaRows[0]["media_url"])
	assert.EqualValues(t, 1, mediaRows[1]["order_index"])
	assert.Equal(t, "video", mediaRows[1]["media_type"])
}

func Test_CreatePost_partialFailureLeavesCreatedRows(t *testing.T) {
	f := newFakeBackend()

	uploads := 0
	mediaCreations := 0

	f.on(http.MethodPost, "/database/records/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"post-1","user_id":"user-1"}]`))
	})
	f.on(http.MethodPost, "/storage/buckets/pictora-media/objects", func(w http.ResponseWriter, r *http.Request) {
		uploads++
		if uploads == 2 {
			http.Error(w, "storage down", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"url":"https://cdn/obj"}`))
	})
	f.on(http.MethodPost, "/database/records/post_media", func(w http.ResponseWriter, r *http.Request) {
		mediaCreations++
		w.Write([]byte(`[{"id":"m"}]`))
	})

	s := newTestService(t, f, "user-1")

	_, err := s.CreatePost(context.Background(), CreatePostParams{
		Files: []File{
			{Name: "a.jpg", ContentType: "image/jpeg", Content: strings.NewReader("a")},
			{Name: "b.jpg", ContentType: "image/jpeg", Content: strings.NewReader("b")},
			{Name: "c.jpg", ContentType: "image/jpeg", Content: strings.NewReader("c")},
		},
	})
	require.Error(t, err)

	// the first media row stays, nothing is rolled back and nothing follows the failure
	assert.Equal(t, 2, uploads)
	assert.Equal(t, 1, mediaCreations)

	for _, req := range f.requestLog() {
		assert.NotContains(t, req, "DELETE")
	}
}

func Test_CreatePost_fileCapRejectedBeforeAnyRequest(t *testing.T) {
	f := newFakeBackend()
	s := newTestService(t, f, "user-1")

	files := make([]File, MaxPostFiles+1)
	for i := range files {
		files[i] = File{Name: "a.jpg", ContentType: "image/jpeg", Content: strings.NewReader("a")}
	}

	_, err := s.CreatePost(context.Background(), CreatePostParams{Files: files})
	require.ErrorIs(t, err, ErrTooManyFiles)

	assert.Empty(t, f.requestLog())
}

func Test_CreatePost_requiresFilesAndUser(t *testing.T) {
	f := newFakeBackend()

	_, err := newTestService(t, f, "user-1").CreatePost(context.Background(), CreatePostParams{})
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = newTestService(t, f, "").CreatePost(context.Background(), CreatePostParams{
		Files: []File{{Name: "a.jpg", ContentType: "image/jpeg", Content: strings.NewReader("a")}},
	})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Empty(t, f.requestLog())
}

func Test_Like_Unlike(t *testing.T) {
	f := newFakeBackend()

	var likeRows []map[string]interface{}

	f.on(http.MethodPost, "/database/records/likes", func(w http.ResponseWriter, r *http.Request) {
		var rows []map[string]interface{}
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &rows))
		likeRows = append(likeRows, rows...)

		w.Write([]byte(`[{"id":"l1"}]`))
	})
	f.on(http.MethodDelete, "/database/records/likes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "eq.p1", r.URL.Query().Get("post_id"))
		w.Write([]byte(`[]`))
	})

	s := newTestService(t, f, "user-1")

	require.NoError(t, s.Like(context.Background(), "p1"))
	require.Len(t, likeRows, 1)
	assert.Equal(t, "user-1", likeRows[0]["user_id"])
	assert.Equal(t, "p1", likeRows[0]["post_id"])

	require.NoError(t, s.Unlike(context.Background(), "p1"))
}

func Test_LikedPosts(t *testing.T) {
	f := newFakeBackend()

	f.on(http.MethodGet, "/database/records/likes", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("user_id"))
		assert.Equal(t, "in.(p1,p2,p3)", r.URL.Query().Get("post_id"))

		w.Write([]byte(`[{"post_id":"p1"},{"post_id":"p3"}]`))
	})

	s := newTestService(t, f, "user-1")

	liked, err := s.LikedPosts(context.Background(), []string{"p1", "p2", "p3"})
	require.NoError(t, err)

	assert.Contains(t, liked, "p1")
	assert.NotContains(t, liked, "p2")
	assert.Contains(t, liked, "p3")
}

func Test_LikedPosts_anonymousViewer(t *testing.T) {
	f := newFakeBackend()
	s := newTestService(t, f, "")

	liked, err := s.LikedPosts(context.Background(), []string{"p1"})
	require.NoError(t, err)

	assert.Empty(t, liked)
	assert.Empty(t, f.requestLog())
}

func Test_ListComments_enrichesAuthors(t *testing.T) {
	f := newFakeBackend()

	f.on(http.MethodGet, "/database/records/comments", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.p1", r.URL.Query().Get("post_id"))
		assert.Equal(t, "created_at.desc", r.URL.Query().Get("order"))

		w.Write([]byte(`[
			{"id":"c2","post_id":"p1","user_id":"u2","content":"newer"},
			{"id":"c1","post_id":"p1","user_id":"u1","content":"older"}
		]`))
	})
	f.on(http.MethodGet, "/database/records/user_profiles", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "in.(u2,u1)", r.URL.Query().Get("user_id"))

		w.Write([]byte(`[{"id":"pr1","user_id":"u1","username":"jane"}]`))
	})

	s := newTestService(t, f, "viewer")

	comments, err := s.ListComments(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, "newer", comments[0].Content)
	assert.Nil(t, comments[0].Author)
	require.NotNil(t, comments[1].Author)
	assert.Equal(t, "jane", comments[1].Author.Username)
}

func Test_AddComment(t *testing.T) {
	f := newFakeBackend()

	f.on(http.MethodPost, "/database/records/comments", func(w http.ResponseWriter, r *http.Request) {
		var rows []map[string]interface{}
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "p1", rows[0]["post_id"])
		assert.Equal(t, "user-1", rows[0]["user_id"])
		assert.Equal(t, "nice shot", rows[0]["content"])

		w.Write([]byte(`[{"id":"c1","post_id":"p1","user_id":"user-1","content":"nice shot"}]`))
	})
	f.on(http.MethodGet, "/database/records/user_profiles", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"pr1","user_id":"user-1","username":"jane"}]`))
	})

	s := newTestService(t, f, "user-1")

	comment, err := s.AddComment(context.Background(), "p1", "nice shot")
	require.NoError(t, err)

	assert.Equal(t, "c1", comment.ID)
	require.NotNil(t, comment.Author)
	assert.Equal(t, "jane", comment.Author.Username)
}

func Test_FollowEdgeOperations(t *testing.T) {
	f := newFakeBackend()

	var followRows []map[string]interface{}

	f.on(http.MethodGet, "/database/records/follows", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eq.user-1", r.URL.Query().Get("follower_id"))
		assert.Equal(t, "eq.u2", r.URL.Query().Get("following_id"))
		w.Write([]byte(`[{"id":"f1","status":"active"}]`))
	})
	f.on(http.MethodPost, "/database/records/follows", func(w http.ResponseWriter, r *http.Request) {
		var rows []map[string]interface{}
		b, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(b, &rows))
		followRows = append(followRows, rows...)
		w.Write([]byte(`[{"id":"f1"}]`))
	})
	f.on(http.MethodDelete, "/database/records/follows", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})

	s := newTestService(t, f, "user-1")

	following, err := s.IsFollowing(context.Background(), "u2")
	require.NoError(t, err)
	assert.True(t, following)

	require.NoError(t, s.Follow(context.Background(), "u2"))
	require.Len(t, followRows, 1)
	assert.Equal(t, "user-1", followRows[0]["follower_id"])
	assert.Equal(t, "u2", followRows[0]["following_id"])
	assert.Equal(t, "active", followRows[0]["status"])

	require.NoError(t, s.Unfollow(context.Background(), "u2"))
}

func Test_IsFollowing_selfOrAnonymous(t *testing.T) {
	f := newFakeBackend()

	following, err := newTestService(t, f, "user-1").IsFollowing(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, following)

	following, err = newTestService(t, f, "").IsFollowing(context.Background(), "u2")
	require.NoError(t, err)
	assert.False(t, following)

	assert.Empty(t, f.requestLog())
}

func Test_ActiveStories(t *testing.T) {
	f := newFakeBackend()

	future := time.Now().Add(time.Hour).Format(time.RFC3339)
	past := time.Now().Add(-time.Hour).Format(time.RFC3339)

	f.on(http.MethodGet, "/database/records/stories", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `[
			{"id":"s1","user_id":"u1","media_url":"/s1.jpg","media_type":"image","expires_at":"%s"},
			{"id":"s2","user_id":"u2","media_url":"/s2.jpg","media_type":"image","expires_at":"%s"}
		]`, future, past)
	})
	f.on(http.MethodGet, "/database/records/user_profiles", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "in.(u1)", r.URL.Query().Get("user_id"))
		w.Write([]byte(`[{"id":"pr1","user_id":"u1","username":"jane"}]`))
	})

	s := newTestService(t, f, "viewer")

	stories, err := s.ActiveStories(context.Background())
	require.NoError(t, err)
	require.Len(t, stories, 1)

	assert.Equal(t, "s1", stories[0].ID)
	require.NotNil(t, stories[0].Author)
	assert.Equal(t, "jane", stories[0].Author.Username)
}
