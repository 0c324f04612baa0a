package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/backend"
	"github.com/pictora/pictora/internal/content"
	"github.com/pictora/pictora/internal/session"
	"github.com/pictora/pictora/internal/view"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Backend      string `long:"backend" env:"PICTORA_BACKEND" default:"http://localhost:7130/api" description:"backend base url"`
	SessionFile  string `long:"session" env:"PICTORA_SESSION" description:"path to the session file, defaults to ~/.config/pictora/session.json"`
	Bucket       string `long:"bucket" env:"PICTORA_BUCKET" default:"pictora-media" description:"media bucket name"`
	CallbackAddr string `long:"callback.addr" env:"PICTORA_CALLBACK_ADDR" default:"localhost:8910" description:"address of the sign-in callback listener"`
	Location     string `long:"location" description:"location attached to a new post"`
	PageSize     int    `long:"page.size" default:"20" description:"feed page size"`

	LogLevel string `long:"log.level" env:"LOG_LEVEL" default:"info" description:"Log level" choice:"debug" choice:"info" choice:"warning" choice:"error"`
}{}

var errTerminated = errors.New("terminated")

const usage = `commands:
  register <email> <password> <username> [name]
  login <email> <password>
  signin
  logout
  whoami
  feed [page]
  post <caption> <file>...
  like <post-id>
  unlike <post-id>
  comments <post-id>
  comment <post-id> <text>
  profile <user-id>
  follow <user-id>
  unfollow <user-id>
  stories`

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "Pictora"
	parser.LongDescription = "Pictora is a client for the record/storage/auth backend.\n\n" + usage

	args, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	lvl, _ := logrus.ParseLevel(opts.LogLevel) // err will always be nil
	logrus.SetLevel(lvl)

	if len(args) == 0 {
		fmt.Println(usage)
		os.Exit(2)
	}

	store := mustGetStore()

	b := backend.New(opts.Backend, store, backend.WithUnauthorizedHandler(func() {
		fmt.Println("session expired, sign in again with `pictora login` or `pictora signin`")
	}))

	a := auth.New(b, store, nil)
	c := content.New(b, store, opts.Bucket)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	if err := run(ctx, args, store, a, c); err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}

// nolint: gocyclo
func run(ctx context.Context, args []string, store session.Store, a auth.Service, c content.Service) error {
	cmd, args := args[0], args[1:]

	switch cmd {
	case "register":
		if len(args) < 3 {
			return errors.New("usage: register <email> <password> <username> [name]")
		}
		name := ""
		if len(args) > 3 {
			name = args[3]
		}
		u, err := a.Register(ctx, args[0], args[1], args[2], name)
		if err != nil {
			return err
		}
		fmt.Printf("registered as %s (%s)\n", u.Email, u.ID)
		return nil

	case "login":
		if len(args) != 2 {
			return errors.New("usage: login <email> <password>")
		}
		u, err := a.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("signed in as %s (%s)\n", u.Email, u.ID)
		return nil

	case "signin":
		return runSignIn(ctx, a)

	case "logout":
		return a.Logout()

	case "whoami":
		return runWhoami(ctx, store, a)

	case "feed":
		page := 0
		if len(args) == 1 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("failed to parse page: %w", err)
			}
			page = v
		}
		return runFeed(ctx, c, page)

	case "post":
		if len(args) < 2 {
			return errors.New("usage: post <caption> <file>...")
		}
		return runPost(ctx, c, args[0], args[1:])

	case "like", "unlike":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <post-id>", cmd)
		}
		if cmd == "like" {
			return c.Like(ctx, args[0])
		}
		return c.Unlike(ctx, args[0])

	case "comments":
		if len(args) != 1 {
			return errors.New("usage: comments <post-id>")
		}
		return runComments(ctx, c, args[0])

	case "comment":
		if len(args) < 2 {
			return errors.New("usage: comment <post-id> <text>")
		}
		thread := view.NewCommentThread(c, args[0], nil)
		return thread.Add(ctx, strings.Join(args[1:], " "))

	case "profile":
		if len(args) != 1 {
			return errors.New("usage: profile <user-id>")
		}
		return runProfile(ctx, a, c, args[0])

	case "follow", "unfollow":
		if len(args) != 1 {
			return fmt.Errorf("usage: %s <user-id>", cmd)
		}
		if cmd == "follow" {
			return c.Follow(ctx, args[0])
		}
		return c.Unfollow(ctx, args[0])

	case "stories":
		return runStories(ctx, c)

	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func runSignIn(ctx context.Context, a auth.Service) error {
	redirectURL := fmt.Sprintf("http://%s/auth/callback", opts.CallbackAddr)

	u, err := a.SignInURL(ctx, redirectURL)
	if err != nil {
		return err
	}

	fmt.Printf("open the following url in a browser to sign in:\n\n  %s\n\nwaiting for the callback on %s...\n", u, opts.CallbackAddr)

	results := make(chan *auth.SignInResult, 1)

	r := chi.NewMux()
	r.Get("/auth/callback", func(w http.ResponseWriter, r *http.Request) {
		res, err := a.CompleteSignIn(r.Context(), r.URL.Query())
		if err != nil {
			logrus.WithError(err).Error("failed to complete sign-in")
			http.Error(w, "sign-in failed, check the terminal", http.StatusInternalServerError)
			results <- &auth.SignInResult{Success: false}
			return
		}

		if !res.Success {
			http.Error(w, "authentication failed, try again", http.StatusBadRequest)
			results <- res
			return
		}

		fmt.Fprintln(w, "signed in, you can close this tab")
		results <- res
	})

	srv := http.Server{Addr: opts.CallbackAddr, Handler: r}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var result *auth.SignInResult

	gr, ctx := errgroup.WithContext(ctx)
	gr.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	gr.Go(func() error {
		select {
		case result = <-results:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.WithError(err).Error("failed to shutdown callback listener")
		}

		if result == nil {
			return errTerminated
		}

		return nil
	})

	if err := gr.Wait(); err != nil {
		if errors.Is(err, errTerminated) {
			return errors.New("sign-in aborted")
		}
		return err
	}

	if !result.Success {
		return errors.New("authentication failed")
	}

	fmt.Printf("signed in as %s (%s)\n", result.Email, result.UserID)

	return nil
}

func runWhoami(ctx context.Context, store session.Store, a auth.Service) error {
	if !session.LoggedIn(store) {
		fmt.Println("not signed in")
		return nil
	}

	if session.TokenExpired(store.Token()) {
		fmt.Println("stored token is expired, sign in again")
	}

	u, err := a.CurrentUser(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)\n", u.Email, u.ID)

	return nil
}

func runFeed(ctx context.Context, c content.Service, page int) error {
	posts, err := c.ListPosts(ctx, opts.PageSize, page*opts.PageSize)
	if err != nil {
		return err
	}

	if len(posts) == 0 {
		fmt.Println("no posts")
		return nil
	}

	for _, p := range posts {
		liked := " "
		if p.Liked {
			liked = "*"
		}

		fmt.Printf("%s [%s] %s\n", liked, p.ID, view.AuthorLabel(p))
		if p.Caption != "" {
			fmt.Printf("    %s\n", p.Caption)
		}
		for _, m := range p.Media {
			fmt.Printf("    %s %s\n", m.MediaType, m.MediaURL)
		}
		fmt.Printf("    %d likes, %d comments\n", p.LikesCount, p.CommentsCount)
	}

	return nil
}

func runPost(ctx context.Context, c content.Service, caption string, paths []string) error {
	files := make([]content.File, 0, len(paths))
	opened := make([]*os.File, 0, len(paths))
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return fmt.Errorf("failed to open file: %w", err)
		}
		opened = append(opened, f)

		files = append(files, content.File{
			Name:        filepath.Base(p),
			ContentType: contentTypeByExt(p),
			Content:     f,
		})
	}

	post, err := c.CreatePost(ctx, content.CreatePostParams{
		Caption:  caption,
		Location: opts.Location,
		Files:    files,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created post %s with %d files\n", post.ID, len(files))

	return nil
}

func runComments(ctx context.Context, c content.Service, postID string) error {
	thread := view.NewCommentThread(c, postID, nil)
	if err := thread.Load(ctx); err != nil {
		return err
	}

	for _, v := range thread.Comments() {
		author := view.AnonymousLabel
		if v.Author != nil {
			author = v.Author.Username
		}

		fmt.Printf("[%s] %s: %s\n", v.CreatedAt.Format(time.RFC3339), author, v.Content)
	}

	return nil
}

func runProfile(ctx context.Context, a auth.Service, c content.Service, userID string) error {
	pv := view.NewProfileView(a, c, userID)
	if err := pv.Load(ctx); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			fmt.Println("user not found")
			return nil
		}
		return err
	}

	p := pv.Profile()

	following := ""
	if pv.Following() {
		following = " (following)"
	}

	fmt.Printf("%s%s\n", p.Username, following)
	if p.DisplayName != "" {
		fmt.Println(p.DisplayName)
	}
	if p.Bio != "" {
		fmt.Println(p.Bio)
	}
	fmt.Printf("%d posts, %d followers, %d following\n", p.PostsCount, p.FollowersCount, p.FollowingCount)

	for _, post := range pv.Posts() {
		fmt.Printf("  [%s] %s (%d likes, %d comments)\n", post.ID, post.Caption, post.LikesCount, post.CommentsCount)
	}

	return nil
}

func runStories(ctx context.Context, c content.Service) error {
	stories, err := c.ActiveStories(ctx)
	if err != nil {
		return err
	}

	if len(stories) == 0 {
		fmt.Println("no active stories")
		return nil
	}

	for _, s := range stories {
		author := view.AnonymousLabel
		if s.Author != nil {
			author = s.Author.Username
		}

		fmt.Printf("[%s] %s: %s %s (expires %s)\n", s.ID, author, s.MediaType, s.MediaURL, s.ExpiresAt.Format(time.RFC3339))
	}

	return nil
}

func mustGetStore() *session.FileStore {
	path := opts.SessionFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logrus.WithError(err).Fatal("failed to get home dir")
		}
		path = filepath.Join(home, ".config", "pictora", "session.json")
	}

	store, err := session.NewFileStore(path)
	if err != nil {
		logrus.WithError(err).Fatal("failed to open session store")
	}

	return store
}

func contentTypeByExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".webm":
		return "video/webm"
	default:
		return "image/jpeg"
	}
}
