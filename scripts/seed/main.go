package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"

	"github.com/pictora/pictora/internal/auth"
	"github.com/pictora/pictora/internal/backend"
	"github.com/pictora/pictora/internal/content"
	"github.com/pictora/pictora/internal/session"
)

// nolint:lll,gochecknoglobals
var opts = struct {
	Backend string `long:"backend" env:"PICTORA_BACKEND" default:"http://localhost:7130/api" description:"backend base url"`
	Bucket  string `long:"bucket" env:"PICTORA_BUCKET" default:"pictora-media" description:"media bucket name"`
	Seed    string `long:"seed" env:"SEED" default:"seed.json" description:"path to seed file"`
}{}

type seed struct {
	Accounts []struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
		Name     string `json:"name"`
	} `json:"accounts"`
	Posts []struct {
		Owner    string   `json:"owner"`
		Caption  string   `json:"caption"`
		Location string   `json:"location"`
		Files    []string `json:"files"`
	} `json:"posts"`
	Follows []struct {
		Follower string `json:"follower"`
		Followee string `json:"followee"`
	} `json:"follows"`
	Comments []struct {
		Author    string `json:"author"`
		PostIndex int    `json:"post_index"`
		Text      string `json:"text"`
	} `json:"comments"`
}

func main() {
	parser := flags.NewParser(&opts, flags.Default)
	parser.ShortDescription = "seed"
	parser.LongDescription = "Demo data importer"

	_, err := parser.Parse()

	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			parser.WriteHelp(os.Stdout)
			os.Exit(0)
		}
		logrus.WithError(err).Fatal("error occurred while parsing flags")
	}

	logrus.Info("seed started")
	logrus.Infof("%+v", opts)

	b, err := os.ReadFile(opts.Seed)
	if err != nil {
		logrus.WithError(err).Fatal("failed to read seed file")
	}

	var s seed
	if err := json.Unmarshal(b, &s); err != nil {
		logrus.WithError(err).Fatal("failed to unmarshal seed file")
	}

	ctx := context.Background()

	store := &session.MemStore{}
	client := backend.New(opts.Backend, store)
	a := auth.New(client, store, nil)
	c := content.New(client, store, opts.Bucket)

	userIDs := make(map[string]string, len(s.Accounts))

	logrus.Info("import accounts")
	for _, acc := range s.Accounts {
		u, err := a.Register(ctx, acc.Email, acc.Password, acc.Username, acc.Name)
		if err != nil {
			logrus.WithError(err).WithField("email", acc.Email).Fatal("failed to register account")
		}
		userIDs[acc.Email] = u.ID
	}

	become := func(email string) {
		for _, acc := range s.Accounts {
			if acc.Email == email {
				if _, err := a.Login(ctx, acc.Email, acc.Password); err != nil {
					logrus.WithError(err).WithField("email", email).Fatal("failed to login")
				}
				return
			}
		}
		logrus.WithField("email", email).Fatal("unknown account in seed file")
	}

	logrus.Info("import posts")
	postIDs := make([]string, 0, len(s.Posts))
	for i, p := range s.Posts {
		become(p.Owner)

		files := make([]content.File, 0, len(p.Files))
		for _, path := range p.Files {
			f, err := os.Open(path)
			if err != nil {
				logrus.WithError(err).Fatal("failed to open seed media file")
			}
			defer f.Close()

			files = append(files, content.File{
				Name:        filepath.Base(path),
				ContentType: "image/jpeg",
				Content:     f,
			})
		}

		post, err := c.CreatePost(ctx, content.CreatePostParams{
			Caption:  p.Caption,
			Location: p.Location,
			Files:    files,
		})
		if err != nil {
			logrus.WithError(err).WithField("index", i).Fatal("failed to create post")
		}

		postIDs = append(postIDs, post.ID)
	}

	logrus.Info("import follows")
	for _, f := range s.Follows {
		become(f.Follower)

		followee, ok := userIDs[f.Followee]
		if !ok {
			logrus.WithField("email", f.Followee).Fatal("unknown followee in seed file")
		}

		if err := c.Follow(ctx, followee); err != nil {
			logrus.WithError(err).Fatal("failed to create follow")
		}
	}

	logrus.Info("import comments")
	for _, cm := range s.Comments {
		if cm.PostIndex < 0 || cm.PostIndex >= len(postIDs) {
			logrus.Fatal(fmt.Sprintf("comment post_index %d out of range", cm.PostIndex))
		}

		become(cm.Author)

		if _, err := c.AddComment(ctx, postIDs[cm.PostIndex], cm.Text); err != nil {
			logrus.WithError(err).Fatal("failed to add comment")
		}
	}

	logrus.Info("seed finished")
}
