// Package auth contains the auth access layer: session creation, registration,
// external sign-in and profile lookup.
package auth

import (
	"context"
	"net/url"

	"github.com/pictora/pictora/internal/entities"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

// SignInResult is the outcome of an external sign-in callback.
type SignInResult struct {
	Success bool
	UserID  string
	Email   string
	Name    string
}

// Service ...
type Service interface {
	SignInURL(ctx context.Context, redirectURL string) (string, error)
	CompleteSignIn(ctx context.Context, query url.Values) (*SignInResult, error)

	Register(ctx context.Context, email, password, username, name string) (*entities.User, error)
	Login(ctx context.Context, email, password string) (*entities.User, error)
	CurrentUser(ctx context.Context) (*entities.User, error)

	Profile(ctx context.Context, userID string) (*entities.UserProfile, error)

	Logout() error
}
