package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/pictora/pictora/internal/backend"
	"github.com/pictora/pictora/internal/entities"
	"github.com/pictora/pictora/internal/session"
)

var log = logrus.WithField("layer", "auth")

const profilesTable = "user_profiles"

type svc struct {
	b *backend.Client
	s session.Store

	onSignedOut backend.UnauthorizedHandler
}

// New creates the auth service. onSignedOut is the navigation signal raised by
// Logout, it may be nil.
func New(b *backend.Client, s session.Store, onSignedOut backend.UnauthorizedHandler) Service {
	return &svc{b: b, s: s, onSignedOut: onSignedOut}
}

type authResponse struct {
	AccessToken string        `json:"accessToken"`
	User        entities.User `json:"user"`
}

type profileRow struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

func (s *svc) SignInURL(ctx context.Context, redirectURL string) (string, error) {
	var out struct {
		AuthURL string `json:"authUrl"`
	}

	q := url.Values{}
	q.Set("redirectUrl", redirectURL)

	if err := s.b.GetJSON(ctx, "/auth/oauth/google", q, &out); err != nil {
		return "", fmt.Errorf("failed to get sign-in url: %w", err)
	}

	return out.AuthURL, nil
}

func (s *svc) CompleteSignIn(ctx context.Context, query url.Values) (*SignInResult, error) {
	token, userID := query.Get("access_token"), query.Get("user_id")
	email, name := query.Get("email"), query.Get("name")

	if token == "" || userID == "" {
		return &SignInResult{Success: false}, nil
	}

	if err := s.s.Set(token, userID); err != nil {
		return nil, fmt.Errorf("failed to persist credentials: %w", err)
	}

	if _, err := s.Profile(ctx, userID); err != nil {
		if !errors.Is(err, backend.ErrNotFound) {
			return nil, fmt.Errorf("failed to check profile: %w", err)
		}

		username := usernameFromEmail(email)

		displayName := name
		if displayName == "" {
			displayName = username
		}

		if err := s.b.CreateRecords(ctx, profilesTable, []profileRow{{
			UserID:      userID,
			Username:    username,
			DisplayName: displayName,
		}}, nil); err != nil {
			return nil, fmt.Errorf("failed to create profile: %w", err)
		}
	}

	return &SignInResult{Success: true, UserID: userID, Email: email, Name: name}, nil
}

func (s *svc) Register(ctx context.Context, email, password, username, name string) (*entities.User, error) {
	var resp authResponse

	if err := s.b.PostJSON(ctx, "/auth/users", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
	}, &resp); err != nil {
		return nil, fmt.Errorf("failed to register: %w", err)
	}

	if err := s.s.Set(resp.AccessToken, resp.User.ID); err != nil {
		return nil, fmt.Errorf("failed to persist credentials: %w", err)
	}

	displayName := name
	if displayName == "" {
		displayName = username
	}

	// account creation and profile creation are two independent requests,
	// a failure here leaves an account without a profile
	if err := s.b.CreateRecords(ctx, profilesTable, []profileRow{{
		UserID:      resp.User.ID,
		Username:    username,
		DisplayName: displayName,
	}}, nil); err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return &resp.User, nil
}

func (s *svc) Login(ctx context.Context, email, password string) (*entities.User, error) {
	var resp authResponse

	if err := s.b.PostJSON(ctx, "/auth/sessions", map[string]string{
		"email":    email,
		"password": password,
	}, &resp); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	if err := s.s.Set(resp.AccessToken, resp.User.ID); err != nil {
		return nil, fmt.Errorf("failed to persist credentials: %w", err)
	}

	return &resp.User, nil
}

func (s *svc) CurrentUser(ctx context.Context) (*entities.User, error) {
	var out struct {
		User entities.User `json:"user"`
	}

	if err := s.b.GetJSON(ctx, "/auth/sessions/current", nil, &out); err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}

	return &out.User, nil
}

func (s *svc) Profile(ctx context.Context, userID string) (*entities.UserProfile, error) {
	var profiles []*entities.UserProfile

	if err := s.b.ListRecords(ctx, profilesTable, backend.NewQuery().Eq("user_id", userID), &profiles); err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	if len(profiles) == 0 {
		return nil, backend.ErrNotFound
	}

	return profiles[0], nil
}

func (s *svc) Logout() error {
	if err := s.s.Clear(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	log.Info("signed out")

	if s.onSignedOut != nil {
		s.onSignedOut()
	}

	return nil
}

// usernameFromEmail derives a username from the email local part, or falls
// back to a timestamp-based one when no email came with the callback.
func usernameFromEmail(email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}

	return fmt.Sprintf("user%d", time.Now().UnixMilli())
}
