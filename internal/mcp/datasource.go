package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/ascend/internal/api"
	"github.com/claude/ascend/internal/models"
	"github.com/claude/ascend/internal/session"
)

// ErrNotLoggedIn is returned when no session is stored locally.
var ErrNotLoggedIn = errors.New("not logged in")

// DataSource abstracts where the MCP tools read the user's profile from.
// Both SessionSource (backend API, local session) and HTTPClient (a running
// ascend dashboard) satisfy this interface.
type DataSource interface {
	Profile(ctx context.Context) (*models.UserProfile, error)
}

// ProfileFetcher is the part of the API client SessionSource needs.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID string) (*models.UserProfile, error)
}

// Sessions is the session store as seen by SessionSource.
type Sessions interface {
	Get() (session.Session, bool)
	Clear(ctx context.Context) error
}

// SessionSource reads the profile of the locally logged-in user.
type SessionSource struct {
	api      ProfileFetcher
	sessions Sessions
}

var _ DataSource = (*SessionSource)(nil)

// NewSessionSource creates a SessionSource.
func NewSessionSource(api ProfileFetcher, sessions Sessions) *SessionSource {
	return &SessionSource{api: api, sessions: sessions}
}

// Profile fetches the current user's profile. A rejected token clears the
// stored session.
func (s *SessionSource) Profile(ctx context.Context) (*models.UserProfile, error) {
	sess, ok := s.sessions.Get()
	if !ok {
		return nil, ErrNotLoggedIn
	}
	profile, err := s.api.FetchProfile(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			if cerr := s.sessions.Clear(ctx); cerr != nil {
				return nil, fmt.Errorf("clearing rejected session: %w", cerr)
			}
		}
		return nil, err
	}
	return profile, nil
}
