package session

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"admctl/pkg/errors"
)

// Session owns the single persisted auth-token slot. It is created once and
// passed explicitly to whichever layer issues network calls; nothing reads
// the slot ambiently.
type Session struct {
	path string
}

// New creates a session backed by the token slot at path.
func New(path string) *Session {
	return &Session{path: path}
}

// Persist writes the bearer token into the slot, creating parent directories
// as needed.
func (s *Session) Persist(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token), 0o600)
}

// Token reads the persisted bearer token. An empty string means no session.
func (s *Session) Token() string {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// IsAuthenticated reports token presence only; expiry is not checked, the
// remote API is the authority on validity.
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Clear removes the token slot (logout).
func (s *Session) Clear() error {
	err := os.Remove(s.path)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// TokenSource exposes the slot as an oauth2 token source for authorized
// HTTP transports. The token is re-read per request so a re-login is picked
// up without rebuilding clients.
func (s *Session) TokenSource() oauth2.TokenSource {
	return tokenSource{session: s}
}

type tokenSource struct {
	session *Session
}

func (ts tokenSource) Token() (*oauth2.Token, error) {
	token := ts.session.Token()
	if token == "" {
		return nil, errors.NewAuthenticationError("no persisted session, log in first")
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

// Claims parses the persisted token's JWT claims without verifying the
// signature. Display use only (whoami); authorization stays server-side.
func (s *Session) Claims() (jwt.MapClaims, error) {
	token := s.Token()
	if token == "" {
		return nil, errors.NewAuthenticationError("no persisted session")
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, errors.NewAuthenticationError("persisted token is not a JWT")
	}
	return claims, nil
}
