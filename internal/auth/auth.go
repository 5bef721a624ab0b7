// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package auth holds the bearer credential used by the remote content
// service. The credential is persisted in the secrets directory so a login
// survives restarts, and it is dropped when the backend answers 401.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/pdiddy/research-hub/internal/secrets"
	"github.com/pdiddy/research-hub/pkg/types"
)

// DefaultTokenType is used when the backend or the secrets directory does
// not name one.
const DefaultTokenType = "bearer"

// ErrUnauthenticated is returned by operations that need a credential when
// the session has none, and after the backend rejected the credential.
var ErrUnauthenticated = errors.New("not logged in")

// Credential is an opaque bearer credential.
type Credential struct {
	Token string `json:"access_token"`
	Type  string `json:"token_type"`
}

// Header returns the Authorization header value ("<type> <token>").
func (c Credential) Header() string {
	typ := c.Type
	if typ == "" {
		typ = DefaultTokenType
	}
	return typ + " " + c.Token
}

// Valid reports whether the credential carries a token.
func (c Credential) Valid() bool { return c.Token != "" }

// Session holds the current credential. Safe for concurrent use.
type Session struct {
	dir string // secrets directory; empty disables persistence
	log io.Writer

	mu   sync.Mutex
	cred Credential
}

// NewSession returns a session persisted in dir, loaded from the
// research-hub-token and research-hub-token-type secrets.
func NewSession(dir string, s secrets.Secrets, log io.Writer) *Session {
	if log == nil {
		log = io.Discard
	}
	return &Session{
		dir: dir,
		log: log,
		cred: Credential{
			Token: s[secrets.KeyHubToken],
			Type:  s[secrets.KeyHubTokenType],
		},
	}
}

// Credential returns the current credential and whether one is set.
func (s *Session) Credential() (Credential, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred, s.cred.Valid()
}

// Login stores cred as the current credential and persists it.
func (s *Session) Login(cred Credential) error {
	if !cred.Valid() {
		return fmt.Errorf("%w: empty token", types.ErrValidation)
	}
	if cred.Type == "" {
		cred.Type = DefaultTokenType
	}
	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	if s.dir == "" {
		return nil
	}
	if err := secrets.Store(s.dir, secrets.KeyHubToken, cred.Token); err != nil {
		return err
	}
	return secrets.Store(s.dir, secrets.KeyHubTokenType, cred.Type)
}

// Logout drops the credential and its persisted copy.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.cred = Credential{}
	s.mu.Unlock()

	if s.dir == "" {
		return nil
	}
	if err := secrets.Remove(s.dir, secrets.KeyHubToken); err != nil {
		return err
	}
	return secrets.Remove(s.dir, secrets.KeyHubTokenType)
}

// Authorize sets the Authorization header on req when a credential is
// present. Requests without a credential are sent unauthenticated.
func (s *Session) Authorize(req *http.Request) {
	if cred, ok := s.Credential(); ok {
		req.Header.Set("Authorization", cred.Header())
	}
}

// Observe inspects a response. A 401 drops the credential and returns
// ErrUnauthenticated; any other status returns nil.
func (s *Session) Observe(resp *http.Response) error {
	if resp.StatusCode != http.StatusUnauthorized {
		return nil
	}
	fmt.Fprintf(s.log, "warning: %s rejected the credential, logging out\n", resp.Request.URL.Host)
	if err := s.Logout(); err != nil {
		fmt.Fprintf(s.log, "warning: %v\n", err)
	}
	return ErrUnauthenticated
}

// loginRequest mirrors the backend's login schema.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges email and password for a credential at baseURL/auth/login
// and stores it in s.
func Login(ctx context.Context, client *http.Client, baseURL, email, password string, s *Session) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", types.ErrValidation)
	}

	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("encoding login request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(baseURL, "/")+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var detail struct {
			Detail string `json:"detail"`
		}
		json.NewDecoder(resp.Body).Decode(&detail)
		if detail.Detail == "" {
			detail.Detail = "login failed, check your credentials"
		}
		return fmt.Errorf("login returned HTTP %d: %s", resp.StatusCode, detail.Detail)
	}

	var cred Credential
	if err := json.NewDecoder(resp.Body).Decode(&cred); err != nil {
		return fmt.Errorf("parsing login response: %w", err)
	}
	return s.Login(cred)
}
