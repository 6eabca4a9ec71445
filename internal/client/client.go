// Package client implements the login form front end: a thin HTTP client for
// the auth API and the form state machine driving its UI states.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"
)

// Identity is the client-side cache of the logged-in user. It is derived
// from server confirmation and is not authoritative.
type Identity struct {
	UserID int64  `json:"user_id"`
	Login  string `json:"login"`
}

// API calls the auth endpoints, carrying the session cookie between calls.
type API struct {
	base string
	hc   *http.Client
}

// NewAPI constructs an API client rooted at baseURL.
func NewAPI(baseURL string) (*API, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &API{
		base: strings.TrimRight(baseURL, "/"),
		hc:   &http.Client{Jar: jar, Timeout: 15 * time.Second},
	}, nil
}

// Login submits credentials and returns the HTTP status code. The session
// cookie, when issued, is retained by the client's jar.
func (a *API) Login(ctx context.Context, login, password string) (int, error) {
	body, err := json.Marshal(map[string]string{"login": login, "password": password})
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.base+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := a.hc.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	return res.StatusCode, nil
}

// CurrentUser fetches the authenticated identity for the current session.
func (a *API) CurrentUser(ctx context.Context) (*Identity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.base+"/auth/user", nil)
	if err != nil {
		return nil, err
	}

	res, err := a.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("client: current user: status %d", res.StatusCode)
	}

	var payload struct {
		Message string    `json:"message"`
		User    *Identity `json:"user"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.User == nil {
		return nil, fmt.Errorf("client: current user: missing identity")
	}
	return payload.User, nil
}

// Logout destroys the current session.
func (a *API) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.base+"/auth/logout", nil)
	if err != nil {
		return err
	}

	res, err := a.hc.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = res.Body.Close()
	}()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("client: logout: status %d", res.StatusCode)
	}
	return nil
}
