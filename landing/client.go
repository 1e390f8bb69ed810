package landing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"

	"peaks/app"
)

// sessionCookie is the cookie the API uses for its session token
const sessionCookie = "session"

// Paths are the API endpoints the client talks to
type Paths struct {
	Me       string
	Projects string
	Logout   string
	Login    string
	Signup   string
}

// DefaultPaths matches the routes registered in main.go
var DefaultPaths = Paths{
	Me:       "/api/auth/me",
	Projects: "/api/projects",
	Logout:   "/api/auth/logout",
	Login:    "/api/auth/login",
	Signup:   "/api/auth/signup",
}

// StatusError is a non-2xx response
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("status %d", e.Code)
}

// ErrListFailed is returned when the listing endpoint answers success:false
var ErrListFailed = errors.New("project listing unsuccessful")

// sessionJar keeps the session token apart from the other cookies so it is
// sent whether or not the API marked it Secure.
type sessionJar struct {
	http.CookieJar

	mu    sync.Mutex
	token string
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	var rest []*http.Cookie
	for _, c := range cookies {
		if c.Name != sessionCookie {
			rest = append(rest, c)
			continue
		}
		j.mu.Lock()
		if c.MaxAge < 0 {
			j.token = ""
		} else {
			j.token = c.Value
		}
		j.mu.Unlock()
	}
	if len(rest) > 0 {
		j.CookieJar.SetCookies(u, rest)
	}
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	cookies := j.CookieJar.Cookies(u)
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.token != "" {
		cookies = append(cookies, &http.Cookie{Name: sessionCookie, Value: j.token})
	}
	return cookies
}

// Client talks to the session and project endpoints on behalf of one
// visitor. Requests have no timeout of their own; cancel through ctx.
type Client struct {
	base  *url.URL
	jar   *sessionJar
	http  *http.Client
	Paths Paths
}

// NewClient returns a client for the API at baseURL
func NewClient(baseURL string) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api url %q must be absolute", baseURL)
	}

	cookies, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	jar := &sessionJar{CookieJar: cookies}

	return &Client{
		base:  base,
		jar:   jar,
		http:  &http.Client{Jar: jar},
		Paths: DefaultPaths,
	}, nil
}

// SetToken replaces the session token sent with every request.
// An empty token removes it.
func (c *Client) SetToken(token string) {
	c.jar.mu.Lock()
	c.jar.token = token
	c.jar.mu.Unlock()
}

// Token returns the current session token, which changes after Login or Signup
func (c *Client) Token() string {
	c.jar.mu.Lock()
	defer c.jar.mu.Unlock()
	return c.jar.token
}

// CheckSession returns the signed-in user, or nil if the API says there is none
func (c *Client) CheckSession(ctx context.Context) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, c.Paths.Me, nil, nil, &resp)

	var se *StatusError
	if errors.As(err, &se) && (se.Code == http.StatusUnauthorized || se.Code == http.StatusForbidden) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, nil
	}
	return resp.User, nil
}

// ListProjects fetches the user's projects and applies the field defaults
func (c *Client) ListProjects(ctx context.Context, userID string) ([]*Project, error) {
	var resp struct {
		Success  bool            `json:"success"`
		Projects []ProjectRecord `json:"projects"`
	}
	q := url.Values{"userId": {userID}}
	if err := c.do(ctx, http.MethodGet, c.Paths.Projects, q, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Projects == nil {
		return nil, ErrListFailed
	}

	now := time.Now()
	list := make([]*Project, 0, len(resp.Projects))
	for _, rec := range resp.Projects {
		list = append(list, DecodeProject(rec, now))
	}
	return list, nil
}

// Logout ends the session on the API and forgets the token
func (c *Client) Logout(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, c.Paths.Logout, nil, nil, nil)
	c.SetToken("")
	return err
}

// Login signs in with email and password
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	return c.authenticate(ctx, c.Paths.Login, map[string]string{
		"email":    email,
		"password": password,
	})
}

// Signup creates an account and signs in
func (c *Client) Signup(ctx context.Context, name, email, password string) (*User, error) {
	return c.authenticate(ctx, c.Paths.Signup, map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, path, nil, body, &resp); err != nil {
		return nil, err
	}
	if resp.User == nil || resp.User.ID == "" {
		return nil, errors.New("no user in response")
	}
	return resp.User, nil
}

// CreateProject asks the API to record a new project
func (c *Client) CreateProject(ctx context.Context, prompt, appType string) (*Project, error) {
	var resp struct {
		Success bool          `json:"success"`
		Project ProjectRecord `json:"project"`
	}
	body := map[string]string{"prompt": prompt, "type": appType}
	if err := c.do(ctx, http.MethodPost, c.Paths.Projects, nil, body, &resp); err != nil {
		return nil, err
	}
	if !resp.Success || resp.Project.ID == "" {
		return nil, errors.New("project not created")
	}
	return DecodeProject(resp.Project, time.Now()), nil
}

// do sends a JSON request and decodes a JSON response into out.
// Every call is recorded in the API log.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (err error) {
	u := c.base.ResolveReference(&url.URL{Path: path})
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	status := 0
	defer func() {
		app.RecordAPICall("landing", method, u.String(), status, time.Since(start), err)
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	status = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var msg struct {
			Error string `json:"error"`
		}
		if json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&msg) == nil {
			se.Message = msg.Error
		}
		return se
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
