// Package platform talks to the storefront's JSON API.
// It owns authentication and cookie persistence, and implements the
// reward store, purchase history and product catalog over HTTP.
package platform

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
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Platform errors.
var (
	ErrAuth              = errors.New("authentication failed")
	ErrTOTPRequired      = errors.New("two-factor code required")
	ErrUnexpectedStatus  = errors.New("unexpected response status")
	ErrMissingCredential = errors.New("username and password are required")
)

// Options configures a Client. Every field has a usable zero value
// except BaseURL.
type Options struct {
	BaseURL    string
	Username   string
	Password   string
	TOTP       string        // Two-factor code, only sent when the server asks for it
	CookiePath string        // Empty disables cookie persistence
	Timeout    time.Duration // Defaults to 30s
	HTTPClient *http.Client  // Optional; its Jar is replaced
}

// Client is an authenticated storefront session.
type Client struct {
	base    *url.URL
	http    *http.Client
	opts    Options
	cookies *CookieFile
}

// New creates a Client. It loads stored cookies but does not log in.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid platform base url %q", opts.BaseURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	httpClient.Jar = jar

	c := &Client{
		base: base,
		http: httpClient,
		opts: opts,
	}

	if opts.CookiePath != "" {
		c.cookies = NewCookieFile(opts.CookiePath)
		stored, err := c.cookies.Load()
		if err != nil {
			log.Warn().Err(err).Str("path", opts.CookiePath).Msg("Ignoring unreadable cookie file")
		} else if len(stored) > 0 {
			jar.SetCookies(base, stored)
		}
	}

	return c, nil
}

// Login makes sure the session is authenticated. A session restored from
// the cookie file is reused when the server still accepts it.
func (c *Client) Login(ctx context.Context) error {
	if c.cookies != nil {
		ok, err := c.sessionValid(ctx)
		if err != nil {
			return err
		}
		if ok {
			log.Debug().Msg("Reusing stored session")
			return nil
		}
	}

	if c.opts.Username == "" || c.opts.Password == "" {
		return ErrMissingCredential
	}

	var resp loginResponse
	err := c.do(ctx, http.MethodPost, "/api/login", loginRequest{
		Username: c.opts.Username,
		Password: c.opts.Password,
	}, &resp)
	if err != nil {
		return err
	}

	if resp.TOTPRequired {
		if c.opts.TOTP == "" {
			return ErrTOTPRequired
		}
		err = c.do(ctx, http.MethodPost, "/api/login/totp", totpRequest{
			Token: resp.Token,
			Code:  c.opts.TOTP,
		}, &resp)
		if err != nil {
			return err
		}
	}

	if !resp.Success {
		msg := resp.Error
		if msg == "" {
			msg = "login rejected"
		}
		return fmt.Errorf("%w: %s", ErrAuth, msg)
	}

	log.Info().Str("username", c.opts.Username).Msg("Logged in")

	if c.cookies != nil {
		if err := c.cookies.Save(c.http.Jar.Cookies(c.base)); err != nil {
			return fmt.Errorf("saving cookies: %w", err)
		}
		log.Debug().Str("path", c.cookies.Path()).Msg("Saved cookies")
	}
	return nil
}

func (c *Client) sessionValid(ctx context.Context) (bool, error) {
	if len(c.http.Jar.Cookies(c.base)) == 0 {
		return false, nil
	}
	err := c.do(ctx, http.MethodGet, "/api/me", nil, nil)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrAuth) {
		return false, nil
	}
	return false, err
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type totpRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

type loginResponse struct {
	Success      bool   `json:"success"`
	TOTPRequired bool   `json:"totp_required"`
	Token        string `json:"token"`
	Error        string `json:"error"`
}

// do sends a JSON request and decodes a JSON response into out.
// 401 and 403 map to ErrAuth; other non-2xx codes to ErrUnexpectedStatus.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, body)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading %s %s: %w", method, path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s %s returned %d", ErrAuth, method, path, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s: %w", method, path, err)
	}
	return nil
}
