package platform

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// CookieFile persists session cookies as YAML between runs.
type CookieFile struct {
	path string
}

type storedCookie struct {
	Name     string    `yaml:"name"`
	Value    string    `yaml:"value"`
	Path     string    `yaml:"path,omitempty"`
	Domain   string    `yaml:"domain,omitempty"`
	Expires  time.Time `yaml:"expires,omitempty"`
	Secure   bool      `yaml:"secure,omitempty"`
	HTTPOnly bool      `yaml:"http_only,omitempty"`
}

// NewCookieFile returns a CookieFile stored at path.
func NewCookieFile(path string) *CookieFile {
	return &CookieFile{path: path}
}

// Path returns the file location.
func (f *CookieFile) Path() string {
	return f.path
}

// Load reads stored cookies. A missing file yields no cookies.
// Expired cookies are dropped.
func (f *CookieFile) Load() ([]*http.Cookie, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading cookies: %w", err)
	}

	var stored []storedCookie
	if err := yaml.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parsing cookies: %w", err)
	}

	now := time.Now()
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, sc := range stored {
		if !sc.Expires.IsZero() && sc.Expires.Before(now) {
			continue
		}
		cookies = append(cookies, &http.Cookie{
			Name:     sc.Name,
			Value:    sc.Value,
			Path:     sc.Path,
			Domain:   sc.Domain,
			Expires:  sc.Expires,
			Secure:   sc.Secure,
			HttpOnly: sc.HTTPOnly,
		})
	}
	return cookies, nil
}

// Save writes cookies to the file, readable by the owner only.
func (f *CookieFile) Save(cookies []*http.Cookie) error {
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HttpOnly,
		})
	}

	data, err := yaml.Marshal(stored)
	if err != nil {
		return fmt.Errorf("encoding cookies: %w", err)
	}
	return os.WriteFile(f.path, data, 0o600)
}
